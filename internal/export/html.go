package export

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/kozaktomas/smartcam/internal/session"
)

//go:embed templates/report.html
var templateFS embed.FS

// htmlData is the root data passed to the report template.
type htmlData struct {
	Report    session.Report
	Duration  string
	Emotions  []emotionCount
	Generated string
}

type emotionCount struct {
	Label string
	Count int
}

// WriteHTML renders the report as a standalone HTML page with inlined
// highlight images.
func WriteHTML(w io.Writer, report session.Report) error {
	funcMap := template.FuncMap{
		"fmtTime": func(t time.Time) string {
			return t.Format("15:04:05")
		},
		"inlineImage": func(data []byte) template.URL {
			return template.URL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data))
		},
		"speaker": func(id *int64) string {
			if id == nil {
				return "unknown"
			}
			return fmt.Sprintf("face %d", *id)
		},
	}

	tmpl, err := template.New("report.html").Funcs(funcMap).ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}

	emotions := make([]emotionCount, 0, len(report.KPIs.DominantEmotions))
	for label, count := range report.KPIs.DominantEmotions {
		emotions = append(emotions, emotionCount{Label: label, Count: count})
	}
	sort.Slice(emotions, func(i, j int) bool {
		if emotions[i].Count != emotions[j].Count {
			return emotions[i].Count > emotions[j].Count
		}
		return emotions[i].Label < emotions[j].Label
	})

	data := htmlData{
		Report:    report,
		Duration:  (time.Duration(report.DurationSec) * time.Second).String(),
		Emotions:  emotions,
		Generated: time.Now().Format(time.RFC1123),
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
