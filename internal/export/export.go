// Package export renders a finished session report into portable formats:
// pretty-printed JSON, a flat CSV timeline, and a standalone HTML page.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/smartcam/internal/session"
)

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, report session.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteCSV flattens the timeline and speech segments into one chronological
// CSV stream with columns t, kind, meta.
func WriteCSV(w io.Writer, report session.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t", "kind", "meta"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	type row struct {
		at   time.Time
		kind string
		meta string
	}
	rows := make([]row, 0, len(report.Timeline)+len(report.Speech))
	for _, ev := range report.Timeline {
		rows = append(rows, row{ev.At, string(ev.Kind), eventMeta(ev)})
	}
	for _, sp := range report.Speech {
		speaker := "unknown"
		if sp.SpeakerID != nil {
			speaker = strconv.FormatInt(*sp.SpeakerID, 10)
		}
		// Keep speech text on one line so the row survives naive parsers.
		text := strings.ReplaceAll(sp.Text, "\n", " ")
		rows = append(rows, row{sp.At, "speech", speaker + ": " + text})
	}
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].at.Before(rows[j-1].at); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}

	for _, r := range rows {
		record := []string{r.at.Format(time.RFC3339Nano), r.kind, r.meta}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func eventMeta(ev session.Event) string {
	switch ev.Kind {
	case session.EventFace:
		return strconv.Itoa(ev.Faces)
	case session.EventSpeakingStart, session.EventSpeakingStop:
		return strconv.FormatInt(ev.Face, 10)
	case session.EventSnapshot:
		return ev.Note
	}
	return ev.Note
}
