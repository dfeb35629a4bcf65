// Package ai turns a finished session report into a short natural language
// summary through an LLM backend.
package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kozaktomas/smartcam/internal/session"
)

// Provider defines the interface for summary backends.
type Provider interface {
	Name() string
	SummarizeSession(ctx context.Context, report session.Report) (string, error)
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token usage across summary calls.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// buildSessionDigest flattens a report into the compact plain text handed to
// the model. Images are left out; only the numbers and the transcript go in.
func buildSessionDigest(report session.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session duration: %s\n", (time.Duration(report.DurationSec) * time.Second).String())
	fmt.Fprintf(&b, "Unique faces seen: %d\n", report.KPIs.UniqueFaces)
	fmt.Fprintf(&b, "Peak moments: %d\n", report.KPIs.Peaks)
	fmt.Fprintf(&b, "Speaking turns: %d\n", report.KPIs.SpeakingTurns)
	fmt.Fprintf(&b, "Average motion: %.1f%%\n", report.KPIs.AvgMotion)

	if len(report.KPIs.DominantEmotions) > 0 {
		labels := make([]string, 0, len(report.KPIs.DominantEmotions))
		for label := range report.KPIs.DominantEmotions {
			labels = append(labels, label)
		}
		sort.Slice(labels, func(i, j int) bool {
			ci, cj := report.KPIs.DominantEmotions[labels[i]], report.KPIs.DominantEmotions[labels[j]]
			if ci != cj {
				return ci > cj
			}
			return labels[i] < labels[j]
		})
		b.WriteString("Emotions observed (with counts):")
		for _, label := range labels {
			fmt.Fprintf(&b, " %s=%d", label, report.KPIs.DominantEmotions[label])
		}
		b.WriteString("\n")
	}

	if len(report.SocialGraph) > 0 {
		b.WriteString("Speaker transitions:\n")
		for _, edge := range report.SocialGraph {
			fmt.Fprintf(&b, "  face %d -> face %d (%d times)\n", edge.From, edge.To, edge.Count)
		}
	}

	if len(report.Highlights) > 0 {
		b.WriteString("Highlights:\n")
		for _, h := range report.Highlights {
			fmt.Fprintf(&b, "  %s %s\n", h.At.Format("15:04:05"), h.Note)
		}
	}

	if len(report.Speech) > 0 {
		b.WriteString("Transcript:\n")
		for _, sp := range report.Speech {
			speaker := "unknown"
			if sp.SpeakerID != nil {
				speaker = fmt.Sprintf("face %d", *sp.SpeakerID)
			}
			fmt.Fprintf(&b, "  [%s] %s: %s\n", sp.At.Format("15:04:05"), speaker, sp.Text)
		}
	}

	return b.String()
}
