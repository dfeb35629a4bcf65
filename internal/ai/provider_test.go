package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/smartcam/internal/session"
)

func TestBuildSessionDigest(t *testing.T) {
	start := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	speaker := int64(1)
	report := session.Report{
		ID:          "sess-1",
		DurationSec: 125,
		KPIs: session.KPIs{
			UniqueFaces:      3,
			Peaks:            2,
			SpeakingTurns:    4,
			AvgMotion:        6.55,
			DominantEmotions: map[string]int{"happy": 10, "surprised": 2, "angry": 2},
		},
		SocialGraph: []session.Edge{{From: 1, To: 2, Count: 3}},
		Highlights: []session.Highlight{
			{At: start.Add(30 * time.Second), Note: "Highlight moment", Image: []byte{1, 2, 3}},
		},
		Speech: []session.SpeechEntry{
			{At: start.Add(10 * time.Second), SpeakerID: &speaker, Text: "good morning"},
			{At: start.Add(20 * time.Second), SpeakerID: nil, Text: "who said that"},
		},
	}

	digest := buildSessionDigest(report)

	for _, want := range []string{
		"Session duration: 2m5s",
		"Unique faces seen: 3",
		"Peak moments: 2",
		"Speaking turns: 4",
		"Average motion: 6.6%",
		"happy=10",
		"face 1 -> face 2 (3 times)",
		"14:00:30 Highlight moment",
		"[14:00:10] face 1: good morning",
		"unknown: who said that",
	} {
		if !strings.Contains(digest, want) {
			t.Errorf("digest missing %q\n%s", want, digest)
		}
	}

	// Emotions sorted by count desc, ties alphabetical.
	if !strings.Contains(digest, "happy=10 angry=2 surprised=2") {
		t.Errorf("emotions not ordered by count then label:\n%s", digest)
	}

	// Raw image bytes never leak into the prompt.
	if strings.Contains(digest, string([]byte{1, 2, 3})) {
		t.Error("digest should not contain image bytes")
	}
}

func TestBuildSessionDigestEmptyReport(t *testing.T) {
	digest := buildSessionDigest(session.Report{})

	if !strings.Contains(digest, "Unique faces seen: 0") {
		t.Errorf("digest = %q", digest)
	}
	for _, absent := range []string{"Emotions observed", "Speaker transitions", "Highlights:", "Transcript:"} {
		if strings.Contains(digest, absent) {
			t.Errorf("empty report digest should not contain %q", absent)
		}
	}
}
