package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/smartcam/internal/session"
)

func sampleReport() session.Report {
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	speaker := int64(2)
	return session.Report{
		ID:          "sess-1",
		Preset:      "interactive",
		StartedAt:   start,
		EndedAt:     &end,
		DurationSec: 90,
		KPIs: session.KPIs{
			UniqueFaces:      2,
			Peaks:            3,
			SpeakingTurns:    1,
			AvgMotion:        4.2,
			DominantEmotions: map[string]int{"happy": 12, "surprised": 3},
		},
		Timeline: []session.Event{
			{At: start.Add(time.Second), Kind: session.EventFace, Faces: 2},
			{At: start.Add(30 * time.Second), Kind: session.EventSpeakingStart, Face: 2},
			{At: start.Add(60 * time.Second), Kind: session.EventSnapshot, Note: "Highlight moment", Image: []byte{1, 2, 3}},
		},
		Speech: []session.SpeechEntry{
			{At: start.Add(10 * time.Second), SpeakerID: &speaker, Text: "hello\nthere"},
			{At: start.Add(70 * time.Second), SpeakerID: nil, Text: "off camera"},
		},
		Highlights: []session.Highlight{
			{At: start.Add(60 * time.Second), Note: "Highlight moment", Image: []byte{1, 2, 3}},
		},
		SocialGraph: []session.Edge{{From: 1, To: 2, Count: 1}},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded session.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ID != "sess-1" || decoded.KPIs.UniqueFaces != 2 {
		t.Errorf("roundtrip lost data: %+v", decoded)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("output should be indented")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 6 { // header + 3 timeline + 2 speech
		t.Fatalf("rows = %d, want 6", len(records))
	}
	if got := strings.Join(records[0], ","); got != "t,kind,meta" {
		t.Errorf("header = %q", got)
	}

	// Rows are merged chronologically: face, speech, speakingStart,
	// snapshot, speech.
	wantKinds := []string{"face", "speech", "speakingStart", "snapshot", "speech"}
	for i, kind := range wantKinds {
		if records[i+1][1] != kind {
			t.Errorf("row %d kind = %q, want %q", i+1, records[i+1][1], kind)
		}
	}

	if records[1][2] != "2" {
		t.Errorf("face meta = %q, want face count", records[1][2])
	}
	if records[2][2] != "2: hello there" {
		t.Errorf("speech meta = %q, newline should collapse to space", records[2][2])
	}
	if records[5][2] != "unknown: off camera" {
		t.Errorf("unbound speech meta = %q", records[5][2])
	}

	// Timestamps parse and never decrease.
	var prev time.Time
	for i, rec := range records[1:] {
		at, err := time.Parse(time.RFC3339Nano, rec[0])
		if err != nil {
			t.Fatalf("row %d timestamp %q: %v", i+1, rec[0], err)
		}
		if at.Before(prev) {
			t.Errorf("row %d out of order", i+1)
		}
		prev = at
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"sess-1",
		"interactive",
		"1m30s",
		"happy",
		"data:image/jpeg;base64,",
		"face 2",  // bound speech speaker
		"unknown", // unbound speech speaker
		"off camera",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestWriteHTMLEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	report := session.Report{
		ID:        "empty",
		StartedAt: time.Now(),
		KPIs:      session.KPIs{DominantEmotions: map[string]int{}},
	}
	if err := WriteHTML(&buf, report); err != nil {
		t.Fatalf("WriteHTML on empty report: %v", err)
	}
}
