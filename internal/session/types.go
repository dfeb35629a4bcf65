// Package session accumulates per-frame tracker output into a session
// report: running KPIs, a timeline of discrete events, speech segments, and
// highlight snapshots.
package session

import (
	"time"
)

// EventKind labels a timeline entry.
type EventKind string

const (
	EventFace          EventKind = "face"
	EventSpeakingStart EventKind = "speakingStart"
	EventSpeakingStop  EventKind = "speakingStop"
	EventSnapshot      EventKind = "snapshot"
)

// Event is one entry in the append-only session timeline.
type Event struct {
	At    time.Time `json:"t"`
	Kind  EventKind `json:"kind"`
	Faces int       `json:"faces,omitempty"`
	Face  int64     `json:"face,omitempty"`
	Note  string    `json:"note,omitempty"`
	Image []byte    `json:"image,omitempty"`
}

// SpeechEntry binds a transcribed text segment to the identity that was
// speaking when the segment arrived, or to nobody.
type SpeechEntry struct {
	At        time.Time `json:"t"`
	SpeakerID *int64    `json:"speakerId"`
	Text      string    `json:"text"`
}

// Highlight is a captured peak moment. Image holds the encoded frame; URL is
// set when the upload collaborator produced a shareable link.
type Highlight struct {
	At    time.Time `json:"t"`
	Note  string    `json:"note"`
	Image []byte    `json:"image,omitempty"`
	URL   string    `json:"url,omitempty"`
}

// KPIs are the running session aggregates.
type KPIs struct {
	UniqueFaces int `json:"uniqueFaces"`
	Peaks       int `json:"peaks"`
	// SpeakingTurns counts speaker changes between two resolved identities.
	SpeakingTurns int `json:"speakingTurns"`
	// AvgMotion is a cumulative mean of the first track's motion per frame.
	AvgMotion float64 `json:"avgMotion"`
	// DominantEmotions counts non-neutral dominant emotions across all
	// tracked faces and frames.
	DominantEmotions map[string]int `json:"dominantEmotions"`
}

// Edge is one arc of the speaker-transition graph.
type Edge struct {
	From  int64 `json:"from"`
	To    int64 `json:"to"`
	Count int   `json:"count"`
}

// Report is the full session record. It is appended to on every frame while
// the session runs and frozen once closed.
type Report struct {
	ID          string        `json:"id"`
	Preset      string        `json:"preset,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	EndedAt     *time.Time    `json:"endedAt,omitempty"`
	DurationSec int           `json:"durationSec,omitempty"`
	Highlights  []Highlight   `json:"highlights"`
	KPIs        KPIs          `json:"kpis"`
	Timeline    []Event       `json:"timeline"`
	Speech      []SpeechEntry `json:"speech"`
	SocialGraph []Edge        `json:"socialGraph,omitempty"`
	UploadURL   string        `json:"uploadUrl,omitempty"`
}

// Closed reports whether the session has ended.
func (r Report) Closed() bool {
	return r.EndedAt != nil
}
