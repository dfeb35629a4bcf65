package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/smartcam/internal/track"
)

// SnapshotFunc returns the current rendered frame as an encoded JPEG, for
// highlight capture. May be nil when no render surface exists (replay).
type SnapshotFunc func() ([]byte, error)

// AggregatorConfig tunes peak detection and highlight capture.
type AggregatorConfig struct {
	// MotionThreshold is the baseline motion level; a frame is a motion peak
	// when motion exceeds threshold + margin.
	MotionThreshold  float64
	PeakMotionMargin float64
	// PeakEmotionScore is the dominant-emotion probability above which a
	// non-neutral expression counts as a peak.
	PeakEmotionScore float64
	// SnapshotCooldown is the minimum interval between captured highlights.
	SnapshotCooldown time.Duration
}

// DefaultAggregatorConfig returns the interactive-camera tuning.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		MotionThreshold:  8,
		PeakMotionMargin: 10,
		PeakEmotionScore: 0.9,
		SnapshotCooldown: 4 * time.Second,
	}
}

// Aggregator folds per-frame tracker output into a Report. Frame updates
// arrive from the single frame-processing goroutine; the mutex only protects
// read-only snapshots and speech/name updates arriving from request handlers.
type Aggregator struct {
	mu  sync.Mutex
	cfg AggregatorConfig

	report         Report
	edges          map[string]int
	edgePairs      map[string]Edge
	lastSpeaker    *int64
	lastSnapshotAt time.Time
	snap           SnapshotFunc
}

// NewAggregator opens a session starting now.
func NewAggregator(cfg AggregatorConfig, preset string, snap SnapshotFunc, now time.Time) *Aggregator {
	return &Aggregator{
		cfg:  cfg,
		snap: snap,
		report: Report{
			ID:        uuid.NewString(),
			Preset:    preset,
			StartedAt: now,
			KPIs: KPIs{
				DominantEmotions: make(map[string]int),
			},
			Highlights: []Highlight{},
			Timeline:   []Event{},
			Speech:     []SpeechEntry{},
		},
		edges:     make(map[string]int),
		edgePairs: make(map[string]Edge),
	}
}

// OnFrame records one processed frame: appends the face-count event, updates
// the emotion histogram, tracks speaker transitions, and captures a highlight
// on peak frames (cooldown-limited). bankSize is the current confirmed
// identity population. No-op after Close.
func (a *Aggregator) OnFrame(tracks []track.FaceTrack, motion float64, bankSize int, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.report.Closed() {
		return
	}

	a.report.Timeline = append(a.report.Timeline, Event{At: now, Kind: EventFace, Faces: len(tracks)})

	for _, ft := range tracks {
		if ft.Emotion != track.EmotionNeutral {
			a.report.KPIs.DominantEmotions[ft.Emotion]++
		}
	}

	a.observeSpeaker(tracks, now)

	peak := motion > a.cfg.MotionThreshold+a.cfg.PeakMotionMargin
	for _, ft := range tracks {
		if ft.Emotion != track.EmotionNeutral && ft.EmotionScore > a.cfg.PeakEmotionScore {
			peak = true
			break
		}
	}
	if peak {
		a.report.KPIs.Peaks++
		if now.Sub(a.lastSnapshotAt) > a.cfg.SnapshotCooldown {
			a.captureHighlight(now)
		}
	}

	// Cumulative mean over the first track's motion only. Known
	// simplification carried over from the product behavior; see DESIGN.md.
	first := 0.0
	if len(tracks) > 0 {
		first = tracks[0].Motion
	}
	n := len(a.report.Timeline)
	prevN := n - 1
	if prevN < 1 {
		prevN = 1
	}
	a.report.KPIs.AvgMotion = (a.report.KPIs.AvgMotion*float64(prevN) + first) / float64(max(1, n))

	if bankSize > a.report.KPIs.UniqueFaces {
		a.report.KPIs.UniqueFaces = bankSize
	}
}

// observeSpeaker tracks the current speaker (lowest-index resolved speaking
// track) and records a transition edge plus a speakingStart event when the
// speaker changes from one resolved identity to another.
func (a *Aggregator) observeSpeaker(tracks []track.FaceTrack, now time.Time) {
	var current *int64
	for _, ft := range tracks {
		if !ft.Speaking {
			continue
		}
		if id, ok := ft.ID.ID(); ok {
			current = &id
			break
		}
	}

	if current != nil && a.lastSpeaker != nil && *current != *a.lastSpeaker {
		key := fmt.Sprintf("%d->%d", *a.lastSpeaker, *current)
		a.edges[key]++
		a.edgePairs[key] = Edge{From: *a.lastSpeaker, To: *current, Count: a.edges[key]}
		a.report.KPIs.SpeakingTurns++
		a.report.Timeline = append(a.report.Timeline, Event{At: now, Kind: EventSpeakingStart, Face: *current})
	}
	a.lastSpeaker = current
}

// captureHighlight grabs the current rendered frame and appends a snapshot
// event plus a highlight entry. A capture failure skips the highlight but
// never fails the frame.
func (a *Aggregator) captureHighlight(now time.Time) {
	if a.snap == nil {
		return
	}
	img, err := a.snap()
	if err != nil || len(img) == 0 {
		return
	}
	const note = "Highlight moment"
	a.lastSnapshotAt = now
	a.report.Timeline = append(a.report.Timeline, Event{At: now, Kind: EventSnapshot, Note: note, Image: img})
	a.report.Highlights = append(a.report.Highlights, Highlight{At: now, Note: note, Image: img})
}

// AddSpeech appends a transcribed segment bound to the given speaker.
// Rejected once the session is closed.
func (a *Aggregator) AddSpeech(now time.Time, speaker *int64, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.report.Closed() || text == "" {
		return
	}
	a.report.Speech = append(a.report.Speech, SpeechEntry{At: now, SpeakerID: speaker, Text: text})
}

// CurrentSpeaker returns the identity currently speaking, or nil.
func (a *Aggregator) CurrentSpeaker() *int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastSpeaker == nil {
		return nil
	}
	id := *a.lastSpeaker
	return &id
}

// Close stamps the end time and duration. Idempotent; every mutation after
// the first Close is rejected.
func (a *Aggregator) Close(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.report.Closed() {
		return
	}
	end := now
	a.report.EndedAt = &end
	dur := int(now.Sub(a.report.StartedAt).Round(time.Second) / time.Second)
	if dur < 1 {
		dur = 1
	}
	a.report.DurationSec = dur
	a.report.SocialGraph = a.socialGraphLocked()
}

// Snapshot returns a copy of the report safe for concurrent readers. Slices
// are copied; highlight image bytes are shared (they are never mutated).
func (a *Aggregator) Snapshot() Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.report
	r.Timeline = append([]Event(nil), a.report.Timeline...)
	r.Speech = append([]SpeechEntry(nil), a.report.Speech...)
	r.Highlights = append([]Highlight(nil), a.report.Highlights...)
	r.KPIs.DominantEmotions = make(map[string]int, len(a.report.KPIs.DominantEmotions))
	for k, v := range a.report.KPIs.DominantEmotions {
		r.KPIs.DominantEmotions[k] = v
	}
	r.SocialGraph = a.socialGraphLocked()
	return r
}

func (a *Aggregator) socialGraphLocked() []Edge {
	out := make([]Edge, 0, len(a.edgePairs))
	for _, e := range a.edgePairs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
