package track

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"time"
)

// DetectMode selects the detector call cadence tier.
type DetectMode string

const (
	// ModeLight requests box + landmarks + expressions only.
	ModeLight DetectMode = "light"
	// ModeDeep additionally requests appearance descriptors.
	ModeDeep DetectMode = "deep"
)

// DetectOptions parametrize a single detector invocation.
type DetectOptions struct {
	Mode         DetectMode
	MinScore     float64
	MaxInputSize int
}

// Detector is the external face-inference capability. Implementations must
// return an empty slice (not an error) when no face is found or the model is
// unavailable for a frame.
type Detector interface {
	Detect(ctx context.Context, frame []byte, opts DetectOptions) ([]Detection, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, frame []byte, opts DetectOptions) ([]Detection, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, frame []byte, opts DetectOptions) ([]Detection, error) {
	return f(ctx, frame, opts)
}

// Frame is one captured video frame handed to the tracker.
type Frame struct {
	Data []byte // encoded JPEG or PNG
	At   time.Time
}

// Tracker runs the per-frame pipeline: detection, filtering, re-ID matching,
// candidate promotion, behavioral derivation, and motion. All state is owned
// by the instance; construct one per session and discard it at session end.
type Tracker struct {
	cfg    Config
	det    Detector
	bank   *Bank
	motion *MotionEstimator
	speak  speakCounter
	frames int
}

// New creates a tracker with its own identity memory and candidate pool.
func New(cfg Config, det Detector) *Tracker {
	return &Tracker{
		cfg:    cfg,
		det:    det,
		bank:   NewBank(cfg),
		motion: NewMotionEstimator(cfg.MotionChangedDelta),
		speak:  make(speakCounter),
	}
}

// Bank exposes the identity memory for read-only display, name assignment,
// and archival. It must not be mutated concurrently with Process.
func (t *Tracker) Bank() *Bank {
	return t.bank
}

// Process runs one frame through the pipeline. Identity memory and the
// candidate pool are mutated in place; the returned tracks are ephemeral.
func (t *Tracker) Process(ctx context.Context, frame Frame) (Result, error) {
	img, _, err := image.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		return Result{}, fmt.Errorf("decoding frame: %w", err)
	}
	frameHeight := img.Bounds().Dy()

	t.frames++
	mode := ModeLight
	if t.cfg.DeepEvery > 0 && t.frames%t.cfg.DeepEvery == 0 {
		mode = ModeDeep
	}

	detections, err := t.det.Detect(ctx, frame.Data, DetectOptions{
		Mode:     mode,
		MinScore: t.cfg.MinScore,
	})
	if err != nil {
		return Result{}, fmt.Errorf("detecting faces: %w", err)
	}

	detections = t.filterAndRank(detections, frameHeight)

	now := frame.At
	if now.IsZero() {
		now = time.Now()
	}

	for _, id := range t.bank.EvictExpired(now) {
		t.speak.forget(id)
	}

	motion := t.motion.Update(img)

	tracks := make([]FaceTrack, 0, len(detections))
	for _, det := range detections {
		if ft, ok := t.trackDetection(det, frameHeight, motion, mode, now); ok {
			tracks = append(tracks, ft)
		}
	}

	return Result{Tracks: tracks, Motion: motion, At: now}, nil
}

// filterAndRank applies the confidence and size floors, ranks the survivors
// by box height descending, and caps the list. The cap bounds per-frame cost
// in crowd scenes.
func (t *Tracker) filterAndRank(detections []Detection, frameHeight int) []Detection {
	kept := detections[:0]
	for _, d := range detections {
		if d.Score < t.cfg.MinScore {
			continue
		}
		if HeightRatio(d.Box, frameHeight) < t.cfg.MinHeightRatio {
			continue
		}
		kept = append(kept, d)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Box.Height > kept[j].Box.Height
	})
	if len(kept) > t.cfg.MaxFaces {
		kept = kept[:t.cfg.MaxFaces]
	}
	return kept
}

// trackDetection resolves one surviving detection into a FaceTrack, or
// reports false when the detection only fed a candidate and must not surface
// this frame (suppresses flicker from unconfirmed identities).
func (t *Tracker) trackDetection(det Detection, frameHeight int, motion float64, mode DetectMode, now time.Time) (FaceTrack, bool) {
	emotion, score := DominantEmotion(det.Expressions)
	ratio := MouthOpenRatio(det.Landmarks)
	gaze := GazeFrom(det.Landmarks)
	distance := t.cfg.DistanceBucket(HeightRatio(det.Box, frameHeight))

	base := FaceTrack{
		Box:          det.Box,
		Emotion:      emotion,
		EmotionScore: score,
		Motion:       motion,
		Gaze:         gaze,
		Distance:     distance,
	}

	if mode != ModeDeep || len(det.Descriptor) == 0 {
		// Light frame: the face cannot be cross-frame re-identified yet, but
		// behavioral attributes still render.
		base.ID = Unresolved()
		base.Speaking = ratio > t.cfg.SpeakOpenRatio
		return base, true
	}

	if id, _, ok := t.bank.FindBestMatch(det.Descriptor); ok {
		t.bank.Refresh(id, det.Descriptor, now)
		base.ID = Identified(id)
		base.Name = t.bank.Name(id)
		base.Speaking = t.speak.observe(id, ratio > t.cfg.SpeakOpenRatio) >= t.cfg.SpeakMinFrames
		return base, true
	}

	if cand := t.bank.MatchCandidate(det.Descriptor, det.Box); cand != nil {
		t.bank.Corroborate(cand, det.Descriptor, det.Box, now)
		if cand.Frames < t.cfg.ConfirmFrames {
			return FaceTrack{}, false
		}
		id := t.bank.Promote(cand, now)
		base.ID = Identified(id)
		base.Speaking = t.speak.observe(id, ratio > t.cfg.SpeakOpenRatio) >= t.cfg.SpeakMinFrames
		return base, true
	}

	t.bank.AddCandidate(det.Descriptor, det.Box, now)
	return FaceTrack{}, false
}
