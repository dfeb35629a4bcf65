package track

import "time"

// Config holds the tracker tuning knobs. Values mirror what works for a
// laptop camera at ~7fps processing cadence; presets in internal/config
// override them for other capture setups.
type Config struct {
	// MaxFaces caps the number of faces tracked per frame. Detections are
	// ranked by box height so the cap drops the smallest faces first.
	MaxFaces int

	// DeepEvery requests appearance descriptors every Nth frame only;
	// descriptor extraction is the most expensive detector call.
	DeepEvery int

	// MinScore discards detections below this confidence.
	MinScore float64

	// MinHeightRatio discards faces smaller than this fraction of the frame
	// height.
	MinHeightRatio float64

	// ReIDThreshold is the maximum cosine distance for a descriptor to match
	// a stored identity or candidate.
	ReIDThreshold float64

	// ConfirmFrames is the number of corroborating deep frames required to
	// promote a candidate into a confirmed identity.
	ConfirmFrames int

	// IdentityTTL evicts identities not re-seen within this window.
	IdentityTTL time.Duration

	// CandidateTTL evicts candidates not corroborated within this window.
	// Much shorter than IdentityTTL: uncorroborated candidates are assumed
	// spurious.
	CandidateTTL time.Duration

	// SpeakOpenRatio is the mouth-open ratio above which a frame counts
	// toward the speaking hysteresis counter.
	SpeakOpenRatio float64

	// SpeakMinFrames is the hysteresis counter level at which a face is
	// declared speaking.
	SpeakMinFrames int

	// MotionChangedDelta is the per-pixel byte delta above which a pixel
	// counts as changed in the motion estimator.
	MotionChangedDelta int

	// NearRatio and MidRatio are the height-ratio cutoffs for the
	// Near/Mid/Far distance buckets.
	NearRatio float64
	MidRatio  float64
}

// DefaultConfig returns the interactive-camera tuning.
func DefaultConfig() Config {
	return Config{
		MaxFaces:           8,
		DeepEvery:          8,
		MinScore:           0.5,
		MinHeightRatio:     0.08,
		ReIDThreshold:      0.42,
		ConfirmFrames:      3,
		IdentityTTL:        60 * time.Second,
		CandidateTTL:       2 * time.Second,
		SpeakOpenRatio:     0.32,
		SpeakMinFrames:     4,
		MotionChangedDelta: 60,
		NearRatio:          0.45,
		MidRatio:           0.28,
	}
}

// candidate matching internals, kept out of Config on purpose: the IoU bonus
// weighting and minimum spatial overlap are part of the matching algorithm,
// not camera tuning.
const (
	candidateIoUBonus = 0.1
	candidateMinIoU   = 0.05
	descriptorBlend   = 4 // EMA: 3 parts old, 1 part new
)
