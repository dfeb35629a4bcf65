package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/smartcam/internal/session"
	"github.com/kozaktomas/smartcam/internal/track"
)

// duration accepts Go duration syntax ("60s", "140ms") in YAML.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = duration(parsed)
	return nil
}

// YAML shadows of the runtime config structs. Unset fields stay zero and are
// replaced by defaults in parsePresets, so presets only need to list what
// they change.
type presetYAML struct {
	Tracker    trackerYAML    `yaml:"tracker"`
	Aggregator aggregatorYAML `yaml:"aggregator"`
	Runner     runnerYAML     `yaml:"runner"`
}

type trackerYAML struct {
	MaxFaces           *int      `yaml:"max_faces"`
	DeepEvery          *int      `yaml:"deep_every"`
	MinScore           *float64  `yaml:"min_score"`
	MinHeightRatio     *float64  `yaml:"min_height_ratio"`
	ReIDThreshold      *float64  `yaml:"reid_threshold"`
	ConfirmFrames      *int      `yaml:"confirm_frames"`
	IdentityTTL        *duration `yaml:"identity_ttl"`
	CandidateTTL       *duration `yaml:"candidate_ttl"`
	SpeakOpenRatio     *float64  `yaml:"speak_open_ratio"`
	SpeakMinFrames     *int      `yaml:"speak_min_frames"`
	MotionChangedDelta *int      `yaml:"motion_changed_delta"`
	NearRatio          *float64  `yaml:"near_ratio"`
	MidRatio           *float64  `yaml:"mid_ratio"`
}

type aggregatorYAML struct {
	MotionThreshold  *float64  `yaml:"motion_threshold"`
	PeakMotionMargin *float64  `yaml:"peak_motion_margin"`
	PeakEmotionScore *float64  `yaml:"peak_emotion_score"`
	SnapshotCooldown *duration `yaml:"snapshot_cooldown"`
}

type runnerYAML struct {
	Tick              *duration `yaml:"tick"`
	InactivityTimeout *duration `yaml:"inactivity_timeout"`
	MotionIdleBelow   *float64  `yaml:"motion_idle_below"`
}

func parsePresets(raw []byte) (PresetsConfig, error) {
	var parsed struct {
		Presets map[string]presetYAML `yaml:"presets"`
	}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return PresetsConfig{}, err
	}

	out := PresetsConfig{Presets: make(map[string]Preset, len(parsed.Presets))}
	for name, p := range parsed.Presets {
		out.Presets[name] = buildPreset(p)
	}
	return out, nil
}

func buildPreset(p presetYAML) Preset {
	preset := Preset{
		Tracker:    track.DefaultConfig(),
		Aggregator: session.DefaultAggregatorConfig(),
		Runner:     session.DefaultRunnerConfig(),
	}

	t := p.Tracker
	setInt(&preset.Tracker.MaxFaces, t.MaxFaces)
	setInt(&preset.Tracker.DeepEvery, t.DeepEvery)
	setFloat(&preset.Tracker.MinScore, t.MinScore)
	setFloat(&preset.Tracker.MinHeightRatio, t.MinHeightRatio)
	setFloat(&preset.Tracker.ReIDThreshold, t.ReIDThreshold)
	setInt(&preset.Tracker.ConfirmFrames, t.ConfirmFrames)
	setDuration(&preset.Tracker.IdentityTTL, t.IdentityTTL)
	setDuration(&preset.Tracker.CandidateTTL, t.CandidateTTL)
	setFloat(&preset.Tracker.SpeakOpenRatio, t.SpeakOpenRatio)
	setInt(&preset.Tracker.SpeakMinFrames, t.SpeakMinFrames)
	setInt(&preset.Tracker.MotionChangedDelta, t.MotionChangedDelta)
	setFloat(&preset.Tracker.NearRatio, t.NearRatio)
	setFloat(&preset.Tracker.MidRatio, t.MidRatio)

	a := p.Aggregator
	setFloat(&preset.Aggregator.MotionThreshold, a.MotionThreshold)
	setFloat(&preset.Aggregator.PeakMotionMargin, a.PeakMotionMargin)
	setFloat(&preset.Aggregator.PeakEmotionScore, a.PeakEmotionScore)
	setDuration(&preset.Aggregator.SnapshotCooldown, a.SnapshotCooldown)

	r := p.Runner
	setDuration(&preset.Runner.Tick, r.Tick)
	setDuration(&preset.Runner.InactivityTimeout, r.InactivityTimeout)
	setFloat(&preset.Runner.MotionIdleBelow, r.MotionIdleBelow)

	return preset
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *duration) {
	if src != nil {
		*dst = time.Duration(*src)
	}
}
