package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/kozaktomas/smartcam/internal/session"
	"github.com/kozaktomas/smartcam/internal/track"
)

//go:embed presets.yaml
var presetsYAML []byte

type Config struct {
	Detector DetectorConfig
	Speech   SpeechConfig
	Upload   UploadConfig
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
	Database DatabaseConfig
	Web      WebConfig
	Presets  PresetsConfig
}

type DetectorConfig struct {
	URL          string // face detection service, defaults to http://localhost:8000
	MaxInputSize int    // longest frame side sent to the detector (default 640)
}

type SpeechConfig struct {
	URL string // speech to text service; empty disables transcription
}

type UploadConfig struct {
	Endpoint string // snapshot upload endpoint; empty keeps snapshots inline
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type DatabaseConfig struct {
	URL           string // PostgreSQL connection URL; empty disables archiving
	MaxOpenConns  int    // Maximum open connections (default 25)
	MaxIdleConns  int    // Maximum idle connections (default 5)
	DescriptorDim int    // face descriptor dimension (default 128)
}

type WebConfig struct {
	Port int // HTTP listen port (default 8080)
}

// PresetsConfig holds the named capture tunings from the embedded
// presets.yaml. Every preset fully specifies tracker, aggregator, and
// runner settings.
type PresetsConfig struct {
	Presets map[string]Preset
}

type Preset struct {
	Tracker    track.Config
	Aggregator session.AggregatorConfig
	Runner     session.RunnerConfig
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	presets, err := parsePresets(presetsYAML)
	if err != nil {
		// Embedded file, cannot fail at runtime unless the build is broken.
		panic("failed to unmarshal embedded presets.yaml: " + err.Error())
	}

	return &Config{
		Detector: DetectorConfig{
			URL:          os.Getenv("DETECTOR_URL"),
			MaxInputSize: envInt("DETECTOR_MAX_INPUT_SIZE", 640),
		},
		Speech: SpeechConfig{
			URL: os.Getenv("SPEECH_URL"),
		},
		Upload: UploadConfig{
			Endpoint: os.Getenv("SNAPSHOT_UPLOAD_URL"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
			DescriptorDim: envInt("DESCRIPTOR_DIM", 128),
		},
		Web: WebConfig{
			Port: envInt("PORT", 8080),
		},
		Presets: presets,
	}
}

// GetPreset returns the named capture preset. An unknown name falls back to
// the built-in defaults so a typo degrades gracefully instead of crashing a
// session start.
func (c *Config) GetPreset(name string) Preset {
	if preset, ok := c.Presets.Presets[name]; ok {
		return preset
	}
	return Preset{
		Tracker:    track.DefaultConfig(),
		Aggregator: session.DefaultAggregatorConfig(),
		Runner:     session.DefaultRunnerConfig(),
	}
}

// PresetNames lists the available preset names.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets.Presets))
	for name := range c.Presets.Presets {
		names = append(names, name)
	}
	return names
}

// Validate checks that a requested preset exists.
func (c *Config) Validate(presetName string) error {
	if presetName == "" {
		return nil
	}
	if _, ok := c.Presets.Presets[presetName]; !ok {
		return fmt.Errorf("unknown preset %q", presetName)
	}
	return nil
}
