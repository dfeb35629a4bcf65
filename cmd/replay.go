package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/smartcam/internal/ai"
	"github.com/kozaktomas/smartcam/internal/config"
	"github.com/kozaktomas/smartcam/internal/detector"
	"github.com/kozaktomas/smartcam/internal/export"
	"github.com/kozaktomas/smartcam/internal/session"
	"github.com/kozaktomas/smartcam/internal/track"
)

var replayCmd = &cobra.Command{
	Use:   "replay <frames-dir>",
	Short: "Run a recorded frame directory through the engine",
	Long: `Replay a directory of captured frames (JPEG or PNG, sorted by name)
through the full tracking pipeline and print the resulting session
report. Frames are processed back to back, not at capture cadence.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().String("preset", "", "Capture preset to replay with")
	replayCmd.Flags().Duration("step", 140*time.Millisecond, "Synthetic time step between frames")
	replayCmd.Flags().String("format", "json", "Output format: json, csv, or html")
	replayCmd.Flags().String("output", "", "Output file (defaults to stdout)")
	replayCmd.Flags().Bool("summary", false, "Generate an AI summary of the session (needs OPENAI_TOKEN or GEMINI_API_KEY)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	presetName := mustGetString(cmd, "preset")
	if err := cfg.Validate(presetName); err != nil {
		return err
	}
	preset := cfg.GetPreset(presetName)

	source, err := session.NewDirectorySource(args[0], mustGetDuration(cmd, "step"))
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(source.Len(),
		progressbar.OptionSetDescription("Processing frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)
	source.Progress = func(current, total int) {
		bar.Set(current)
	}

	det := detector.NewClient(cfg.Detector.URL)
	if err := det.Healthy(context.Background()); err != nil {
		return fmt.Errorf("face detector not reachable: %w", err)
	}

	maxInput := cfg.Detector.MaxInputSize
	wrapped := track.DetectorFunc(func(ctx context.Context, frame []byte, opts track.DetectOptions) ([]track.Detection, error) {
		opts.MaxInputSize = maxInput
		return det.Detect(ctx, frame, opts)
	})

	tracker := track.New(preset.Tracker, wrapped)
	agg := session.NewAggregator(preset.Aggregator, presetName, nil, time.Now())

	// Back-to-back processing, no inactivity auto-stop: a replay always
	// covers the whole recording.
	runnerCfg := session.RunnerConfig{}
	runner := session.NewRunner(runnerCfg, tracker, agg, source)

	if err := runner.Run(context.Background()); err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	fmt.Println()

	report := runner.Report()
	fmt.Printf("Session %s: %d unique faces, %d peaks, %d speaking turns\n",
		report.ID, report.KPIs.UniqueFaces, report.KPIs.Peaks, report.KPIs.SpeakingTurns)

	if mustGetBool(cmd, "summary") {
		if summary, err := summarizeReplay(cfg, report); err != nil {
			fmt.Printf("Warning: summary failed: %v\n", err)
		} else {
			fmt.Printf("\n%s\n\n", summary)
		}
	}

	out := os.Stdout
	if path := mustGetString(cmd, "output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch format := mustGetString(cmd, "format"); format {
	case "json":
		return export.WriteJSON(out, report)
	case "csv":
		return export.WriteCSV(out, report)
	case "html":
		return export.WriteHTML(out, report)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func summarizeReplay(cfg *config.Config, report session.Report) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var provider ai.Provider
	switch {
	case cfg.OpenAI.Token != "":
		provider = ai.NewOpenAIProvider(cfg.OpenAI.Token)
	case cfg.Gemini.APIKey != "":
		p, err := ai.NewGeminiProvider(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return "", err
		}
		provider = p
	default:
		return "", fmt.Errorf("no AI backend configured")
	}

	return provider.SummarizeSession(ctx, report)
}
