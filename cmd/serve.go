package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/smartcam/internal/ai"
	"github.com/kozaktomas/smartcam/internal/config"
	"github.com/kozaktomas/smartcam/internal/detector"
	"github.com/kozaktomas/smartcam/internal/snapshot"
	"github.com/kozaktomas/smartcam/internal/speech"
	"github.com/kozaktomas/smartcam/internal/store"
	"github.com/kozaktomas/smartcam/internal/store/postgres"
	"github.com/kozaktomas/smartcam/internal/web"
	"github.com/kozaktomas/smartcam/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the camera engine web server",
	Long: `Start the smartcam web server.
The capture page in the browser pushes frames and audio chunks to it;
the server tracks faces, aggregates the session, and archives finished
reports when a database is configured.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (defaults to PORT env or 8080)")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// initArchive connects the session archive and rebuilds the face gallery.
// Without DATABASE_URL the engine runs in memory only.
func initArchive(cfg *config.Config) (handlers.SessionArchive, handlers.IdentityArchive, *store.Gallery, func(), error) {
	if cfg.Database.URL == "" {
		fmt.Println("DATABASE_URL not set, session archive disabled")
		return nil, nil, nil, func() {}, nil
	}

	fmt.Println("Connecting to PostgreSQL database...")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	sessionRepo := postgres.NewSessionRepository(pool)
	identityRepo := postgres.NewIdentityRepository(pool)

	fmt.Println("Building in-memory HNSW index for face matching...")
	gallery := store.NewGallery()
	identities, err := identityRepo.LoadAll(context.Background())
	if err != nil {
		fmt.Printf("Warning: failed to load stored identities: %v\n", err)
		fmt.Println("Face lookups will use PostgreSQL queries (slower)")
	} else if err := gallery.Build(identities); err != nil {
		fmt.Printf("Warning: failed to build face index: %v\n", err)
	} else {
		fmt.Printf("Face index built with %d identities\n", gallery.Size())
	}

	cleanup := func() { pool.Close() }
	return sessionRepo, identityRepo, gallery, cleanup, nil
}

// initSummarizer picks the first configured AI backend, if any.
func initSummarizer(cfg *config.Config) ai.Provider {
	if cfg.OpenAI.Token != "" {
		provider := ai.NewOpenAIProvider(cfg.OpenAI.Token)
		fmt.Printf("Session summaries enabled (%s)\n", provider.Name())
		return provider
	}
	if cfg.Gemini.APIKey != "" {
		provider, err := ai.NewGeminiProvider(context.Background(), cfg.Gemini.APIKey)
		if err != nil {
			fmt.Printf("Warning: failed to create Gemini client: %v\n", err)
			return nil
		}
		fmt.Printf("Session summaries enabled (%s)\n", provider.Name())
		return provider
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	port := mustGetInt(cmd, "port")
	if port == 0 {
		port = cfg.Web.Port
	}
	host := mustGetString(cmd, "host")

	det := detector.NewClient(cfg.Detector.URL)
	if err := det.Healthy(context.Background()); err != nil {
		fmt.Printf("Warning: face detector not reachable: %v\n", err)
	}

	var transcriber *speech.Transcriber
	if cfg.Speech.URL != "" {
		transcriber = speech.NewTranscriber(cfg.Speech.URL)
		fmt.Println("Speech transcription enabled")
	}

	var uploader *snapshot.Uploader
	if cfg.Upload.Endpoint != "" {
		uploader = snapshot.NewUploader(cfg.Upload.Endpoint)
		fmt.Println("Highlight uploads enabled")
	}

	summarizer := initSummarizer(cfg)

	sessionRepo, identityRepo, gallery, cleanup, err := initArchive(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	manager := handlers.NewManager(cfg, det, transcriber, uploader, summarizer, sessionRepo, identityRepo, gallery)
	server := web.NewServer(cfg, port, host, manager)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		// End the live session first so it archives before the pool closes.
		if _, err := manager.Stop(); err == nil {
			fmt.Println("Live session closed")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting smartcam engine on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
