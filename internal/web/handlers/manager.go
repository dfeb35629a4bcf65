package handlers

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/kozaktomas/smartcam/internal/ai"
	"github.com/kozaktomas/smartcam/internal/config"
	"github.com/kozaktomas/smartcam/internal/session"
	"github.com/kozaktomas/smartcam/internal/snapshot"
	"github.com/kozaktomas/smartcam/internal/speech"
	"github.com/kozaktomas/smartcam/internal/store"
	"github.com/kozaktomas/smartcam/internal/track"
)

// ErrSessionActive is returned when a session start collides with a running one.
var ErrSessionActive = errors.New("a session is already running")

// ErrNoSession is returned for operations that need a live session.
var ErrNoSession = errors.New("no session is running")

// SessionArchive persists finished session reports.
type SessionArchive interface {
	Save(ctx context.Context, report session.Report, summary string) error
	Get(ctx context.Context, id string) (*session.Report, string, error)
	List(ctx context.Context, limit int) ([]store.SessionSummary, error)
	Delete(ctx context.Context, id string) error
}

// IdentityArchive persists face identities across sessions.
type IdentityArchive interface {
	Save(ctx context.Context, identity store.StoredIdentity) (int64, error)
	Nearest(ctx context.Context, descriptor []float32, k int) ([]store.Match, error)
}

// Manager owns the single live session and its collaborators. Archive,
// gallery, speech, upload, and summary backends are all optional; a nil
// backend simply disables the feature.
type Manager struct {
	cfg         *config.Config
	det         track.Detector
	transcriber *speech.Transcriber
	uploader    *snapshot.Uploader
	summarizer  ai.Provider
	sessions    SessionArchive
	identities  IdentityArchive
	gallery     *store.Gallery

	mu      sync.Mutex
	current *liveSession
}

type liveSession struct {
	id        string
	startedAt time.Time
	runner    *session.Runner
	agg       *session.Aggregator
	buffer    *session.FrameBuffer
	binder    *speech.Binder
	done      chan struct{}
}

// NewManager wires the live-session manager.
func NewManager(
	cfg *config.Config,
	det track.Detector,
	transcriber *speech.Transcriber,
	uploader *snapshot.Uploader,
	summarizer ai.Provider,
	sessions SessionArchive,
	identities IdentityArchive,
	gallery *store.Gallery,
) *Manager {
	return &Manager{
		cfg:         cfg,
		det:         det,
		transcriber: transcriber,
		uploader:    uploader,
		summarizer:  summarizer,
		sessions:    sessions,
		identities:  identities,
		gallery:     gallery,
	}
}

// Start opens a new session with the given preset. Only one session runs at
// a time.
func (m *Manager) Start(presetName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		select {
		case <-m.current.done:
			// Previous session finished on its own; replace it.
		default:
			return "", ErrSessionActive
		}
	}

	if err := m.cfg.Validate(presetName); err != nil {
		return "", err
	}
	preset := m.cfg.GetPreset(presetName)

	buffer := session.NewFrameBuffer()

	// The detector caps its own input size; the cap lives in config, not in
	// the per-frame options the tracker builds.
	maxInput := m.cfg.Detector.MaxInputSize
	det := track.DetectorFunc(func(ctx context.Context, frame []byte, opts track.DetectOptions) ([]track.Detection, error) {
		opts.MaxInputSize = maxInput
		return m.det.Detect(ctx, frame, opts)
	})

	tracker := track.New(preset.Tracker, det)

	snap := func() ([]byte, error) {
		frame, ok := buffer.Latest()
		if !ok {
			return nil, errors.New("no frame captured yet")
		}
		return snapshot.EncodeJPEG(frame.Data)
	}

	agg := session.NewAggregator(preset.Aggregator, presetName, snap, time.Now())
	runner := session.NewRunner(preset.Runner, tracker, agg, buffer)

	live := &liveSession{
		id:        agg.Snapshot().ID,
		startedAt: time.Now(),
		runner:    runner,
		agg:       agg,
		buffer:    buffer,
		done:      make(chan struct{}),
	}
	if m.transcriber != nil {
		live.binder = speech.NewBinder(m.transcriber, agg, agg)
	}
	m.current = live

	go func() {
		defer close(live.done)
		if err := runner.Run(context.Background()); err != nil &&
			!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			log.Printf("session %s ended with error: %v", live.id, err)
		}
		m.finalize(live)
	}()

	return live.id, nil
}

// Stop ends the live session and returns the final report.
func (m *Manager) Stop() (session.Report, error) {
	m.mu.Lock()
	live := m.current
	m.mu.Unlock()

	if live == nil {
		return session.Report{}, ErrNoSession
	}

	live.runner.Stop()
	<-live.done
	return live.runner.Report(), nil
}

// Live returns the current live session, or nil.
func (m *Manager) Live() *liveSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	select {
	case <-m.current.done:
		// Finished sessions still answer report reads until a new one starts.
		return m.current
	default:
		return m.current
	}
}

// live returns the current session only while it is still running.
func (m *Manager) live() (*liveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	select {
	case <-m.current.done:
		return nil, ErrNoSession
	default:
		return m.current, nil
	}
}

// SubmitFrame hands a captured frame to the live session.
func (m *Manager) SubmitFrame(data []byte) error {
	live, err := m.live()
	if err != nil {
		return err
	}
	live.buffer.Put(track.Frame{Data: data, At: time.Now()})
	return nil
}

// SubmitAudio hands an audio chunk to the transcription pipeline. Returns
// false when the chunk was dropped because a transcription is in flight.
func (m *Manager) SubmitAudio(ctx context.Context, data []byte, mimeType string) (bool, error) {
	live, err := m.live()
	if err != nil {
		return false, err
	}
	if live.binder == nil {
		return false, errors.New("speech transcription is not configured")
	}
	return live.binder.Submit(ctx, data, mimeType), nil
}

// Report returns the live session report snapshot.
func (m *Manager) Report() (session.Report, error) {
	m.mu.Lock()
	live := m.current
	m.mu.Unlock()
	if live == nil {
		return session.Report{}, ErrNoSession
	}
	return live.runner.Report(), nil
}

// AssignName labels a confirmed identity in the live session.
func (m *Manager) AssignName(id int64, name string) error {
	live, err := m.live()
	if err != nil {
		return err
	}
	if !live.runner.AssignName(id, name) {
		return errors.New("unknown identity")
	}
	return nil
}

// ResetIdentities clears the live session's identity memory.
func (m *Manager) ResetIdentities() error {
	live, err := m.live()
	if err != nil {
		return err
	}
	live.runner.ResetIdentities()
	return nil
}

// Identities lists the live session's confirmed identities.
func (m *Manager) Identities() ([]track.Identity, error) {
	live, err := m.live()
	if err != nil {
		return nil, err
	}
	return live.runner.Identities(), nil
}

// Archive exposes the session archive, or nil when archiving is disabled.
func (m *Manager) Archive() SessionArchive {
	return m.sessions
}

// Gallery exposes the cross-session face index, or nil.
func (m *Manager) Gallery() *store.Gallery {
	return m.gallery
}

// IdentityStore exposes the identity archive, or nil.
func (m *Manager) IdentityStore() IdentityArchive {
	return m.identities
}

// finalize runs once the frame loop has stopped: uploads highlight images,
// writes the model summary, and archives the session and its identities.
func (m *Manager) finalize(live *liveSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	report := live.runner.Report()

	// The closed report is frozen; uploaded highlight links go into the
	// archived copy only.
	if m.uploader != nil && m.uploader.Enabled() {
		for i := range report.Highlights {
			h := &report.Highlights[i]
			if h.URL != "" || len(h.Image) == 0 {
				continue
			}
			url, err := m.uploader.Upload(ctx, h.Image)
			if err != nil {
				log.Printf("warning: highlight upload failed: %v", err)
				continue
			}
			h.URL = url
		}
	}

	var summary string
	if m.summarizer != nil {
		var err error
		summary, err = m.summarizer.SummarizeSession(ctx, report)
		if err != nil {
			log.Printf("warning: session summary failed: %v", err)
		}
	}

	if m.sessions != nil {
		if err := m.sessions.Save(ctx, report, summary); err != nil {
			log.Printf("warning: failed to archive session %s: %v", report.ID, err)
		} else if m.identities != nil {
			m.archiveIdentities(ctx, live, report.ID)
		}
	}
}

// archiveIdentities stores every confirmed identity that carries a
// descriptor and feeds it into the gallery.
func (m *Manager) archiveIdentities(ctx context.Context, live *liveSession, sessionID string) {
	for _, identity := range live.runner.Identities() {
		if len(identity.Descriptor) == 0 {
			continue
		}
		stored := store.StoredIdentity{
			SessionID:  sessionID,
			TrackID:    identity.ID,
			Name:       identity.Name,
			Descriptor: identity.Descriptor,
			FirstSeen:  identity.FirstSeen,
			LastSeen:   identity.LastSeen,
		}
		rowID, err := m.identities.Save(ctx, stored)
		if err != nil {
			log.Printf("warning: failed to archive identity %d: %v", identity.ID, err)
			continue
		}
		if m.gallery != nil {
			stored.ID = rowID
			if err := m.gallery.Add(stored); err != nil {
				log.Printf("warning: failed to index identity %d: %v", rowID, err)
			}
		}
	}
}
