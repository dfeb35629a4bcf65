package session

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/smartcam/internal/track"
)

// ErrNoFrame signals that a frame source has nothing new this tick. The
// runner simply waits for the next tick.
var ErrNoFrame = errors.New("no frame available")

// FrameSource supplies captured frames to the runner. Next may return
// ErrNoFrame when nothing new arrived, or io.EOF when the source is
// exhausted (which ends the session).
type FrameSource interface {
	Next(ctx context.Context) (track.Frame, error)
}

// RunnerConfig paces the frame loop and the inactivity auto-stop.
type RunnerConfig struct {
	// Tick is the processing cadence, independent of capture cadence. Zero
	// runs frames back to back (replay).
	Tick time.Duration
	// InactivityTimeout auto-stops the session after this long without any
	// tracked face, provided motion stays below MotionIdleBelow. Zero
	// disables the auto-stop.
	InactivityTimeout time.Duration
	MotionIdleBelow   float64
}

// DefaultRunnerConfig returns the interactive-camera pacing.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Tick:              140 * time.Millisecond,
		InactivityTimeout: 25 * time.Second,
		MotionIdleBelow:   1.2,
	}
}

// Runner drives one session: a single goroutine pulls frames from the source
// at the configured tick, runs them through the tracker, and feeds the
// aggregator. Frame iterations are strictly serialized: the next tick is not
// scheduled until the in-flight frame finishes, and stopping cancels any
// pending iteration before the session closes.
type Runner struct {
	cfg     RunnerConfig
	tracker *track.Tracker
	agg     *Aggregator
	source  FrameSource

	mu       sync.Mutex // serializes frame processing with user actions
	lastSeen time.Time

	stopCh   chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewRunner wires a tracker, aggregator, and frame source into a session.
func NewRunner(cfg RunnerConfig, tracker *track.Tracker, agg *Aggregator, source FrameSource) *Runner {
	return &Runner{
		cfg:     cfg,
		tracker: tracker,
		agg:     agg,
		source:  source,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run processes frames until the context is cancelled, the source is
// exhausted, Stop is called, or the inactivity auto-stop fires. The session
// is closed exactly once before Run returns; no frame mutates the report
// afterwards.
func (r *Runner) Run(ctx context.Context) error {
	r.started.Store(true)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	defer close(r.done)
	defer r.agg.Close(time.Now())

	r.lastSeen = time.Now()

	var tick <-chan time.Time
	if r.cfg.Tick > 0 {
		ticker := time.NewTicker(r.cfg.Tick)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		frame, err := r.source.Next(ctx)
		switch {
		case errors.Is(err, ErrNoFrame):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		case err != nil:
			// Transient source failure: skip the frame, keep the loop alive.
			log.Printf("frame source error: %v", err)
			continue
		}

		if stop := r.processFrame(ctx, frame); stop {
			return nil
		}
	}
}

// processFrame runs one frame as an atomic unit of work and reports whether
// the inactivity auto-stop fired.
func (r *Runner) processFrame(ctx context.Context, frame track.Frame) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.tracker.Process(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		// Per-frame transient failure: swallowed, next tick continues.
		log.Printf("frame skipped: %v", err)
		return false
	}
	if ctx.Err() != nil {
		// Stopped mid-flight: discard the result, do not touch the session.
		return false
	}

	now := result.At
	if len(result.Tracks) > 0 {
		r.lastSeen = now
	}
	r.agg.OnFrame(result.Tracks, result.Motion, r.tracker.Bank().Size(), now)

	if r.cfg.InactivityTimeout > 0 &&
		now.Sub(r.lastSeen) > r.cfg.InactivityTimeout &&
		result.Motion < r.cfg.MotionIdleBelow {
		return true
	}
	return false
}

// Stop halts the frame loop and waits for the in-flight iteration to finish,
// then closes the session. Safe to call more than once and from any
// goroutine.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.started.Load() {
			<-r.done
		}
	})
}

// Report returns a read-only copy of the session report.
func (r *Runner) Report() Report {
	return r.agg.Snapshot()
}

// Aggregator exposes the aggregator for speech binding.
func (r *Runner) Aggregator() *Aggregator {
	return r.agg
}

// AssignName atomically labels a confirmed identity. The canonical spelling
// of an equivalent existing name wins, so "jose" and "José" collapse.
func (r *Runner) AssignName(id int64, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	bank := r.tracker.Bank()
	return bank.AssignName(id, bank.CanonicalName(name))
}

// ResetIdentities clears the identity memory and candidate pool without
// ending the session. Issued ids are never reused.
func (r *Runner) ResetIdentities() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.Bank().Reset()
}

// Identities returns a snapshot of the confirmed identities.
func (r *Runner) Identities() []track.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.Bank().Identities()
}
