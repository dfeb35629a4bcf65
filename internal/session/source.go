package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/smartcam/internal/track"
)

// FrameBuffer is a latest-frame mailbox for live capture: the browser pushes
// frames as fast as it likes, the runner consumes at its own tick and only
// ever sees the newest one. Older frames are overwritten, not queued.
type FrameBuffer struct {
	mu    sync.Mutex
	frame track.Frame
	fresh bool
}

// NewFrameBuffer creates an empty mailbox.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Put stores a frame, replacing any unconsumed one.
func (b *FrameBuffer) Put(frame track.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = frame
	b.fresh = true
}

// Latest returns the newest frame without consuming it. Used for highlight
// capture.
func (b *FrameBuffer) Latest() (track.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame, b.frame.Data != nil
}

// Next consumes the newest unseen frame, or reports ErrNoFrame.
func (b *FrameBuffer) Next(ctx context.Context) (track.Frame, error) {
	if err := ctx.Err(); err != nil {
		return track.Frame{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.fresh {
		return track.Frame{}, ErrNoFrame
	}
	b.fresh = false
	return b.frame, nil
}

// DirectorySource replays an ordered directory of encoded frames. Frames are
// stamped with synthetic timestamps a fixed step apart so TTL and cooldown
// logic behaves the same as live capture.
type DirectorySource struct {
	files []string
	index int
	at    time.Time
	step  time.Duration

	// Progress is called after each frame is read, with (current, total).
	Progress func(current, total int)
}

// NewDirectorySource lists the frame files (jpg/jpeg/png) in dir sorted by
// name.
func NewDirectorySource(dir string, step time.Duration) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frames directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no frame files in %s", dir)
	}
	if step <= 0 {
		step = 140 * time.Millisecond
	}
	return &DirectorySource{files: files, at: time.Now(), step: step}, nil
}

// Len returns the total number of frames.
func (s *DirectorySource) Len() int {
	return len(s.files)
}

// Next reads the next frame file; io.EOF after the last one.
func (s *DirectorySource) Next(ctx context.Context) (track.Frame, error) {
	if err := ctx.Err(); err != nil {
		return track.Frame{}, err
	}
	if s.index >= len(s.files) {
		return track.Frame{}, io.EOF
	}
	path := s.files[s.index]
	s.index++
	s.at = s.at.Add(s.step)

	data, err := os.ReadFile(path)
	if err != nil {
		return track.Frame{}, fmt.Errorf("reading frame %s: %w", path, err)
	}
	if s.Progress != nil {
		s.Progress(s.index, len(s.files))
	}
	return track.Frame{Data: data, At: s.at}, nil
}
