package speech

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// SpeakerSource reports which tracked identity is speaking right now.
type SpeakerSource interface {
	CurrentSpeaker() *int64
}

// TranscriptSink receives finished transcripts.
type TranscriptSink interface {
	AddSpeech(now time.Time, speaker *int64, text string)
}

// Binder pairs incoming audio chunks with the identity that was speaking
// when the chunk arrived. Only one transcription runs at a time; chunks
// arriving while one is in flight are dropped, not queued, so transcripts
// never pile up behind a slow speech service.
type Binder struct {
	transcriber *Transcriber
	source      SpeakerSource
	sink        TranscriptSink
	busy        atomic.Bool
}

// NewBinder wires a transcriber to a speaker source and a transcript sink.
func NewBinder(transcriber *Transcriber, source SpeakerSource, sink TranscriptSink) *Binder {
	return &Binder{
		transcriber: transcriber,
		source:      source,
		sink:        sink,
	}
}

// Submit hands an audio chunk to the transcription pipeline. It returns
// false when a previous chunk is still being transcribed and the new one
// was dropped. The speaker is captured at submission time, before the
// transcription round trip, because the speaker may change meanwhile.
func (b *Binder) Submit(ctx context.Context, audio []byte, mimeType string) bool {
	if !b.busy.CompareAndSwap(false, true) {
		return false
	}

	speaker := b.source.CurrentSpeaker()
	at := time.Now()

	// The caller is typically an HTTP handler that answers before the
	// transcription finishes, and its request context dies with the
	// response. Keep the caller's values but outlive its cancellation.
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer b.busy.Store(false)

		text, err := b.transcriber.Transcribe(ctx, audio, mimeType)
		if err != nil {
			log.Printf("warning: transcription failed: %v", err)
			return
		}
		if text == "" {
			return
		}
		b.sink.AddSpeech(at, speaker, text)
	}()

	return true
}

// Busy reports whether a transcription is currently in flight.
func (b *Binder) Busy() bool {
	return b.busy.Load()
}
