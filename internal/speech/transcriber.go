package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Transcriber sends recorded audio chunks to an external speech to text
// service and returns the recognized text.
type Transcriber struct {
	baseURL string
	client  *http.Client
}

// NewTranscriber creates a transcriber client for the given service URL.
func NewTranscriber(baseURL string) *Transcriber {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Transcriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads an audio chunk and returns the recognized text. A
// failed or non-OK response yields empty text rather than an error: a lost
// utterance should never take the session down.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	ext := "webm"
	if strings.Contains(mimeType, "ogg") {
		ext = "ogg"
	} else if strings.Contains(mimeType, "wav") {
		ext = "wav"
	}
	part, err := writer.CreateFormFile("file", "chunk."+ext)
	if err != nil {
		return "", fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("could not write audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("could not finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/stt", &body)
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", nil
	}

	var parsed transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", nil
	}
	return strings.TrimSpace(parsed.Text), nil
}
