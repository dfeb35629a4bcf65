package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Uploader pushes highlight snapshots to an external image host and returns
// the hosted URL. When the host is unreachable the caller keeps the raw
// bytes instead; an upload failure never drops a highlight.
type Uploader struct {
	endpoint string
	client   *http.Client
}

// NewUploader creates an uploader for the given endpoint. An empty endpoint
// disables uploads.
func NewUploader(endpoint string) *Uploader {
	return &Uploader{
		endpoint: strings.TrimSpace(endpoint),
		client: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

// Enabled reports whether an upload endpoint is configured.
func (u *Uploader) Enabled() bool {
	return u.endpoint != ""
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload posts a JPEG payload and returns the hosted URL.
func (u *Uploader) Upload(ctx context.Context, data []byte) (string, error) {
	if !u.Enabled() {
		return "", fmt.Errorf("upload endpoint not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("could not decode upload response: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}
	return parsed.URL, nil
}
