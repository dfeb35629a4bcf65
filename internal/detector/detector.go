// Package detector adapts the external face-inference service. The service
// owns the detection and descriptor models; this client only ships frames and
// parses results.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/smartcam/internal/track"
)

const (
	defaultBaseURL      = "http://localhost:8000"
	defaultMaxInputSize = 224
)

// Client talks to the face-inference HTTP service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a detector client. An empty baseURL falls back to the
// local development default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// detectionResponse mirrors the service's per-frame result.
type detectionResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

type faceDetection struct {
	BBox        []float64          `json:"bbox"` // [x1, y1, x2, y2]
	DetScore    float64            `json:"det_score"`
	Landmarks   [][2]float64       `json:"landmarks"`
	Expressions map[string]float64 `json:"expressions"`
	Descriptor  []float32          `json:"descriptor,omitempty"`
	Dim         int                `json:"dim,omitempty"`
}

// Detect posts the frame to the inference service and converts its response
// into tracker detections. A frame with no detectable face yields an empty
// slice, never an error.
func (c *Client) Detect(ctx context.Context, frame []byte, opts track.DetectOptions) ([]track.Detection, error) {
	body, err := c.postMultipartFrame(ctx, "/detect/faces", frame, opts)
	if err != nil {
		return nil, err
	}

	var resp detectionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse detection response: %w", err)
	}

	detections := make([]track.Detection, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		if len(f.BBox) != 4 {
			continue
		}
		d := track.Detection{
			Box: track.Box{
				X:      f.BBox[0],
				Y:      f.BBox[1],
				Width:  f.BBox[2] - f.BBox[0],
				Height: f.BBox[3] - f.BBox[1],
			},
			Score:       f.DetScore,
			Expressions: f.Expressions,
			Descriptor:  f.Descriptor,
		}
		d.Landmarks = make([]track.Point, 0, len(f.Landmarks))
		for _, p := range f.Landmarks {
			d.Landmarks = append(d.Landmarks, track.Point{X: p[0], Y: p[1]})
		}
		detections = append(detections, d)
	}
	return detections, nil
}

// postMultipartFrame constructs a multipart form with the frame data and
// posts it with the detection options as query parameters.
func (c *Client) postMultipartFrame(ctx context.Context, endpoint string, frame []byte, opts track.DetectOptions) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, fmt.Errorf("failed to write frame data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	mode := opts.Mode
	if mode == "" {
		mode = track.ModeLight
	}
	maxSize := opts.MaxInputSize
	if maxSize <= 0 {
		maxSize = defaultMaxInputSize
	}
	url := fmt.Sprintf("%s%s?mode=%s&min_score=%s&max_input_size=%d",
		c.baseURL, endpoint, mode,
		strconv.FormatFloat(opts.MinScore, 'f', -1, 64), maxSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Healthy pings the inference service. Used at startup so a missing model
// surfaces as a persistent error state instead of per-frame failures.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}
