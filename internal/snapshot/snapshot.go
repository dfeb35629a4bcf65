package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// Highlight snapshots are kept small so uploads stay fast over whatever
	// link the capture device has.
	maxWidth    = 720
	jpegQuality = 72
)

// EncodeJPEG decodes a captured frame, scales it down to at most maxWidth
// pixels wide while keeping aspect ratio, and re-encodes it as JPEG.
func EncodeJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxWidth {
		height = height * maxWidth / width
		width = maxWidth
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("frame too small: %dx%d", bounds.Dx(), bounds.Dy())
	}

	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
