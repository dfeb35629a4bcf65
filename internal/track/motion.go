package track

import (
	"image"

	"golang.org/x/image/draw"
)

// motionWorkWidth is the width frames are downscaled to before diffing.
// Full-resolution diffs buy no accuracy for a frame-global scalar and cost
// an order of magnitude more per tick.
const motionWorkWidth = 160

// MotionEstimator computes a per-frame scalar motion intensity from
// consecutive frame differences. It keeps the previous downscaled frame as
// its only state.
type MotionEstimator struct {
	prev         *image.RGBA
	changedDelta int
}

// NewMotionEstimator creates an estimator with the given per-pixel
// changed-byte-delta threshold.
func NewMotionEstimator(changedDelta int) *MotionEstimator {
	if changedDelta <= 0 {
		changedDelta = DefaultConfig().MotionChangedDelta
	}
	return &MotionEstimator{changedDelta: changedDelta}
}

// Update diffs the frame against the previous one and returns the percentage
// of pixels whose summed per-channel absolute delta exceeds the changed
// threshold. The first frame returns 0.
func (m *MotionEstimator) Update(frame image.Image) float64 {
	curr := downscale(frame, motionWorkWidth)
	prev := m.prev
	m.prev = curr

	if prev == nil || prev.Bounds() != curr.Bounds() {
		return 0
	}

	bounds := curr.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	changed := 0
	for i := 0; i < len(curr.Pix); i += 4 {
		d := absDelta(curr.Pix[i], prev.Pix[i]) +
			absDelta(curr.Pix[i+1], prev.Pix[i+1]) +
			absDelta(curr.Pix[i+2], prev.Pix[i+2])
		if d > m.changedDelta {
			changed++
		}
	}

	return float64(changed) / float64(total) * 100
}

// Reset drops the previous frame so the next Update returns 0.
func (m *MotionEstimator) Reset() {
	m.prev = nil
}

func absDelta(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// downscale scales an image to the given width keeping aspect ratio.
func downscale(img image.Image, width int) *image.RGBA {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
