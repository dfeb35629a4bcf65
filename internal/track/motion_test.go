package track

import (
	"image"
	"image/color"
	"testing"
)

func solidFrame(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestMotionEstimatorFirstFrame(t *testing.T) {
	m := NewMotionEstimator(60)
	if got := m.Update(solidFrame(320, 240, color.RGBA{A: 255})); got != 0 {
		t.Errorf("first frame motion = %f, want 0", got)
	}
}

func TestMotionEstimatorStaticScene(t *testing.T) {
	m := NewMotionEstimator(60)
	frame := solidFrame(320, 240, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	m.Update(frame)
	if got := m.Update(frame); got != 0 {
		t.Errorf("identical frames motion = %f, want 0", got)
	}
}

func TestMotionEstimatorFullChange(t *testing.T) {
	m := NewMotionEstimator(60)

	m.Update(solidFrame(320, 240, color.RGBA{A: 255}))
	got := m.Update(solidFrame(320, 240, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	if got < 99 {
		t.Errorf("black-to-white motion = %f, want ~100", got)
	}
}

func TestMotionEstimatorBelowDelta(t *testing.T) {
	m := NewMotionEstimator(60)

	// A tiny per-channel shift stays below the changed threshold.
	m.Update(solidFrame(320, 240, color.RGBA{R: 100, G: 100, B: 100, A: 255}))
	got := m.Update(solidFrame(320, 240, color.RGBA{R: 110, G: 110, B: 110, A: 255}))
	if got != 0 {
		t.Errorf("sub-threshold shift motion = %f, want 0", got)
	}
}

func TestMotionEstimatorReset(t *testing.T) {
	m := NewMotionEstimator(60)

	m.Update(solidFrame(320, 240, color.RGBA{A: 255}))
	m.Reset()
	if got := m.Update(solidFrame(320, 240, color.RGBA{R: 255, G: 255, B: 255, A: 255})); got != 0 {
		t.Errorf("first frame after reset motion = %f, want 0", got)
	}
}

func TestMotionEstimatorResolutionChange(t *testing.T) {
	m := NewMotionEstimator(60)

	m.Update(solidFrame(320, 240, color.RGBA{A: 255}))
	// A different aspect ratio produces different downscaled bounds; the
	// estimator restarts instead of diffing mismatched buffers.
	if got := m.Update(solidFrame(320, 480, color.RGBA{R: 255, G: 255, B: 255, A: 255})); got != 0 {
		t.Errorf("resolution change motion = %f, want 0", got)
	}
}
