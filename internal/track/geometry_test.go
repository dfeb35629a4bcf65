package track

import (
	"math"
	"testing"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Box
		expected float64
	}{
		{
			name:     "identical boxes",
			a:        Box{X: 0, Y: 0, Width: 10, Height: 10},
			b:        Box{X: 0, Y: 0, Width: 10, Height: 10},
			expected: 1.0,
		},
		{
			name:     "no overlap",
			a:        Box{X: 0, Y: 0, Width: 10, Height: 10},
			b:        Box{X: 20, Y: 20, Width: 10, Height: 10},
			expected: 0.0,
		},
		{
			name:     "half overlap",
			a:        Box{X: 0, Y: 0, Width: 10, Height: 10},
			b:        Box{X: 5, Y: 0, Width: 10, Height: 10},
			expected: 50.0 / 150.0,
		},
		{
			name:     "touching edges",
			a:        Box{X: 0, Y: 0, Width: 10, Height: 10},
			b:        Box{X: 10, Y: 0, Width: 10, Height: 10},
			expected: 0.0,
		},
		{
			name:     "contained box",
			a:        Box{X: 0, Y: 0, Width: 10, Height: 10},
			b:        Box{X: 2, Y: 2, Width: 5, Height: 5},
			expected: 25.0 / 100.0,
		},
		{
			name:     "degenerate box",
			a:        Box{X: 0, Y: 0, Width: 0, Height: 0},
			b:        Box{X: 0, Y: 0, Width: 10, Height: 10},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IoU(tt.a, tt.b)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("IoU() = %f, want %f", result, tt.expected)
			}
		})
	}
}

func TestHeightRatio(t *testing.T) {
	tests := []struct {
		name        string
		box         Box
		frameHeight int
		expected    float64
	}{
		{"half frame", Box{Height: 240}, 480, 0.5},
		{"full frame", Box{Height: 480}, 480, 1.0},
		{"zero frame height", Box{Height: 240}, 0, 0},
		{"negative frame height", Box{Height: 240}, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HeightRatio(tt.box, tt.frameHeight)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("HeightRatio() = %f, want %f", result, tt.expected)
			}
		})
	}
}

func TestBoxContains(t *testing.T) {
	box := Box{X: 10, Y: 10, Width: 20, Height: 20}

	tests := []struct {
		name     string
		x, y     float64
		expected bool
	}{
		{"center", 20, 20, true},
		{"top-left corner", 10, 10, true},
		{"bottom-right corner", 30, 30, true},
		{"left of box", 5, 20, false},
		{"below box", 20, 35, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Contains(tt.x, tt.y); got != tt.expected {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.expected)
			}
		})
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"scaled same direction", []float32{1, 1}, []float32{3, 3}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 2},
		{"empty", nil, nil, 2},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineDistance(tt.a, tt.b)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("CosineDistance() = %f, want %f", result, tt.expected)
			}
		})
	}
}
