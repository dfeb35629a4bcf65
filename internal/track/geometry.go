package track

// IoU calculates Intersection over Union between two bounding boxes.
// Returns 0 for disjoint or degenerate boxes.
func IoU(a, b Box) float64 {
	ax2 := a.X + a.Width
	ay2 := a.Y + a.Height
	bx2 := b.X + b.Width
	by2 := b.Y + b.Height

	ix := min(ax2, bx2) - max(a.X, b.X)
	iy := min(ay2, by2) - max(a.Y, b.Y)
	if ix <= 0 || iy <= 0 {
		return 0 // No intersection
	}

	intersection := ix * iy
	union := a.Width*a.Height + b.Width*b.Height - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}

// HeightRatio returns the box height relative to the frame height.
// Used to reject far/tiny faces prone to false re-identification.
func HeightRatio(b Box, frameHeight int) float64 {
	if frameHeight <= 0 {
		return 0
	}
	return b.Height / float64(frameHeight)
}

// Contains reports whether the point (x, y) lies inside the box.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height
}
