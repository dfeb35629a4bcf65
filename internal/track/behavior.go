package track

import "math"

// 68-point landmark layout offsets (dlib/face-api convention).
const (
	mouthStart   = 48
	mouthEnd     = 68
	leftEyeStart = 36
)

// MouthOpenRatio computes the vertical inner-lip distance normalized by mouth
// width from a 68-point landmark set. Returns 0 when the landmark set is too
// small or degenerate.
func MouthOpenRatio(landmarks []Point) float64 {
	if len(landmarks) < mouthEnd {
		return 0
	}
	mouth := landmarks[mouthStart:mouthEnd]
	top := mouth[13]
	bottom := mouth[19]
	left := mouth[0]
	right := mouth[6]

	open := math.Hypot(top.Y-bottom.Y, top.X-bottom.X)
	width := math.Hypot(left.X-right.X, left.Y-right.Y)
	if width == 0 {
		return 0
	}
	return open / width
}

// GazeFrom classifies gaze direction from the relative vertical offset of the
// left eye's corners. The 2px dead zone keeps the classification stable for a
// level head.
func GazeFrom(landmarks []Point) Gaze {
	if len(landmarks) < leftEyeStart+6 {
		return GazeCenter
	}
	eye := landmarks[leftEyeStart : leftEyeStart+6]
	switch {
	case eye[0].Y-eye[3].Y > 2:
		return GazeLeft
	case eye[3].Y-eye[0].Y > 2:
		return GazeRight
	default:
		return GazeCenter
	}
}

// DistanceBucket maps the face's height-to-frame-height ratio onto a coarse
// distance bucket.
func (c Config) DistanceBucket(hRatio float64) Distance {
	switch {
	case hRatio > c.NearRatio:
		return DistanceNear
	case hRatio > c.MidRatio:
		return DistanceMid
	default:
		return DistanceFar
	}
}

// DominantEmotion picks the highest-probability entry from an expression map.
// Returns neutral with score 0 for an empty map.
func DominantEmotion(expressions map[string]float64) (string, float64) {
	emotion := EmotionNeutral
	score := 0.0
	first := true
	for label, p := range expressions {
		if first || p > score || (p == score && label < emotion) {
			emotion = label
			score = p
			first = false
		}
	}
	if first {
		return EmotionNeutral, 0
	}
	return emotion, score
}

// speakCounter implements per-identity speaking hysteresis: the counter
// increments while the mouth-open ratio exceeds the open threshold and
// decrements otherwise, floored at zero. Speaking flips on once the counter
// reaches the minimum frame count and stays on until it decays back below.
type speakCounter map[int64]int

func (s speakCounter) observe(id int64, open bool) int {
	n := s[id]
	if open {
		n++
	} else if n > 0 {
		n--
	}
	s[id] = n
	return n
}

func (s speakCounter) forget(id int64) {
	delete(s, id)
}
