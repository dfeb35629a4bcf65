// Package track implements the per-frame multi-face tracking and
// re-identification engine: detection filtering, identity matching against a
// bounded re-ID bank, candidate corroboration, and behavioral derivation.
package track

import "time"

// Point is a single facial landmark in frame pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is a bounding box in frame pixels, [x, y, width, height] layout.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one raw face detection for a single frame. It is produced by
// the detector adapter, never mutated, and discarded once the frame is
// processed. Descriptor is only present on deep frames.
type Detection struct {
	Box         Box                `json:"box"`
	Score       float64            `json:"score"`
	Landmarks   []Point            `json:"landmarks"`
	Expressions map[string]float64 `json:"expressions"`
	Descriptor  []float32          `json:"descriptor,omitempty"`
}

// Gaze is a coarse three-way gaze classification.
type Gaze string

const (
	GazeLeft   Gaze = "Left"
	GazeRight  Gaze = "Right"
	GazeCenter Gaze = "Center"
)

// Distance buckets the subject's distance from the camera by apparent size.
type Distance string

const (
	DistanceNear Distance = "Near"
	DistanceMid  Distance = "Mid"
	DistanceFar  Distance = "Far"
)

// EmotionNeutral is the uninformative default expression label. It is
// excluded from the dominant-emotion KPI.
const EmotionNeutral = "neutral"

// TrackID identifies a face within a frame. Light frames carry no descriptor,
// so their faces cannot be re-identified yet; those tracks are Unresolved
// rather than carrying a sentinel numeric id.
type TrackID struct {
	id       int64
	resolved bool
}

// Identified returns a TrackID bound to a confirmed identity.
func Identified(id int64) TrackID {
	return TrackID{id: id, resolved: true}
}

// Unresolved returns a TrackID for a face that has not been re-identified.
func Unresolved() TrackID {
	return TrackID{}
}

// ID returns the identity id and whether the track is resolved.
func (t TrackID) ID() (int64, bool) {
	return t.id, t.resolved
}

// Resolved reports whether the track is bound to a confirmed identity.
func (t TrackID) Resolved() bool {
	return t.resolved
}

// FaceTrack is the per-frame output unit for one surviving detection. It is
// not persisted beyond the frame except through session aggregation.
type FaceTrack struct {
	ID           TrackID
	Name         string
	Box          Box
	Emotion      string
	EmotionScore float64
	Speaking     bool
	Motion       float64
	Gaze         Gaze
	Distance     Distance
}

// Result is the tracker output for one processed frame.
type Result struct {
	Tracks []FaceTrack
	Motion float64
	At     time.Time
}
