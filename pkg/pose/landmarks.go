// Package pose provides body keypoints and the head orientation derived from them.
package pose

// Part identifies a body keypoint.
type Part int

// Keypoints used by the monitor. Values follow the COCO 18-part OpenPose layout.
const (
	Nose          Part = 0
	Neck          Part = 1
	RightShoulder Part = 2
	LeftShoulder  Part = 5
	RightEar      Part = 16
	LeftEar       Part = 17
)

// String returns the keypoint name for logging.
func (p Part) String() string {
	switch p {
	case Nose:
		return "nose"
	case Neck:
		return "neck"
	case RightShoulder:
		return "right_shoulder"
	case LeftShoulder:
		return "left_shoulder"
	case RightEar:
		return "right_ear"
	case LeftEar:
		return "left_ear"
	default:
		return "unknown"
	}
}

// Landmark is a keypoint in normalized image coordinates (0-1).
type Landmark struct {
	X, Y  float64
	Score float64 // Detector confidence for this keypoint
}

// Landmarks holds the keypoints found in one frame. A missing part means the
// estimator did not see it.
type Landmarks map[Part]Landmark

// Get returns the landmark for part and whether it was found.
func (l Landmarks) Get(part Part) (Landmark, bool) {
	lm, ok := l[part]
	return lm, ok
}

// Has reports whether every listed part is present.
func (l Landmarks) Has(parts ...Part) bool {
	for _, p := range parts {
		if _, ok := l[p]; !ok {
			return false
		}
	}
	return true
}
