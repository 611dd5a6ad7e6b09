package pose

import "math"

// Vec2 is a 2-D vector.
type Vec2 struct{ X, Y float64 }

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

// Dot returns the dot product.
func (a Vec2) Dot(b Vec2) float64 { return a.X*b.X + a.Y*b.Y }

// Cross returns the z component of the 3-D cross product with z=0.
func (a Vec2) Cross(b Vec2) float64 { return a.X*b.Y - a.Y*b.X }

// Norm returns the Euclidean length.
func (a Vec2) Norm() float64 { return math.Hypot(a.X, a.Y) }

// Unit returns a scaled to unit length. ok is false for a zero vector.
func (a Vec2) Unit() (Vec2, bool) {
	n := a.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Vec2{}, false
	}
	return Vec2{a.X / n, a.Y / n}, true
}

func point(l Landmark) Vec2 { return Vec2{l.X, l.Y} }

// HeadAngle returns the signed angle in degrees between the shoulder line and
// the ear line. The sign follows the z component of shoulder x head; a
// negative cross product gives a negative angle.
//
// ok is false when either shoulder or either ear is missing, or when the two
// points of a pair coincide.
func HeadAngle(l Landmarks) (angle float64, ok bool) {
	if !l.Has(LeftShoulder, RightShoulder, LeftEar, RightEar) {
		return 0, false
	}

	shoulder, ok := point(l[RightShoulder]).Sub(point(l[LeftShoulder])).Unit()
	if !ok {
		return 0, false
	}
	head, ok := point(l[RightEar]).Sub(point(l[LeftEar])).Unit()
	if !ok {
		return 0, false
	}

	angle = Degrees(math.Acos(clamp(shoulder.Dot(head), -1, 1)))
	if shoulder.Cross(head) < 0 {
		angle = -angle
	}
	return angle, true
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
