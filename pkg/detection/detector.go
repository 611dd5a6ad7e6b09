// Package detection provides object and face detection using computer vision.
package detection

import "image"

// Detection represents a detected bounding box
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// Center returns the center point of the detection
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Rect scales the detection to a pixel rectangle in an image of the given size.
func (d Detection) Rect(width, height int) image.Rectangle {
	fw, fh := float64(width), float64(height)
	x0 := int(d.X * fw)
	y0 := int(d.Y * fh)
	return image.Rect(x0, y0, x0+int(d.W*fw), y0+int(d.H*fh))
}

// Query tells an object detector which boxes the caller wants back.
type Query struct {
	Class         string  // Class name, e.g. "cell phone"
	MinConfidence float64 // Boxes below this are dropped
}

// Matches reports whether a detection satisfies the query.
func (q Query) Matches(d ObjectDetection) bool {
	if q.Class != "" && d.ClassName != q.Class {
		return false
	}
	return d.Confidence >= q.MinConfidence
}

// Filter returns the detections matching q, preserving order.
func (q Query) Filter(dets []ObjectDetection) []ObjectDetection {
	var out []ObjectDetection
	for _, d := range dets {
		if q.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

// SelectBest picks the best face from multiple detections
// Priority: confidence * 0.7 + area * 0.3
func SelectBest(faces []Face) *Face {
	if len(faces) == 0 {
		return nil
	}

	if len(faces) == 1 {
		return &faces[0]
	}

	// Find max area for normalization
	maxArea := 0.0
	for _, f := range faces {
		if f.Area() > maxArea {
			maxArea = f.Area()
		}
	}

	bestScore := -1.0
	var best *Face

	for i := range faces {
		score := faces[i].Confidence * 0.7
		if maxArea > 0 {
			score += (faces[i].Area() / maxArea) * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = &faces[i]
		}
	}

	return best
}
