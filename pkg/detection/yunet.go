package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Face is a detected face with its five YuNet landmarks
// (right eye, left eye, nose tip, right mouth corner, left mouth corner),
// all normalized to 0-1.
type Face struct {
	Detection
	Landmarks [5][2]float64
}

// FaceConfig holds face detector configuration
type FaceConfig struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Initial model input width
	InputHeight      int     // Initial model input height
}

// DefaultFaceConfig returns production defaults for YuNet
func DefaultFaceConfig() FaceConfig {
	return FaceConfig{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   FaceConfig
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates a new YuNet face detector using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg FaceConfig) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	// Input size is updated per image
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// DetectFaces finds faces in img
func (d *YuNetDetector) DetectFaces(img gocv.Mat) ([]Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return nil, ErrEmptyImage
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	var out []Face
	for r := 0; r < faces.Rows(); r++ {
		// YuNet output format (15 columns):
		// 0-3: x, y, w, h (bounding box in pixels)
		// 4-13: 5 facial landmarks (x,y pairs)
		// 14: face score
		f := Face{
			Detection: Detection{
				X:          float64(faces.GetFloatAt(r, 0)) / imgW,
				Y:          float64(faces.GetFloatAt(r, 1)) / imgH,
				W:          float64(faces.GetFloatAt(r, 2)) / imgW,
				H:          float64(faces.GetFloatAt(r, 3)) / imgH,
				Confidence: float64(faces.GetFloatAt(r, 14)),
			},
		}
		for i := 0; i < 5; i++ {
			f.Landmarks[i][0] = float64(faces.GetFloatAt(r, 4+2*i)) / imgW
			f.Landmarks[i][1] = float64(faces.GetFloatAt(r, 5+2*i)) / imgH
		}
		out = append(out, f)
	}

	return out, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
