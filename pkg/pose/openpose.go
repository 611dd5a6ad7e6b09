package pose

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Estimator finds body keypoints in a frame.
type Estimator interface {
	Estimate(img gocv.Mat) (Landmarks, error)
	Close() error
}

// Config holds estimator configuration.
type Config struct {
	ModelPath  string  // Caffe weights (or ONNX model)
	ConfigPath string  // Caffe prototxt, empty for ONNX
	InputSize  int     // Square network input size
	MinScore   float64 // Minimum heatmap peak to accept a keypoint
}

// DefaultConfig returns defaults for the COCO OpenPose model.
func DefaultConfig() Config {
	return Config{
		ModelPath:  "models/pose_iter_440000.caffemodel",
		ConfigPath: "models/openpose_pose_coco.prototxt",
		InputSize:  368,
		MinScore:   0.1,
	}
}

// tracked lists the keypoints extracted from the heatmaps.
var tracked = []Part{Nose, Neck, RightShoulder, LeftShoulder, RightEar, LeftEar}

// OpenPose estimates keypoints with an OpenPose network run through OpenCV DNN.
type OpenPose struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
}

// NewOpenPose loads the network described by cfg.
func NewOpenPose(cfg Config) (*OpenPose, error) {
	for _, p := range []string{cfg.ModelPath, cfg.ConfigPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, p)
		}
	}

	net := gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &OpenPose{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputSize, cfg.InputSize),
	}, nil
}

// Estimate runs the network on img and returns the tracked keypoints.
func (o *OpenPose) Estimate(img gocv.Mat) (Landmarks, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, o.inputSize, gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	o.net.SetInput(blob, "")
	out := o.net.Forward("")
	defer out.Close()

	// Output shape: [1, parts+pafs, H, W]
	dims := out.Size()
	if len(dims) != 4 {
		return nil, fmt.Errorf("%w: %d dims", ErrUnexpectedOutput, len(dims))
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedOutput, err)
	}

	return parseHeatmaps(data, dims[1], dims[2], dims[3], o.config.MinScore), nil
}

// parseHeatmaps takes the peak of each tracked keypoint heatmap. Heatmaps are
// laid out channel-major: data[c*h*w + y*w + x].
func parseHeatmaps(data []float32, channels, h, w int, minScore float64) Landmarks {
	out := make(Landmarks, len(tracked))
	plane := h * w
	if plane == 0 {
		return out
	}

	for _, part := range tracked {
		c := int(part)
		if c >= channels || (c+1)*plane > len(data) {
			continue
		}

		heat := data[c*plane : (c+1)*plane]
		best, bestIdx := float32(-1), -1
		for i, v := range heat {
			if v > best {
				best, bestIdx = v, i
			}
		}
		if bestIdx < 0 || float64(best) < minScore {
			continue
		}

		x, y := bestIdx%w, bestIdx/w
		out[part] = Landmark{
			X:     (float64(x) + 0.5) / float64(w),
			Y:     (float64(y) + 0.5) / float64(h),
			Score: float64(best),
		}
	}

	return out
}

// Close releases the network.
func (o *OpenPose) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.net.Close()
}
