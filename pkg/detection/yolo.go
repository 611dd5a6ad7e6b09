package detection

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// ObjectDetection represents a detected object with class info
type ObjectDetection struct {
	Detection
	ClassID   int    // COCO class ID
	ClassName string // Human-readable class name
}

// ModelFormat tells the detector how to read the network output.
type ModelFormat int

const (
	// FormatDarknet is YOLOv3/v4 loaded from .weights + .cfg.
	// Each output row is [cx, cy, w, h, objectness, class scores...], normalized.
	FormatDarknet ModelFormat = iota
	// FormatONNX is YOLOv8 exported to ONNX.
	// Output is [1, 4+classes, N] in input-pixel coordinates.
	FormatONNX
)

// YOLODetector runs a YOLO network through OpenCV DNN
type YOLODetector struct {
	net       gocv.Net
	config    YOLOConfig
	format    ModelFormat
	classes   []string
	outNames  []string
	mu        sync.Mutex
	inputSize image.Point
}

// YOLOConfig holds YOLO detector configuration
type YOLOConfig struct {
	ModelPath        string  // .weights or .onnx
	ConfigPath       string  // .cfg for darknet, empty for ONNX
	NamesPath        string  // One class name per line; empty uses COCOClasses
	ConfidenceThresh float32 // Used when a query has no MinConfidence
	NMSThresh        float32 // 0 disables non-maximum suppression
	InputWidth       int
	InputHeight      int
}

// DefaultYOLOConfig returns defaults for YOLOv3 at 416x416
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "yolov3.weights",
		ConfigPath:       "yolov3.cfg",
		NamesPath:        "coco.names",
		ConfidenceThresh: 0.5,
		NMSThresh:        0,
		InputWidth:       416,
		InputHeight:      416,
	}
}

// FormatOf infers the model format from the model file extension.
func FormatOf(modelPath string) ModelFormat {
	if strings.EqualFold(filepath.Ext(modelPath), ".onnx") {
		return FormatONNX
	}
	return FormatDarknet
}

// NewYOLO creates a new YOLO object detector
func NewYOLO(cfg YOLOConfig) (*YOLODetector, error) {
	for _, p := range []string{cfg.ModelPath, cfg.ConfigPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, p)
		}
	}

	classes := COCOClasses
	if cfg.NamesPath != "" {
		names, err := LoadClassNames(cfg.NamesPath)
		if err != nil {
			return nil, err
		}
		classes = names
	}

	format := FormatOf(cfg.ModelPath)

	var net gocv.Net
	if format == FormatONNX {
		net = gocv.ReadNetFromONNX(cfg.ModelPath)
	} else {
		net = gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	}
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	// Darknet models have one output per YOLO head
	var outNames []string
	if format == FormatDarknet {
		layers := net.GetLayerNames()
		for _, id := range net.GetUnconnectedOutLayers() {
			if id-1 >= 0 && id-1 < len(layers) {
				outNames = append(outNames, layers[id-1])
			}
		}
	}

	return &YOLODetector{
		net:       net,
		config:    cfg,
		format:    format,
		classes:   classes,
		outNames:  outNames,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// candidate is one raw box before thresholding by class and NMS.
type candidate struct {
	box     Detection
	classID int
}

// Detect finds objects matching q in img.
func (d *YOLODetector) Detect(img gocv.Mat, q Query) ([]ObjectDetection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return nil, ErrEmptyImage
	}
	if q.MinConfidence <= 0 {
		q.MinConfidence = float64(d.config.ConfidenceThresh)
	}

	var cands []candidate
	var err error
	if d.format == FormatONNX {
		cands, err = d.forwardONNX(img)
	} else {
		cands, err = d.forwardDarknet(img)
	}
	if err != nil {
		return nil, err
	}

	var dets []ObjectDetection
	for _, c := range cands {
		det := ObjectDetection{
			Detection: c.box,
			ClassID:   c.classID,
			ClassName: d.className(c.classID),
		}
		if q.Matches(det) {
			dets = append(dets, det)
		}
	}

	if d.config.NMSThresh > 0 && len(dets) > 1 {
		dets = suppress(dets, img.Cols(), img.Rows(), float32(q.MinConfidence), d.config.NMSThresh)
	}

	return dets, nil
}

func (d *YOLODetector) forwardDarknet(img gocv.Mat) ([]candidate, error) {
	blob := gocv.BlobFromImage(img, 0.00392, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	outs := d.net.ForwardLayers(d.outNames)

	var cands []candidate
	for i := range outs {
		data, err := outs[i].DataPtrFloat32()
		if err == nil {
			cands = append(cands, parseDarknet(data, outs[i].Cols())...)
		}
		outs[i].Close()
		if err != nil {
			return nil, fmt.Errorf("read output: %w", err)
		}
	}
	return cands, nil
}

func (d *YOLODetector) forwardONNX(img gocv.Mat) ([]candidate, error) {
	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Output shape: [1, 84, 8400] - 84 = 4 bbox + 80 classes
	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected YOLOv8 output dims %v", dims)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	return parseYOLOv8(data, dims[1], dims[2], float64(d.config.InputWidth), float64(d.config.InputHeight)), nil
}

// parseDarknet reads rows of [cx, cy, w, h, objectness, scores...]. The
// confidence of a row is its best class score.
func parseDarknet(data []float32, cols int) []candidate {
	if cols <= 5 {
		return nil
	}

	var cands []candidate
	for off := 0; off+cols <= len(data); off += cols {
		row := data[off : off+cols]

		classID, score := argmax(row[5:])
		if score <= 0 {
			continue
		}

		cx, cy, w, h := float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3])
		cands = append(cands, candidate{
			box: Detection{
				X:          cx - w/2,
				Y:          cy - h/2,
				W:          w,
				H:          h,
				Confidence: float64(score),
			},
			classID: classID,
		})
	}
	return cands
}

// parseYOLOv8 reads the transposed YOLOv8 layout where data[c*n+i] is
// attribute c of detection i. Box coordinates are in input pixels.
func parseYOLOv8(data []float32, attrs, n int, inW, inH float64) []candidate {
	if attrs <= 4 || len(data) < attrs*n {
		return nil
	}

	var cands []candidate
	for i := 0; i < n; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < attrs; c++ {
			if s := data[c*n+i]; s > maxScore {
				maxScore = s
				maxClassID = c - 4
			}
		}
		if maxScore <= 0 {
			continue
		}

		cx := float64(data[0*n+i]) / inW
		cy := float64(data[1*n+i]) / inH
		w := float64(data[2*n+i]) / inW
		h := float64(data[3*n+i]) / inH

		cands = append(cands, candidate{
			box: Detection{
				X:          cx - w/2,
				Y:          cy - h/2,
				W:          w,
				H:          h,
				Confidence: float64(maxScore),
			},
			classID: maxClassID,
		})
	}
	return cands
}

// suppress applies OpenCV non-maximum suppression in pixel space.
func suppress(dets []ObjectDetection, imgW, imgH int, scoreThresh, nmsThresh float32) []ObjectDetection {
	boxes := make([]image.Rectangle, len(dets))
	scores := make([]float32, len(dets))
	for i, d := range dets {
		boxes[i] = d.Rect(imgW, imgH)
		scores[i] = float32(d.Confidence)
	}

	indices := gocv.NMSBoxes(boxes, scores, scoreThresh, nmsThresh)

	kept := make([]ObjectDetection, 0, len(indices))
	for _, idx := range indices {
		kept = append(kept, dets[idx])
	}
	return kept
}

func argmax(scores []float32) (int, float32) {
	best, bestIdx := float32(0), 0
	for i, s := range scores {
		if s > best {
			best, bestIdx = s, i
		}
	}
	return bestIdx, best
}

func (d *YOLODetector) className(id int) string {
	if id >= 0 && id < len(d.classes) {
		return d.classes[id]
	}
	return ""
}

// Close releases the detector resources
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// LoadClassNames reads one class name per line. Line order is the class ID.
func LoadClassNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open class names: %w", err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		names = append(names, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read class names: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("class names file %s is empty", path)
	}
	return names, nil
}

// COCOClasses contains the 80 COCO class names
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}
