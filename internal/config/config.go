// Package config provides configuration loading for go-proctor.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the full runtime configuration of the monitor.
type Config struct {
	Camera   CameraConfig   `koanf:"camera" yaml:"camera"`
	Notify   NotifyConfig   `koanf:"notify" yaml:"notify"`
	Monitor  MonitorConfig  `koanf:"monitor" yaml:"monitor"`
	Snapshot SnapshotConfig `koanf:"snapshot" yaml:"snapshot"`
	Detector DetectorConfig `koanf:"detector" yaml:"detector"`
	Pose     PoseConfig     `koanf:"pose" yaml:"pose"`
	Face     FaceConfig     `koanf:"face" yaml:"face"`
	Display  DisplayConfig  `koanf:"display" yaml:"display"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
}

// CameraConfig describes the frame endpoint.
type CameraConfig struct {
	URL       string        `koanf:"url" yaml:"url"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout"`
	UserAgent string        `koanf:"user_agent" yaml:"user_agent"`
}

// NotifyConfig describes where violations are reported.
type NotifyConfig struct {
	URL         string        `koanf:"url" yaml:"url"`
	Timeout     time.Duration `koanf:"timeout" yaml:"timeout"`
	NATSURL     string        `koanf:"nats_url" yaml:"nats_url"`
	NATSSubject string        `koanf:"nats_subject" yaml:"nats_subject"`
}

// MonitorConfig holds the pipeline tunables.
type MonitorConfig struct {
	RotationThreshold float64       `koanf:"rotation_threshold" yaml:"rotation_threshold"` // degrees
	ViolationTime     time.Duration `koanf:"violation_time" yaml:"violation_time"`
	MaxRetries        int           `koanf:"max_retries" yaml:"max_retries"`
	Backoff           time.Duration `koanf:"backoff" yaml:"backoff"`
	RequireFace       bool          `koanf:"require_face" yaml:"require_face"`
}

// SnapshotConfig controls evidence frames written to disk.
type SnapshotConfig struct {
	Dir      string        `koanf:"dir" yaml:"dir"`
	Cooldown time.Duration `koanf:"cooldown" yaml:"cooldown"`
}

// DetectorConfig points at the object detector model files.
type DetectorConfig struct {
	Weights    string  `koanf:"weights" yaml:"weights"`
	Config     string  `koanf:"config" yaml:"config"`
	Names      string  `koanf:"names" yaml:"names"`
	Class      string  `koanf:"class" yaml:"class"`
	Confidence float64 `koanf:"confidence" yaml:"confidence"`
	NMS        float64 `koanf:"nms" yaml:"nms"`
	InputSize  int     `koanf:"input_size" yaml:"input_size"`
}

// PoseConfig points at the body keypoint model.
type PoseConfig struct {
	Model     string  `koanf:"model" yaml:"model"`
	Config    string  `koanf:"config" yaml:"config"`
	InputSize int     `koanf:"input_size" yaml:"input_size"`
	MinScore  float64 `koanf:"min_score" yaml:"min_score"`
}

// FaceConfig points at the face detector model.
type FaceConfig struct {
	Model      string  `koanf:"model" yaml:"model"`
	Confidence float64 `koanf:"confidence" yaml:"confidence"`
}

// DisplayConfig controls the operator window.
type DisplayConfig struct {
	Headless bool   `koanf:"headless" yaml:"headless"`
	Window   string `koanf:"window" yaml:"window"`
}

// MetricsConfig controls the Prometheus listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

// Defaults match the ESP32-CAM deployment the monitor was built for.
const (
	DefaultCameraIP = "192.168.162.85"
	DefaultTimeout  = 5 * time.Second

	DefaultRotationThreshold = 8.0
	DefaultViolationTime     = 1 * time.Second
	DefaultMaxRetries        = 5
	DefaultBackoff           = 2 * time.Second
	DefaultSnapshotCooldown  = 5 * time.Second

	DefaultPhoneClass      = "cell phone"
	DefaultPhoneConfidence = 0.5
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	ip := CameraIP(DefaultCameraIP)
	return Config{
		Camera: CameraConfig{
			URL:       CaptureURL(ip),
			Timeout:   DefaultTimeout,
			UserAgent: "Mozilla/5.0",
		},
		Notify: NotifyConfig{
			URL:         ViolationURL(ip),
			Timeout:     DefaultTimeout,
			NATSSubject: "proctor.violations",
		},
		Monitor: MonitorConfig{
			RotationThreshold: DefaultRotationThreshold,
			ViolationTime:     DefaultViolationTime,
			MaxRetries:        DefaultMaxRetries,
			Backoff:           DefaultBackoff,
			RequireFace:       true,
		},
		Snapshot: SnapshotConfig{
			Dir:      ".",
			Cooldown: DefaultSnapshotCooldown,
		},
		Detector: DetectorConfig{
			Weights:    "yolov3.weights",
			Config:     "yolov3.cfg",
			Names:      "coco.names",
			Class:      DefaultPhoneClass,
			Confidence: DefaultPhoneConfidence,
			InputSize:  416,
		},
		Pose: PoseConfig{
			Model:     "models/pose_iter_440000.caffemodel",
			Config:    "models/openpose_pose_coco.prototxt",
			InputSize: 368,
			MinScore:  0.1,
		},
		Face: FaceConfig{
			Model:      "models/face_detection_yunet.onnx",
			Confidence: 0.5,
		},
		Display: DisplayConfig{
			Window: "Detection System",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errs []string

	if err := checkURL(c.Camera.URL); err != nil {
		errs = append(errs, fmt.Sprintf("camera.url: %v", err))
	}
	if c.Camera.Timeout <= 0 {
		errs = append(errs, "camera.timeout must be positive")
	}
	if c.Notify.URL != "" {
		if err := checkURL(c.Notify.URL); err != nil {
			errs = append(errs, fmt.Sprintf("notify.url: %v", err))
		}
	}
	if c.Notify.Timeout <= 0 {
		errs = append(errs, "notify.timeout must be positive")
	}
	if c.Notify.NATSURL != "" && c.Notify.NATSSubject == "" {
		errs = append(errs, "notify.nats_subject is required when notify.nats_url is set")
	}

	if c.Monitor.RotationThreshold <= 0 || c.Monitor.RotationThreshold >= 180 {
		errs = append(errs, "monitor.rotation_threshold must be between 0 and 180 degrees")
	}
	if c.Monitor.ViolationTime < 0 {
		errs = append(errs, "monitor.violation_time must not be negative")
	}
	if c.Monitor.MaxRetries < 1 {
		errs = append(errs, "monitor.max_retries must be at least 1")
	}
	if c.Monitor.Backoff < 0 {
		errs = append(errs, "monitor.backoff must not be negative")
	}

	if c.Snapshot.Cooldown < 0 {
		errs = append(errs, "snapshot.cooldown must not be negative")
	}

	if c.Detector.Class == "" {
		errs = append(errs, "detector.class is required")
	}
	if c.Detector.Confidence <= 0 || c.Detector.Confidence > 1 {
		errs = append(errs, "detector.confidence must be in (0, 1]")
	}
	if c.Detector.NMS < 0 || c.Detector.NMS > 1 {
		errs = append(errs, "detector.nms must be in [0, 1]")
	}
	if c.Detector.InputSize <= 0 || c.Detector.InputSize%32 != 0 {
		errs = append(errs, "detector.input_size must be a positive multiple of 32")
	}
	if c.Pose.InputSize <= 0 {
		errs = append(errs, "pose.input_size must be positive")
	}
	if c.Pose.MinScore < 0 || c.Pose.MinScore > 1 {
		errs = append(errs, "pose.min_score must be in [0, 1]")
	}

	return errs
}

func checkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
