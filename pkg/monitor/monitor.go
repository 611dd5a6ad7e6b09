// Package monitor runs the proctoring loop: fetch a frame, look for phones and
// sustained head rotation, persist evidence and notify, then render.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/capture"
	"github.com/teslashibe/go-proctor/pkg/detection"
	"github.com/teslashibe/go-proctor/pkg/display"
	"github.com/teslashibe/go-proctor/pkg/metrics"
	"github.com/teslashibe/go-proctor/pkg/notify"
	"github.com/teslashibe/go-proctor/pkg/pose"
	"github.com/teslashibe/go-proctor/pkg/violation"
)

// FrameSource yields one frame per call.
type FrameSource interface {
	Fetch(ctx context.Context) capture.Result
}

// ObjectDetector finds boxes matching a query.
type ObjectDetector interface {
	Detect(img gocv.Mat, q detection.Query) ([]detection.ObjectDetection, error)
}

// FaceDetector finds faces.
type FaceDetector interface {
	DetectFaces(img gocv.Mat) ([]detection.Face, error)
}

// PoseEstimator finds body keypoints.
type PoseEstimator interface {
	Estimate(img gocv.Mat) (pose.Landmarks, error)
}

// SnapshotStore persists evidence frames behind a cooldown.
type SnapshotStore interface {
	MaybePersist(ev violation.Event) (path string, saved bool, err error)
}

// Surface renders frames and reads operator keys.
type Surface interface {
	Annotate(img *gocv.Mat, ov display.Overlay)
	Show(img gocv.Mat)
	PollKey() display.Key
	Close() error
}

// Monitor drives the capture and detection cycle.
type Monitor struct {
	cfg    Config
	source FrameSource

	objects   ObjectDetector
	faces     FaceDetector
	pose      PoseEstimator
	snapshots SnapshotStore
	notifier  notify.Notifier
	surface   Surface

	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	session *Session
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithObjectDetector sets the phone detector.
func WithObjectDetector(d ObjectDetector) Option {
	return func(m *Monitor) { m.objects = d }
}

// WithFaceDetector sets the face detector used to gate orientation.
func WithFaceDetector(d FaceDetector) Option {
	return func(m *Monitor) { m.faces = d }
}

// WithPoseEstimator sets the keypoint model.
func WithPoseEstimator(p PoseEstimator) Option {
	return func(m *Monitor) { m.pose = p }
}

// WithSnapshots sets the evidence store.
func WithSnapshots(s SnapshotStore) Option {
	return func(m *Monitor) { m.snapshots = s }
}

// WithNotifier sets where violations are reported.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Monitor) { m.notifier = n }
}

// WithSurface sets the display surface.
func WithSurface(s Surface) Option {
	return func(m *Monitor) { m.surface = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithClock overrides time.Now for violation timing.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithSleep overrides the backoff sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Monitor) { m.sleep = sleep }
}

// New creates a monitor reading from src. Collaborators left unset are
// skipped: no detector means no boxes, no pose means no orientation.
func New(cfg Config, src FrameSource, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:      cfg,
		source:   src,
		notifier: notify.Nop{},
		surface:  display.Headless{},
		logger:   log.Component("monitor"),
		now:      time.Now,
		sleep:    sleepContext,
		session:  NewSession(cfg),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session exposes the loop state. Not safe to use while Run is active.
func (m *Monitor) Session() *Session {
	return m.session
}

// Run loops until the operator quits, ctx is cancelled, or the fetch retry
// budget is exhausted. The display surface is closed on return.
func (m *Monitor) Run(ctx context.Context) error {
	defer func() {
		if err := m.surface.Close(); err != nil {
			m.logger.Warn("close display", "error", err)
		}
	}()

	m.logger.Info("monitor started",
		"rotation_threshold", m.cfg.RotationThreshold,
		"violation_time", m.cfg.ViolationTime,
		"max_retries", m.cfg.MaxRetries,
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := m.source.Fetch(ctx)
		metrics.FramesTotal.WithLabelValues(res.Outcome.String()).Inc()

		switch res.Outcome {
		case capture.Success:
			m.session.failures = 0
			m.process(ctx, res.Frame)
			res.Frame.Close()

		case capture.DecodeFailure:
			m.logger.Debug("skipping undecodable frame", "error", res.Err)

		case capture.TransportFailure:
			if err := ctx.Err(); err != nil {
				return err
			}
			m.session.failures++
			m.logger.Warn("frame fetch failed, retrying",
				"attempt", m.session.failures,
				"max", m.cfg.MaxRetries,
				"error", res.Err,
			)
			if m.session.failures >= m.cfg.MaxRetries {
				return fmt.Errorf("%w: %v", ErrRetriesExhausted, res.Err)
			}
			if err := m.sleep(ctx, m.cfg.Backoff); err != nil {
				return err
			}
			continue
		}

		switch m.surface.PollKey() {
		case display.KeyQuit:
			m.logger.Info("operator requested stop")
			return nil
		case display.KeyReset:
			m.session.Reset()
			metrics.Baseline.Set(math.NaN())
			m.logger.Info("resetting baseline angle")
		}
	}
}

// process runs one successful cycle on frame.
func (m *Monitor) process(ctx context.Context, frame capture.Frame) {
	start := time.Now()
	defer metrics.ObserveCycle(start)

	img := frame.Mat
	now := m.now()

	var ov display.Overlay
	var events []violation.Event

	ov.Phones = m.detectPhones(img)
	events = append(events, PhoneEvents(ov.Phones, img, now)...)

	if angle, ok := m.headAngle(img, &ov); ok {
		if _, established := m.session.Calibration.Observe(angle); established {
			metrics.Baseline.Set(angle)
			m.logger.Info("baseline angle set", "degrees", angle)
		} else {
			baseline, _ := m.session.Calibration.Baseline()
			r := m.session.Rotation.Update(angle, baseline, now)
			ov.Rotation = &display.RotationInfo{Diff: r.Diff, Alert: r.Alert()}
			if r.Emit {
				events = append(events, violation.New(violation.HeadRotation, now, img))
			}
		}
	}

	m.surface.Annotate(&img, ov)

	for _, ev := range events {
		m.report(ctx, ev)
	}

	m.surface.Show(img)
}

// report persists (if the cooldown allows) and then notifies.
func (m *Monitor) report(ctx context.Context, ev violation.Event) {
	metrics.ViolationsTotal.WithLabelValues(ev.Kind.String()).Inc()
	m.logger.Info("violation", "kind", ev.Kind, "event_id", ev.ID)

	if m.snapshots != nil {
		path, saved, err := m.snapshots.MaybePersist(ev)
		switch {
		case err != nil:
			metrics.SnapshotsTotal.WithLabelValues(metrics.ResultError).Inc()
			m.logger.Error("snapshot failed", "kind", ev.Kind, "error", err)
		case saved:
			metrics.SnapshotsTotal.WithLabelValues(metrics.ResultSaved).Inc()
			m.logger.Debug("snapshot written", "path", path)
		default:
			metrics.SnapshotsTotal.WithLabelValues(metrics.ResultDeclined).Inc()
		}
	}

	m.notifier.Notify(ctx, ev)
}

func (m *Monitor) detectPhones(img gocv.Mat) []detection.ObjectDetection {
	if m.objects == nil {
		return nil
	}
	q := detection.Query{Class: m.cfg.PhoneClass, MinConfidence: m.cfg.PhoneConfidence}
	boxes, err := m.objects.Detect(img, q)
	if err != nil {
		m.logger.Debug("object detection failed", "error", err)
		return nil
	}
	return q.Filter(boxes)
}

// headAngle returns the orientation sample for this frame, recording the
// face on the overlay when one is found.
func (m *Monitor) headAngle(img gocv.Mat, ov *display.Overlay) (float64, bool) {
	if m.pose == nil {
		return 0, false
	}

	if m.faces != nil {
		faces, err := m.faces.DetectFaces(img)
		if err != nil {
			m.logger.Debug("face detection failed", "error", err)
		}
		ov.Face = detection.SelectBest(faces)
		if m.cfg.RequireFace && ov.Face == nil {
			return 0, false
		}
	}

	landmarks, err := m.pose.Estimate(img)
	if err != nil {
		m.logger.Debug("pose estimation failed", "error", err)
		return 0, false
	}
	return pose.HeadAngle(landmarks)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
