// Package snapshot persists evidence frames for violations, at most once per
// cooldown window across all violation kinds.
package snapshot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/violation"
)

// TimeLayout is the timestamp part of a snapshot file name.
const TimeLayout = "2006_01_02__15_04_05"

// DefaultCooldown is the minimum time between two snapshots.
const DefaultCooldown = 5 * time.Second

// Writer stores an image at path.
type Writer interface {
	Write(path string, img gocv.Mat) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(path string, img gocv.Mat) error

// Write calls f.
func (f WriterFunc) Write(path string, img gocv.Mat) error { return f(path, img) }

// JPEGWriter writes images with OpenCV, picking the codec from the extension.
type JPEGWriter struct{}

// Write implements Writer.
func (JPEGWriter) Write(path string, img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("snapshot: empty image")
	}
	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("snapshot: failed to write %s", path)
	}
	return nil
}

// FileName returns the deterministic snapshot name for a violation.
func FileName(kind violation.Kind, at time.Time) string {
	return fmt.Sprintf("violation_%s_%s.jpg", kind, at.Format(TimeLayout))
}

// Manager gates snapshot writes behind a single shared cooldown.
type Manager struct {
	dir      string
	cooldown time.Duration
	writer   Writer
	logger   *slog.Logger

	mu      sync.Mutex
	last    time.Time
	hasLast bool
}

// Option customizes a Manager.
type Option func(*Manager)

// WithWriter replaces the OpenCV writer.
func WithWriter(w Writer) Option {
	return func(m *Manager) { m.writer = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates a manager writing into dir. An empty dir means the working directory.
func New(dir string, cooldown time.Duration, opts ...Option) *Manager {
	if dir == "" {
		dir = "."
	}
	m := &Manager{
		dir:      dir,
		cooldown: cooldown,
		writer:   JPEGWriter{},
		logger:   log.Component("snapshot"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureDir creates the snapshot directory if needed.
func (m *Manager) EnsureDir() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create %s: %w", m.dir, err)
	}
	return nil
}

// MaybePersist writes the event's frame when the cooldown has elapsed since
// the last successful write, measured at the event time. It returns the path
// and true when a file was written. Declining is not an error. A failed write
// leaves the cooldown untouched.
func (m *Manager) MaybePersist(ev violation.Event) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasLast && ev.Time.Sub(m.last) < m.cooldown {
		return "", false, nil
	}

	path := filepath.Join(m.dir, FileName(ev.Kind, ev.Time))
	if err := m.writer.Write(path, ev.Frame); err != nil {
		return "", false, err
	}

	m.last = ev.Time
	m.hasLast = true
	m.logger.Info("snapshot saved", "path", path, "kind", ev.Kind, "event_id", ev.ID)
	return path, true, nil
}

// LastSnapshot returns the time of the last write, if any.
func (m *Manager) LastSnapshot() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.hasLast
}
