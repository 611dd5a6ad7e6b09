// Package capture pulls still frames from an HTTP camera endpoint.
package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/internal/httpc"
	"github.com/teslashibe/go-proctor/internal/log"
)

// maxFrameBytes bounds a single capture response.
const maxFrameBytes = 16 << 20

// Outcome classifies one fetch attempt.
type Outcome int

const (
	// Success carries a decoded frame.
	Success Outcome = iota
	// DecodeFailure means the payload arrived but is not an image.
	DecodeFailure
	// TransportFailure covers timeouts, connection errors and non-2xx replies.
	TransportFailure
)

// String returns the outcome name for logs and metrics.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case DecodeFailure:
		return "decode_failure"
	case TransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Frame is a decoded image and the time it was received.
type Frame struct {
	Mat        gocv.Mat
	CapturedAt time.Time
}

// Close releases the image buffer.
func (f Frame) Close() error {
	return f.Mat.Close()
}

// Result is the outcome of one Fetch. Frame is set only on Success and must be
// closed by the caller. Err is set on both failure outcomes.
type Result struct {
	Outcome Outcome
	Frame   Frame
	Err     error
}

// DecodeFunc turns an encoded payload into an image.
type DecodeFunc func(payload []byte) (gocv.Mat, error)

// Config holds frame source configuration.
type Config struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Source fetches one frame per call. It never retries.
type Source struct {
	url    string
	client *http.Client
	decode DecodeFunc
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes a Source.
type Option func(*Source)

// WithHTTPClient replaces the HTTP client built from Config.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.client = c }
}

// WithDecoder replaces the image decoder.
func WithDecoder(fn DecodeFunc) Option {
	return func(s *Source) { s.decode = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// WithClock overrides time.Now for CapturedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// New creates a frame source for cfg.URL.
func New(cfg Config, opts ...Option) *Source {
	s := &Source{
		url:    cfg.URL,
		client: httpc.NewClient(cfg.Timeout, cfg.UserAgent),
		decode: DecodeImage,
		now:    time.Now,
		logger: log.Component("capture"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch performs one blocking GET and decodes the body.
func (s *Source) Fetch(ctx context.Context) Result {
	payload, err := s.get(ctx)
	if err != nil {
		return Result{Outcome: TransportFailure, Err: err}
	}

	mat, err := s.decode(payload)
	if err != nil {
		mat.Close()
		s.logger.Debug("frame not decodable", "bytes", len(payload), "error", err)
		return Result{Outcome: DecodeFailure, Err: err}
	}

	return Result{
		Outcome: Success,
		Frame:   Frame{Mat: mat, CapturedAt: s.now()},
	}
}

func (s *Source) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return payload, nil
}

// DecodeImage decodes any format OpenCV understands into a 3-channel BGR
// image. An empty payload or an empty result is reported as ErrDecode, and the
// returned Mat must still be closed.
func DecodeImage(payload []byte) (gocv.Mat, error) {
	if len(payload) == 0 {
		return gocv.NewMat(), ErrDecode
	}

	mat, err := gocv.IMDecode(payload, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), ErrDecode
	}
	return mat, nil
}
