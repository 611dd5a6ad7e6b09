package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-proctor/internal/httpc"
	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/metrics"
	"github.com/teslashibe/go-proctor/pkg/violation"
)

// Dispatcher POSTs violations to the device's violation endpoint.
type Dispatcher struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) DispatcherOption {
	return func(d *Dispatcher) { d.client = c }
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher for url with a bounded timeout.
func NewDispatcher(url string, timeout time.Duration, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		url:    url,
		client: httpc.NewClient(timeout, httpc.DefaultUserAgent),
		logger: log.Component("notify"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send performs one POST and reports the outcome. It never retries.
func (d *Dispatcher) Send(ctx context.Context, ev violation.Event) error {
	body, err := encode(ev)
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// Notify implements Notifier. Errors are logged and dropped.
func (d *Dispatcher) Notify(ctx context.Context, ev violation.Event) {
	err := d.Send(ctx, ev)
	metrics.Notification("http", err)
	if err != nil {
		d.logger.Warn("violation notification failed", "kind", ev.Kind, "event_id", ev.ID, "error", err)
		return
	}
	d.logger.Info("violation sent", "kind", ev.Kind, "event_id", ev.ID)
}
