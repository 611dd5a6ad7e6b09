package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/metrics"
	"github.com/teslashibe/go-proctor/pkg/violation"
)

// DefaultSubjectPrefix is prepended to the violation kind.
const DefaultSubjectPrefix = "proctor.violations"

// Publisher publishes violations on <prefix>.<kind>.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	owned  bool
	logger *slog.Logger
}

// NewPublisher wraps an existing connection. The caller keeps ownership.
func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{nc: nc, prefix: prefix, logger: log.Component("notify.nats")}
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("go-proctor"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: connect %s: %w", url, err)
	}
	p := NewPublisher(nc, prefix)
	p.owned = true
	return p, nil
}

// Subject returns the subject used for kind.
func (p *Publisher) Subject(kind violation.Kind) string {
	return p.prefix + "." + string(kind)
}

// Send publishes ev and flushes so delivery errors surface here. A context
// without a deadline gets a 5s flush timeout.
func (p *Publisher) Send(ctx context.Context, ev violation.Event) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if p.nc == nil || p.nc.IsClosed() {
		return ErrNotConnected
	}
	data, err := encode(ev)
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}
	if err := p.nc.Publish(p.Subject(ev.Kind), data); err != nil {
		return fmt.Errorf("notify: publish: %w", err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("notify: flush: %w", err)
	}
	return nil
}

// Notify implements Notifier. Errors are logged and dropped.
func (p *Publisher) Notify(ctx context.Context, ev violation.Event) {
	err := p.Send(ctx, ev)
	metrics.Notification("nats", err)
	if err != nil {
		p.logger.Warn("violation publish failed", "subject", p.Subject(ev.Kind), "error", err)
	}
}

// Close drains the connection if the publisher owns it.
func (p *Publisher) Close() error {
	if !p.owned || p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
