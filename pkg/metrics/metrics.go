// Package metrics provides Prometheus metrics for the monitor loop.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proctor"

var (
	// FramesTotal counts fetch attempts.
	// Labels: outcome (success, decode_failure, transport_failure)
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capture",
			Name:      "frames_total",
			Help:      "Total frame fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ViolationsTotal counts raised violations.
	// Labels: kind (phone, head_rotation)
	ViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "violations_total",
			Help:      "Total violations raised by kind",
		},
		[]string{"kind"},
	)

	// SnapshotsTotal counts snapshot decisions.
	// Labels: result (saved, declined, error)
	SnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "decisions_total",
			Help:      "Total snapshot decisions by result",
		},
		[]string{"result"},
	)

	// NotificationsTotal counts delivery attempts.
	// Labels: sink (http, nats), result (success, error)
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total violation notifications by sink and result",
		},
		[]string{"sink", "result"},
	)

	// CycleDuration tracks how long one successful monitor cycle takes.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a processed frame cycle in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// Baseline reports the calibrated head angle in degrees, NaN when unset.
	Baseline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "baseline_degrees",
			Help:      "Calibrated head orientation baseline in degrees",
		},
	)
)

func init() {
	Baseline.Set(math.NaN())
}

// Result labels.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultSaved    = "saved"
	ResultDeclined = "declined"
)

// ObserveCycle records the duration of a cycle that started at start.
func ObserveCycle(start time.Time) {
	CycleDuration.Observe(time.Since(start).Seconds())
}

// Notification records one delivery attempt on sink.
func Notification(sink string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	NotificationsTotal.WithLabelValues(sink, result).Inc()
}

// Handler returns the scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
