package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotification(t *testing.T) {
	okBefore := testutil.ToFloat64(NotificationsTotal.WithLabelValues("http", ResultSuccess))
	errBefore := testutil.ToFloat64(NotificationsTotal.WithLabelValues("http", ResultError))

	Notification("http", nil)
	Notification("http", errors.New("boom"))
	Notification("http", errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(NotificationsTotal.WithLabelValues("http", ResultSuccess)))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(NotificationsTotal.WithLabelValues("http", ResultError)))
}

func TestObserveCycle(t *testing.T) {
	before := testutil.CollectAndCount(CycleDuration)
	ObserveCycle(time.Now().Add(-50 * time.Millisecond))
	assert.Equal(t, before, testutil.CollectAndCount(CycleDuration), "histogram is a single series")
}

func TestHandler_ExposesMetrics(t *testing.T) {
	ViolationsTotal.WithLabelValues("phone").Inc()
	FramesTotal.WithLabelValues("success").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.True(t, strings.Contains(text, `proctor_monitor_violations_total{kind="phone"}`))
	assert.True(t, strings.Contains(text, `proctor_capture_frames_total{outcome="success"}`))
	assert.True(t, strings.Contains(text, "proctor_monitor_cycle_duration_seconds"))
}
