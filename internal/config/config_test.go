package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())

	assert.Equal(t, 8.0, cfg.Monitor.RotationThreshold)
	assert.Equal(t, time.Second, cfg.Monitor.ViolationTime)
	assert.Equal(t, 5, cfg.Monitor.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Monitor.Backoff)
	assert.Equal(t, 5*time.Second, cfg.Snapshot.Cooldown)
	assert.Equal(t, 5*time.Second, cfg.Camera.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, "cell phone", cfg.Detector.Class)
	assert.Equal(t, 0.5, cfg.Detector.Confidence)
	assert.Equal(t, "Mozilla/5.0", cfg.Camera.UserAgent)
}

func TestDefault_UsesCameraIPEnv(t *testing.T) {
	t.Setenv("ESP32_IP", "10.0.0.7")

	cfg := Default()
	assert.Equal(t, "http://10.0.0.7:80/capture", cfg.Camera.URL)
	assert.Equal(t, "http://10.0.0.7:80/violation", cfg.Notify.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   int
	}{
		{"valid", func(*Config) {}, 0},
		{"bad camera scheme", func(c *Config) { c.Camera.URL = "ftp://cam/capture" }, 1},
		{"missing camera url", func(c *Config) { c.Camera.URL = "" }, 1},
		{"notify url optional", func(c *Config) { c.Notify.URL = "" }, 0},
		{"zero retries", func(c *Config) { c.Monitor.MaxRetries = 0 }, 1},
		{"threshold out of range", func(c *Config) { c.Monitor.RotationThreshold = 200 }, 1},
		{"confidence above one", func(c *Config) { c.Detector.Confidence = 1.5 }, 1},
		{"input size not multiple of 32", func(c *Config) { c.Detector.InputSize = 400 }, 1},
		{"nats without subject", func(c *Config) {
			c.Notify.NATSURL = "nats://127.0.0.1:4222"
			c.Notify.NATSSubject = ""
		}, 1},
		{"two problems", func(c *Config) {
			c.Camera.Timeout = 0
			c.Monitor.Backoff = -time.Second
		}, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Len(t, cfg.Validate(), tc.want, "%v", cfg.Validate())
		})
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proctor.yaml")
	content := `camera:
  url: http://10.1.1.1/capture
  timeout: 3s
monitor:
  rotation_threshold: 12
  violation_time: 1500ms
snapshot:
  dir: /tmp/evidence
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PROCTOR_MONITOR_MAX_RETRIES", "9")
	t.Setenv("PROCTOR_NOTIFY_URL", "http://10.1.1.1/violation")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.1.1.1/capture", cfg.Camera.URL)
	assert.Equal(t, 3*time.Second, cfg.Camera.Timeout)
	assert.Equal(t, 12.0, cfg.Monitor.RotationThreshold)
	assert.Equal(t, 1500*time.Millisecond, cfg.Monitor.ViolationTime)
	assert.Equal(t, 9, cfg.Monitor.MaxRetries)
	assert.Equal(t, "/tmp/evidence", cfg.Snapshot.Dir)
	assert.Equal(t, "http://10.1.1.1/violation", cfg.Notify.URL)

	// untouched values keep their defaults
	assert.Equal(t, 2*time.Second, cfg.Monitor.Backoff)
	assert.Equal(t, "Mozilla/5.0", cfg.Camera.UserAgent)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRetries, cfg.Monitor.MaxRetries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PROCTOR_MONITOR_MAX_RETRIES", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDump_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Monitor.ViolationTime = 1500 * time.Millisecond
	cfg.Snapshot.Dir = "/var/lib/proctor"

	out, err := Dump(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "violation_time: 1.5s")

	path := filepath.Join(t.TempDir(), "dump.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "camera.url", envKey("PROCTOR_CAMERA_URL"))
	assert.Equal(t, "monitor.rotation_threshold", envKey("PROCTOR_MONITOR_ROTATION_THRESHOLD"))
	assert.Equal(t, "debug", envKey("PROCTOR_DEBUG"))
}
