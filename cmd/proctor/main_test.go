package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-proctor/internal/config"
	"github.com/teslashibe/go-proctor/pkg/detection"
	"github.com/teslashibe/go-proctor/pkg/display"
	"github.com/teslashibe/go-proctor/pkg/monitor"
	"github.com/teslashibe/go-proctor/pkg/pose"
)

func resetFlags() {
	configPath, logLevel, headless, metricsAddr = "", "", false, ""
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := map[string]bool{"run": false, "config": false, "version": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s command not found in rootCmd", name)
		}
	}
}

func TestRootCmd_Flags(t *testing.T) {
	for _, name := range []string{"config", "log-level", "headless", "metrics-addr"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}

func TestApplyFlags(t *testing.T) {
	defer resetFlags()
	logLevel, headless, metricsAddr = "debug", true, ":9102"

	cfg := config.Default()
	applyFlags(&cfg)

	if cfg.Log.Level != "debug" || !cfg.Display.Headless || cfg.Metrics.Addr != ":9102" {
		t.Errorf("flags not applied: %+v %+v %+v", cfg.Log, cfg.Display, cfg.Metrics)
	}
}

func TestApplyFlags_EmptyKeepsConfig(t *testing.T) {
	resetFlags()
	cfg := config.Default()
	cfg.Display.Headless = true
	applyFlags(&cfg)

	if !cfg.Display.Headless || cfg.Log.Level != "info" {
		t.Error("unset flags must not override the config")
	}
}

func TestConfigCmd_PrintsYAML(t *testing.T) {
	defer resetFlags()
	t.Setenv("PROCTOR_CAMERA_URL", "http://10.0.0.9/capture")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "--headless"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	text := out.String()
	for _, want := range []string{"http://10.0.0.9/capture", "headless: true", "rotation_threshold: 8"} {
		if !strings.Contains(text, want) {
			t.Errorf("config output missing %q:\n%s", want, text)
		}
	}
}

func TestMonitorConfig(t *testing.T) {
	cfg := config.Default()
	mc := monitorConfig(&cfg)

	if mc != monitor.DefaultConfig() {
		t.Errorf("monitorConfig(Default()) = %+v, want %+v", mc, monitor.DefaultConfig())
	}
}

type stubObjects struct{}

func (stubObjects) Detect(gocv.Mat, detection.Query) ([]detection.ObjectDetection, error) {
	return nil, nil
}

type stubFaces struct{}

func (stubFaces) DetectFaces(gocv.Mat) ([]detection.Face, error) { return nil, nil }

type stubPose struct{}

func (stubPose) Estimate(gocv.Mat) (pose.Landmarks, error) { return nil, nil }

func TestBuildMonitor_RunsUntilRetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer camera.Close()

	cfg := config.Default()
	cfg.Camera.URL = camera.URL + "/capture"
	cfg.Notify.URL = camera.URL + "/violation"
	cfg.Monitor.MaxRetries = 2
	cfg.Monitor.Backoff = time.Millisecond
	cfg.Snapshot.Dir = t.TempDir()

	m, cleanup, err := buildMonitor(&cfg, monitorDeps{
		objects: stubObjects{},
		faces:   stubFaces{},
		pose:    stubPose{},
		surface: display.Headless{},
	})
	if err != nil {
		t.Fatalf("buildMonitor: %v", err)
	}
	defer cleanup()

	err = m.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "maximum connection retries") {
		t.Errorf("Run() = %v, want retries exhausted", err)
	}
	if hits.Load() != 2 {
		t.Errorf("camera hits = %d, want 2", hits.Load())
	}
}

func TestBuildMonitor_MissingModel(t *testing.T) {
	cfg := config.Default()
	cfg.Detector.Weights = "does-not-exist.weights"
	cfg.Snapshot.Dir = t.TempDir()

	_, cleanup, err := buildMonitor(&cfg, monitorDeps{surface: display.Headless{}})
	if err == nil {
		t.Fatal("expected model load error")
	}
	cleanup()
}

func TestBuildMonitor_UnreachableNATS(t *testing.T) {
	cfg := config.Default()
	cfg.Notify.NATSURL = "nats://127.0.0.1:1"
	cfg.Snapshot.Dir = t.TempDir()

	_, _, err := buildMonitor(&cfg, monitorDeps{
		objects: stubObjects{},
		faces:   stubFaces{},
		pose:    stubPose{},
		surface: display.Headless{},
	})
	if err == nil {
		t.Fatal("expected NATS connect error")
	}
}
