package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-proctor/internal/config"
	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/capture"
	"github.com/teslashibe/go-proctor/pkg/detection"
	"github.com/teslashibe/go-proctor/pkg/display"
	"github.com/teslashibe/go-proctor/pkg/metrics"
	"github.com/teslashibe/go-proctor/pkg/monitor"
	"github.com/teslashibe/go-proctor/pkg/notify"
	"github.com/teslashibe/go-proctor/pkg/pose"
	"github.com/teslashibe/go-proctor/pkg/snapshot"
)

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Init(cfg.Log.Level)
	logger := log.Component("proctor")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	m, cleanup, err := buildMonitor(cfg, monitorDeps{})
	if err != nil {
		return err
	}
	defer cleanup()

	err = m.Run(ctx)
	switch {
	case err == nil:
		logger.Info("monitor stopped")
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("interrupted, shutting down")
		return nil
	case errors.Is(err, monitor.ErrRetriesExhausted):
		// Losing the camera ends the session; it is not a crash.
		logger.Error("camera unreachable, exiting", "error", err)
		return nil
	default:
		return err
	}
}

// monitorDeps lets tests swap out the model-backed collaborators.
type monitorDeps struct {
	objects monitor.ObjectDetector
	faces   monitor.FaceDetector
	pose    monitor.PoseEstimator
	surface monitor.Surface
}

// buildMonitor wires every component from cfg. cleanup releases models and
// connections and is safe to call after an error.
func buildMonitor(cfg *config.Config, deps monitorDeps) (*monitor.Monitor, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("cleanup failed", "error", err)
			}
		}
	}
	fail := func(err error) (*monitor.Monitor, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	if deps.objects == nil {
		yolo, err := detection.NewYOLO(detection.YOLOConfig{
			ModelPath:        cfg.Detector.Weights,
			ConfigPath:       cfg.Detector.Config,
			NamesPath:        cfg.Detector.Names,
			ConfidenceThresh: float32(cfg.Detector.Confidence),
			NMSThresh:        float32(cfg.Detector.NMS),
			InputWidth:       cfg.Detector.InputSize,
			InputHeight:      cfg.Detector.InputSize,
		})
		if err != nil {
			return fail(fmt.Errorf("load object detector: %w", err))
		}
		closers = append(closers, yolo.Close)
		deps.objects = yolo
	}

	if deps.faces == nil && cfg.Monitor.RequireFace {
		faceCfg := detection.DefaultFaceConfig()
		faceCfg.ModelPath = cfg.Face.Model
		faceCfg.ConfidenceThresh = cfg.Face.Confidence
		yunet, err := detection.NewYuNet(faceCfg)
		if err != nil {
			return fail(fmt.Errorf("load face detector: %w", err))
		}
		closers = append(closers, yunet.Close)
		deps.faces = yunet
	}

	if deps.pose == nil {
		op, err := pose.NewOpenPose(pose.Config{
			ModelPath:  cfg.Pose.Model,
			ConfigPath: cfg.Pose.Config,
			InputSize:  cfg.Pose.InputSize,
			MinScore:   cfg.Pose.MinScore,
		})
		if err != nil {
			return fail(fmt.Errorf("load pose model: %w", err))
		}
		closers = append(closers, op.Close)
		deps.pose = op
	}

	snaps := snapshot.New(cfg.Snapshot.Dir, cfg.Snapshot.Cooldown)
	if err := snaps.EnsureDir(); err != nil {
		return fail(err)
	}

	var sinks notify.Multi
	if cfg.Notify.URL != "" {
		sinks = append(sinks, notify.NewDispatcher(cfg.Notify.URL, cfg.Notify.Timeout))
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.Connect(cfg.Notify.NATSURL, cfg.Notify.NATSSubject)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pub.Close)
		sinks = append(sinks, pub)
	}

	if deps.surface == nil {
		if cfg.Display.Headless {
			deps.surface = display.Headless{}
		} else {
			deps.surface = display.NewWindow(cfg.Display.Window)
		}
	}

	src := capture.New(capture.Config{
		URL:       cfg.Camera.URL,
		Timeout:   cfg.Camera.Timeout,
		UserAgent: cfg.Camera.UserAgent,
	})

	m := monitor.New(monitorConfig(cfg), src,
		monitor.WithObjectDetector(deps.objects),
		monitor.WithFaceDetector(deps.faces),
		monitor.WithPoseEstimator(deps.pose),
		monitor.WithSnapshots(snaps),
		monitor.WithNotifier(sinks),
		monitor.WithSurface(deps.surface),
	)
	return m, cleanup, nil
}

func monitorConfig(cfg *config.Config) monitor.Config {
	return monitor.Config{
		RotationThreshold: cfg.Monitor.RotationThreshold,
		ViolationTime:     cfg.Monitor.ViolationTime,
		MaxRetries:        cfg.Monitor.MaxRetries,
		Backoff:           cfg.Monitor.Backoff,
		PhoneClass:        cfg.Detector.Class,
		PhoneConfidence:   cfg.Detector.Confidence,
		RequireFace:       cfg.Monitor.RequireFace,
	}
}
