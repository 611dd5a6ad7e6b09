// Command camsim simulates the ESP32 camera board so proctor can run without
// hardware: GET /capture serves JPEGs, POST /violation records violations and
// /ws/violations streams them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/simulator"
)

var (
	addr      string
	framesDir string
	logLevel  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "camsim",
	Short: "Simulated ESP32 camera board",
	Long: `camsim serves frames on /capture and records violations posted to
/violation, like the ESP32-CAM firmware proctor talks to.

Examples:
  # Serve a built-in test card
  camsim

  # Replay a directory of JPEGs round-robin
  camsim --frames ./testdata/session1 --addr :8080

  # Simulate a camera outage
  curl -X POST 'localhost:8080/api/outage?on=true'`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSimulator,
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	rootCmd.Flags().StringVar(&framesDir, "frames", "", "directory of JPEG frames (default: synthetic test card)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func runSimulator(cmd *cobra.Command, args []string) error {
	log.Init(logLevel)

	frames, err := loadFrames(framesDir)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return simulator.NewServer(frames).ListenAndServe(ctx, addr)
}

func loadFrames(dir string) (*simulator.Frames, error) {
	if dir != "" {
		return simulator.LoadFrames(dir)
	}
	card, err := simulator.SyntheticFrame(640, 480, "camsim")
	if err != nil {
		return nil, err
	}
	return simulator.NewFrames(card), nil
}
