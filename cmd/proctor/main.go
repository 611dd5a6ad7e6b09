// Command proctor watches an exam candidate through an ESP32 camera, flags
// phones in view and sustained head rotation, saves evidence snapshots, and
// notifies the board.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// version is set at build time with -ldflags "-X main.version=..."
	version = "dev"

	configPath  string
	logLevel    string
	headless    bool
	metricsAddr string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "proctor",
	Short: "Camera-based exam proctoring monitor",
	Long: `proctor polls an ESP32 camera for frames, detects mobile phones and
sustained head rotation, writes evidence snapshots and notifies the board.

Running proctor with no subcommand is the same as "proctor run".

Keys in the monitor window:
  q  stop
  r  recalibrate the head orientation baseline`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runMonitor,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "run without a display window")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// runCmd starts the monitor loop
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the monitor",
	Long: `Start the monitor loop.

Examples:
  # Use defaults (camera at ESP32_IP or 192.168.162.85)
  proctor run

  # Headless with metrics
  proctor run --headless --metrics-addr :9102

  # Point at the camera simulator
  PROCTOR_CAMERA_URL=http://localhost:8080/capture \
  PROCTOR_NOTIFY_URL=http://localhost:8080/violation proctor run`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version)
	},
}
