// Armd is the control daemon for a four-joint robotic arm.
//
// It accepts one TCP client at a time on the control port, parses
// newline-delimited servo command lines, and drives the arm's PWM channels.
// The protocol is deliberately tolerant of sloppy clients, so hand-rolled
// senders work unchanged.
//
// Usage:
//
//	armd serve [flags]
//
// See 'armd serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robocleaner/armd/internal/config"
	"github.com/robocleaner/armd/internal/server"
	"github.com/robocleaner/armd/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "armd",
	Short: "Robotic arm control daemon",
	Long: `Control daemon for a four-joint robotic arm (base, shoulder, elbow, claw).

The daemon listens on a TCP control port for newline-delimited JSON servo
commands and converts angle updates into PWM duty cycles. One client is
served at a time and the protocol is fire-and-forget.

Note: For sending commands and teleoperation, use the separate 'armctl'
utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	configPath string
	host       string
	port       int
	logLevel   string
	dryRun     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the control daemon",
	Long: `Start the arm control daemon.

Without a config file the daemon runs with the built-in defaults:
port 8000, 512-byte line cap, 5 second idle timeout, 50 Hz 16-bit PWM
with the stock calibration, in-memory (dry-run) PWM backend.
Flags override the corresponding config keys.`,
	Example: `  # Dry run on the default port, verbose
  armd serve --log-level debug

  # Drive real servos on a Raspberry Pi
  armd serve --config /etc/armd/config.yaml

  # Same config, but force the dry-run backend for a bench test
  armd serve --config /etc/armd/config.yaml --dry-run`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	serveCmd.Flags().StringVar(&host, "host", "", "Listen host (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 0, "Control port (overrides config)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Use the in-memory PWM backend regardless of config")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if dryRun {
		cfg.PWM.Backend = "memory"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("armd %s\n", version.Full())
	},
}
