// Armctl is the operator utility for robot arm daemons.
//
// It provides one-shot servo commands, keyboard teleoperation, and
// mDNS arm discovery. All communication uses the daemon's line-based
// control protocol over TCP; commands are fire-and-forget, so there
// is never a response to wait for.
//
// Usage:
//
//	armctl [command] [flags]
//
// Running without arguments launches the teleoperation UI.
// See 'armctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robocleaner/armd/internal/logging"
	"github.com/robocleaner/armd/internal/version"
)

func main() {
	// Silent unless ARMD_LOG_LEVEL is set; CLI output goes to stdout.
	_ = logging.InitializeFromEnv()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "armctl",
	Short: "Robot Arm Control Utility",
	Long: `A standalone utility for driving robot arm daemons.

Provides one-shot servo commands, interactive keyboard teleoperation,
and mDNS discovery of arms on the local network.

If no command is specified, the teleoperation UI will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run teleop when no subcommand provided
		return runTeleop(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("armctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
