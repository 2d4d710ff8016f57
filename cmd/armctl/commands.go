package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robocleaner/armd/internal/client"
	"github.com/robocleaner/armd/internal/discovery"
	"github.com/robocleaner/armd/internal/servo"
)

// Command flags
var (
	armAddr     string
	scanTimeout int
)

func init() {
	// Common flags for arm commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&armAddr, "arm", "", "Arm address as host:port (skips discovery)")

	// Add subcommands directly to root
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(teleopCmd)
}

// resolveArm returns the control address to dial, running discovery
// when --arm was not given.
func resolveArm() (string, error) {
	if armAddr != "" {
		return armAddr, nil
	}

	fmt.Println("No --arm given, discovering...")
	scanner := discovery.NewScanner()
	scanner.Timeout = 3 * time.Second
	arms, err := scanner.Scan(context.Background())
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	if len(arms) == 0 {
		return "", fmt.Errorf("no arms found, specify one with --arm host:port")
	}
	if len(arms) > 1 {
		fmt.Printf("Found %d arms, using %q\n", len(arms), arms[0].Instance)
	}
	return arms[0].ControlAddr(), nil
}

// parseJointArg parses a single "joint=angle" argument. Joints are
// accepted by name (base, shoulder, elbow, claw) or as servo1..servo4.
func parseJointArg(arg string) (servo.Channel, int, error) {
	name, value, found := strings.Cut(arg, "=")
	if !found {
		return 0, 0, fmt.Errorf("expected joint=angle, got %q", arg)
	}

	var ch servo.Channel
	switch strings.ToLower(name) {
	case "base", "servo1":
		ch = servo.Base
	case "shoulder", "servo2":
		ch = servo.Shoulder
	case "elbow", "servo3":
		ch = servo.Elbow
	case "claw", "servo4":
		ch = servo.Claw
	default:
		return 0, 0, fmt.Errorf("unknown joint %q (base, shoulder, elbow, claw)", name)
	}

	angle, err := strconv.Atoi(value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid angle %q for %s", value, name)
	}
	return ch, angle, nil
}

// setCmd sends a one-shot servo command
var setCmd = &cobra.Command{
	Use:   "set joint=angle [joint=angle ...]",
	Short: "Set one or more joint angles",
	Long: `Send a single servo command to the arm and exit.

Joints are addressed by name (base, shoulder, elbow, claw) or by
channel (servo1..servo4). Angles are in degrees, 0-180; out-of-range
values are clamped. Omitted joints keep their current position.`,
	Example: `  # Center the base
  armctl set base=90

  # Open the claw and raise the shoulder in one command
  armctl set claw=10 shoulder=120

  # Address by channel
  armctl set servo3=45 --arm 192.168.1.50:8000`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	angles := make(map[servo.Channel]int)
	for _, arg := range args {
		ch, angle, err := parseJointArg(arg)
		if err != nil {
			return err
		}
		angles[ch] = angle
	}

	addr, err := resolveArm()
	if err != nil {
		return err
	}

	c, err := client.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SendAngles(angles); err != nil {
		return err
	}

	for _, ch := range servo.Channels() {
		if angle, ok := angles[ch]; ok {
			fmt.Printf("  %-8s -> %d\n", ch, servo.ClampAngle(angle))
		}
	}
	return nil
}

// discoverCmd finds arms on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover robot arms on the network",
	Long: `Discover robot arm daemons using mDNS/DNS-SD.

This command browses for ` + discovery.DefaultService + ` services and
displays all discovered arms with their addresses and metadata.`,
	Example: `  # Scan for 5 seconds (default)
  armctl discover

  # Longer scan for slow networks
  armctl discover --timeout 15`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan timeout in seconds")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for robot arms (timeout: %ds)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second
	arms, err := scanner.Scan(context.Background())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(arms) == 0 {
		fmt.Println("No arms found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the arm daemon is running")
		fmt.Println("  - Check that mDNS traffic is allowed on this network")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --arm host:port to skip discovery entirely")
		return nil
	}

	fmt.Printf("Found %d arm(s):\n\n", len(arms))

	for i, arm := range arms {
		fmt.Printf("%d. %s\n", i+1, arm.Instance)
		fmt.Printf("   Host:    %s\n", arm.HostName)
		fmt.Printf("   Address: %s\n", arm.ControlAddr())
		if len(arm.Text) > 0 {
			fmt.Printf("   TXT:     %v\n", arm.Text)
		}
		fmt.Println()
	}

	fmt.Println("Use 'armctl set base=90 --arm <addr>' to move a joint")
	fmt.Println("Use 'armctl teleop' for interactive control")

	return nil
}
