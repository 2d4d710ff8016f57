package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.MaxLineLen != 512 {
		t.Errorf("default max_line_len = %d, want 512", cfg.Server.MaxLineLen)
	}
	if cfg.Server.IdleTimeout.Std() != 5*time.Second {
		t.Errorf("default idle_timeout = %v, want 5s", cfg.Server.IdleTimeout.Std())
	}
	cals := cfg.Calibrations()
	for i, cal := range cals {
		if cal.MinDuty != 10280 || cal.MaxDuty != 29555 {
			t.Errorf("channel %d calibration = %+v, want {10280 29555}", i, cal)
		}
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want default 8000", cfg.Server.Port)
	}
}

func TestLoad_OverridesOnTopOfDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
  idle_timeout: 2s
pwm:
  backend: rpio
  channels:
    - {joint: base, pin: 12, min_duty: 1000, max_duty: 2000}
    - {joint: shoulder, pin: 13, min_duty: 1000, max_duty: 2000}
    - {joint: elbow, pin: 18, min_duty: 1000, max_duty: 2000}
    - {joint: claw, pin: 19, min_duty: 1000, max_duty: 2000}
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout.Std() != 2*time.Second {
		t.Errorf("idle_timeout = %v, want 2s", cfg.Server.IdleTimeout.Std())
	}
	// Untouched keys keep their defaults.
	if cfg.Server.MaxLineLen != 512 {
		t.Errorf("max_line_len = %d, want default 512", cfg.Server.MaxLineLen)
	}
	if cfg.PWM.Backend != "rpio" {
		t.Errorf("backend = %q, want rpio", cfg.PWM.Backend)
	}
	if got := cfg.Pins(); got != [4]int{12, 13, 18, 19} {
		t.Errorf("pins = %v", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"negative line cap", func(c *Config) { c.Server.MaxLineLen = -1 }},
		{"zero idle timeout", func(c *Config) { c.Server.IdleTimeout = 0 }},
		{"unknown backend", func(c *Config) { c.PWM.Backend = "gpio" }},
		{"wrong channel count", func(c *Config) { c.PWM.Channels = c.PWM.Channels[:2] }},
		{"inverted calibration", func(c *Config) { c.PWM.Channels[1].MinDuty = 40000 }},
		{"duty beyond resolution", func(c *Config) {
			c.PWM.Resolution = 8
		}},
		{"metrics port clash", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = c.Server.Port
		}},
		{"redis enabled without addr", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}},
		{"discovery enabled without service", func(c *Config) {
			c.Discovery.Enabled = true
			c.Discovery.Service = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() passed, want error")
			}
		})
	}
}

func TestDuration_Unmarshal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  poll_interval: banana\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}
