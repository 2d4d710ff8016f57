package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robocleaner/armd/internal/servo"
)

// Config is the daemon configuration, loaded from a YAML file. Zero values
// fall back to the built-in defaults: control port 8000, 512-byte line cap,
// 5 second inactivity timeout, 50 Hz 16-bit PWM.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	PWM       PWMConfig       `yaml:"pwm"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Redis     RedisConfig     `yaml:"redis"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig configures the TCP control listener and session behaviour.
type ServerConfig struct {
	Host         string   `yaml:"host"`          // empty = all interfaces
	Port         int      `yaml:"port"`          // control port
	MaxLineLen   int      `yaml:"max_line_len"`  // line buffer cap in bytes
	IdleTimeout  Duration `yaml:"idle_timeout"`  // close session after this much silence
	PollInterval Duration `yaml:"poll_interval"` // session tick cadence
}

// PWMConfig configures the output backend and per-channel calibration.
type PWMConfig struct {
	// Backend selects the sink: "memory" (dry run, default) or "rpio"
	// (Raspberry Pi hardware PWM).
	Backend    string          `yaml:"backend"`
	Frequency  int             `yaml:"frequency"`  // Hz
	Resolution int             `yaml:"resolution"` // duty resolution in bits
	Channels   []ChannelConfig `yaml:"channels"`   // exactly one per servo channel
}

// ChannelConfig is one channel's wiring and calibration. MinDuty is the duty
// driven at 0 degrees, MaxDuty at 180 degrees.
type ChannelConfig struct {
	Joint   string `yaml:"joint"`
	Pin     int    `yaml:"pin"`
	MinDuty uint32 `yaml:"min_duty"`
	MaxDuty uint32 `yaml:"max_duty"`
}

// MetricsConfig configures the optional Prometheus/observer HTTP server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
	// Stream additionally exposes /ws, broadcasting applied servo updates
	// to observer websockets.
	Stream bool `yaml:"stream"`
}

// RedisConfig configures optional mirroring of applied updates to a Redis
// pub/sub channel.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// DiscoveryConfig configures mDNS service registration.
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
	Service  string `yaml:"service"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error; empty = silent
}

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			MaxLineLen:   512,
			IdleTimeout:  Duration(5 * time.Second),
			PollInterval: Duration(10 * time.Millisecond),
		},
		PWM: PWMConfig{
			Backend:    "memory",
			Frequency:  50,
			Resolution: 16,
			Channels: []ChannelConfig{
				// Pin numbers are documentary on the memory backend; the
				// rpio backend requires hardware-PWM-capable pins.
				{Joint: "base", Pin: 14, MinDuty: 10280, MaxDuty: 29555},
				{Joint: "shoulder", Pin: 12, MinDuty: 10280, MaxDuty: 29555},
				{Joint: "elbow", Pin: 13, MinDuty: 10280, MaxDuty: 29555},
				{Joint: "claw", Pin: 15, MinDuty: 10280, MaxDuty: 29555},
			},
		},
		Metrics: MetricsConfig{
			Port: 9100,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "armd:updates",
		},
		Discovery: DiscoveryConfig{
			Instance: "robotic-arm",
			Service:  "_robotarm._tcp",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks internal consistency. Called by Load; callers constructing
// a Config by hand should call it themselves.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxLineLen <= 0 {
		return fmt.Errorf("server.max_line_len must be positive, got %d", c.Server.MaxLineLen)
	}
	if c.Server.IdleTimeout <= 0 {
		return fmt.Errorf("server.idle_timeout must be positive")
	}
	if c.Server.PollInterval <= 0 {
		return fmt.Errorf("server.poll_interval must be positive")
	}

	switch c.PWM.Backend {
	case "memory", "rpio":
	default:
		return fmt.Errorf("pwm.backend must be \"memory\" or \"rpio\", got %q", c.PWM.Backend)
	}
	if c.PWM.Frequency <= 0 {
		return fmt.Errorf("pwm.frequency must be positive, got %d", c.PWM.Frequency)
	}
	if c.PWM.Resolution < 1 || c.PWM.Resolution > 16 {
		return fmt.Errorf("pwm.resolution must be in [1,16], got %d", c.PWM.Resolution)
	}
	if len(c.PWM.Channels) != servo.NumChannels {
		return fmt.Errorf("pwm.channels must list exactly %d channels, got %d",
			servo.NumChannels, len(c.PWM.Channels))
	}
	maxDuty := uint32(1)<<c.PWM.Resolution - 1
	for i, ch := range c.PWM.Channels {
		if ch.MinDuty >= ch.MaxDuty {
			return fmt.Errorf("pwm.channels[%d] (%s): min_duty %d must be below max_duty %d",
				i, ch.Joint, ch.MinDuty, ch.MaxDuty)
		}
		if ch.MaxDuty > maxDuty {
			return fmt.Errorf("pwm.channels[%d] (%s): max_duty %d exceeds %d-bit domain",
				i, ch.Joint, ch.MaxDuty, c.PWM.Resolution)
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port %d out of range", c.Metrics.Port)
		}
		if c.Metrics.Port == c.Server.Port {
			return fmt.Errorf("metrics.port must differ from server.port")
		}
	}
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr required when redis is enabled")
		}
		if c.Redis.Channel == "" {
			return fmt.Errorf("redis.channel required when redis is enabled")
		}
	}
	if c.Discovery.Enabled {
		if c.Discovery.Instance == "" || c.Discovery.Service == "" {
			return fmt.Errorf("discovery.instance and discovery.service required when discovery is enabled")
		}
	}
	return nil
}

// Calibrations returns the per-channel calibration pairs in channel order.
func (c *Config) Calibrations() [servo.NumChannels]servo.Calibration {
	var cals [servo.NumChannels]servo.Calibration
	for i, ch := range c.PWM.Channels {
		if i >= servo.NumChannels {
			break
		}
		cals[i] = servo.Calibration{MinDuty: ch.MinDuty, MaxDuty: ch.MaxDuty}
	}
	return cals
}

// Pins returns the per-channel pin numbers in channel order.
func (c *Config) Pins() [servo.NumChannels]int {
	var pins [servo.NumChannels]int
	for i, ch := range c.PWM.Channels {
		if i >= servo.NumChannels {
			break
		}
		pins[i] = ch.Pin
	}
	return pins
}
