// Package config loads and validates the daemon's YAML configuration.
//
// A config file is optional: Load("") returns the built-in defaults
// (control port 8000, 512-byte line cap, 5 second idle timeout, 50 Hz
// 16-bit PWM with the stock calibration). A file only needs the keys it
// wants to override:
//
//	server:
//	  port: 8000
//	  idle_timeout: 5s
//	pwm:
//	  backend: rpio
//	  channels:
//	    - {joint: base, pin: 12, min_duty: 10280, max_duty: 29555}
//	    - {joint: shoulder, pin: 13, min_duty: 10280, max_duty: 29555}
//	    - {joint: elbow, pin: 18, min_duty: 10280, max_duty: 29555}
//	    - {joint: claw, pin: 19, min_duty: 10280, max_duty: 29555}
//	metrics:
//	  enabled: true
//	  port: 9100
//	  stream: true
//
// Durations are written as Go duration strings ("5s", "10ms").
package config
