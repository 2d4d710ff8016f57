package servo

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// Raspberry Pi pins with hardware PWM support. Pins 12/18 share PWM channel 0
// and 13/19 share channel 1; the wiring must not double-book a channel.
var pwmCapablePins = map[int]bool{
	12: true,
	13: true,
	18: true,
	19: true,
}

// RPiSink drives servos through the Raspberry Pi's PWM peripheral using
// memory-mapped GPIO. Duty values are expressed in a cycle of cycleLen steps,
// so a 16-bit configuration gives a cycle length of 65536.
type RPiSink struct {
	pins     [NumChannels]rpio.Pin
	cycleLen uint32
}

// RPiConfig describes the pin assignment and PWM timing for the hardware sink.
type RPiConfig struct {
	// Pins maps channel index to BCM pin number.
	Pins [NumChannels]int
	// Frequency is the PWM period frequency in Hz (50 for hobby servos).
	Frequency int
	// Resolution is the duty resolution in bits; the duty domain is
	// [0, 1<<Resolution).
	Resolution int
}

// NewRPiSink opens the GPIO memory range and configures the four pins for
// PWM output. All channels start at duty 0.
func NewRPiSink(cfg RPiConfig) (*RPiSink, error) {
	if cfg.Frequency <= 0 {
		return nil, fmt.Errorf("pwm frequency must be positive, got %d", cfg.Frequency)
	}
	if cfg.Resolution < 1 || cfg.Resolution > 16 {
		return nil, fmt.Errorf("pwm resolution must be in [1,16] bits, got %d", cfg.Resolution)
	}
	for ch, pin := range cfg.Pins {
		if !pwmCapablePins[pin] {
			return nil, fmt.Errorf("pin %d (channel %d) has no hardware PWM support", pin, ch)
		}
	}

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	s := &RPiSink{cycleLen: 1 << cfg.Resolution}
	for ch, pinNum := range cfg.Pins {
		pin := rpio.Pin(pinNum)
		pin.Mode(rpio.Pwm)
		// The PWM clock runs at frequency * cycle length so one full duty
		// cycle spans exactly one servo period.
		pin.Freq(cfg.Frequency * int(s.cycleLen))
		pin.DutyCycle(0, s.cycleLen)
		s.pins[ch] = pin
	}
	return s, nil
}

// SetDuty drives the channel's pin with the given duty value. Values beyond
// the cycle length are capped at full scale.
func (s *RPiSink) SetDuty(ch Channel, duty uint32) error {
	if !ch.Valid() {
		return fmt.Errorf("invalid channel %d", int(ch))
	}
	if duty >= s.cycleLen {
		duty = s.cycleLen - 1
	}
	s.pins[ch].DutyCycle(duty, s.cycleLen)
	return nil
}

// Close unmaps the GPIO memory range. The PWM peripheral keeps generating
// the last commanded signal.
func (s *RPiSink) Close() error {
	return rpio.Close()
}
