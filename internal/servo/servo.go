package servo

import (
	"fmt"
	"sync"
)

// NumChannels is the number of PWM output channels on the arm.
const NumChannels = 4

// Channel identifies one servo's PWM output line, in [0,3].
type Channel int

// Fixed channel-to-joint assignment, matching the arm's wiring.
const (
	Base Channel = iota
	Shoulder
	Elbow
	Claw
)

// Angle bounds in degrees. Inputs outside the range are clamped, not rejected.
const (
	MinAngle = 0
	MaxAngle = 180
)

var jointNames = [NumChannels]string{"base", "shoulder", "elbow", "claw"}

// String returns the joint name for the channel.
func (c Channel) String() string {
	if c < 0 || c >= NumChannels {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return jointNames[c]
}

// Valid reports whether the channel index is in range.
func (c Channel) Valid() bool {
	return c >= 0 && c < NumChannels
}

// Channels returns all channels in wire-field order.
func Channels() [NumChannels]Channel {
	return [NumChannels]Channel{Base, Shoulder, Elbow, Claw}
}

// Calibration holds the duty-cycle bounds for one channel: the duty driven at
// 0 degrees and the duty driven at 180 degrees, in the sink's native domain.
type Calibration struct {
	MinDuty uint32
	MaxDuty uint32
}

// MapAngle converts an angle in degrees to a duty value by linear
// interpolation between the calibration bounds. The angle is clamped to
// [0,180] first; division truncates, so 0 maps exactly to MinDuty and 180
// exactly to MaxDuty, with intermediate values monotonically non-decreasing.
func (c Calibration) MapAngle(angle int) uint32 {
	angle = ClampAngle(angle)
	return c.MinDuty + uint32(angle)*(c.MaxDuty-c.MinDuty)/MaxAngle
}

// ClampAngle bounds an angle to [MinAngle, MaxAngle].
func ClampAngle(angle int) int {
	if angle < MinAngle {
		return MinAngle
	}
	if angle > MaxAngle {
		return MaxAngle
	}
	return angle
}

// Sink is the hardware PWM output boundary. Implementations hold the only
// persistent servo state: a duty value written to a channel stays in effect
// until the next write.
type Sink interface {
	// SetDuty drives one channel with the given duty value.
	SetDuty(ch Channel, duty uint32) error
	// Close releases the underlying hardware. Outputs are left at their
	// last commanded duty.
	Close() error
}

// MemorySink records the last duty written per channel. It backs tests and
// the dry-run backend, where commands should be parsed and mapped but not
// reach hardware.
type MemorySink struct {
	mu     sync.Mutex
	duties [NumChannels]uint32
	set    [NumChannels]bool
}

// NewMemorySink returns a sink with all channels unset.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// SetDuty records the duty for the channel.
func (s *MemorySink) SetDuty(ch Channel, duty uint32) error {
	if !ch.Valid() {
		return fmt.Errorf("invalid channel %d", int(ch))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duties[ch] = duty
	s.set[ch] = true
	return nil
}

// Duty returns the last duty written to the channel and whether any write
// has happened since creation.
func (s *MemorySink) Duty(ch Channel) (uint32, bool) {
	if !ch.Valid() {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duties[ch], s.set[ch]
}

// Close is a no-op for the in-memory sink.
func (s *MemorySink) Close() error {
	return nil
}
