// Package servo converts joint angles to PWM duty cycles and defines the
// hardware output boundary.
//
// The arm has four channels with a fixed joint assignment (base, shoulder,
// elbow, claw). Each channel carries a Calibration pair giving the duty
// driven at 0 and 180 degrees; MapAngle interpolates linearly between them
// with integer arithmetic, so the endpoints are exact.
//
// The Sink interface is the only place servo state lives: whatever duty was
// written last keeps being generated until overwritten, including across
// client disconnects. Two implementations are provided: MemorySink for tests
// and dry runs, and RPiSink driving the Raspberry Pi PWM peripheral.
package servo
