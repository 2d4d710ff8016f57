// Package server runs the arm's TCP control loop.
//
// The listener serves exactly one client at a time: the accept loop hands
// the connection to a Session and does not accept again until that session
// closes, so the PWM sink has a single writer by construction. There is no
// response traffic; the protocol is fire-and-forget.
//
// A Session polls its connection on a short tick rather than blocking: each
// Step pulls whatever bytes are available within one poll interval, feeds
// them through the line assembler, and applies completed commands field by
// field. Silence beyond the idle timeout or a transport disconnect closes
// the session; the servos hold their last commanded position either way.
//
// Every protocol-level problem (oversized line, non-servo line, command
// with no usable fields, malformed field) is logged, counted, and survived.
// Nothing a client sends can stop the loop.
package server
