package server

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/robocleaner/armd/internal/events"
	"github.com/robocleaner/armd/internal/logging"
	"github.com/robocleaner/armd/internal/monitor"
	"github.com/robocleaner/armd/internal/protocol"
	"github.com/robocleaner/armd/internal/servo"
)

// SessionState is the lifecycle state of one accepted connection.
type SessionState int

const (
	// StateActive means the session is polling for bytes and applying
	// commands.
	StateActive SessionState = iota
	// StateTimedOut means the inactivity window elapsed; the transport is
	// closed and the next step is terminal.
	StateTimedOut
	// StateClosed is terminal. The PWM sink keeps its last commanded
	// duties; nothing is reset on disconnect.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTimedOut:
		return "timed_out"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseReason records why a session left Active.
type CloseReason int

const (
	// ReasonNone means the session is still active.
	ReasonNone CloseReason = iota
	// ReasonTimeout means the idle window elapsed with no bytes.
	ReasonTimeout
	// ReasonDisconnect means the peer closed or the transport failed.
	ReasonDisconnect
	// ReasonShutdown means the server closed the session underneath us.
	ReasonShutdown
)

// SessionConfig carries everything a session needs besides the connection.
type SessionConfig struct {
	Calibrations [servo.NumChannels]servo.Calibration
	Sink         servo.Sink
	Publisher    events.Publisher // may be nil
	IdleTimeout  time.Duration
	PollInterval time.Duration
	MaxLineLen   int
}

// Session owns one accepted control connection: it reassembles lines,
// parses commands, and applies angle updates through the PWM sink. All
// protocol errors are local and recoverable; only silence or disconnect
// ends the session.
type Session struct {
	conn       net.Conn
	remoteAddr string
	cfg        SessionConfig

	asm      *protocol.Assembler
	readBuf  []byte
	lastData time.Time

	// mu guards state and reason; Close may be called from the shutdown
	// path while Run is stepping.
	mu     sync.Mutex
	state  SessionState
	reason CloseReason
}

// NewSession wraps an accepted connection. The idle clock starts at accept
// time.
func NewSession(conn net.Conn, cfg SessionConfig) *Session {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	return &Session{
		conn:       conn,
		remoteAddr: conn.RemoteAddr().String(),
		cfg:        cfg,
		asm:        protocol.NewAssemblerSize(cfg.MaxLineLen),
		readBuf:    make([]byte, 512),
		lastData:   time.Now(),
		state:      StateActive,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reason returns why the session closed, or ReasonNone while active.
func (s *Session) Reason() CloseReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

// Step runs one poll cycle: check the idle window, then pull whatever bytes
// the transport has within one poll interval and dispatch any completed
// lines. It never blocks longer than the poll interval, so the caller can
// loop on it as the session's tick. The returned state is the state after
// the step.
func (s *Session) Step(now time.Time) SessionState {
	switch s.State() {
	case StateClosed:
		return StateClosed
	case StateTimedOut:
		s.close(ReasonTimeout)
		return s.State()
	}

	if now.Sub(s.lastData) >= s.cfg.IdleTimeout {
		logging.LogConnection(s.remoteAddr, "connection_timeout")
		monitor.SessionTimeouts.Inc()
		// Stop reading immediately; the next step makes TimedOut terminal.
		s.mu.Lock()
		if s.state == StateActive {
			s.state = StateTimedOut
		}
		s.mu.Unlock()
		_ = s.conn.Close()
		return s.State()
	}

	if err := s.conn.SetReadDeadline(now.Add(s.cfg.PollInterval)); err != nil {
		s.close(ReasonDisconnect)
		return s.State()
	}

	n, err := s.conn.Read(s.readBuf)
	if n > 0 {
		s.lastData = time.Now()
		s.consume(s.readBuf[:n])
	}
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			// No bytes this tick; yield to the caller.
			return s.State()
		}
		if !errors.Is(err, io.EOF) {
			logging.Debug("Read error",
				zap.String("remote_addr", s.remoteAddr),
				zap.Error(err),
			)
		}
		logging.LogConnection(s.remoteAddr, "connection_closed_by_peer")
		s.close(ReasonDisconnect)
	}
	return s.State()
}

// Run steps the session until it closes and returns the close reason.
func (s *Session) Run() CloseReason {
	for s.State() != StateClosed {
		s.Step(time.Now())
	}
	return s.Reason()
}

// consume feeds received bytes through the assembler and dispatches each
// completed line before the next byte is fed, so command N is fully applied
// before command N+1 is even parsed.
func (s *Session) consume(data []byte) {
	logging.LogRawBytes("rx", data)
	for _, b := range data {
		line, ok, err := s.asm.Feed(b)
		if err != nil {
			// Oversized buffer was discarded; the stream goes on.
			monitor.BufferOverflows.Inc()
			logging.Warn("Line buffer overflow, discarded",
				zap.String("remote_addr", s.remoteAddr),
				zap.Int("cap", s.cfg.MaxLineLen),
			)
			continue
		}
		if ok {
			s.dispatch(line)
		}
	}
}

// dispatch classifies one line and applies its fields in channel order.
func (s *Session) dispatch(line string) {
	monitor.LinesTotal.Inc()
	logging.LogCommandLine(s.remoteAddr, line)

	cmd, err := protocol.ParseCommand(line)
	switch {
	case errors.Is(err, protocol.ErrNotServoCommand):
		// Not ours; ignore without noise.
		monitor.ParseErrors.WithLabelValues(monitor.KindNotServo).Inc()
		logging.Debug("Ignoring non-servo line",
			zap.String("remote_addr", s.remoteAddr),
			zap.Int("length", len(line)),
		)
		return
	case errors.Is(err, protocol.ErrNoFields):
		monitor.ParseErrors.WithLabelValues(monitor.KindNoFields).Inc()
		logging.Warn("Servo command with no extractable fields",
			zap.String("remote_addr", s.remoteAddr),
			zap.String("line", line),
		)
		return
	case err != nil:
		logging.Error("Unexpected parse failure",
			zap.String("remote_addr", s.remoteAddr),
			zap.Error(err),
		)
		return
	}

	// Fields apply atomically in sequence; a sink error on one channel
	// does not roll back the ones already written.
	for ch := servo.Channel(0); ch < servo.NumChannels; ch++ {
		if !cmd.Present[ch] {
			continue
		}
		angle := servo.ClampAngle(cmd.Angles[ch])
		duty := s.cfg.Calibrations[ch].MapAngle(angle)
		if err := s.cfg.Sink.SetDuty(ch, duty); err != nil {
			logging.Error("PWM write failed",
				zap.String("joint", ch.String()),
				zap.Int("angle", angle),
				zap.Error(err),
			)
			continue
		}
		monitor.FieldsApplied.Inc()
		logging.LogServoUpdate(ch.String(), int(ch), angle, duty)
		if s.cfg.Publisher != nil {
			if err := s.cfg.Publisher.Publish(events.NewUpdate(ch, angle, duty)); err != nil {
				logging.Warn("Update publish failed", zap.Error(err))
			}
		}
	}
	monitor.CommandsApplied.Inc()
}

// close tears the transport down once and records the first reason.
func (s *Session) close(reason CloseReason) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.reason = reason
	s.mu.Unlock()

	s.asm.Reset()
	_ = s.conn.Close()
	logging.LogConnection(s.remoteAddr, "connection_closed")
}

// Close ends the session from outside, typically at server shutdown.
func (s *Session) Close() {
	s.close(ReasonShutdown)
}
