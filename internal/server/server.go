package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/robocleaner/armd/internal/config"
	"github.com/robocleaner/armd/internal/discovery"
	"github.com/robocleaner/armd/internal/events"
	"github.com/robocleaner/armd/internal/logging"
	"github.com/robocleaner/armd/internal/monitor"
	"github.com/robocleaner/armd/internal/servo"
)

// Server owns the control listener and the collaborators around it: the PWM
// sink, optional metrics server, optional Redis publisher, and optional mDNS
// registration. It serves exactly one control client at a time; further
// connection attempts wait in the transport backlog until the current
// session closes.
type Server struct {
	cfg *config.Config

	listener  net.Listener
	sink      servo.Sink
	pub       events.Fanout
	metrics   *monitor.Server
	announcer *discovery.Announcer

	mu      sync.Mutex
	current *Session
	closing bool
}

// New builds a server from the configuration: initializes logging, opens the
// PWM backend, and drives every channel to duty zero so outputs start in a
// known state.
func New(cfg *config.Config) (*Server, error) {
	if err := logging.Initialize(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sink, err := openSink(cfg)
	if err != nil {
		return nil, err
	}
	for ch := servo.Channel(0); ch < servo.NumChannels; ch++ {
		if err := sink.SetDuty(ch, 0); err != nil {
			_ = sink.Close()
			return nil, fmt.Errorf("initialize channel %s: %w", ch, err)
		}
	}

	s := &Server{cfg: cfg, sink: sink}

	if cfg.Metrics.Enabled {
		s.metrics = monitor.NewServer(cfg.Server.Host, cfg.Metrics.Port, cfg.Metrics.Stream)
		s.pub = append(s.pub, s.metrics)
	}
	if cfg.Redis.Enabled {
		rp, err := events.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		if err != nil {
			_ = sink.Close()
			return nil, err
		}
		s.pub = append(s.pub, rp)
	}
	return s, nil
}

// openSink selects the PWM backend.
func openSink(cfg *config.Config) (servo.Sink, error) {
	switch cfg.PWM.Backend {
	case "rpio":
		sink, err := servo.NewRPiSink(servo.RPiConfig{
			Pins:       cfg.Pins(),
			Frequency:  cfg.PWM.Frequency,
			Resolution: cfg.PWM.Resolution,
		})
		if err != nil {
			return nil, fmt.Errorf("open rpio backend: %w", err)
		}
		return sink, nil
	case "memory":
		logging.Info("Using in-memory PWM backend (dry run)")
		return servo.NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unknown pwm backend %q", cfg.PWM.Backend)
	}
}

// Start listens on the control port and blocks until a shutdown signal or a
// listener failure.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = listener

	logging.Info("Arm control server listening",
		zap.String("addr", addr),
		zap.String("pwm_backend", s.cfg.PWM.Backend),
		zap.Duration("idle_timeout", s.cfg.Server.IdleTimeout.Std()),
	)

	if s.metrics != nil {
		s.metrics.Start()
	}
	if s.cfg.Discovery.Enabled {
		announcer, err := discovery.Announce(
			s.cfg.Discovery.Instance, s.cfg.Discovery.Service, s.cfg.Server.Port)
		if err != nil {
			// Reachability by address still works; keep serving.
			logging.Warn("mDNS registration failed", zap.Error(err))
		} else {
			s.announcer = announcer
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptLoop()
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown()
	case err := <-errChan:
		s.cleanup()
		return err
	}
}

// acceptLoop serves one client at a time: a session runs to completion
// before the next connection is accepted, so the PWM sink has a single
// writer by construction.
func (s *Server) acceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		monitor.ConnectionsTotal.Inc()
		monitor.ActiveSession.Set(1)
		logging.LogConnection(conn.RemoteAddr().String(), "connection_accepted")

		session := NewSession(conn, SessionConfig{
			Calibrations: s.cfg.Calibrations(),
			Sink:         s.sink,
			Publisher:    s.pub,
			IdleTimeout:  s.cfg.Server.IdleTimeout.Std(),
			PollInterval: s.cfg.Server.PollInterval.Std(),
			MaxLineLen:   s.cfg.Server.MaxLineLen,
		})
		s.setCurrent(session)

		reason := session.Run()
		s.setCurrent(nil)
		monitor.ActiveSession.Set(0)

		logging.Info("Session ended",
			zap.String("remote_addr", session.RemoteAddr()),
			zap.String("reason", reasonName(reason)),
		)
		if reason == ReasonShutdown {
			return nil
		}
	}
}

func reasonName(r CloseReason) string {
	switch r {
	case ReasonTimeout:
		return "timeout"
	case ReasonDisconnect:
		return "disconnect"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "none"
	}
}

func (s *Server) setCurrent(session *Session) {
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Shutdown stops accepting, ends any active session, and releases the
// collaborators. Servo outputs keep generating their last commanded signal.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	s.closing = true
	current := s.current
	s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			logging.Error("Error closing listener", zap.Error(err))
		}
	}
	if current != nil {
		current.Close()
	}
	s.cleanup()
	logging.Info("Server stopped")
	logging.Sync()
	return nil
}

// cleanup releases everything but the listener.
func (s *Server) cleanup() {
	if s.announcer != nil {
		s.announcer.Close()
		s.announcer = nil
	}
	if s.pub != nil {
		if err := s.pub.Close(); err != nil {
			logging.Error("Error closing publishers", zap.Error(err))
		}
		s.pub = nil
	}
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			logging.Error("Error closing PWM sink", zap.Error(err))
		}
		s.sink = nil
	}
}
