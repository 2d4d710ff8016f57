package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/robocleaner/armd/internal/events"
	"github.com/robocleaner/armd/internal/logging"
)

var (
	ActiveSession = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "armd_active_session",
		Help: "1 while a control client is connected, 0 otherwise",
	})

	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "armd_connections_total",
		Help: "Control connections accepted since start",
	})

	LinesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "armd_lines_total",
		Help: "Complete command lines assembled from the stream",
	})

	CommandsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "armd_commands_applied_total",
		Help: "Servo commands with at least one field applied",
	})

	FieldsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "armd_fields_applied_total",
		Help: "Individual channel updates written to the PWM sink",
	})

	ParseErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "armd_parse_errors_total",
		Help: "Lines dropped during classification or extraction, by kind",
	}, []string{"kind"})

	BufferOverflows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "armd_buffer_overflows_total",
		Help: "Line buffers discarded for exceeding the length cap",
	})

	SessionTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "armd_session_timeouts_total",
		Help: "Sessions closed by the inactivity timeout",
	})

	ServoAngle = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "armd_servo_angle_degrees",
		Help: "Last commanded angle per joint",
	}, []string{"joint"})

	ServoDuty = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "armd_servo_duty",
		Help: "Last duty value written per joint",
	}, []string{"joint"})
)

func init() {
	prometheus.MustRegister(
		ActiveSession,
		ConnectionsTotal,
		LinesTotal,
		CommandsApplied,
		FieldsApplied,
		ParseErrors,
		BufferOverflows,
		SessionTimeouts,
		ServoAngle,
		ServoDuty,
	)
}

// Parse error kinds, the label values for ParseErrors.
const (
	KindNotServo = "not_servo_command"
	KindNoFields = "no_extractable_fields"
)

// Server exposes /metrics and, when streaming is enabled, /ws on a port
// separate from the control port. It also implements events.Publisher so
// applied updates feed the per-joint gauges and the websocket stream.
type Server struct {
	srv *http.Server
	hub *Hub
}

// NewServer builds the observer HTTP server.
func NewServer(host string, port int, stream bool) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	if stream {
		s.hub = NewHub()
		mux.HandleFunc("/ws", s.hub.ServeWS)
	}
	return s
}

// Start serves in the background. Listen errors after startup are logged,
// not fatal: losing observability must not stop the arm.
func (s *Server) Start() {
	go func() {
		logging.Info("Metrics server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server stopped", zap.Error(err))
		}
	}()
}

// Publish updates the gauges and broadcasts to websocket observers.
func (s *Server) Publish(u events.Update) error {
	ServoAngle.WithLabelValues(u.Joint).Set(float64(u.Angle))
	ServoDuty.WithLabelValues(u.Joint).Set(float64(u.Duty))
	if s.hub != nil {
		s.hub.Broadcast(u)
	}
	return nil
}

// Close shuts the HTTP server down and disconnects observers.
func (s *Server) Close() error {
	if s.hub != nil {
		s.hub.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
