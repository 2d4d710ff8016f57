package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/robocleaner/armd/internal/logging"
)

const (
	// DefaultService is the mDNS service type the daemon registers.
	DefaultService = "_robotarm._tcp"

	// DefaultDomain is the mDNS domain (typically "local.")
	DefaultDomain = "local."
)

// Announcer registers the control port on the local network so clients can
// find the arm without a hardcoded address.
type Announcer struct {
	server *zeroconf.Server
}

// Announce registers instance as a service of the given type on port.
// TXT records carry the protocol hint for browsing clients.
func Announce(instance, service string, port int) (*Announcer, error) {
	if service == "" {
		service = DefaultService
	}
	if instance == "" {
		return nil, fmt.Errorf("mdns instance name must not be empty")
	}

	txt := []string{"proto=servo-json", "channels=4"}
	server, err := zeroconf.Register(instance, service, DefaultDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("register mdns service: %w", err)
	}

	logging.Info("mDNS service registered",
		zap.String("instance", instance),
		zap.String("service", service),
		zap.Int("port", port),
	)
	return &Announcer{server: server}, nil
}

// Close withdraws the registration.
func (a *Announcer) Close() {
	if a.server != nil {
		a.server.Shutdown()
		logging.Info("mDNS service withdrawn")
	}
}
