package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
)

// DefaultScanTimeout is the default timeout for arm discovery.
const DefaultScanTimeout = 5 * time.Second

// Arm is one discovered arm daemon.
type Arm struct {
	Instance string
	HostName string
	Addr     net.IP
	Port     int
	Text     []string
}

// ControlAddr returns the dialable host:port for the arm's control port.
func (a *Arm) ControlAddr() string {
	return net.JoinHostPort(a.Addr.String(), fmt.Sprintf("%d", a.Port))
}

// Scanner browses the local network for registered arms. Used by the
// operator CLI; the daemon itself only announces.
type Scanner struct {
	// Timeout is the maximum time to wait for responses.
	Timeout time.Duration
	// Service overrides the service type to browse for.
	Service string
}

// NewScanner creates a scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Service: DefaultService,
	}
}

// Scan discovers all arms on the local network within the timeout.
func (s *Scanner) Scan(ctx context.Context) ([]*Arm, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("create mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	arms := make([]*Arm, 0)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			if arm := parseServiceEntry(entry); arm != nil {
				arms = append(arms, arm)
			}
		}
	}()

	if err := resolver.Browse(ctx, s.Service, DefaultDomain, entries); err != nil {
		return nil, fmt.Errorf("browse for %s: %w", s.Service, err)
	}

	<-ctx.Done()
	<-done
	return arms, nil
}

// parseServiceEntry converts a zeroconf entry, preferring IPv4 addresses.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Arm {
	if entry == nil {
		return nil
	}
	arm := &Arm{
		Instance: entry.Instance,
		HostName: entry.HostName,
		Port:     entry.Port,
		Text:     entry.Text,
	}
	switch {
	case len(entry.AddrIPv4) > 0:
		arm.Addr = entry.AddrIPv4[0]
	case len(entry.AddrIPv6) > 0:
		arm.Addr = entry.AddrIPv6[0]
	default:
		return nil
	}
	return arm
}
