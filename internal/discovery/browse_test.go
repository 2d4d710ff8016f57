package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *zeroconf.ServiceEntry
		want  *Arm
	}{
		{
			name:  "nil entry",
			entry: nil,
			want:  nil,
		},
		{
			name: "ipv4 preferred",
			entry: func() *zeroconf.ServiceEntry {
				e := &zeroconf.ServiceEntry{
					HostName: "arm-pi.local.",
					Port:     8000,
					AddrIPv4: []net.IP{net.IPv4(192, 168, 4, 1)},
					AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
				}
				e.Instance = "robotic-arm"
				return e
			}(),
			want: &Arm{
				Instance: "robotic-arm",
				HostName: "arm-pi.local.",
				Addr:     net.IPv4(192, 168, 4, 1),
				Port:     8000,
			},
		},
		{
			name: "no addresses",
			entry: func() *zeroconf.ServiceEntry {
				e := &zeroconf.ServiceEntry{HostName: "arm-pi.local.", Port: 8000}
				return e
			}(),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseServiceEntry(tt.entry)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("parseServiceEntry() = %+v, want %+v", got, tt.want)
			}
			if got == nil {
				return
			}
			if got.Instance != tt.want.Instance || got.Port != tt.want.Port ||
				!got.Addr.Equal(tt.want.Addr) {
				t.Errorf("parseServiceEntry() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestArm_ControlAddr(t *testing.T) {
	arm := &Arm{Addr: net.IPv4(10, 0, 0, 5), Port: 8000}
	if got, want := arm.ControlAddr(), "10.0.0.5:8000"; got != want {
		t.Errorf("ControlAddr() = %q, want %q", got, want)
	}
}
