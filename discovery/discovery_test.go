package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestFromEntry(t *testing.T) {
	e := zeroconf.NewServiceEntry(`spectre\ on\ roof`, Service, Domain)
	e.HostName = "roof.local."
	e.Port = 8443
	e.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	e.Text = []string{"path=/spectre/v1/collect", "tls=true"}

	s := fromEntry(e)
	if s.Instance != "spectre on roof" {
		t.Errorf("Instance = %q", s.Instance)
	}
	if got, want := s.URL(), "https://192.168.1.20:8443"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		server Server
		want   string
	}{
		{server: Server{Hostname: "spectre.local.", Port: 8080}, want: "http://spectre.local:8080"},
		{server: Server{Addresses: []net.IP{net.ParseIP("fe80::1")}, Port: 8443, TLS: true}, want: "https://[fe80::1]:8443"},
	}
	for _, tc := range tests {
		if got := tc.server.URL(); got != tc.want {
			t.Errorf("URL() = %q, want %q", got, tc.want)
		}
	}
}
