// Package discovery advertises spectre servers over mDNS and finds them from
// collectors.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/grandcat/zeroconf"
)

const (
	Service = "_spectre._tcp"
	Domain  = "local."
)

// Server is a spectre server found on the local network.
type Server struct {
	Instance  string
	Hostname  string
	Addresses []net.IP
	Port      int
	TLS       bool
}

// URL returns the base URL of the server.
func (s Server) URL() string {
	scheme := "http"
	if s.TLS {
		scheme = "https"
	}
	host := strings.TrimSuffix(s.Hostname, ".")
	if len(s.Addresses) > 0 {
		host = s.Addresses[0].String()
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, fmt.Sprint(s.Port)))
}

// Advertise registers a spectre server listening on port. Call Shutdown on
// the result to withdraw it.
func Advertise(instance string, port int, tls bool) (*zeroconf.Server, error) {
	txt := []string{"path=/spectre/v1/collect", fmt.Sprintf("tls=%t", tls)}
	server, err := zeroconf.Register(instance, Service, Domain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to register mDNS service: %w", err)
	}
	return server, nil
}

// Browse returns the spectre servers that answer before ctx is done.
func Browse(ctx context.Context) ([]Server, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := map[string]Server{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if e == nil {
					continue
				}
				s := fromEntry(e)
				found[fmt.Sprintf("%s|%d", s.Hostname, s.Port)] = s
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, Service, Domain, entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}
	<-done

	out := make([]Server, 0, len(found))
	for _, s := range found {
		out = append(out, s)
	}
	return out, nil
}

func fromEntry(e *zeroconf.ServiceEntry) Server {
	addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
	addrs = append(addrs, e.AddrIPv4...)
	addrs = append(addrs, e.AddrIPv6...)
	s := Server{
		Instance:  strings.ReplaceAll(e.Instance, `\ `, " "),
		Hostname:  e.HostName,
		Addresses: addrs,
		Port:      e.Port,
	}
	for _, t := range e.Text {
		if t == "tls=true" {
			s.TLS = true
		}
	}
	return s
}
