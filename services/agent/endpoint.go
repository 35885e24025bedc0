package agent

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/whalebone/local-resolver-agent/models"
)

// Endpoint is the parsed address of the management plane.
type Endpoint struct {
	Address string // normalized wss:// URL
	Host    string // host name used for TLS verification
	Port    string
}

// ParseEndpoint parses an address like:
//
//	wss://portal.example.com:8443/agent
//	portal.example.com:8443/agent
//
// A missing scheme means wss. Plain ws is refused: the channel must be
// mutually authenticated.
func ParseEndpoint(address string) (*Endpoint, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, models.NewError(models.KindInit, "management plane address is not set")
	}
	if !strings.Contains(address, "://") {
		address = "wss://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return nil, models.WrapError(models.KindInit, err, "invalid management plane address %q", address)
	}

	switch strings.ToLower(u.Scheme) {
	case "wss":
	case "https":
		u.Scheme = "wss"
	default:
		return nil, models.NewError(models.KindInit, "unsupported address scheme %q (use wss://)", u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, models.NewError(models.KindInit, "address %q has no host", address)
	}

	ep := &Endpoint{
		Address: u.String(),
		Host:    u.Hostname(),
		Port:    u.Port(),
	}
	if ep.Port == "" {
		ep.Port = "443"
	}
	return ep, nil
}

// HostPort is the dialed host:port pair.
func (e *Endpoint) HostPort() string {
	return net.JoinHostPort(e.Host, e.Port)
}

func (e *Endpoint) String() string {
	return fmt.Sprintf("%s (%s)", e.Address, e.HostPort())
}
