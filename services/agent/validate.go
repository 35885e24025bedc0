package agent

import (
	"crypto/tls"
	"crypto/x509"
	"time"

	"github.com/whalebone/local-resolver-agent/models"
)

// HostValidator decides whether an established channel may be used.
type HostValidator interface {
	Validate(conn Conn) error
}

// TLSHostValidator accepts a channel when the peer presented a verified
// certificate that is currently valid and issued for Host, and the local
// client certificate has not expired.
type TLSHostValidator struct {
	Host       string
	ClientCert *x509.Certificate
	Now        func() time.Time
}

// NewTLSHostValidator loads the client certificate and returns a validator
// for host.
func NewTLSHostValidator(host, certFile, keyFile string) (*TLSHostValidator, error) {
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, models.WrapError(models.KindInit, err, "load client certificate %q", certFile)
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, models.WrapError(models.KindInit, err, "parse client certificate %q", certFile)
	}
	return &TLSHostValidator{Host: host, ClientCert: leaf, Now: time.Now}, nil
}

func (v *TLSHostValidator) Validate(conn Conn) error {
	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}

	if v.ClientCert != nil && now.After(v.ClientCert.NotAfter) {
		return models.NewError(models.KindTransport, "client certificate expired at %s", v.ClientCert.NotAfter.Format(time.RFC3339))
	}

	state, ok := conn.TLSState()
	if !ok || !state.HandshakeComplete {
		return models.NewError(models.KindTransport, "channel is not an established TLS session")
	}
	if len(state.PeerCertificates) == 0 || len(state.VerifiedChains) == 0 {
		return models.NewError(models.KindTransport, "peer certificate was not verified")
	}

	peer := state.PeerCertificates[0]
	if now.Before(peer.NotBefore) || now.After(peer.NotAfter) {
		return models.NewError(models.KindTransport, "peer certificate is not valid at %s", now.Format(time.RFC3339))
	}
	if err := peer.VerifyHostname(v.Host); err != nil {
		return models.WrapError(models.KindTransport, err, "peer certificate does not match %q", v.Host)
	}
	return nil
}
