package compose

import (
	"encoding/base64"
	"net"
	"os"
	"path/filepath"

	"github.com/whalebone/local-resolver-agent/models"
)

// InterfaceVariable is replaced by the address of the default network
// interface.
const InterfaceVariable = "INTERFACE_IP"

// CertificateVariables maps environment variables to the file, inside the
// certificate directory, whose base64 content replaces their value.
var CertificateVariables = map[string]string{
	"CLIENT_CERT": "cert.pem",
	"CLIENT_KEY":  "key.pem",
	"CLIENT_CA":   "ca.pem",
}

// EnvResolver supplies host-specific environment values.
type EnvResolver interface {
	InterfaceAddress() (string, error)
	Certificate(file string) (string, error)
}

// HostEnvResolver resolves values from the local host.
type HostEnvResolver struct {
	CertDir string

	// Probe is dialed (UDP, nothing is sent) to pick the default route.
	Probe string
}

func NewHostEnvResolver(certDir string) *HostEnvResolver {
	return &HostEnvResolver{CertDir: certDir, Probe: "8.8.8.8:53"}
}

func (r *HostEnvResolver) InterfaceAddress() (string, error) {
	conn, err := net.Dial("udp", r.Probe)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", models.NewError(models.KindRuntimeOperation, "unexpected local address %v", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}

func (r *HostEnvResolver) Certificate(file string) (string, error) {
	b, err := os.ReadFile(filepath.Join(r.CertDir, file))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (t *Translator) resolveEnvironment(env map[string]string) error {
	if t.env == nil {
		return nil
	}
	if _, ok := env[InterfaceVariable]; ok {
		addr, err := t.env.InterfaceAddress()
		if err != nil {
			return models.WrapError(models.KindRuntimeOperation, err, "resolve %s", InterfaceVariable)
		}
		env[InterfaceVariable] = addr
	}
	for name, file := range CertificateVariables {
		if _, ok := env[name]; !ok {
			continue
		}
		content, err := t.env.Certificate(file)
		if err != nil {
			return models.WrapError(models.KindRuntimeOperation, err, "resolve %s", name)
		}
		env[name] = content
	}
	return nil
}
