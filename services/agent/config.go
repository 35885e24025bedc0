package agent

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/whalebone/local-resolver-agent/models"
)

// Config is what the session needs to reach the management plane.
type Config struct {
	Address  string
	CertFile string `validate:"required"`
	KeyFile  string
	CAFile   string

	HeartbeatInterval time.Duration `validate:"gte=0"`
	ReconnectDelay    time.Duration `validate:"gte=0"`
	HandshakeTimeout  time.Duration `validate:"gte=0"`
}

// ConfigFrom picks the session settings out of the process configuration.
func ConfigFrom(c models.Configuration) Config {
	c = c.WithDefaults()
	return Config{
		Address:           c.Address,
		CertFile:          c.CertFile,
		KeyFile:           c.KeyFile,
		CAFile:            c.CAFile,
		HeartbeatInterval: c.HeartbeatInterval,
		ReconnectDelay:    c.ReconnectDelay,
		HandshakeTimeout:  c.HandshakeTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.KeyFile == "" {
		c.KeyFile = c.CertFile
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = models.DefaultHeartbeatInterval
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = models.DefaultReconnectDelay
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = models.DefaultHandshakeTimeout
	}
	return c
}

// Validate checks the configuration and parses the endpoint. Every failure
// is an Init error.
func (c Config) Validate() (*Endpoint, error) {
	c.CertFile = strings.TrimSpace(c.CertFile)
	if err := validator.New().Struct(c); err != nil {
		return nil, models.WrapError(models.KindInit, err, "invalid session configuration")
	}
	info, err := os.Stat(c.CertFile)
	if err != nil {
		return nil, models.WrapError(models.KindInit, err, "client certificate %q", c.CertFile)
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, models.NewError(models.KindInit, "client certificate %q is not a certificate file", c.CertFile)
	}
	return ParseEndpoint(c.Address)
}
