package models

import "time"

const (
	DefaultAgentName         = "lr-agent"
	DefaultRuntime           = "docker"
	DefaultCertDir           = "/etc/whalebone/certs"
	DefaultHeartbeatInterval = 60 * time.Second
	DefaultReconnectDelay    = 10 * time.Second
	DefaultHandshakeTimeout  = 15 * time.Second
	DefaultPollInterval      = 2 * time.Second
	DefaultPollAttempts      = 30
)

// Configuration is the process configuration of the agent.
type Configuration struct {
	Address  string `mapstructure:"address"`   // wss://host:port/path of the management plane
	CertFile string `mapstructure:"cert_file"` // client certificate (PEM)
	KeyFile  string `mapstructure:"key_file"`  // client key, defaults to CertFile
	CAFile   string `mapstructure:"ca_file"`   // optional CA bundle for the management plane
	CertDir  string `mapstructure:"cert_dir"`  // certificates handed to services via environment

	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`

	AgentName    string        `mapstructure:"agent_name"`
	Runtime      string        `mapstructure:"runtime"` // docker
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollAttempts int           `mapstructure:"poll_attempts"`

	LogLevel string `mapstructure:"log_level"`
}

// WithDefaults fills unset fields with their defaults.
func (c Configuration) WithDefaults() Configuration {
	if c.KeyFile == "" {
		c.KeyFile = c.CertFile
	}
	if c.CertDir == "" {
		c.CertDir = DefaultCertDir
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.AgentName == "" {
		c.AgentName = DefaultAgentName
	}
	if c.Runtime == "" {
		c.Runtime = DefaultRuntime
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = DefaultPollAttempts
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}
