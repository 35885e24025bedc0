package models

// RestartPolicy is the runtime restart policy of one service.
type RestartPolicy struct {
	Name     string `json:"name" mapstructure:"name"`
	MaxRetry int    `json:"maxRetry,omitempty" mapstructure:"max_retry"`
}

// LogConfig selects the logging driver of one service and its options.
type LogConfig struct {
	Driver  string            `json:"driver" mapstructure:"driver"`
	Options map[string]string `json:"options,omitempty" mapstructure:"options"`
}

// ServiceSpec is one service of a document translated into runtime
// parameters. Zero values mean "not set" and are left to runtime defaults.
type ServiceSpec struct {
	Name  string `json:"name,omitempty" mapstructure:"name"`
	Image string `json:"image" mapstructure:"image"`

	NetworkMode string `json:"networkMode,omitempty" mapstructure:"network_mode"`

	// "53/udp" -> 53
	Ports map[string]int `json:"ports,omitempty" mapstructure:"ports"`

	// host path -> bind
	Volumes map[string]VolumeBinding `json:"volumes,omitempty" mapstructure:"volumes"`

	Environment map[string]string `json:"environment,omitempty" mapstructure:"environment"`
	Labels      map[string]string `json:"labels,omitempty" mapstructure:"labels"`

	Tty        bool `json:"tty,omitempty" mapstructure:"tty"`
	Privileged bool `json:"privileged,omitempty" mapstructure:"privileged"`
	StdinOpen  bool `json:"stdinOpen,omitempty" mapstructure:"stdin_open"`

	CPUShares int64 `json:"cpuShares,omitempty" mapstructure:"cpu_shares"`

	RestartPolicy *RestartPolicy `json:"restartPolicy,omitempty" mapstructure:"restart_policy"`
	LogConfig     *LogConfig     `json:"logConfig,omitempty" mapstructure:"log_config"`
}

// WithName returns a copy of the spec that will be started under name.
func (s ServiceSpec) WithName(name string) ServiceSpec {
	s.Name = name
	return s
}
