package main

import (
	"io/fs"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/whalebone/local-resolver-agent/models"
)

const envPrefix = "LRA"

// configDefaults lists every configuration key. Keys must be known to
// viper for environment overrides to reach Unmarshal.
var configDefaults = map[string]any{
	"address":            "",
	"cert_file":          "",
	"key_file":           "",
	"ca_file":            "",
	"cert_dir":           models.DefaultCertDir,
	"heartbeat_interval": models.DefaultHeartbeatInterval,
	"reconnect_delay":    models.DefaultReconnectDelay,
	"handshake_timeout":  models.DefaultHandshakeTimeout,
	"agent_name":         models.DefaultAgentName,
	"runtime":            models.DefaultRuntime,
	"poll_interval":      models.DefaultPollInterval,
	"poll_attempts":      models.DefaultPollAttempts,
	"log_level":          "info",
}

// loadConfiguration reads, in increasing precedence: defaults, the optional
// config file, the optional env file and LRA_* environment variables.
func loadConfiguration(v *viper.Viper, configFile, envFile string) (models.Configuration, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return models.Configuration{}, errors.Wrapf(err, "load env file %q", envFile)
		}
	}

	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return models.Configuration{}, errors.Wrapf(err, "read config file %q", configFile)
		}
	}

	var cfg models.Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return models.Configuration{}, errors.Wrap(err, "decode configuration")
	}
	return cfg.WithDefaults(), nil
}
