package compose

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/whalebone/local-resolver-agent/models"
)

const onFailureMaxRetry = 5

// ParsePorts converts "host:container[/proto]" entries into a container
// port -> host port map. An empty list yields nil.
func ParsePorts(entries []string) (map[string]int, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	ports := make(map[string]int, len(entries))
	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 2 {
			return nil, models.NewError(models.KindPortFormat,
				"port %q must be hostPort:containerPort[/proto]", entry)
		}
		host, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, models.WrapError(models.KindPortFormat, err, "host port of %q", entry)
		}
		ports[strings.TrimSpace(parts[1])] = host
	}
	return ports, nil
}

// ParseVolume converts one "host:container[:mode]" entry.
func ParseVolume(entry string) (string, models.VolumeBinding, error) {
	parts := strings.Split(strings.TrimSpace(entry), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", models.VolumeBinding{}, models.NewError(models.KindVolumeFormat,
			"volume %q must be hostPath:containerPath[:mode]", entry)
	}
	binding := models.VolumeBinding{Bind: parts[1], Mode: models.DefaultVolumeMode}
	if len(parts) == 3 && parts[2] != "" {
		binding.Mode = parts[2]
	}
	return parts[0], binding, nil
}

// ParseVolumes converts volume entries into a host path -> binding map. An
// empty list yields nil.
func ParseVolumes(entries []string) (map[string]models.VolumeBinding, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	volumes := make(map[string]models.VolumeBinding, len(entries))
	for _, entry := range entries {
		host, binding, err := ParseVolume(entry)
		if err != nil {
			return nil, err
		}
		volumes[host] = binding
	}
	return volumes, nil
}

// ParseRestart maps a restart value to a policy. Values other than
// on-failure and always yield nil.
func ParseRestart(value string) *models.RestartPolicy {
	switch strings.TrimSpace(value) {
	case "on-failure":
		return &models.RestartPolicy{Name: "on-failure", MaxRetry: onFailureMaxRetry}
	case "always":
		return &models.RestartPolicy{Name: "always"}
	default:
		return nil
	}
}

// parseString, parseBool, ... are the field parsers referenced by fieldTable.
// A nil result leaves the output key unset.

func parseString(_ *Translator, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s := scalarString(v)
	if s == "" {
		return nil, nil
	}
	return s, nil
}

func parseBool(_ *Translator, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil, models.WrapError(models.KindSpecFormat, err, "boolean value %q", t)
		}
		return b, nil
	default:
		return nil, models.NewError(models.KindSpecFormat, "expected a boolean, got %T", v)
	}
}

func parseInt(_ *Translator, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, models.WrapError(models.KindSpecFormat, err, "integer value %q", t)
		}
		return n, nil
	default:
		return nil, models.NewError(models.KindSpecFormat, "expected an integer, got %T", v)
	}
}

func parseStringMap(_ *Translator, v any) (any, error) {
	m, err := stringMap(v)
	if err != nil || len(m) == 0 {
		return nil, err
	}
	return m, nil
}

func parsePortsField(_ *Translator, v any) (any, error) {
	entries, err := stringList(v)
	if err != nil {
		return nil, models.WrapError(models.KindPortFormat, err, "ports")
	}
	ports, err := ParsePorts(entries)
	if err != nil || ports == nil {
		return nil, err
	}
	return ports, nil
}

func parseVolumesField(_ *Translator, v any) (any, error) {
	entries, err := stringList(v)
	if err != nil {
		return nil, models.WrapError(models.KindVolumeFormat, err, "volumes")
	}
	volumes, err := ParseVolumes(entries)
	if err != nil || volumes == nil {
		return nil, err
	}
	return volumes, nil
}

func parseRestartField(_ *Translator, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if policy := ParseRestart(scalarString(v)); policy != nil {
		return policy, nil
	}
	return nil, nil
}

func parseEnvironment(t *Translator, v any) (any, error) {
	env, err := stringMap(v)
	if err != nil || len(env) == 0 {
		return nil, err
	}
	if err := t.resolveEnvironment(env); err != nil {
		return nil, err
	}
	return env, nil
}

// parseLogging reads an explicit logging block: {driver, options}.
func parseLogging(_ *Translator, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	block, ok := toStringMap(v)
	if !ok {
		return nil, models.NewError(models.KindSpecFormat, "logging must be a mapping, got %T", v)
	}
	return logConfig(block["driver"], block["options"])
}

// legacyLogConfig combines the version 1 log_driver and log_opt fields.
func legacyLogConfig(fragment map[string]any) (*models.LogConfig, error) {
	driver, hasDriver := fragment["log_driver"]
	options, hasOptions := fragment["log_opt"]
	if !hasDriver && !hasOptions {
		return nil, nil
	}
	return logConfig(driver, options)
}

func logConfig(driver, options any) (*models.LogConfig, error) {
	opts, err := stringMap(options)
	if err != nil {
		return nil, models.WrapError(models.KindSpecFormat, err, "logging options")
	}
	cfg := &models.LogConfig{Options: opts}
	if driver != nil {
		cfg.Driver = scalarString(driver)
	}
	if cfg.Driver == "" && len(cfg.Options) == 0 {
		return nil, nil
	}
	return cfg, nil
}

// stringList accepts a sequence of scalars.
func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if _, nested := item.(map[string]any); nested {
				return nil, fmt.Errorf("expected a list of strings, got a mapping entry")
			}
			out = append(out, scalarString(item))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}

// stringMap accepts either a mapping or a list of KEY=VALUE entries.
func stringMap(v any) (map[string]string, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := toStringMap(v); ok {
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = scalarString(val)
		}
		return out, nil
	}
	entries, err := stringList(v)
	if err != nil {
		return nil, models.WrapError(models.KindSpecFormat, err, "expected a mapping or KEY=VALUE list")
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		k, val, _ := strings.Cut(entry, "=")
		out[strings.TrimSpace(k)] = val
	}
	return out, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// coerceNumbers rewrites whole-valued floats as integers, recursively.
func coerceNumbers(v any) any {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return int(t)
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = coerceNumbers(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = coerceNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = coerceNumbers(val)
		}
		return out
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
