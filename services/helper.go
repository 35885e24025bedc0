package services

import (
	"fmt"
	"sort"
	"strings"
)

const (
	StagingSuffix = "-new"
	RetiredSuffix = "-old"
)

// StagingName is the name a replacement container runs under until it is
// promoted to name.
func StagingName(name string) string {
	return fmt.Sprintf("%s%s", strings.TrimSpace(name), StagingSuffix)
}

// RetiredName is the name the current container is moved to while its
// replacement is promoted.
func RetiredName(name string) string {
	return fmt.Sprintf("%s%s", strings.TrimSpace(name), RetiredSuffix)
}

// CanonicalName strips a staging or retired suffix.
func CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	if s, ok := strings.CutSuffix(name, StagingSuffix); ok {
		return s
	}
	if s, ok := strings.CutSuffix(name, RetiredSuffix); ok {
		return s
	}
	return name
}

// ContainerName returns the primary name of a container as reported by the
// engine, without the leading slash.
func ContainerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

// EnvList renders an environment map as sorted KEY=VALUE pairs.
func EnvList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return out
}
