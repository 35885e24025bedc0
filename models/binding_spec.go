package models

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultPortProtocol = "tcp"

// SplitPortKey splits a container port key such as "53/udp" into its number
// and protocol. The protocol defaults to tcp.
func SplitPortKey(key string) (uint16, string, error) {
	port, proto, found := strings.Cut(strings.TrimSpace(key), "/")
	if !found || proto == "" {
		proto = DefaultPortProtocol
	}
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return 0, "", fmt.Errorf("invalid container port %q: %w", key, err)
	}
	return uint16(n), strings.ToLower(proto), nil
}
