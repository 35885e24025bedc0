package interfaces

import (
	"context"

	"github.com/whalebone/local-resolver-agent/models"
)

// SystemInfoCollector produces the telemetry snapshot for sysinfo requests
// and heartbeats.
type SystemInfoCollector interface {
	Collect(ctx context.Context) (models.SystemInfo, error)
}
