package sysinfo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/whalebone/local-resolver-agent/interfaces"
	"github.com/whalebone/local-resolver-agent/models"
)

const DefaultDiskPath = "/"

// Collector builds telemetry snapshots from the host, the container runtime
// and the errors stashed since the previous snapshot.
type Collector struct {
	runtime  interfaces.Runtime
	probe    HostProbe
	errs     *models.ErrorStash
	logger   *zap.Logger
	version  string
	diskPath string
}

var _ interfaces.SystemInfoCollector = (*Collector)(nil)

func NewCollector(runtime interfaces.Runtime, errs *models.ErrorStash, logger *zap.Logger, agentVersion string) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		runtime:  runtime,
		probe:    GopsutilProbe{},
		errs:     errs,
		logger:   logger.Named("sysinfo"),
		version:  agentVersion,
		diskPath: DefaultDiskPath,
	}
}

// WithProbe replaces the host probe.
func (c *Collector) WithProbe(p HostProbe) *Collector {
	c.probe = p
	return c
}

// Collect returns a snapshot. Individual probe failures leave their part
// empty and are reported in the snapshot's errors instead of failing it.
func (c *Collector) Collect(ctx context.Context) (models.SystemInfo, error) {
	info := models.SystemInfo{
		Timestamp:    time.Now().UTC(),
		AgentVersion: c.version,
		Containers:   []models.ContainerSummary{},
	}

	var err error
	if info.Host, err = c.probe.Host(ctx); err != nil {
		c.note("host", err)
	}
	if info.CPUPercent, err = c.probe.CPUPercent(ctx); err != nil {
		c.note("cpu", err)
	}
	if info.Memory, err = c.probe.Memory(ctx); err != nil {
		c.note("memory", err)
	}
	if info.Disk, err = c.probe.Disk(ctx, c.diskPath); err != nil {
		c.note("disk", err)
	}

	if c.runtime != nil {
		if v, err := c.runtime.Version(ctx); err != nil {
			c.note("runtime", err)
		} else {
			info.Runtime = &v
		}
		if list, err := c.runtime.List(ctx); err != nil {
			c.note("containers", err)
		} else {
			info.Containers = list
		}
	}

	if ctx.Err() != nil {
		return models.SystemInfo{}, ctx.Err()
	}

	info.Errors = c.errs.Drain()
	return info, nil
}

func (c *Collector) note(source string, err error) {
	c.logger.Debug("telemetry probe failed", zap.String("source", source), zap.Error(err))
	c.errs.Add("sysinfo:"+source, err)
}
