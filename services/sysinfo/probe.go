package sysinfo

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/whalebone/local-resolver-agent/models"
)

const cpuSampleInterval = 200 * time.Millisecond

// HostProbe reads host level metrics.
type HostProbe interface {
	Host(ctx context.Context) (models.HostInfo, error)
	CPUPercent(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (models.UsageInfo, error)
	Disk(ctx context.Context, path string) (models.UsageInfo, error)
}

// GopsutilProbe reads metrics of the machine the agent runs on.
type GopsutilProbe struct{}

func (GopsutilProbe) Host(ctx context.Context) (models.HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return models.HostInfo{}, err
	}
	return models.HostInfo{
		Hostname:      info.Hostname,
		Platform:      info.Platform + " " + info.PlatformVersion,
		KernelVersion: info.KernelVersion,
		Uptime:        info.Uptime,
	}, nil
}

func (GopsutilProbe) CPUPercent(ctx context.Context) (float64, error) {
	percent, err := cpu.PercentWithContext(ctx, cpuSampleInterval, false)
	if err != nil {
		return 0, err
	}
	if len(percent) == 0 {
		return 0, nil
	}
	return percent[0], nil
}

func (GopsutilProbe) Memory(ctx context.Context) (models.UsageInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.UsageInfo{}, err
	}
	return models.UsageInfo{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}, nil
}

func (GopsutilProbe) Disk(ctx context.Context, path string) (models.UsageInfo, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return models.UsageInfo{}, err
	}
	return models.UsageInfo{Total: usage.Total, Used: usage.Used, UsedPercent: usage.UsedPercent}, nil
}
