package models

import "time"

type HostInfo struct {
	Hostname      string `json:"hostname"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernelVersion"`
	Uptime        uint64 `json:"uptime"`
}

type UsageInfo struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"usedPercent"`
}

// SystemInfo is the telemetry snapshot sent for sysinfo requests and
// heartbeats.
type SystemInfo struct {
	Timestamp    time.Time          `json:"timestamp"`
	AgentVersion string             `json:"agentVersion"`
	Host         HostInfo           `json:"host"`
	CPUPercent   float64            `json:"cpuPercent"`
	Memory       UsageInfo          `json:"memory"`
	Disk         UsageInfo          `json:"disk"`
	Runtime      *RuntimeVersion    `json:"runtime,omitempty"`
	Containers   []ContainerSummary `json:"containers"`
	Errors       []StashedError     `json:"errors,omitempty"`
}
