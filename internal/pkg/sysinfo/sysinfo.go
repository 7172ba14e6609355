package sysinfo

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

const bytesPerMB = 1024 * 1024

// DiskUsage is the usage of the filesystem holding a path
type DiskUsage struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// MemoryUsage is the host virtual memory usage
type MemoryUsage struct {
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedPercent    float64 `json:"used_percent"`
}

// Sampler reads host and process resource usage
type Sampler interface {
	Disk(ctx context.Context, path string) (*DiskUsage, error)
	Memory(ctx context.Context) (*MemoryUsage, error)
	// CPUPercent blocks for the sampling interval
	CPUPercent(ctx context.Context) (float64, error)
	ProcessCount(ctx context.Context) (int, error)
	// ProcessRSS returns the resident set size of the current process in bytes
	ProcessRSS(ctx context.Context) (uint64, error)
	Uptime(ctx context.Context) (time.Duration, error)
}

// HostSampler implements Sampler with gopsutil
type HostSampler struct {
	cpuInterval time.Duration
	pid         int32
}

// NewHostSampler creates a sampler measuring CPU over interval
func NewHostSampler(cpuInterval time.Duration) *HostSampler {
	if cpuInterval <= 0 {
		cpuInterval = time.Second
	}
	return &HostSampler{cpuInterval: cpuInterval, pid: int32(os.Getpid())}
}

func (h *HostSampler) Disk(ctx context.Context, path string) (*DiskUsage, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read disk usage of %s: %w", path, err)
	}
	return &DiskUsage{
		Path:        path,
		TotalBytes:  usage.Total,
		FreeBytes:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}

func (h *HostSampler) Memory(ctx context.Context) (*MemoryUsage, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory usage: %w", err)
	}
	return &MemoryUsage{
		TotalBytes:     vm.Total,
		AvailableBytes: vm.Available,
		UsedPercent:    vm.UsedPercent,
	}, nil
}

func (h *HostSampler) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, h.cpuInterval, false)
	if err != nil {
		return 0, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("no cpu sample returned")
	}
	return percents[0], nil
}

func (h *HostSampler) ProcessCount(ctx context.Context) (int, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list processes: %w", err)
	}
	return len(pids), nil
}

func (h *HostSampler) ProcessRSS(ctx context.Context) (uint64, error) {
	p, err := process.NewProcessWithContext(ctx, h.pid)
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

func (h *HostSampler) Uptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read uptime: %w", err)
	}
	return time.Duration(secs) * time.Second, nil
}

// ToMB converts bytes to megabytes
func ToMB(b uint64) float64 {
	return float64(b) / bytesPerMB
}

// ToGB converts bytes to gigabytes
func ToGB(b uint64) float64 {
	return float64(b) / (bytesPerMB * 1024)
}
