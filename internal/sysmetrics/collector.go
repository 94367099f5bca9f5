// Package sysmetrics serves host usage metrics in the format the system
// monitor application polls.
package sysmetrics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/giraffenet/webdesk/internal/monitor"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

const gib = 1 << 30

// Collector produces one metrics sample.
type Collector interface {
	Collect(ctx context.Context) (monitor.Metrics, error)
}

// HostCollector samples the local host with gopsutil. Temperature and GPU
// load are not read from sensors; they are derived from CPU load.
type HostCollector struct {
	// CPUWindow is how long CPU usage is measured per sample.
	CPUWindow time.Duration
}

// NewHostCollector returns a collector measuring CPU over 400ms.
func NewHostCollector() *HostCollector {
	return &HostCollector{CPUWindow: 400 * time.Millisecond}
}

// Collect samples CPU and memory usage.
func (c *HostCollector) Collect(ctx context.Context) (monitor.Metrics, error) {
	percents, err := cpu.PercentWithContext(ctx, c.CPUWindow, false)
	if err != nil {
		return monitor.Metrics{}, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(percents) == 0 {
		return monitor.Metrics{}, fmt.Errorf("failed to read cpu usage: no samples")
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return monitor.Metrics{}, fmt.Errorf("failed to read memory usage: %w", err)
	}

	return Derive(percents[0], vm.Used, vm.Total, vm.UsedPercent), nil
}

// Derive builds a sample from raw CPU and memory readings. Memory sizes are
// reported in GiB with one decimal. Temperature is 30C plus 0.15C per CPU
// percent and GPU load is half the CPU load modulo 100, both rounded half
// to even.
func Derive(cpuPercent float64, memUsed, memTotal uint64, memPercent float64) monitor.Metrics {
	return monitor.Metrics{
		CPUPercent: cpuPercent,
		MemUsedGB:  round1(float64(memUsed) / gib),
		MemTotalGB: round1(float64(memTotal) / gib),
		MemPercent: memPercent,
		TempC:      math.RoundToEven(30 + cpuPercent*0.15),
		GPUPercent: math.RoundToEven(math.Mod(cpuPercent*0.5, 100)),
	}
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
