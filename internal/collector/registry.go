package collector

import (
	"log/slog"
	"time"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

// Probes returns the default probes for metric, most authoritative
// first. Each call builds fresh probes with their own rate baselines.
func (h *Host) Probes(metric models.Metric) []probe.Probe {
	switch metric {
	case models.CpuTemp:
		return h.cpuTempProbes()
	case models.CpuUsage:
		return h.cpuUsageProbes()
	case models.CpuFreq:
		return h.cpuFreqProbes()
	case models.CpuFan:
		return h.cpuFanProbes()
	case models.GpuTemp:
		return h.gpuTempProbes()
	case models.GpuUsage:
		return h.gpuUsageProbes()
	case models.GpuFan:
		return h.gpuFanProbes()
	case models.GpuMem:
		return h.gpuMemProbes()
	case models.GpuPower:
		return h.gpuPowerProbes()
	case models.RamUsage:
		return h.ramUsageProbes()
	case models.DiskUsage:
		return h.diskUsageProbes()
	case models.Battery:
		return h.batteryProbes()
	case models.Uptime:
		return h.uptimeProbes()
	case models.NetDown:
		return h.networkRateProbes(received)
	case models.NetUp:
		return h.networkRateProbes(transmitted)
	case models.LoadAvg:
		return h.loadAvgProbes()
	default:
		return nil
	}
}

// Chains builds the default chain for each metric, in order.
func (h *Host) Chains(metrics []models.Metric, timeout time.Duration, logger *slog.Logger) []*probe.Chain {
	chains := make([]*probe.Chain, 0, len(metrics))
	for _, metric := range metrics {
		chains = append(chains, probe.NewChain(metric, timeout, logger, h.Probes(metric)...))
	}
	return chains
}
