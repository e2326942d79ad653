package collector

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

func (h *Host) ramUsageProbes() []probe.Probe {
	probes := []probe.Probe{
		probe.New("proc meminfo", func(context.Context) (models.Value, error) {
			content, err := os.ReadFile(h.proc("meminfo"))
			if err != nil {
				return models.Unavailable(), err
			}
			return parseMeminfo(string(content))
		}),
		probe.New("gopsutil mem.VirtualMemory", func(ctx context.Context) (models.Value, error) {
			stat, err := mem.VirtualMemoryWithContext(h.facility(ctx))
			if err != nil {
				return models.Unavailable(), err
			}
			if stat.Total == 0 {
				return models.Unavailable(), probe.ErrNoData
			}
			return models.Ratio(float64(stat.Total-stat.Available), float64(stat.Total), models.UnitBytes), nil
		}),
	}
	if sysinfo := sysinfoProbe(); sysinfo != nil {
		probes = append(probes, sysinfo)
	}
	return probes
}

// parseMeminfo reports MemTotal less MemAvailable. Kernels older than
// 3.14 lack MemAvailable; free, buffers and page cache stand in for it.
func parseMeminfo(content string) (models.Value, error) {
	kib := make(map[string]uint64)
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		kib[strings.TrimSuffix(fields[0], ":")] = value
	}

	total := kib["MemTotal"]
	if total == 0 {
		return models.Unavailable(), fmt.Errorf("%w: no MemTotal", probe.ErrNoData)
	}
	available, ok := kib["MemAvailable"]
	if !ok {
		available = kib["MemFree"] + kib["Buffers"] + kib["Cached"]
	}
	if available > total {
		available = total
	}
	return models.Ratio(float64((total-available)*1024), float64(total*1024), models.UnitBytes), nil
}
