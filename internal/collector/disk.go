package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

func (h *Host) diskUsageProbes() []probe.Probe {
	probes := []probe.Probe{
		probe.New("gopsutil disk.Usage", func(ctx context.Context) (models.Value, error) {
			usage, err := disk.UsageWithContext(h.facility(ctx), h.DiskPath)
			if err != nil {
				return models.Unavailable(), err
			}
			if usage.Total == 0 {
				return models.Unavailable(), probe.ErrNoData
			}
			return models.Number(usage.UsedPercent, models.UnitPercent), nil
		}),
	}
	if statfs := statfsProbe(h.DiskPath); statfs != nil {
		probes = append(probes, statfs)
	}
	return append(probes, probe.Command("df use%", h.Runner, parseDfUsage, h.Tools.Df, "-P", h.DiskPath))
}

// usedPercent matches df: used blocks over the blocks an unprivileged
// user could have, so reserved blocks do not count as free.
func usedPercent(total, free, available uint64) (float64, error) {
	if total == 0 || free > total {
		return 0, fmt.Errorf("%w: filesystem reports %d blocks", probe.ErrNoData, total)
	}
	used := total - free
	if used+available == 0 {
		return 0, probe.ErrNoData
	}
	return float64(used) / float64(used+available) * 100, nil
}

// parseDfUsage reads the capacity column of POSIX df output:
//
//	Filesystem     1024-blocks      Used Available Capacity Mounted on
//	/dev/nvme0n1p2   490691512 208419196 257250608      45% /
func parseDfUsage(output string) (models.Value, error) {
	lines := strings.Split(output, "\n")
	if len(lines) < 2 {
		return models.Unavailable(), fmt.Errorf("%w: no df data line", probe.ErrNoData)
	}
	for _, field := range strings.Fields(lines[len(lines)-1]) {
		if strings.HasSuffix(field, "%") {
			percent, err := probe.ParseDecimal(field)
			return probe.NumberFrom(percent, err, models.UnitPercent)
		}
	}
	return models.Unavailable(), fmt.Errorf("%w: no capacity column", probe.ErrNoData)
}
