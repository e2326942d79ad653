//go:build linux

package collector

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

// statfsProbe reads disk usage straight from statfs(2), for when
// gopsutil cannot.
func statfsProbe(path string) probe.Probe {
	return probe.New("statfs", func(context.Context) (models.Value, error) {
		var stat unix.Statfs_t
		if err := unix.Statfs(path, &stat); err != nil {
			return models.Unavailable(), err
		}
		percent, err := usedPercent(stat.Blocks, stat.Bfree, stat.Bavail)
		return probe.NumberFrom(percent, err, models.UnitPercent)
	})
}

// sysinfoProbe reads memory from sysinfo(2). Unlike MemAvailable it
// cannot see reclaimable page cache, so it ranks last.
func sysinfoProbe() probe.Probe {
	return probe.New("sysinfo", func(context.Context) (models.Value, error) {
		var info unix.Sysinfo_t
		if err := unix.Sysinfo(&info); err != nil {
			return models.Unavailable(), err
		}
		unit := uint64(info.Unit)
		if unit == 0 {
			unit = 1
		}
		total := uint64(info.Totalram) * unit
		free := (uint64(info.Freeram) + uint64(info.Bufferram)) * unit
		if total == 0 || free > total {
			return models.Unavailable(), probe.ErrNoData
		}
		return models.Ratio(float64(total-free), float64(total), models.UnitBytes), nil
	})
}
