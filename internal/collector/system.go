package collector

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

func (h *Host) uptimeProbes() []probe.Probe {
	return []probe.Probe{
		probe.New("proc uptime", func(context.Context) (models.Value, error) {
			text, err := probe.ReadString(h.proc("uptime"))
			if err != nil {
				return models.Unavailable(), err
			}
			fields := strings.Fields(text)
			seconds, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return models.Unavailable(), fmt.Errorf("parsing uptime: %w", err)
			}
			return models.Duration(time.Duration(seconds * float64(time.Second))), nil
		}),
		probe.New("gopsutil host.Uptime", func(ctx context.Context) (models.Value, error) {
			seconds, err := host.UptimeWithContext(h.facility(ctx))
			if err != nil {
				return models.Unavailable(), err
			}
			return models.Duration(time.Duration(seconds) * time.Second), nil
		}),
		probe.New("proc stat btime", func(context.Context) (models.Value, error) {
			content, err := os.ReadFile(h.proc("stat"))
			if err != nil {
				return models.Unavailable(), err
			}
			boot, err := parseBootTime(string(content))
			if err != nil {
				return models.Unavailable(), err
			}
			return models.Duration(h.Clock.Now().Sub(boot).Truncate(time.Second)), nil
		}),
	}
}

func (h *Host) loadAvgProbes() []probe.Probe {
	return []probe.Probe{
		probe.New("proc loadavg", func(context.Context) (models.Value, error) {
			text, err := probe.ReadString(h.proc("loadavg"))
			if err != nil {
				return models.Unavailable(), err
			}
			load1, err := strconv.ParseFloat(strings.Fields(text)[0], 64)
			if err != nil {
				return models.Unavailable(), fmt.Errorf("parsing loadavg: %w", err)
			}
			return models.Number(load1, models.UnitNone), nil
		}),
		probe.New("gopsutil load.Avg", func(ctx context.Context) (models.Value, error) {
			avg, err := load.AvgWithContext(h.facility(ctx))
			if err != nil {
				return models.Unavailable(), err
			}
			return models.Number(avg.Load1, models.UnitNone), nil
		}),
	}
}

// parseBootTime reads the btime line of /proc/stat.
func parseBootTime(content string) (time.Time, error) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		seconds, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing btime: %w", err)
		}
		return time.Unix(seconds, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: no btime line", probe.ErrNoData)
}
