package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

func (h *Host) cpuUsageProbes() []probe.Probe {
	return []probe.Probe{
		h.procStatUsage(),
		probe.New("gopsutil cpu.Percent", func(ctx context.Context) (models.Value, error) {
			percents, err := cpu.PercentWithContext(h.facility(ctx), 0, false)
			if err != nil {
				return models.Unavailable(), err
			}
			if len(percents) == 0 {
				return models.Unavailable(), probe.ErrNoData
			}
			return models.Number(percents[0], models.UnitPercent), nil
		}),
		probe.Command("top idle", h.Runner, parseTopUsage, h.Tools.Top, "-bn1"),
	}
}

func (h *Host) cpuFreqProbes() []probe.Probe {
	return []probe.Probe{
		probe.New("proc cpuinfo", func(context.Context) (models.Value, error) {
			content, err := os.ReadFile(h.proc("cpuinfo"))
			if err != nil {
				return models.Unavailable(), err
			}
			return parseCPUInfoFrequency(string(content))
		}),
		probe.New("cpufreq scaling_cur_freq", func(context.Context) (models.Value, error) {
			khz, err := probe.ReadDecimal(h.sys("devices", "system", "cpu", "cpu0", "cpufreq", "scaling_cur_freq"))
			return probe.NumberFrom(khz/1000, err, models.UnitMHz)
		}),
		probe.New("gopsutil cpu.Info", func(ctx context.Context) (models.Value, error) {
			infos, err := cpu.InfoWithContext(h.facility(ctx))
			if err != nil {
				return models.Unavailable(), err
			}
			if len(infos) == 0 || infos[0].Mhz <= 0 {
				return models.Unavailable(), probe.ErrNoData
			}
			return models.Number(infos[0].Mhz, models.UnitMHz), nil
		}),
	}
}

// procStatUsage reports busy time as a share of all time since the
// previous reading, or since boot on the first one and after a gap
// longer than RateBaselineMaxAge.
func (h *Host) procStatUsage() probe.Probe {
	baseline := newCounterBaseline(h.Clock, RateBaselineMaxAge)
	return probe.New("proc stat", func(context.Context) (models.Value, error) {
		content, err := os.ReadFile(h.proc("stat"))
		if err != nil {
			return models.Unavailable(), err
		}
		busy, idle, err := parseCPUTimes(string(content))
		if err != nil {
			return models.Unavailable(), err
		}

		deltas, _, err := baseline.advance([]uint64{busy, idle})
		switch {
		case errors.Is(err, errNoBaseline):
			deltas = []uint64{busy, idle}
		case err != nil:
			return models.Unavailable(), err
		}

		total := deltas[0] + deltas[1]
		if total == 0 {
			return models.Unavailable(), fmt.Errorf("%w: no cpu time elapsed", probe.ErrNoData)
		}
		return models.Number(float64(deltas[0])/float64(total)*100, models.UnitPercent), nil
	})
}

// parseCPUTimes sums the aggregate "cpu" line of /proc/stat into busy
// and idle jiffies. Fields: user nice system idle iowait irq softirq
// steal. Guest time is already counted in user.
func parseCPUTimes(content string) (busy, idle uint64, err error) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			return 0, 0, fmt.Errorf("%w: short cpu line %q", probe.ErrNoData, line)
		}

		var times [8]uint64
		for i := 1; i < len(fields) && i <= len(times); i++ {
			value, err := strconv.ParseUint(fields[i], 10, 64)
			if err != nil {
				return 0, 0, fmt.Errorf("parsing cpu line: %w", err)
			}
			times[i-1] = value
		}

		idle = times[3] + times[4]
		busy = times[0] + times[1] + times[2] + times[5] + times[6] + times[7]
		return busy, idle, nil
	}
	return 0, 0, fmt.Errorf("%w: no aggregate cpu line", probe.ErrNoData)
}

// parseCPUInfoFrequency returns the first "cpu MHz" entry.
func parseCPUInfoFrequency(content string) (models.Value, error) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "cpu MHz") {
			continue
		}
		if parts := strings.SplitN(line, ":", 2); len(parts) == 2 {
			mhz, err := probe.ParseDecimal(parts[1])
			return probe.NumberFrom(mhz, err, models.UnitMHz)
		}
	}
	return models.Unavailable(), fmt.Errorf("%w: no cpu MHz line", probe.ErrNoData)
}

var topIdlePattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%?\s*id\b`)

// parseTopUsage derives usage from the idle figure in top's summary,
// e.g. "%Cpu(s):  3.1 us,  1.0 sy,  0.0 ni, 95.3 id, ...".
func parseTopUsage(output string) (models.Value, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "Cpu(s)") {
			continue
		}
		match := topIdlePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		idle, err := probe.ParseDecimal(match[1])
		if err != nil {
			return models.Unavailable(), err
		}
		return models.Number(100-idle, models.UnitPercent), nil
	}
	return models.Unavailable(), fmt.Errorf("%w: no Cpu(s) summary", probe.ErrNoData)
}
