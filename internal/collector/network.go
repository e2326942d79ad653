package collector

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

type direction int

const (
	received direction = iota
	transmitted
)

func (d direction) String() string {
	if d == received {
		return "rx"
	}
	return "tx"
}

// networkRateProbes returns the probes for one direction. Each probe
// keeps its own baseline, so NetDown and NetUp never share state.
func (h *Host) networkRateProbes(dir direction) []probe.Probe {
	return []probe.Probe{
		h.rateProbe("proc net/dev "+dir.String(), dir, func(context.Context) ([2]uint64, error) {
			content, err := os.ReadFile(h.proc("net", "dev"))
			if err != nil {
				return [2]uint64{}, err
			}
			return parseNetDev(string(content))
		}),
		h.rateProbe("gopsutil net.IOCounters "+dir.String(), dir, func(ctx context.Context) ([2]uint64, error) {
			counters, err := net.IOCountersWithContext(h.facility(ctx), false)
			if err != nil {
				return [2]uint64{}, err
			}
			if len(counters) == 0 {
				return [2]uint64{}, probe.ErrNoData
			}
			return [2]uint64{counters[0].BytesRecv, counters[0].BytesSent}, nil
		}),
	}
}

// rateProbe turns a byte counter reading into bytes per second since
// the previous reading. The first reading, a stale baseline, and a
// counter that went backwards all fail the attempt.
func (h *Host) rateProbe(name string, dir direction, read func(context.Context) ([2]uint64, error)) probe.Probe {
	baseline := newCounterBaseline(h.Clock, RateBaselineMaxAge)
	return probe.New(name, func(ctx context.Context) (models.Value, error) {
		counters, err := read(ctx)
		if err != nil {
			return models.Unavailable(), err
		}
		deltas, elapsed, err := baseline.advance(counters[:])
		if err != nil {
			return models.Unavailable(), err
		}
		if elapsed <= 0 {
			return models.Unavailable(), fmt.Errorf("%w: no time elapsed", probe.ErrNoData)
		}
		return models.Number(float64(deltas[dir])/elapsed.Seconds(), models.UnitBytesPerSecond), nil
	})
}

// parseNetDev sums received and transmitted bytes over every interface
// except loopback.
//
//	Inter-|   Receive                            |  Transmit
//	 face |bytes    packets errs drop fifo frame compressed multicast|bytes ...
//	  eth0: 1234567    890    0    0    0     0          0         0  7654321 ...
func parseNetDev(content string) ([2]uint64, error) {
	var totals [2]uint64
	interfaces := 0
	for _, line := range strings.Split(content, "\n") {
		name, counters, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "lo" {
			continue
		}
		fields := strings.Fields(counters)
		if len(fields) < 9 {
			continue
		}
		rx, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		tx, err := strconv.ParseUint(fields[8], 10, 64)
		if err != nil {
			continue
		}
		totals[received] += rx
		totals[transmitted] += tx
		interfaces++
	}
	if interfaces == 0 {
		return totals, fmt.Errorf("%w: no network interfaces", probe.ErrNoData)
	}
	return totals, nil
}
