package collector

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

const upowerBattery = "/org/freedesktop/UPower/devices/battery_BAT0"

func (h *Host) batteryProbes() []probe.Probe {
	return []probe.Probe{
		probe.New("power_supply capacity", func(context.Context) (models.Value, error) {
			// Desktops have no BAT* entry; that is a failure like any other.
			for _, dir := range h.glob("class", "power_supply", "BAT*") {
				if level, err := probe.ReadDecimal(filepath.Join(dir, "capacity")); err == nil {
					return models.Number(level, models.UnitPercent), nil
				}
			}
			return models.Unavailable(), fmt.Errorf("%w: no battery", probe.ErrNoData)
		}),
		probe.Command("upower percentage", h.Runner, func(output string) (models.Value, error) {
			text, err := probe.ValueAfter(output, "percentage")
			if err != nil {
				return models.Unavailable(), err
			}
			level, err := probe.ParseDecimal(text)
			return probe.NumberFrom(level, err, models.UnitPercent)
		}, h.Tools.Upower, "-i", upowerBattery),
	}
}
