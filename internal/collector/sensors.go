package collector

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

// Package sensor labels reported by lm-sensors, most specific first:
// AMD control and die temperature, then the Intel package.
var cpuSensorLabels = []string{"Tctl", "Tdie", "Package id 0"}

// hwmon chips that report the CPU package as temp1.
var cpuHwmonChips = []string{"coretemp", "k10temp", "zenpower"}

// hwmon chips whose fans belong to a graphics card.
var gpuHwmonChips = map[string]bool{"amdgpu": true, "nouveau": true, "radeon": true}

var sensorsFanPattern = regexp.MustCompile(`^fan\d+:`)

func (h *Host) cpuTempProbes() []probe.Probe {
	return []probe.Probe{
		probe.Command("sensors package", h.Runner, parseSensorsTemp, h.Tools.Sensors),
		probe.New("thermal_zone0", func(context.Context) (models.Value, error) {
			raw, err := probe.ReadDecimal(h.sys("class", "thermal", "thermal_zone0", "temp"))
			return probe.NumberFrom(celsius(raw), err, models.UnitCelsius)
		}),
		probe.New("hwmon cpu temp1_input", func(context.Context) (models.Value, error) {
			for _, dir := range h.hwmonDevices(cpuHwmonChips...) {
				if raw, err := probe.ReadDecimal(filepath.Join(dir, "temp1_input")); err == nil {
					return models.Number(celsius(raw), models.UnitCelsius), nil
				}
			}
			return models.Unavailable(), fmt.Errorf("%w: no cpu hwmon chip", probe.ErrNoData)
		}),
		probe.New("gopsutil host.SensorsTemperatures", func(ctx context.Context) (models.Value, error) {
			temps, err := host.SensorsTemperaturesWithContext(h.facility(ctx))
			// Partial results arrive with a warnings error.
			if len(temps) == 0 {
				if err == nil {
					err = probe.ErrNoData
				}
				return models.Unavailable(), err
			}
			for _, marker := range []string{"tctl", "tdie", "package_id_0", "coretemp", "k10temp"} {
				for _, temp := range temps {
					if strings.Contains(strings.ToLower(temp.SensorKey), marker) && temp.Temperature > 0 {
						return models.Number(temp.Temperature, models.UnitCelsius), nil
					}
				}
			}
			return models.Unavailable(), fmt.Errorf("%w: no cpu sensor among %d", probe.ErrNoData, len(temps))
		}),
	}
}

func (h *Host) cpuFanProbes() []probe.Probe {
	return []probe.Probe{
		probe.Command("sensors fan", h.Runner, parseSensorsFan, h.Tools.Sensors),
		probe.New("hwmon fan_input", func(context.Context) (models.Value, error) {
			for _, dir := range h.glob("class", "hwmon", "hwmon*") {
				if chip, err := probe.ReadString(filepath.Join(dir, "name")); err == nil && gpuHwmonChips[chip] {
					continue
				}
				inputs, _ := filepath.Glob(filepath.Join(dir, "fan*_input"))
				for _, input := range inputs {
					if rpm, err := probe.ReadDecimal(input); err == nil {
						return models.Number(rpm, models.UnitRPM), nil
					}
				}
			}
			return models.Unavailable(), fmt.Errorf("%w: no fan input", probe.ErrNoData)
		}),
	}
}

// celsius converts a sysfs temperature to degrees. Most drivers report
// millidegrees; a few report degrees.
func celsius(raw float64) float64 {
	if raw > 1000 {
		return raw / 1000
	}
	return raw
}

// parseSensorsTemp finds the CPU package temperature in lm-sensors
// output such as "Tctl:         +45.5°C".
func parseSensorsTemp(output string) (models.Value, error) {
	lines := strings.Split(output, "\n")
	for _, label := range cpuSensorLabels {
		for _, line := range lines {
			reading, ok := strings.CutPrefix(strings.TrimSpace(line), label+":")
			if !ok {
				continue
			}
			degrees, err := probe.ParseDecimal(reading)
			if err != nil {
				continue
			}
			return models.Number(degrees, models.UnitCelsius), nil
		}
	}
	return models.Unavailable(), fmt.Errorf("%w: no package temperature", probe.ErrNoData)
}

// parseSensorsFan returns the first fan reading, e.g.
// "fan1:        1200 RPM  (min =    0 RPM)".
func parseSensorsFan(output string) (models.Value, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !sensorsFanPattern.MatchString(line) {
			continue
		}
		_, reading, _ := strings.Cut(line, ":")
		rpm, err := probe.ParseDecimal(reading)
		if err != nil {
			continue
		}
		return models.Number(rpm, models.UnitRPM), nil
	}
	return models.Unavailable(), fmt.Errorf("%w: no fan reading", probe.ErrNoData)
}
