package collector

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/probe"
)

const mebibyte = 1 << 20

var errNoAmdgpu = fmt.Errorf("%w: no amdgpu device", probe.ErrNoData)

// nvidia-smi prints these instead of a number when a field does not
// apply to the card.
var nvidiaUnsupported = []string{"[N/A]", "[Not Supported]", "N/A"}

var rocmFanPercentPattern = regexp.MustCompile(`\((\d+(?:[.,]\d+)?)\s*%\)`)

func (h *Host) gpuTempProbes() []probe.Probe {
	return []probe.Probe{
		h.nvidiaNumber("temperature.gpu", models.UnitCelsius),
		h.rocmNumber("--showtemp", "Temperature", models.UnitCelsius),
		h.amdgpuHwmonNumber("temp1_input", celsius, models.UnitCelsius),
	}
}

func (h *Host) gpuUsageProbes() []probe.Probe {
	return []probe.Probe{
		h.nvidiaNumber("utilization.gpu", models.UnitPercent),
		h.rocmNumber("--showuse", "GPU use", models.UnitPercent),
		probe.New("amdgpu gpu_busy_percent", func(context.Context) (models.Value, error) {
			device, err := h.amdgpuDevice()
			if err != nil {
				return models.Unavailable(), err
			}
			busy, err := probe.ReadDecimal(filepath.Join(device, "gpu_busy_percent"))
			return probe.NumberFrom(busy, err, models.UnitPercent)
		}),
	}
}

func (h *Host) gpuFanProbes() []probe.Probe {
	return []probe.Probe{
		h.nvidiaNumber("fan.speed", models.UnitPercent),
		probe.Command("rocm-smi --showfan", h.Runner, parseRocmFan, h.Tools.RocmSMI, "--showfan"),
		h.amdgpuHwmonNumber("pwm1", func(pwm float64) float64 { return pwm / 255 * 100 }, models.UnitPercent),
	}
}

func (h *Host) gpuMemProbes() []probe.Probe {
	return []probe.Probe{
		probe.Command("nvidia-smi memory.used,memory.total", h.Runner, parseNvidiaMemory,
			h.Tools.NvidiaSMI, "--query-gpu=memory.used,memory.total", "--format=csv,noheader,nounits"),
		probe.Command("rocm-smi --showmeminfo vram", h.Runner, parseRocmMemory,
			h.Tools.RocmSMI, "--showmeminfo", "vram"),
		probe.New("amdgpu mem_info_vram", func(context.Context) (models.Value, error) {
			device, err := h.amdgpuDevice()
			if err != nil {
				return models.Unavailable(), err
			}
			used, err := probe.ReadDecimal(filepath.Join(device, "mem_info_vram_used"))
			if err != nil {
				return models.Unavailable(), err
			}
			total, err := probe.ReadDecimal(filepath.Join(device, "mem_info_vram_total"))
			if err != nil {
				return models.Unavailable(), err
			}
			return vramRatio(used/mebibyte, total/mebibyte)
		}),
	}
}

func (h *Host) gpuPowerProbes() []probe.Probe {
	return []probe.Probe{
		h.nvidiaNumber("power.draw", models.UnitWatt),
		h.rocmNumber("--showpower", "Power", models.UnitWatt),
		h.amdgpuHwmonNumber("power1_average", func(microwatts float64) float64 { return microwatts / 1e6 }, models.UnitWatt),
	}
}

// nvidiaNumber queries a single nvidia-smi field of the first GPU.
func (h *Host) nvidiaNumber(field string, unit models.Unit) probe.Probe {
	return probe.Command("nvidia-smi "+field, h.Runner, func(output string) (models.Value, error) {
		line, err := nvidiaFirstLine(output)
		if err != nil {
			return models.Unavailable(), err
		}
		value, err := probe.ParseDecimal(line)
		return probe.NumberFrom(value, err, unit)
	}, h.Tools.NvidiaSMI, "--query-gpu="+field, "--format=csv,noheader,nounits")
}

// rocmNumber runs rocm-smi with flag and parses the first line
// mentioning key, e.g. "GPU[0] : GPU use (%): 37".
func (h *Host) rocmNumber(flag, key string, unit models.Unit) probe.Probe {
	return probe.Command("rocm-smi "+flag, h.Runner, func(output string) (models.Value, error) {
		text, err := probe.ValueAfter(output, key)
		if err != nil {
			return models.Unavailable(), err
		}
		value, err := probe.ParseDecimal(text)
		return probe.NumberFrom(value, err, unit)
	}, h.Tools.RocmSMI, flag)
}

// amdgpuHwmonNumber reads file from the amdgpu hwmon directory and
// converts it with normalize.
func (h *Host) amdgpuHwmonNumber(file string, normalize func(float64) float64, unit models.Unit) probe.Probe {
	return probe.New("amdgpu hwmon "+file, func(context.Context) (models.Value, error) {
		dir, err := h.amdgpuHwmon()
		if err != nil {
			return models.Unavailable(), err
		}
		raw, err := probe.ReadDecimal(filepath.Join(dir, file))
		if err != nil {
			return models.Unavailable(), err
		}
		return models.Number(normalize(raw), unit), nil
	})
}

// nvidiaFirstLine returns the reading for the first GPU, rejecting the
// placeholders nvidia-smi prints for unsupported fields.
func nvidiaFirstLine(output string) (string, error) {
	line, _, _ := strings.Cut(output, "\n")
	line = strings.TrimSpace(line)
	for _, marker := range nvidiaUnsupported {
		if strings.Contains(line, marker) {
			return "", fmt.Errorf("%w: nvidia-smi reported %s", probe.ErrNoData, line)
		}
	}
	if line == "" {
		return "", probe.ErrNoData
	}
	return line, nil
}

// parseNvidiaMemory parses "used, total" in MiB.
func parseNvidiaMemory(output string) (models.Value, error) {
	line, err := nvidiaFirstLine(output)
	if err != nil {
		return models.Unavailable(), err
	}
	usedText, totalText, ok := strings.Cut(line, ", ")
	if !ok {
		return models.Unavailable(), fmt.Errorf("%w: expected used, total in %q", probe.ErrNoData, line)
	}
	used, err := probe.ParseDecimal(usedText)
	if err != nil {
		return models.Unavailable(), err
	}
	total, err := probe.ParseDecimal(totalText)
	if err != nil {
		return models.Unavailable(), err
	}
	return vramRatio(used, total)
}

// parseRocmMemory parses the byte counts printed by
// "rocm-smi --showmeminfo vram".
func parseRocmMemory(output string) (models.Value, error) {
	var used, total float64
	var foundUsed, foundTotal bool
	for _, line := range strings.Split(output, "\n") {
		index := strings.LastIndex(line, ":")
		if index < 0 {
			continue
		}
		value, err := probe.ParseDecimal(line[index+1:])
		if err != nil {
			continue
		}
		switch {
		case strings.Contains(line, "Used"):
			used, foundUsed = value, true
		case strings.Contains(line, "Total"):
			total, foundTotal = value, true
		}
	}
	if !foundUsed || !foundTotal {
		return models.Unavailable(), fmt.Errorf("%w: vram used or total missing", probe.ErrNoData)
	}
	return vramRatio(used/mebibyte, total/mebibyte)
}

// parseRocmFan prefers the percentage rocm-smi prints in parentheses
// after the raw fan level, falling back to a "Fan speed (%)" line.
func parseRocmFan(output string) (models.Value, error) {
	if match := rocmFanPercentPattern.FindStringSubmatch(output); match != nil {
		percent, err := probe.ParseDecimal(match[1])
		return probe.NumberFrom(percent, err, models.UnitPercent)
	}
	text, err := probe.ValueAfter(output, "Fan speed")
	if err != nil {
		return models.Unavailable(), err
	}
	percent, err := probe.ParseDecimal(text)
	return probe.NumberFrom(percent, err, models.UnitPercent)
}

func vramRatio(usedMiB, totalMiB float64) (models.Value, error) {
	if totalMiB <= 0 {
		return models.Unavailable(), errors.New("vram total is zero")
	}
	return models.Ratio(usedMiB, totalMiB, models.UnitMiB), nil
}
