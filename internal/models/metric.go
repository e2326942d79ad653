package models

import "fmt"

type Metric uint8

const (
	CpuTemp Metric = iota
	CpuUsage
	CpuFreq
	CpuFan
	GpuTemp
	GpuUsage
	GpuFan
	GpuMem
	GpuPower
	RamUsage
	DiskUsage
	Battery
	Uptime
	NetDown
	NetUp
	LoadAvg

	MetricCount int = iota
)

// Shape is the form a metric's value takes once normalized.
type Shape uint8

const (
	ShapeNumber Shape = iota + 1
	ShapeRatio
	ShapeDuration
)

type Unit string

const (
	UnitNone           Unit = ""
	UnitCelsius        Unit = "°C"
	UnitPercent        Unit = "%"
	UnitMHz            Unit = "MHz"
	UnitRPM            Unit = "RPM"
	UnitWatt           Unit = "W"
	UnitMiB            Unit = "MiB"
	UnitBytes          Unit = "B"
	UnitBytesPerSecond Unit = "B/s"
)

type metricInfo struct {
	name  string
	label string
	shape Shape
	unit  Unit
}

var metricTable = [MetricCount]metricInfo{
	CpuTemp:   {"cpu_temp", "CPU Temp", ShapeNumber, UnitCelsius},
	CpuUsage:  {"cpu_usage", "CPU Usage", ShapeNumber, UnitPercent},
	CpuFreq:   {"cpu_freq", "CPU Freq", ShapeNumber, UnitMHz},
	CpuFan:    {"cpu_fan", "CPU Fan", ShapeNumber, UnitRPM},
	GpuTemp:   {"gpu_temp", "GPU Temp", ShapeNumber, UnitCelsius},
	GpuUsage:  {"gpu_usage", "GPU Usage", ShapeNumber, UnitPercent},
	GpuFan:    {"gpu_fan", "GPU Fan", ShapeNumber, UnitPercent},
	GpuMem:    {"gpu_mem", "GPU Memory", ShapeRatio, UnitMiB},
	GpuPower:  {"gpu_power", "GPU Power", ShapeNumber, UnitWatt},
	RamUsage:  {"ram_usage", "RAM", ShapeRatio, UnitBytes},
	DiskUsage: {"disk_usage", "Disk", ShapeNumber, UnitPercent},
	Battery:   {"battery", "Battery", ShapeNumber, UnitPercent},
	Uptime:    {"uptime", "Uptime", ShapeDuration, UnitNone},
	NetDown:   {"net_down", "Download", ShapeNumber, UnitBytesPerSecond},
	NetUp:     {"net_up", "Upload", ShapeNumber, UnitBytesPerSecond},
	LoadAvg:   {"load_avg", "Load Avg", ShapeNumber, UnitNone},
}

// AllMetrics returns every metric in declaration order.
func AllMetrics() []Metric {
	metrics := make([]Metric, MetricCount)
	for i := range metrics {
		metrics[i] = Metric(i)
	}
	return metrics
}

func (m Metric) Valid() bool { return int(m) < MetricCount }

func (m Metric) String() string {
	if !m.Valid() {
		return fmt.Sprintf("metric(%d)", uint8(m))
	}
	return metricTable[m].name
}

func (m Metric) Label() string {
	if !m.Valid() {
		return m.String()
	}
	return metricTable[m].label
}

func (m Metric) Shape() Shape {
	if !m.Valid() {
		return 0
	}
	return metricTable[m].shape
}

func (m Metric) Unit() Unit {
	if !m.Valid() {
		return UnitNone
	}
	return metricTable[m].unit
}

// ParseMetric maps a configuration name such as "gpu_temp" to its Metric.
func ParseMetric(name string) (Metric, error) {
	for i, info := range metricTable {
		if info.name == name {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}
