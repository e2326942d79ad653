package models

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	KindUnavailable Kind = iota
	KindNumber
	KindRatio
	KindDuration
)

// Value is a normalized metric reading or the unavailable sentinel. The
// zero Value is unavailable.
type Value struct {
	kind     Kind
	number   float64
	used     float64
	total    float64
	duration time.Duration
	unit     Unit
}

func Unavailable() Value { return Value{} }

// Number returns a numeric value. NaN and infinities are unavailable.
func Number(value float64, unit Unit) Value {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, number: value, unit: unit}
}

// Ratio returns a used/total pair such as memory in use out of memory
// installed.
func Ratio(used, total float64, unit Unit) Value {
	if math.IsNaN(used) || math.IsNaN(total) || math.IsInf(used, 0) || math.IsInf(total, 0) {
		return Value{}
	}
	return Value{kind: KindRatio, used: used, total: total, unit: unit}
}

func Duration(d time.Duration) Value {
	if d < 0 {
		return Value{}
	}
	return Value{kind: KindDuration, duration: d}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) Available() bool { return v.kind != KindUnavailable }
func (v Value) Unit() Unit      { return v.unit }

// Number returns the numeric reading, or 0 for any other kind.
func (v Value) Number() float64 {
	if v.kind != KindNumber {
		return 0
	}
	return v.number
}

// Ratio returns the used and total parts, or zeros for any other kind.
func (v Value) Ratio() (used, total float64) {
	if v.kind != KindRatio {
		return 0, 0
	}
	return v.used, v.total
}

func (v Value) Duration() time.Duration {
	if v.kind != KindDuration {
		return 0
	}
	return v.duration
}

// Percent returns used/total as a percentage. It reports false when the
// value is not a ratio or the total is zero.
func (v Value) Percent() (float64, bool) {
	if v.kind != KindRatio || v.total <= 0 {
		return 0, false
	}
	return v.used / v.total * 100, true
}

// Chartable returns the sample a chart plots for this value: the number
// itself, or the percentage of a ratio.
func (v Value) Chartable() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.number, true
	case KindRatio:
		return v.Percent()
	default:
		return 0, false
	}
}

// Matches reports whether the value's kind fits the given shape.
// Unavailable matches every shape.
func (v Value) Matches(shape Shape) bool {
	switch v.kind {
	case KindUnavailable:
		return true
	case KindNumber:
		return shape == ShapeNumber
	case KindRatio:
		return shape == ShapeRatio
	case KindDuration:
		return shape == ShapeDuration
	}
	return false
}

func (v Value) String() string { return v.Format("--") }

// Format renders the value for display, using placeholder when it is
// unavailable.
func (v Value) Format(placeholder string) string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.number, v.unit)
	case KindRatio:
		return formatRatio(v.used, v.total, v.unit)
	case KindDuration:
		return FormatUptime(v.duration)
	default:
		return placeholder
	}
}

func formatNumber(value float64, unit Unit) string {
	switch unit {
	case UnitCelsius:
		return fmt.Sprintf("%.1f°C", value)
	case UnitPercent:
		return fmt.Sprintf("%.1f%%", value)
	case UnitMHz:
		return fmt.Sprintf("%.0f MHz", value)
	case UnitRPM:
		return fmt.Sprintf("%.0f RPM", value)
	case UnitWatt:
		return fmt.Sprintf("%.1f W", value)
	case UnitBytesPerSecond:
		return humanize.IBytes(uint64(math.Max(value, 0))) + "/s"
	case UnitBytes:
		return humanize.IBytes(uint64(math.Max(value, 0)))
	case UnitNone:
		return fmt.Sprintf("%.2f", value)
	default:
		return fmt.Sprintf("%.1f %s", value, unit)
	}
}

func formatRatio(used, total float64, unit Unit) string {
	var text string
	switch unit {
	case UnitBytes:
		text = humanize.IBytes(uint64(math.Max(used, 0))) + " / " + humanize.IBytes(uint64(math.Max(total, 0)))
	default:
		text = fmt.Sprintf("%.0f/%.0f %s", used, total, unit)
	}
	if total > 0 {
		text += fmt.Sprintf(" (%.0f%%)", used/total*100)
	}
	return text
}

// FormatUptime renders a duration as "3d 4h 5m 6s".
func FormatUptime(d time.Duration) string {
	seconds := int64(d / time.Second)
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds%60)
}
