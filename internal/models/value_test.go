package models

import (
	"math"
	"testing"
	"time"
)

func TestValuePercentGuardsZeroTotal(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   float64
		wantOK bool
	}{
		{"half used", Ratio(512, 1024, UnitMiB), 50, true},
		{"zero total", Ratio(512, 0, UnitMiB), 0, false},
		{"number is not a ratio", Number(42, UnitPercent), 0, false},
		{"unavailable", Unavailable(), 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := test.value.Percent()
			if got != test.want || ok != test.wantOK {
				t.Errorf("Percent() = (%v, %v), want (%v, %v)", got, ok, test.want, test.wantOK)
			}
		})
	}
}

func TestValueChartable(t *testing.T) {
	if got, ok := Number(37.5, UnitPercent).Chartable(); !ok || got != 37.5 {
		t.Errorf("Number.Chartable() = (%v, %v), want (37.5, true)", got, ok)
	}
	if got, ok := Ratio(1, 4, UnitBytes).Chartable(); !ok || got != 25 {
		t.Errorf("Ratio.Chartable() = (%v, %v), want (25, true)", got, ok)
	}
	if _, ok := Duration(time.Hour).Chartable(); ok {
		t.Error("Duration.Chartable() reported ok")
	}
	if _, ok := Unavailable().Chartable(); ok {
		t.Error("Unavailable.Chartable() reported ok")
	}
}

func TestNonFiniteNumbersAreUnavailable(t *testing.T) {
	if Number(math.NaN(), UnitCelsius).Available() {
		t.Error("NaN number should be unavailable")
	}
	if Number(math.Inf(1), UnitCelsius).Available() {
		t.Error("+Inf number should be unavailable")
	}
	if Ratio(1, math.NaN(), UnitMiB).Available() {
		t.Error("NaN ratio should be unavailable")
	}
	if Duration(-time.Second).Available() {
		t.Error("negative duration should be unavailable")
	}
}

func TestValueFormat(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"unavailable", Unavailable(), "--"},
		{"celsius", Number(45.46, UnitCelsius), "45.5°C"},
		{"percent", Number(12.34, UnitPercent), "12.3%"},
		{"mhz", Number(3400.4, UnitMHz), "3400 MHz"},
		{"rpm", Number(1200, UnitRPM), "1200 RPM"},
		{"watts", Number(35.25, UnitWatt), "35.2 W"},
		{"rate", Number(2048, UnitBytesPerSecond), "2.0 KiB/s"},
		{"load", Number(0.5, UnitNone), "0.50"},
		{"gpu memory", Ratio(1024, 8192, UnitMiB), "1024/8192 MiB (12%)"},
		{"gpu memory zero total", Ratio(0, 0, UnitMiB), "0/0 MiB"},
		{"ram", Ratio(1<<30, 4<<30, UnitBytes), "1.0 GiB / 4.0 GiB (25%)"},
		{"uptime", Duration(26*time.Hour + 3*time.Minute + 4*time.Second), "1d 2h 3m 4s"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.value.Format("--"); got != test.want {
				t.Errorf("Format() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestValueFormatCustomPlaceholder(t *testing.T) {
	if got := Unavailable().Format("N/A"); got != "N/A" {
		t.Errorf("Format(N/A) = %q, want N/A", got)
	}
}

func TestValueMatchesShape(t *testing.T) {
	if !Number(1, UnitPercent).Matches(ShapeNumber) {
		t.Error("number should match ShapeNumber")
	}
	if Number(1, UnitPercent).Matches(ShapeRatio) {
		t.Error("number should not match ShapeRatio")
	}
	if !Ratio(1, 2, UnitMiB).Matches(ShapeRatio) {
		t.Error("ratio should match ShapeRatio")
	}
	if !Duration(time.Second).Matches(ShapeDuration) {
		t.Error("duration should match ShapeDuration")
	}
	if !Unavailable().Matches(ShapeDuration) {
		t.Error("unavailable should match every shape")
	}
}
