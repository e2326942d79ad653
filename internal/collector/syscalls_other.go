//go:build !linux

package collector

import "github.com/prabalesh/crophud/internal/probe"

// statfs and sysinfo are Linux-only; other systems rely on gopsutil and
// the command probes.
func statfsProbe(string) probe.Probe { return nil }

func sysinfoProbe() probe.Probe { return nil }
