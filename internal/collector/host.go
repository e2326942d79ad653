package collector

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/common"

	"github.com/prabalesh/crophud/internal/clock"
	"github.com/prabalesh/crophud/internal/config"
	"github.com/prabalesh/crophud/internal/probe"
)

// Host describes where probes read from: the procfs and sysfs roots,
// the filesystem reported as disk usage, and how to run tools.
type Host struct {
	ProcRoot string
	SysRoot  string
	DiskPath string
	Tools    config.ToolsConfig
	Runner   probe.Runner
	Clock    clock.Clock
}

// HostFromConfig returns a Host that runs real commands.
func HostFromConfig(cfg *config.Config) *Host {
	return &Host{
		ProcRoot: cfg.Paths.Proc,
		SysRoot:  cfg.Paths.Sys,
		DiskPath: cfg.DiskPath,
		Tools:    cfg.Tools,
		Runner:   probe.ExecRunner{},
		Clock:    clock.Real(),
	}
}

func (h *Host) proc(elem ...string) string {
	return filepath.Join(append([]string{h.ProcRoot}, elem...)...)
}

func (h *Host) sys(elem ...string) string {
	return filepath.Join(append([]string{h.SysRoot}, elem...)...)
}

// facility points gopsutil at the same roots as the file probes.
func (h *Host) facility(ctx context.Context) context.Context {
	return context.WithValue(ctx, common.EnvKey, common.EnvMap{
		common.HostProcEnvKey: h.ProcRoot,
		common.HostSysEnvKey:  h.SysRoot,
	})
}

// glob returns matches for pattern under the sysfs root in a stable
// order.
func (h *Host) glob(pattern ...string) []string {
	matches, err := filepath.Glob(h.sys(pattern...))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// hwmonDevices returns the hwmon directories whose name file matches
// one of names, in the order of names.
func (h *Host) hwmonDevices(names ...string) []string {
	var devices []string
	all := h.glob("class", "hwmon", "hwmon*")
	for _, name := range names {
		for _, dir := range all {
			if chip, err := probe.ReadString(filepath.Join(dir, "name")); err == nil && chip == name {
				devices = append(devices, dir)
			}
		}
	}
	return devices
}

// amdgpuDevice returns the sysfs device directory of the first DRM card
// bound to the amdgpu driver.
func (h *Host) amdgpuDevice() (string, error) {
	for _, uevent := range h.glob("class", "drm", "card*", "device", "uevent") {
		data, err := os.ReadFile(uevent)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) == "DRIVER=amdgpu" {
				return filepath.Dir(uevent), nil
			}
		}
	}
	return "", errNoAmdgpu
}

// amdgpuHwmon returns the first hwmon directory of the amdgpu device.
func (h *Host) amdgpuHwmon() (string, error) {
	device, err := h.amdgpuDevice()
	if err != nil {
		return "", err
	}
	matches, _ := filepath.Glob(filepath.Join(device, "hwmon", "hwmon*"))
	if len(matches) == 0 {
		return "", errNoAmdgpu
	}
	sort.Strings(matches)
	return matches[0], nil
}
