package collector

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"
)

// HostStats implements Stats with gopsutil.
type HostStats struct {
	cpuWindow time.Duration
	diskPath  string
	osInfo    *osInfoCache
}

// NewHostStats creates gopsutil-backed Stats. diskPath selects the
// filesystem reported as disk usage; cpuWindow is passed to cpu.Percent.
func NewHostStats(diskPath string, cpuWindow time.Duration, runner cmdrunner.Runner) *HostStats {
	if diskPath == "" {
		diskPath = "/"
	}
	return &HostStats{
		cpuWindow: cpuWindow,
		diskPath:  diskPath,
		osInfo:    newOSInfoCache(runner),
	}
}

// HostInfo returns OS naming, architecture, hostname and boot time.
// Boot time is re-read on every call; OS naming is cached.
func (s *HostStats) HostInfo(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, err
	}

	osInfo := s.osInfo.get(ctx)
	if osInfo.OSVersion == "unknown" && info.PlatformVersion != "" {
		osInfo.OSVersion = info.PlatformVersion
	}

	machine := info.KernelArch
	if machine == "" {
		machine = runtime.GOARCH
	}

	return HostInfo{
		OSName:    osInfo.OSName,
		OSVersion: osInfo.OSVersion,
		Machine:   machine,
		Hostname:  info.Hostname,
		BootTime:  time.Unix(int64(info.BootTime), 0),
	}, nil
}
