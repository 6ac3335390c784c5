//go:build windows

package platform

import "github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"

// New creates the Windows platform. CPU temperature is only available
// through the WMI thermal zones gopsutil already reads.
func New(runner cmdrunner.Runner) Platform {
	return &basePlatform{
		name:    "windows",
		cpuTemp: noTemperature{},
		gpus:    GPUChain{NewNvidiaSMI(runner)},
	}
}
