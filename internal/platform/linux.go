//go:build linux

package platform

import "github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"

// New creates the Linux platform. hwmon sensors already cover the CPU
// temperature, so there is no command fallback.
func New(runner cmdrunner.Runner) Platform {
	return &basePlatform{
		name:    "linux",
		cpuTemp: noTemperature{},
		gpus:    GPUChain{NewNvidiaSMI(runner), NewAMDGPU()},
	}
}
