//go:build !darwin && !linux && !windows

package platform

import "github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"

// New creates a platform for the BSDs and other systems: nvidia-smi only.
func New(runner cmdrunner.Runner) Platform {
	return &basePlatform{
		name:    "stub",
		cpuTemp: noTemperature{},
		gpus:    GPUChain{NewNvidiaSMI(runner)},
	}
}
