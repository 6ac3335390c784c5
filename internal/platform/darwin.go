//go:build darwin

package platform

import "github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"

// New creates the macOS platform. The CPU temperature comes from the
// osx-cpu-temp helper; GPUs from nvidia-smi (eGPU / legacy Macs) and then
// system_profiler for integrated chips.
func New(runner cmdrunner.Runner) Platform {
	return &basePlatform{
		name:    "darwin",
		cpuTemp: NewOSXTemp(runner, false),
		gpus:    GPUChain{NewNvidiaSMI(runner), NewAppleGPU(runner)},
	}
}
