// CPU usage: per-core utilization through gopsutil.

package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUPercents returns per-core utilization in [0,100].
//
// With a zero window gopsutil compares against the CPU times of the previous
// call (or process start), so the value covers the interval between two
// consecutive polls. A positive window blocks for that long and measures it.
func (s *HostStats) CPUPercents(ctx context.Context) ([]float64, error) {
	cores, err := cpu.PercentWithContext(ctx, s.cpuWindow, true)
	if err != nil {
		return nil, err
	}
	for i, v := range cores {
		cores[i] = clampPercent(v)
	}
	return cores, nil
}

// CPUWindow returns the configured averaging window.
func (s *HostStats) CPUWindow() time.Duration { return s.cpuWindow }

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
