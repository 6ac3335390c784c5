// RAM usage: percent of physical memory in use.

package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryPercent returns the percentage of physical memory in use.
func (s *HostStats) MemoryPercent(ctx context.Context) (float64, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return clampPercent(v.UsedPercent), nil
}
