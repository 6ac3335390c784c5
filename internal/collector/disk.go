// Disk usage: percent used on the configured filesystem (root by default).

package collector

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// DiskPercent returns the used percentage of the filesystem holding diskPath.
func (s *HostStats) DiskPercent(ctx context.Context) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, s.diskPath)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", s.diskPath, err)
	}
	return clampPercent(usage.UsedPercent), nil
}
