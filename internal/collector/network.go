// Network I/O: cumulative RX/TX byte counters across all interfaces.
// Rates are derived by the sampler, which owns the previous reading.

package collector

import (
	"context"
	"errors"

	"github.com/shirou/gopsutil/v3/net"
)

// NetCounters returns the bytes sent/received since boot, summed over all NICs.
func (s *HostStats) NetCounters(ctx context.Context) (NetCounters, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return NetCounters{}, err
	}
	if len(counters) == 0 {
		return NetCounters{}, errors.New("no network counters reported")
	}
	return NetCounters{
		BytesSent: counters[0].BytesSent,
		BytesRecv: counters[0].BytesRecv,
	}, nil
}
