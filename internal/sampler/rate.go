package sampler

import (
	"time"

	"github.com/Guliveer/vitalis/dashboard/internal/collector"
)

// minElapsed floors the time between samples so clock irregularities never
// divide by zero or by a negative duration.
const minElapsed = time.Millisecond

// RateState carries the network counters and timestamp of the previous
// sample. It is owned by a Sampler and only touched under its mutex.
type RateState struct {
	lastSent uint64
	lastRecv uint64
	lastTime time.Time
}

// newRateState seeds the state from a first counter read.
func newRateState(c collector.NetCounters, now time.Time) RateState {
	return RateState{lastSent: c.BytesSent, lastRecv: c.BytesRecv, lastTime: now}
}

// advance computes upload/download speeds in bytes/s against the previous
// reading and records the new one. A counter that went backwards (reboot,
// interface reset) yields 0 rather than a negative or wrapped value. The
// stored timestamp never moves backwards.
func (r *RateState) advance(c collector.NetCounters, now time.Time) (upload, download float64) {
	elapsed := now.Sub(r.lastTime)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	secs := elapsed.Seconds()

	upload = float64(positiveDelta(c.BytesSent, r.lastSent)) / secs
	download = float64(positiveDelta(c.BytesRecv, r.lastRecv)) / secs

	r.lastSent = c.BytesSent
	r.lastRecv = c.BytesRecv
	if now.After(r.lastTime) {
		r.lastTime = now
	}
	return upload, download
}

func positiveDelta(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}
