package sampler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/vitalis/dashboard/internal/collector"
	"github.com/Guliveer/vitalis/dashboard/internal/config"
	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeStats serves scripted network counters; every NetCounters call
// consumes the next entry (the last one repeats).
type fakeStats struct {
	mu       sync.Mutex
	counters []collector.NetCounters
	calls    int
	step     *collector.NetCounters

	cpuErr  error
	netErr  error
	hostErr error
}

func (f *fakeStats) CPUPercents(context.Context) ([]float64, error) {
	if f.cpuErr != nil {
		return nil, f.cpuErr
	}
	return []float64{12.5, 40}, nil
}

func (f *fakeStats) MemoryPercent(context.Context) (float64, error) { return 63.2, nil }
func (f *fakeStats) DiskPercent(context.Context) (float64, error)   { return 71.9, nil }

func (f *fakeStats) NetCounters(context.Context) (collector.NetCounters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.netErr != nil && f.calls > 0 {
		return collector.NetCounters{}, f.netErr
	}
	defer func() { f.calls++ }()
	if f.step != nil {
		return collector.NetCounters{
			BytesSent: uint64(f.calls) * f.step.BytesSent,
			BytesRecv: uint64(f.calls) * f.step.BytesRecv,
		}, nil
	}
	if len(f.counters) == 0 {
		return collector.NetCounters{}, nil
	}
	i := f.calls
	if i >= len(f.counters) {
		i = len(f.counters) - 1
	}
	return f.counters[i], nil
}

func (f *fakeStats) HostInfo(context.Context) (collector.HostInfo, error) {
	if f.hostErr != nil {
		return collector.HostInfo{}, f.hostErr
	}
	return collector.HostInfo{
		OSName:    "Ubuntu 22.04.4 LTS",
		OSVersion: "22.04",
		Machine:   "x86_64",
		Hostname:  "workstation",
		BootTime:  epoch.Add(-time.Hour),
	}, nil
}

// fakeClock returns scripted instants, or advances by step per call.
type fakeClock struct {
	mu    sync.Mutex
	times []time.Time
	step  time.Duration
	calls int
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.calls++ }()
	if c.step > 0 {
		return epoch.Add(time.Duration(c.calls) * c.step)
	}
	i := c.calls
	if i >= len(c.times) {
		i = len(c.times) - 1
	}
	return c.times[i]
}

type staticCollector struct {
	name string
	data interface{}
	err  error
}

func (s staticCollector) Name() string      { return s.name }
func (s staticCollector) IsAvailable() bool { return true }
func (s staticCollector) Collect(context.Context) (interface{}, error) {
	return s.data, s.err
}

// hungCollector never returns until released and ignores its context.
type hungCollector struct {
	name    string
	release <-chan struct{}
}

func (h hungCollector) Name() string      { return h.name }
func (h hungCollector) IsAvailable() bool { return true }
func (h hungCollector) Collect(context.Context) (interface{}, error) {
	<-h.release
	return nil, nil
}

func newSampler(t *testing.T, stats collector.Stats, clock *fakeClock, cols ...collector.Collector) *Sampler {
	t.Helper()
	reg := collector.NewRegistry(nil)
	for _, c := range cols {
		reg.Register(c)
	}
	s, err := New(context.Background(), stats, reg, WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func TestSample_NetworkSpeed(t *testing.T) {
	stats := &fakeStats{counters: []collector.NetCounters{
		{BytesSent: 1000, BytesRecv: 5000},
		{BytesSent: 3000, BytesRecv: 5000},
	}}
	clock := &fakeClock{times: []time.Time{epoch, epoch.Add(2 * time.Second)}}
	s := newSampler(t, stats, clock)

	snap, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), snap.Network.Sent)
	assert.Equal(t, uint64(5000), snap.Network.Recv)
	assert.InDelta(t, 1000.0, snap.Network.UploadSpeed, 1e-9)
	assert.Equal(t, 0.0, snap.Network.DownloadSpeed)
}

func TestSample_CounterResetClampsToZero(t *testing.T) {
	stats := &fakeStats{counters: []collector.NetCounters{
		{BytesSent: 9000, BytesRecv: 9000},
		{BytesSent: 100, BytesRecv: 200},
		{BytesSent: 1100, BytesRecv: 200},
	}}
	clock := &fakeClock{step: time.Second}
	s := newSampler(t, stats, clock)

	snap, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Network.UploadSpeed)
	assert.Equal(t, 0.0, snap.Network.DownloadSpeed)

	// The reset value becomes the new baseline.
	snap, err = s.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, snap.Network.UploadSpeed, 1e-9)
}

func TestSample_FirstSampleNearZero(t *testing.T) {
	stats := &fakeStats{counters: []collector.NetCounters{{BytesSent: 1 << 30, BytesRecv: 1 << 31}}}
	s, err := New(context.Background(), stats, nil)
	require.NoError(t, err)

	snap, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Network.UploadSpeed)
	assert.Equal(t, 0.0, snap.Network.DownloadSpeed)
}

func TestSample_ClockGoingBackwards(t *testing.T) {
	stats := &fakeStats{counters: []collector.NetCounters{
		{BytesSent: 0},
		{BytesSent: 10},
		{BytesSent: 20},
	}}
	clock := &fakeClock{times: []time.Time{
		epoch,
		epoch.Add(-time.Hour),
		epoch.Add(time.Second),
	}}
	s := newSampler(t, stats, clock)

	// Elapsed floors at 1ms.
	snap, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, snap.Network.UploadSpeed, 1e-6)
	assert.Equal(t, epoch, s.rates.lastTime)

	snap, err = s.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, snap.Network.UploadSpeed, 1e-9)
	assert.Equal(t, epoch.Add(time.Second), s.rates.lastTime)
}

func TestSample_ConcurrentCallsConsistent(t *testing.T) {
	stats := &fakeStats{step: &collector.NetCounters{BytesSent: 1000, BytesRecv: 4000}}
	clock := &fakeClock{step: time.Second}
	s := newSampler(t, stats, clock)

	const n = 32
	speeds := make(chan [2]float64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := s.Sample(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			speeds <- [2]float64{snap.Network.UploadSpeed, snap.Network.DownloadSpeed}
		}()
	}
	wg.Wait()
	close(speeds)

	count := 0
	for sp := range speeds {
		count++
		assert.InDelta(t, 1000.0, sp[0], 1e-9)
		assert.InDelta(t, 4000.0, sp[1], 1e-9)
	}
	assert.Equal(t, n, count)
	assert.Equal(t, uint64(n*1000), s.rates.lastSent)
}

func TestSample_OptionalFailuresDegrade(t *testing.T) {
	stats := &fakeStats{}
	s := newSampler(t, stats, &fakeClock{step: time.Second},
		staticCollector{name: collector.NameTemperature, err: errors.New("no sensor")},
		staticCollector{name: collector.NameGPU, err: errors.New("nvidia-smi: not installed")},
		staticCollector{name: collector.NameBattery, err: errors.New("acpi unavailable")},
	)

	snap, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.CPUTemp.Present())
	assert.Equal(t, "no sensor", snap.CPUTemp.Reason())
	assert.Equal(t, []models.GPU{}, snap.GPU)
	assert.False(t, snap.Battery.Present())
	assert.Equal(t, map[string]string{
		"cpu_temp": "no sensor",
		"gpu":      "nvidia-smi: not installed",
		"battery":  "acpi unavailable",
	}, snap.Missing())

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["cpu_temp"])
	assert.Nil(t, decoded["battery"])
	assert.Equal(t, []interface{}{}, decoded["gpu"])
	assert.Equal(t, []interface{}{12.5, 40.0}, decoded["cpu"])
}

func TestSample_OptionalPresent(t *testing.T) {
	gpus := []models.GPU{
		{Name: "RTX 4090", Load: models.Present(35.0), Temp: models.Present(61.0),
			VRAMUsed: models.Present(2048.0), VRAMTotal: models.Present(24564.0)},
		{Name: "Radeon", Load: models.Unavailable[float64](""), Temp: models.Unavailable[float64](""),
			VRAMUsed: models.Unavailable[float64](""), VRAMTotal: models.Present(8192.0)},
	}
	bat := &models.Battery{Percent: 80, Charging: true, SecsLeft: models.SecsLeftUnlimited}
	s := newSampler(t, &fakeStats{}, &fakeClock{step: time.Second},
		staticCollector{name: collector.NameTemperature, data: 55.5},
		staticCollector{name: collector.NameGPU, data: gpus},
		staticCollector{name: collector.NameBattery, data: bat},
	)

	snap, err := s.Sample(context.Background())
	require.NoError(t, err)
	temp, ok := snap.CPUTemp.Get()
	require.True(t, ok)
	assert.Equal(t, 55.5, temp)
	assert.Len(t, snap.GPU, 2)
	b, ok := snap.Battery.Get()
	require.True(t, ok)
	assert.Equal(t, *bat, b)
	assert.Empty(t, snap.Missing())
}

func TestSample_NoBatteryIsNull(t *testing.T) {
	s := newSampler(t, &fakeStats{}, &fakeClock{step: time.Second},
		staticCollector{name: collector.NameBattery, data: (*models.Battery)(nil)},
	)
	snap, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Battery.Present())
	assert.Equal(t, "no battery", snap.Battery.Reason())
}

func TestSample_CoreFailureIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		stats *fakeStats
		want  string
	}{
		{name: "cpu", stats: &fakeStats{cpuErr: errors.New("denied")}, want: "reading cpu"},
		{name: "network", stats: &fakeStats{netErr: errors.New("denied")}, want: "reading network"},
		{name: "host", stats: &fakeStats{hostErr: errors.New("denied")}, want: "reading host info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSampler(t, tt.stats, &fakeClock{step: time.Second})
			snap, err := s.Sample(context.Background())
			assert.Nil(t, snap)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_DefaultProbeTimeout(t *testing.T) {
	assert.Equal(t, config.DefaultConfig().Sampler.ProbeTimeout.Duration, DefaultProbeTimeout)

	s, err := New(context.Background(), &fakeStats{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultProbeTimeout, s.probeTimeout)
}

func TestNew_SeedFailure(t *testing.T) {
	stats := &fakeStats{netErr: errors.New("denied")}
	// The first call seeds; make it fail too.
	stats.calls = 1
	_, err := New(context.Background(), stats, nil)
	assert.Error(t, err)
}

func TestSample_SystemFields(t *testing.T) {
	clock := &fakeClock{times: []time.Time{epoch}}
	s := newSampler(t, &fakeStats{}, clock)
	snap, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SystemInfo{
		OS:        "Ubuntu 22.04.4 LTS",
		OSVersion: "22.04",
		Machine:   "x86_64",
		Hostname:  "workstation",
		Uptime:    3600,
	}, snap.System)
	assert.Equal(t, 63.2, snap.RAM)
	assert.Equal(t, 71.9, snap.Disk)
}

func TestRateState_Advance(t *testing.T) {
	r := newRateState(collector.NetCounters{BytesSent: 100, BytesRecv: 100}, epoch)
	up, down := r.advance(collector.NetCounters{BytesSent: 600, BytesRecv: 50}, epoch.Add(500*time.Millisecond))
	assert.InDelta(t, 1000.0, up, 1e-9)
	assert.Equal(t, 0.0, down)
	assert.Equal(t, uint64(50), r.lastRecv)

	up, _ = r.advance(collector.NetCounters{BytesSent: 601}, epoch.Add(500*time.Millisecond))
	assert.InDelta(t, 1000.0, up, 1e-9)
}

func TestSample_HungSourcesTimeOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	reg := collector.NewRegistry(nil)
	reg.Register(hungCollector{name: collector.NameTemperature, release: release})
	reg.Register(hungCollector{name: collector.NameGPU, release: release})
	reg.Register(hungCollector{name: collector.NameBattery, release: release})
	clock := &fakeClock{step: time.Second}
	s, err := New(context.Background(), &fakeStats{}, reg,
		WithClock(clock.Now), WithProbeTimeout(100*time.Millisecond))
	require.NoError(t, err)

	type result struct {
		snap *models.Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := s.Sample(context.Background())
		done <- result{snap, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Sample did not return after the probe timeout")
	}
	require.NoError(t, res.err)
	snap := res.snap

	assert.Equal(t, 63.2, snap.RAM)
	assert.False(t, snap.CPUTemp.Present())
	assert.False(t, snap.Battery.Present())
	assert.Equal(t, []models.GPU{}, snap.GPU)
	missing := snap.Missing()
	for _, field := range []string{"cpu_temp", "gpu", "battery"} {
		assert.Contains(t, missing[field], context.DeadlineExceeded.Error(), field)
	}

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["cpu_temp"])
	assert.Nil(t, decoded["battery"])
	assert.Equal(t, []interface{}{}, decoded["gpu"])
}

func TestSample_UnregisteredGPUReported(t *testing.T) {
	s := newSampler(t, &fakeStats{}, &fakeClock{step: time.Second})
	snap, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.GPU{}, snap.GPU)
	assert.Equal(t, "gpu collector not registered", snap.Missing()["gpu"])
}
