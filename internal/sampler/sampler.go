// Package sampler turns raw OS counters into dashboard snapshots. A Sampler
// owns the network RateState; every Sample call reads the current counters,
// derives upload/download speeds against the previous call and records the
// new counters in a single critical section.
package sampler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/dashboard/internal/collector"
	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// DefaultProbeTimeout bounds the optional collectors of one Sample call. It
// matches the default sampler.probe_timeout; callers whose sources chain
// several commands pass a larger budget.
const DefaultProbeTimeout = 2 * time.Second

// Option configures a Sampler.
type Option func(*Sampler)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sampler) { s.logger = logger }
}

// WithProbeTimeout bounds how long optional collectors may take per call.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// Sampler produces Snapshots.
type Sampler struct {
	stats        collector.Stats
	registry     *collector.Registry
	now          func() time.Time
	logger       *zap.Logger
	probeTimeout time.Duration

	mu    sync.Mutex
	rates RateState
}

// New creates a Sampler and seeds its RateState from a first counter read,
// so the first Sample reports speeds over the time since startup instead of
// over a near-zero interval. registry may be nil when no optional
// collectors are wanted.
func New(ctx context.Context, stats collector.Stats, registry *collector.Registry, opts ...Option) (*Sampler, error) {
	s := &Sampler{
		stats:        stats,
		registry:     registry,
		now:          time.Now,
		logger:       zap.NewNop(),
		probeTimeout: DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.registry == nil {
		s.registry = collector.NewRegistry(s.logger)
	}

	counters, err := stats.NetCounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("seeding network counters: %w", err)
	}
	s.rates = newRateState(counters, s.now())
	return s, nil
}

// Sample reads every metric family and returns one Snapshot.
//
// Optional sources (temperature, GPU, battery) that fail are reported as
// unavailable fields. Only a failure of the core OS counters is returned as
// an error.
func (s *Sampler) Sample(ctx context.Context) (*models.Snapshot, error) {
	// Slow probes run alongside the core reads.
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()
	optional := make(chan map[string]models.CollectorResult, 1)
	go func() { optional <- s.registry.CollectAll(probeCtx) }()

	snap, err := s.sampleCore(ctx)
	results := <-optional
	if err != nil {
		return nil, err
	}

	s.applyOptional(snap, results)

	if missing := snap.Missing(); len(missing) > 0 {
		fields := make([]zap.Field, 0, len(missing))
		for name, reason := range missing {
			fields = append(fields, zap.String(name, reason))
		}
		s.logger.Debug("Fields unavailable", fields...)
	}
	return snap, nil
}

// sampleCore reads the counters every snapshot depends on.
func (s *Sampler) sampleCore(ctx context.Context) (*models.Snapshot, error) {
	cores, err := s.stats.CPUPercents(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading cpu: %w", err)
	}
	if cores == nil {
		cores = []float64{}
	}

	ram, err := s.stats.MemoryPercent(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading memory: %w", err)
	}

	diskPct, err := s.stats.DiskPercent(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading disk: %w", err)
	}

	network, now, err := s.sampleNetwork(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading network: %w", err)
	}

	info, err := s.stats.HostInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading host info: %w", err)
	}

	uptime := int64(now.Sub(info.BootTime).Seconds())
	if uptime < 0 {
		uptime = 0
	}

	return &models.Snapshot{
		Timestamp: now,
		CPU:       cores,
		CPUTemp:   models.Unavailable[float64]("temperature collector not registered"),
		RAM:       ram,
		Disk:      diskPct,
		Network:   network,
		GPU:       []models.GPU{},
		GPUReason: "gpu collector not registered",
		Battery:   models.Unavailable[models.Battery]("battery collector not registered"),
		System: models.SystemInfo{
			OS:        info.OSName,
			OSVersion: info.OSVersion,
			Machine:   info.Machine,
			Hostname:  info.Hostname,
			Uptime:    uptime,
		},
	}, nil
}

// sampleNetwork is the RateState critical section: the counter read, the
// clock read and the state update happen under one lock so concurrent
// callers are serialized and never double-count a delta.
func (s *Sampler) sampleNetwork(ctx context.Context) (models.Network, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters, err := s.stats.NetCounters(ctx)
	if err != nil {
		return models.Network{}, time.Time{}, err
	}
	now := s.now()
	up, down := s.rates.advance(counters, now)

	return models.Network{
		Sent:          counters.BytesSent,
		Recv:          counters.BytesRecv,
		UploadSpeed:   up,
		DownloadSpeed: down,
	}, now, nil
}

// applyOptional folds the optional collector results into snap.
func (s *Sampler) applyOptional(snap *models.Snapshot, results map[string]models.CollectorResult) {
	if res, ok := results[collector.NameTemperature]; ok {
		snap.CPUTemp = temperatureReading(res)
	}

	if res, ok := results[collector.NameGPU]; ok {
		snap.GPU, snap.GPUReason = gpuList(res)
	}

	if res, ok := results[collector.NameBattery]; ok {
		snap.Battery = batteryReading(res)
	}
}

// gpuList never returns a nil slice; the reason is set when the list is
// empty because the source failed.
func gpuList(res models.CollectorResult) ([]models.GPU, string) {
	if res.Error != nil {
		return []models.GPU{}, res.Error.Error()
	}
	gpus, ok := res.Data.([]models.GPU)
	if !ok {
		return []models.GPU{}, fmt.Sprintf("unexpected gpu type %T", res.Data)
	}
	if gpus == nil {
		gpus = []models.GPU{}
	}
	return gpus, ""
}

func temperatureReading(res models.CollectorResult) models.Reading[float64] {
	if res.Error != nil {
		return models.UnavailableErr[float64](res.Error)
	}
	temp, ok := res.Data.(float64)
	if !ok {
		return models.Unavailable[float64](fmt.Sprintf("unexpected temperature type %T", res.Data))
	}
	return models.Present(temp)
}

func batteryReading(res models.CollectorResult) models.Reading[models.Battery] {
	if res.Error != nil {
		return models.UnavailableErr[models.Battery](res.Error)
	}
	b, ok := res.Data.(*models.Battery)
	if !ok || b == nil {
		return models.Unavailable[models.Battery]("no battery")
	}
	return models.Present(*b)
}
