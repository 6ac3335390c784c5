package collector

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// Registry manages the optional collectors and runs them concurrently.
type Registry struct {
	collectors []Collector
	logger     *zap.Logger
}

// NewRegistry creates a new collector registry with the given logger.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		collectors: make([]Collector, 0),
		logger:     logger,
	}
}

// Register adds a collector if it's available on the current platform.
// Unavailable collectors are logged and skipped.
func (r *Registry) Register(c Collector) {
	if c.IsAvailable() {
		r.collectors = append(r.collectors, c)
		r.logger.Info("Registered collector", zap.String("name", c.Name()))
	} else {
		r.logger.Warn("Collector not available, skipping", zap.String("name", c.Name()))
	}
}

// CollectAll runs all registered collectors concurrently and returns one
// result per collector, keyed by name. Failures are kept in the result so the
// caller can report why a field is missing; a failing collector never
// prevents the others from completing.
//
// CollectAll returns no later than ctx's deadline. A collector still running
// at that point is reported with ctx's error; its late result is discarded.
func (r *Registry) CollectAll(ctx context.Context) map[string]models.CollectorResult {
	results := make(map[string]models.CollectorResult, len(r.collectors))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range r.collectors {
		wg.Add(1)
		go func(col Collector) {
			defer wg.Done()
			data, err := col.Collect(ctx)
			if err != nil {
				r.logger.Debug("Collection failed",
					zap.String("collector", col.Name()),
					zap.Error(err))
			}
			mu.Lock()
			results[col.Name()] = models.CollectorResult{Name: col.Name(), Data: data, Error: err}
			mu.Unlock()
		}(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return results
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]models.CollectorResult, len(r.collectors))
	for _, c := range r.collectors {
		if res, ok := results[c.Name()]; ok {
			out[c.Name()] = res
			continue
		}
		err := fmt.Errorf("%s collector did not finish: %w", c.Name(), ctx.Err())
		r.logger.Debug("Collection abandoned", zap.String("collector", c.Name()), zap.Error(err))
		out[c.Name()] = models.CollectorResult{Name: c.Name(), Error: err}
	}
	return out
}
