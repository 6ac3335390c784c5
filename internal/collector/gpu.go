package collector

import (
	"context"

	"github.com/Guliveer/vitalis/dashboard/internal/models"
	"github.com/Guliveer/vitalis/dashboard/internal/platform"
)

// GPUCollector enumerates GPUs through the platform's GPU source.
type GPUCollector struct {
	source platform.GPUSource
}

// NewGPUCollector creates a GPU collector over source.
func NewGPUCollector(source platform.GPUSource) *GPUCollector {
	return &GPUCollector{source: source}
}

// Name returns the collector identifier.
func (c *GPUCollector) Name() string { return NameGPU }

// IsAvailable reports whether a GPU source was configured.
func (c *GPUCollector) IsAvailable() bool { return c.source != nil }

// Collect returns a non-nil []models.GPU.
func (c *GPUCollector) Collect(ctx context.Context) (interface{}, error) {
	gpus, err := c.source.GPUs(ctx)
	if err != nil {
		return nil, err
	}
	if gpus == nil {
		gpus = []models.GPU{}
	}
	return gpus, nil
}
