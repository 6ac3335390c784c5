// Package collector reads host metrics. Stats covers the counters every
// snapshot depends on (CPU, memory, disk, network, host facts) and fails the
// whole snapshot when the OS refuses them. The optional sensor families
// (temperature, GPU, battery) are Collectors run through a Registry, where a
// failure only degrades that one field.
package collector

import (
	"context"
	"time"
)

// Names of the optional collectors, used as Registry result keys.
const (
	NameTemperature = "temperature"
	NameGPU         = "gpu"
	NameBattery     = "battery"
)

// Collector is the interface that all optional sensor collectors implement.
type Collector interface {
	// Name returns the unique identifier for this collector.
	Name() string

	// Collect gathers the metric data and returns it.
	// The context allows for cancellation and timeout control.
	Collect(ctx context.Context) (interface{}, error)

	// IsAvailable checks if this collector can run on the current platform.
	// Collectors that return false will not be registered.
	IsAvailable() bool
}

// NetCounters are cumulative byte counters across all interfaces since boot.
type NetCounters struct {
	BytesSent uint64
	BytesRecv uint64
}

// HostInfo holds static-ish host facts.
type HostInfo struct {
	OSName    string
	OSVersion string
	Machine   string
	Hostname  string
	BootTime  time.Time
}

// Stats reads the OS counters a snapshot cannot do without.
type Stats interface {
	CPUPercents(ctx context.Context) ([]float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskPercent(ctx context.Context) (float64, error)
	NetCounters(ctx context.Context) (NetCounters, error)
	HostInfo(ctx context.Context) (HostInfo, error)
}
