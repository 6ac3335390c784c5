// Package platform provides an OS abstraction layer for sensor sources that
// gopsutil cannot cover on its own: vendor GPU tools and temperature helpers.
// Each supported OS builds its Platform from the sources it actually has;
// the selection happens once at startup via build tags.
package platform

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// ErrNoSource is returned by a source that does not exist on this platform.
var ErrNoSource = errors.New("no source on this platform")

// TemperatureSource reads the CPU temperature in °C.
type TemperatureSource interface {
	CPUTemperature(ctx context.Context) (float64, error)
}

// GPUSource enumerates graphics devices.
type GPUSource interface {
	GPUs(ctx context.Context) ([]models.GPU, error)
}

// BatterySource reads the host battery. It returns nil, nil on hosts
// without battery hardware.
type BatterySource interface {
	Battery(ctx context.Context) (*models.Battery, error)
}

// Platform provides OS-specific sensor sources beyond what gopsutil offers.
type Platform interface {
	// Name returns the platform name (linux, darwin, windows, stub).
	Name() string

	// CPUTemperature is the fallback probe used when no hardware sensor
	// reports a CPU temperature.
	TemperatureSource

	// GPUs enumerates GPUs with whatever vendor tool this OS has.
	GPUSource
}

// basePlatform composes the sources chosen for one OS.
type basePlatform struct {
	name    string
	cpuTemp TemperatureSource
	gpus    GPUSource
}

func (p *basePlatform) Name() string { return p.name }

func (p *basePlatform) CPUTemperature(ctx context.Context) (float64, error) {
	return p.cpuTemp.CPUTemperature(ctx)
}

func (p *basePlatform) GPUs(ctx context.Context) ([]models.GPU, error) {
	return p.gpus.GPUs(ctx)
}

// noTemperature is used where the OS has no CPU temperature helper.
type noTemperature struct{}

func (noTemperature) CPUTemperature(context.Context) (float64, error) {
	return 0, ErrNoSource
}

// GPUChain tries each source in order and returns the first non-empty list.
// An empty list from every source is not an error: the host simply has no
// enumerable GPU.
type GPUChain []GPUSource

// GPUs implements GPUSource.
func (c GPUChain) GPUs(ctx context.Context) ([]models.GPU, error) {
	var errs []error
	for _, src := range c {
		gpus, err := src.GPUs(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(gpus) > 0 {
			return gpus, nil
		}
	}
	if len(errs) == len(c) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []models.GPU{}, nil
}

// minValidTemp is the minimum temperature (°C) considered valid.
const minValidTemp = 0.0

// maxValidTemp is the maximum temperature (°C) considered valid.
// Readings above this are likely sensor errors.
const maxValidTemp = 150.0

// IsValidTemperature returns true if the temperature is within a plausible range.
func IsValidTemperature(temp float64) bool {
	return temp > minValidTemp && temp <= maxValidTemp
}

// optionalFloat parses a vendor tool field. Placeholders such as "[N/A]"
// or "[Not Supported]" yield an unavailable reading.
func optionalFloat(field string) models.Reading[float64] {
	field = strings.TrimSpace(field)
	if field == "" || strings.HasPrefix(field, "[") || strings.EqualFold(field, "N/A") {
		return models.Unavailable[float64]("not reported")
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return models.Unavailable[float64]("unparseable value " + strconv.Quote(field))
	}
	return models.Present(v)
}

// parseLeadingFloat parses the numeric prefix of s, e.g. "61.8°C" -> 61.8.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || (c == '-' && end == 0) {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
