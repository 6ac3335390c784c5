// CPU temperature collector. Reads hardware sensors through gopsutil and
// picks the first sensor family from an ordered preference list; within a
// family the hottest reading wins. When no sensor matches, the platform's
// fallback probe (e.g. osx-cpu-temp on macOS) is tried.

package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/dashboard/internal/platform"
)

// cpuSensorPreference lists sensor-key substrings per family, most specific first.
// Linux:   coretemp_package_id_0, k10temp_tctl, zenpower_tdie, cpu_thermal, acpitz
// macOS:   TC0P (CPU proximity), TC0D (CPU die), TCXC (CPU core)
// Windows: WMI thermal zones named after the CPU package
var cpuSensorPreference = [][]string{
	{"coretemp_package", "coretemp_physical"},
	{"k10temp_tctl", "k10temp_tdie", "zenpower_tdie", "zenpower_tctl"},
	{"coretemp", "k10temp", "zenpower"},
	{"cpu_thermal", "cpu-thermal", "soc_thermal"},
	{"tc0p", "tc0d", "tcxc"},
	{"cpu", "package", "core", "tctl", "tdie"},
	{"acpitz"},
}

// errNoSensor means no hardware sensor matched any preferred family.
var errNoSensor = errors.New("no CPU temperature sensor")

// TemperatureCollector collects the CPU temperature in °C.
type TemperatureCollector struct {
	sensors  func(ctx context.Context) ([]host.TemperatureStat, error)
	fallback platform.TemperatureSource
	logger   *zap.Logger
}

// NewTemperatureCollector creates a new temperature collector.
// The fallback is consulted when sensors report nothing usable; pass nil for none.
func NewTemperatureCollector(fallback platform.TemperatureSource, logger *zap.Logger) *TemperatureCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemperatureCollector{
		sensors:  host.SensorsTemperaturesWithContext,
		fallback: fallback,
		logger:   logger,
	}
}

// Name returns the collector identifier.
func (c *TemperatureCollector) Name() string { return NameTemperature }

// IsAvailable returns true; missing sensors surface as a Collect error.
func (c *TemperatureCollector) IsAvailable() bool { return true }

// Collect returns the CPU temperature as a float64.
func (c *TemperatureCollector) Collect(ctx context.Context) (interface{}, error) {
	temp, err := c.CPUTemperature(ctx)
	if err != nil {
		return nil, err
	}
	return temp, nil
}

// CPUTemperature implements platform.TemperatureSource.
func (c *TemperatureCollector) CPUTemperature(ctx context.Context) (float64, error) {
	// gopsutil returns partial results together with a warnings error.
	temps, err := c.sensors(ctx)
	if err != nil {
		c.logger.Debug("Temperature sensors reported an error", zap.Error(err))
	}

	if temp, ok := pickCPUTemperature(temps); ok {
		return temp, nil
	}

	if c.fallback == nil {
		return 0, errNoSensor
	}
	temp, ferr := c.fallback.CPUTemperature(ctx)
	if ferr != nil {
		if errors.Is(ferr, platform.ErrNoSource) {
			return 0, errNoSensor
		}
		return 0, fmt.Errorf("%w; fallback: %v", errNoSensor, ferr)
	}
	if !platform.IsValidTemperature(temp) {
		return 0, fmt.Errorf("fallback reported implausible temperature %.1f", temp)
	}
	return temp, nil
}

// pickCPUTemperature walks the preference list and returns the hottest
// valid reading of the first family that has one.
func pickCPUTemperature(temps []host.TemperatureStat) (float64, bool) {
	for _, family := range cpuSensorPreference {
		var best float64
		found := false
		for _, t := range temps {
			if !platform.IsValidTemperature(t.Temperature) {
				continue
			}
			if !matchesSensor(strings.ToLower(t.SensorKey), family) {
				continue
			}
			if !found || t.Temperature > best {
				best = t.Temperature
				found = true
			}
		}
		if found {
			return best, true
		}
	}
	return 0, false
}

// matchesSensor checks if the sensor name contains any of the given key substrings.
func matchesSensor(name string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(name, key) {
			return true
		}
	}
	return false
}
