package collector

import (
	"context"
	"fmt"
	"math"

	"github.com/distatus/battery"

	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// BatteryCollector reads the first system battery via distatus/battery.
// Hosts without a battery yield a nil *models.Battery and no error.
type BatteryCollector struct {
	getAll func() ([]*battery.Battery, error)
}

// NewBatteryCollector creates a battery collector.
func NewBatteryCollector() *BatteryCollector {
	return &BatteryCollector{getAll: battery.GetAll}
}

// Name returns the collector identifier.
func (c *BatteryCollector) Name() string { return NameBattery }

// IsAvailable returns true; desktops simply report no battery.
func (c *BatteryCollector) IsAvailable() bool { return true }

// Collect returns a *models.Battery, nil when there is no battery.
func (c *BatteryCollector) Collect(ctx context.Context) (interface{}, error) {
	b, err := c.Battery(ctx)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Battery implements platform.BatterySource.
func (c *BatteryCollector) Battery(ctx context.Context) (*models.Battery, error) {
	type reading struct {
		bats []*battery.Battery
		err  error
	}
	// getAll takes no context and may shell out (ioreg on macOS).
	ch := make(chan reading, 1)
	go func() {
		bats, err := c.getAll()
		ch <- reading{bats, err}
	}()

	var bats []*battery.Battery
	var err error
	select {
	case r := <-ch:
		bats, err = r.bats, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("reading battery: %w", ctx.Err())
	}

	// A partial error still comes with usable batteries.
	for _, b := range bats {
		if converted, ok := convertBattery(b); ok {
			return converted, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// convertBattery maps a distatus reading to the dashboard record.
// charging means "on AC power": charging, full or idle at a charge threshold.
func convertBattery(b *battery.Battery) (*models.Battery, bool) {
	if b == nil || b.Full <= 0 {
		return nil, false
	}

	percent := math.Max(0, math.Min(100, b.Current/b.Full*100))
	state := b.State.Raw
	plugged := state == battery.Charging || state == battery.Full || state == battery.Idle

	secs := models.SecsLeftUnknown
	switch {
	case plugged:
		secs = models.SecsLeftUnlimited
	case state == battery.Discharging && b.ChargeRate > 0:
		secs = int64(b.Current / b.ChargeRate * 3600)
	}

	return &models.Battery{
		Percent:  percent,
		Charging: plugged,
		SecsLeft: secs,
	}, true
}
