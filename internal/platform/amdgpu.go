package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// amdVendorID is the PCI vendor ID of AMD/ATI.
const amdVendorID = "0x1002"

// AMDGPU reads amdgpu telemetry from the DRM sysfs tree.
type AMDGPU struct {
	drmRoot string
}

// NewAMDGPU creates an amdgpu sysfs source rooted at /sys/class/drm.
func NewAMDGPU() *AMDGPU {
	return &AMDGPU{drmRoot: "/sys/class/drm"}
}

// GPUs implements GPUSource.
func (a *AMDGPU) GPUs(ctx context.Context) ([]models.GPU, error) {
	cards, err := filepath.Glob(filepath.Join(a.drmRoot, "card[0-9]*"))
	if err != nil {
		return nil, err
	}

	gpus := []models.GPU{}
	for _, card := range cards {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// card0-DP-1 and friends are connectors, not devices.
		if strings.Contains(filepath.Base(card), "-") {
			continue
		}
		dev := filepath.Join(card, "device")
		if readTrimmed(filepath.Join(dev, "vendor")) != amdVendorID {
			continue
		}

		name := readTrimmed(filepath.Join(dev, "product_name"))
		if name == "" {
			name = fmt.Sprintf("AMD GPU (%s)", filepath.Base(card))
		}
		gpus = append(gpus, models.GPU{
			Name:      name,
			Load:      sysfsFloat(filepath.Join(dev, "gpu_busy_percent"), 1),
			Temp:      validTemp(a.hwmonTemp(dev)),
			VRAMUsed:  sysfsFloat(filepath.Join(dev, "mem_info_vram_used"), 1<<20),
			VRAMTotal: sysfsFloat(filepath.Join(dev, "mem_info_vram_total"), 1<<20),
		})
	}
	return gpus, nil
}

func (a *AMDGPU) hwmonTemp(dev string) models.Reading[float64] {
	matches, _ := filepath.Glob(filepath.Join(dev, "hwmon", "hwmon*", "temp1_input"))
	if len(matches) == 0 {
		return models.Unavailable[float64]("no hwmon sensor")
	}
	// millidegrees Celsius
	return sysfsFloat(matches[0], 1000)
}

// sysfsFloat reads a numeric sysfs attribute and divides it by scale.
func sysfsFloat(path string, scale float64) models.Reading[float64] {
	raw := readTrimmed(path)
	if raw == "" {
		return models.Unavailable[float64]("missing " + filepath.Base(path))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.UnavailableErr[float64](err)
	}
	return models.Present(v / scale)
}

func readTrimmed(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
