package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"
	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// OSXTemp reads temperatures through the osx-cpu-temp helper. Passing gpu
// selects its -g mode.
type OSXTemp struct {
	runner cmdrunner.Runner
	gpu    bool
}

// NewOSXTemp creates a CPU (gpu=false) or GPU (gpu=true) temperature probe.
func NewOSXTemp(runner cmdrunner.Runner, gpu bool) *OSXTemp {
	return &OSXTemp{runner: runner, gpu: gpu}
}

// CPUTemperature implements TemperatureSource.
func (t *OSXTemp) CPUTemperature(ctx context.Context) (float64, error) {
	var args []string
	if t.gpu {
		args = append(args, "-g")
	}
	out, err := t.runner.Run(ctx, "osx-cpu-temp", args...)
	if err != nil {
		return 0, err
	}
	v, ok := parseLeadingFloat(out)
	if !ok {
		return 0, fmt.Errorf("osx-cpu-temp: unparseable output %q", out)
	}
	// Apple silicon hosts report 0.0°C when the SMC key is missing.
	if !IsValidTemperature(v) {
		return 0, fmt.Errorf("osx-cpu-temp: implausible reading %.1f", v)
	}
	return v, nil
}

// AppleGPU describes integrated/vendor GPUs on macOS via system_profiler.
// It has no load or VRAM-used telemetry; only name and VRAM total are
// emitted, plus a temperature when the optional probe is installed.
type AppleGPU struct {
	runner    cmdrunner.Runner
	tempProbe TemperatureSource
}

// NewAppleGPU creates a system_profiler GPU source.
func NewAppleGPU(runner cmdrunner.Runner) *AppleGPU {
	return &AppleGPU{runner: runner, tempProbe: NewOSXTemp(runner, true)}
}

type spDisplays struct {
	Items []struct {
		Name       string `json:"_name"`
		Model      string `json:"sppci_model"`
		VRAM       string `json:"spdisplays_vram"`
		VRAMShared string `json:"spdisplays_vram_shared"`
	} `json:"SPDisplaysDataType"`
}

// GPUs implements GPUSource.
func (a *AppleGPU) GPUs(ctx context.Context) ([]models.GPU, error) {
	out, err := a.runner.Run(ctx, "system_profiler", "SPDisplaysDataType", "-json")
	if err != nil {
		return nil, err
	}
	gpus, err := parseSPDisplays(out)
	if err != nil {
		return nil, err
	}

	temp := models.Unavailable[float64]("no temperature probe")
	if a.tempProbe != nil {
		if v, err := a.tempProbe.CPUTemperature(ctx); err == nil {
			temp = models.Present(v)
		} else {
			temp = models.UnavailableErr[float64](err)
		}
	}
	for i := range gpus {
		gpus[i].Temp = temp
	}
	return gpus, nil
}

func parseSPDisplays(out string) ([]models.GPU, error) {
	var doc spDisplays
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		return nil, fmt.Errorf("system_profiler: %w", err)
	}

	gpus := make([]models.GPU, 0, len(doc.Items))
	for _, item := range doc.Items {
		name := item.Model
		if name == "" {
			name = item.Name
		}
		vram := item.VRAM
		if vram == "" {
			vram = item.VRAMShared
		}
		total := models.Unavailable[float64]("unified memory")
		if mb, ok := parseMemoryMB(vram); ok {
			total = models.Present(mb)
		}
		gpus = append(gpus, models.GPU{
			Name:      name,
			Load:      models.Unavailable[float64]("not reported by system_profiler"),
			Temp:      models.Unavailable[float64]("no temperature probe"),
			VRAMUsed:  models.Unavailable[float64]("not reported by system_profiler"),
			VRAMTotal: total,
		})
	}
	return gpus, nil
}

// parseMemoryMB converts "1536 MB" / "4 GB" to megabytes.
func parseMemoryMB(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToUpper(fields[1]) {
	case "MB":
		return v, true
	case "GB":
		return v * 1024, true
	default:
		return 0, false
	}
}
