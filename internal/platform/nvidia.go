package platform

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"
	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// nvidiaQuery lists the columns requested from nvidia-smi, in order.
const nvidiaQuery = "--query-gpu=name,utilization.gpu,temperature.gpu,memory.used,memory.total"

// NvidiaSMI enumerates NVIDIA GPUs through the nvidia-smi CLI.
type NvidiaSMI struct {
	runner cmdrunner.Runner
}

// NewNvidiaSMI creates an nvidia-smi backed GPU source.
func NewNvidiaSMI(runner cmdrunner.Runner) *NvidiaSMI {
	return &NvidiaSMI{runner: runner}
}

// GPUs returns one record per device reported by nvidia-smi.
func (n *NvidiaSMI) GPUs(ctx context.Context) ([]models.GPU, error) {
	out, err := n.runner.Run(ctx, "nvidia-smi", nvidiaQuery, "--format=csv,noheader,nounits")
	if err != nil {
		return nil, err
	}
	return parseNvidiaCSV(out)
}

// parseNvidiaCSV parses "name, util, temp, mem.used, mem.total" lines.
// Memory is reported in MiB.
func parseNvidiaCSV(out string) ([]models.GPU, error) {
	gpus := []models.GPU{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 5 {
			return nil, fmt.Errorf("nvidia-smi: unexpected line %q", line)
		}
		gpus = append(gpus, models.GPU{
			Name:      strings.TrimSpace(parts[0]),
			Load:      optionalFloat(parts[1]),
			Temp:      validTemp(optionalFloat(parts[2])),
			VRAMUsed:  optionalFloat(parts[3]),
			VRAMTotal: optionalFloat(parts[4]),
		})
	}
	return gpus, sc.Err()
}

func validTemp(r models.Reading[float64]) models.Reading[float64] {
	if v, ok := r.Get(); ok && !IsValidTemperature(v) {
		return models.Unavailable[float64](fmt.Sprintf("implausible temperature %.1f", v))
	}
	return r
}
