package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"
	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// fakeRunner answers commands by "name args..." key.
type fakeRunner struct {
	outputs map[string]string
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.calls = append(f.calls, key)
	if out, ok := f.outputs[key]; ok {
		return out, nil
	}
	return "", fmt.Errorf("%s: not installed: %w", name, cmdrunner.ErrUnavailable)
}

// present returns r's value, failing the test when it is unavailable.
func present(t *testing.T, r models.Reading[float64]) float64 {
	t.Helper()
	v, ok := r.Get()
	require.True(t, ok, "reading unavailable: %s", r.Reason())
	return v
}

const nvidiaKey = "nvidia-smi " + nvidiaQuery + " --format=csv,noheader,nounits"

func TestNvidiaSMI_TwoDevices(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		nvidiaKey: "NVIDIA GeForce RTX 3080, 37, 61, 2048, 10240\nTesla T4, 0, [N/A], 0, 15360\n",
	}}

	gpus, err := NewNvidiaSMI(r).GPUs(context.Background())
	require.NoError(t, err)
	require.Len(t, gpus, 2)

	assert.Equal(t, "NVIDIA GeForce RTX 3080", gpus[0].Name)
	assert.Equal(t, 37.0, present(t, gpus[0].Load))
	assert.Equal(t, 61.0, present(t, gpus[0].Temp))
	assert.Equal(t, 2048.0, present(t, gpus[0].VRAMUsed))
	assert.Equal(t, 10240.0, present(t, gpus[0].VRAMTotal))

	assert.False(t, gpus[1].Temp.Present())
	assert.Equal(t, 0.0, present(t, gpus[1].Load))
}

func TestNvidiaSMI_NotInstalled(t *testing.T) {
	_, err := NewNvidiaSMI(&fakeRunner{}).GPUs(context.Background())
	assert.ErrorIs(t, err, cmdrunner.ErrUnavailable)
}

func TestParseNvidiaCSV_Malformed(t *testing.T) {
	_, err := parseNvidiaCSV("garbage line")
	assert.Error(t, err)
}

const spJSON = `{
  "SPDisplaysDataType": [
    {"_name": "kHW_AppleM2Item", "sppci_model": "Apple M2", "sppci_cores": "10"},
    {"_name": "Intel Iris", "spdisplays_vram_shared": "1536 MB"},
    {"sppci_model": "AMD Radeon Pro 5500M", "spdisplays_vram": "4 GB"}
  ]
}`

func TestAppleGPU_FallbackRecords(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"system_profiler SPDisplaysDataType -json": spJSON,
		"osx-cpu-temp -g":                          "48.5°C",
	}}

	gpus, err := NewAppleGPU(r).GPUs(context.Background())
	require.NoError(t, err)
	require.Len(t, gpus, 3)

	assert.Equal(t, "Apple M2", gpus[0].Name)
	assert.False(t, gpus[0].VRAMTotal.Present())
	assert.False(t, gpus[0].Load.Present())
	assert.False(t, gpus[0].VRAMUsed.Present())
	assert.Equal(t, 48.5, present(t, gpus[0].Temp))

	assert.Equal(t, "Intel Iris", gpus[1].Name)
	assert.Equal(t, 1536.0, present(t, gpus[1].VRAMTotal))
	assert.Equal(t, 4096.0, present(t, gpus[2].VRAMTotal))
}

func TestAppleGPU_TemperatureProbeMissing(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"system_profiler SPDisplaysDataType -json": spJSON,
	}}

	gpus, err := NewAppleGPU(r).GPUs(context.Background())
	require.NoError(t, err)
	for _, g := range gpus {
		assert.False(t, g.Temp.Present())
		assert.Contains(t, g.Temp.Reason(), "not installed")
	}
}

func TestOSXTemp(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{"celsius", "61.8°C", 61.8, false},
		{"apple silicon zero", "0.0°C", 0, true},
		{"garbage", "unknown", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{outputs: map[string]string{"osx-cpu-temp": tt.output}}
			got, err := NewOSXTemp(r, false).CPUTemperature(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

type staticGPUs struct {
	gpus []models.GPU
	err  error
}

func (s staticGPUs) GPUs(context.Context) ([]models.GPU, error) { return s.gpus, s.err }

func TestGPUChain(t *testing.T) {
	one := []models.GPU{{Name: "a"}}
	errBoom := errors.New("boom")

	gpus, err := GPUChain{staticGPUs{err: errBoom}, staticGPUs{gpus: one}}.GPUs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, one, gpus)

	gpus, err = GPUChain{staticGPUs{err: errBoom}, staticGPUs{gpus: []models.GPU{}}}.GPUs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, gpus)
	assert.Empty(t, gpus)

	_, err = GPUChain{staticGPUs{err: errBoom}, staticGPUs{err: errBoom}}.GPUs(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestAMDGPU_Sysfs(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content+"\n"), 0o644))
	}
	write("card0/device/vendor", "0x1002")
	write("card0/device/gpu_busy_percent", "12")
	write("card0/device/mem_info_vram_used", "1073741824")
	write("card0/device/mem_info_vram_total", "8589934592")
	write("card0/device/hwmon/hwmon3/temp1_input", "54000")
	write("card0-DP-1/status", "connected")
	write("card1/device/vendor", "0x8086")

	gpus, err := (&AMDGPU{drmRoot: root}).GPUs(context.Background())
	require.NoError(t, err)
	require.Len(t, gpus, 1)
	assert.Equal(t, "AMD GPU (card0)", gpus[0].Name)
	assert.Equal(t, 12.0, present(t, gpus[0].Load))
	assert.Equal(t, 1024.0, present(t, gpus[0].VRAMUsed))
	assert.Equal(t, 8192.0, present(t, gpus[0].VRAMTotal))
	assert.Equal(t, 54.0, present(t, gpus[0].Temp))
}

func TestAMDGPU_NoDevices(t *testing.T) {
	gpus, err := (&AMDGPU{drmRoot: t.TempDir()}).GPUs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gpus)
}

func TestNew_SelectsPlatform(t *testing.T) {
	p := New(&fakeRunner{})
	assert.NotEmpty(t, p.Name())
	// No helper is "installed" in the fake runner, so nothing may panic and
	// the GPU list must be either empty or an error.
	gpus, err := p.GPUs(context.Background())
	if err == nil {
		assert.NotNil(t, gpus)
	}
}

func TestParseMemoryMB(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1536 MB", 1536, true},
		{"4 GB", 4096, true},
		{"", 0, false},
		{"12 TB", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseMemoryMB(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
