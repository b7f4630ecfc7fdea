package probe

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/devprobe/internal/config"
	"github.com/born-ml/devprobe/internal/tensor"
)

type fakeDriver struct {
	name  string
	count int
	err   error
}

func (d *fakeDriver) Name() string { return d.name }

func (d *fakeDriver) DeviceCount() (int, error) { return d.count, d.err }

func (d *fakeDriver) Open(int) (tensor.Accelerator, error) {
	return nil, errors.New("not implemented")
}

func TestProbe(t *testing.T) {
	log, _ := test.NewNullLogger()

	tests := []struct {
		name      string
		drivers   []Driver
		available bool
		backend   string
		count     int
		checked   []string
	}{
		{
			name:    "no drivers",
			backend: "Accelerator",
		},
		{
			name:    "no devices",
			drivers: []Driver{&fakeDriver{name: "CUDA"}},
			backend: "CUDA",
			checked: []string{"CUDA"},
		},
		{
			name: "first with devices wins",
			drivers: []Driver{
				&fakeDriver{name: "CUDA", count: 2},
				&fakeDriver{name: "WebGPU", count: 1},
			},
			available: true,
			backend:   "CUDA",
			count:     2,
			checked:   []string{"CUDA"},
		},
		{
			name: "fallback after empty driver",
			drivers: []Driver{
				&fakeDriver{name: "CUDA"},
				&fakeDriver{name: "WebGPU", count: 1},
			},
			available: true,
			backend:   "WebGPU",
			count:     1,
			checked:   []string{"CUDA", "WebGPU"},
		},
		{
			name: "error means unavailable",
			drivers: []Driver{
				&fakeDriver{name: "CUDA", count: 4, err: errors.New("library not found")},
			},
			backend: "CUDA",
			checked: []string{"CUDA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Probe(log, tt.drivers...)

			assert.Equal(t, tt.available, res.Available)
			assert.Equal(t, tt.backend, res.Backend)
			assert.Equal(t, tt.count, res.Count)
			assert.Equal(t, tt.checked, res.Checked)
			if tt.available {
				assert.NotNil(t, res.Driver)
			} else {
				assert.Nil(t, res.Driver)
			}
		})
	}
}

func TestProbe_LogsDriverErrors(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	Probe(log, &fakeDriver{name: "CUDA", err: errors.New("boom")}, &fakeDriver{name: "WebGPU"})

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "accelerator probe failed", entries[0].Message)
	assert.Equal(t, "CUDA", entries[0].Data["backend"])
	assert.Equal(t, "no devices", entries[1].Message)
	assert.Equal(t, "no accelerator found", entries[2].Message)
	assert.Equal(t, []string{"CUDA", "WebGPU"}, entries[2].Data["checked"])
}

func TestDrivers(t *testing.T) {
	log, _ := test.NewNullLogger()

	tests := []struct {
		accelerator string
		names       []string
	}{
		{config.AcceleratorAuto, []string{"CUDA", "WebGPU"}},
		{config.AcceleratorCUDA, []string{"CUDA"}},
		{config.AcceleratorWebGPU, []string{"WebGPU"}},
		{config.AcceleratorNone, nil},
	}

	for _, tt := range tests {
		t.Run(tt.accelerator, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Accelerator = tt.accelerator

			drivers, err := Drivers(cfg, log)
			require.NoError(t, err)

			var names []string
			for _, d := range drivers {
				names = append(names, d.Name())
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestDrivers_Unknown(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := config.DefaultConfig()
	cfg.Accelerator = "tpu"

	_, err := Drivers(cfg, log)
	assert.Error(t, err)
}
