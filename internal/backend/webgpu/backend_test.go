//go:build windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/devprobe/internal/tensor"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := New()
	if err != nil {
		t.Logf("WebGPU not available: %v", err)
		t.Skip("WebGPU not available on this system")
	}
	t.Cleanup(backend.Release)
	return backend
}

func TestNew(t *testing.T) {
	backend := newTestBackend(t)

	assert.Equal(t, "WebGPU", backend.Name())
	assert.Equal(t, "webgpu:0", backend.Device().String())
}

func TestScaleAdd(t *testing.T) {
	backend := newTestBackend(t)

	host := tensor.Rand(tensor.Shape{3, 4}, tensor.Float32)
	x, err := backend.ToDevice(host)
	require.NoError(t, err)
	defer x.Release()
	ones, err := backend.Ones(tensor.Shape{3, 4})
	require.NoError(t, err)
	defer ones.Release()

	out, err := backend.ScaleAdd(x, 2, ones)
	require.NoError(t, err)
	defer out.Release()

	got, err := backend.ToHost(out)
	require.NoError(t, err)
	for i, v := range got.AsFloat32() {
		assert.InDelta(t, host.AsFloat32()[i]*2+1, v, 1e-6)
	}
}

func TestMatMul(t *testing.T) {
	backend := newTestBackend(t)

	a, err := tensor.FromFloat32([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	b, err := tensor.FromFloat32([]float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})
	require.NoError(t, err)

	da, err := backend.ToDevice(a)
	require.NoError(t, err)
	defer da.Release()
	db, err := backend.ToDevice(b)
	require.NoError(t, err)
	defer db.Release()

	out, err := backend.MatMul(da, db)
	require.NoError(t, err)
	defer out.Release()
	require.NoError(t, backend.Synchronize())

	got, err := backend.ToHost(out)
	require.NoError(t, err)
	assert.Equal(t, []float32{58, 64, 139, 154}, got.AsFloat32())
}
