package demo

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/devprobe/internal/backend/cpu"
	"github.com/born-ml/devprobe/internal/probe"
	"github.com/born-ml/devprobe/internal/tensor"
)

var errDeviceLost = errors.New("device lost")

// memBuffer is "device" memory backed by a host tensor.
type memBuffer struct {
	data  *tensor.RawTensor
	freed *int
}

func (b *memBuffer) Bytes() int { return b.data.ByteSize() }

func (b *memBuffer) Release() { *b.freed++ }

// memAccelerator runs every operation on the host.
type memAccelerator struct {
	host    *cpu.CPUBackend
	device  tensor.Device
	failOn  string
	skewOn  string
	corrupt bool

	allocated int
	freed     int
	syncs     int
	released  bool
}

func newMemAccelerator() *memAccelerator {
	return &memAccelerator{host: cpu.New(), device: tensor.NewDevice(tensor.CUDA, 0)}
}

func (m *memAccelerator) Name() string          { return "CUDA" }
func (m *memAccelerator) Device() tensor.Device { return m.device }

func (m *memAccelerator) wrap(op string, t *tensor.RawTensor) (*tensor.DeviceTensor, error) {
	if m.failOn == op {
		return nil, errDeviceLost
	}
	if m.skewOn == op {
		t.AsFloat32()[0] += 1000
	}
	m.allocated++
	return tensor.NewDeviceTensor(&memBuffer{data: t, freed: &m.freed}, t.Shape(), t.DType(), m.device)
}

func (m *memAccelerator) data(t *tensor.DeviceTensor) *tensor.RawTensor {
	return t.Buffer().(*memBuffer).data
}

func (m *memAccelerator) ToDevice(host *tensor.RawTensor) (*tensor.DeviceTensor, error) {
	return m.wrap("ToDevice", host.Clone())
}

func (m *memAccelerator) ToHost(t *tensor.DeviceTensor) (*tensor.RawTensor, error) {
	if m.failOn == "ToHost" {
		return nil, errDeviceLost
	}
	out := m.data(t).Clone()
	if m.corrupt {
		out.AsFloat32()[0] += 1
	}
	return out, nil
}

func (m *memAccelerator) Ones(shape tensor.Shape) (*tensor.DeviceTensor, error) {
	return m.wrap("Ones", tensor.Ones(shape, tensor.Float32))
}

func (m *memAccelerator) Randn(shape tensor.Shape) (*tensor.DeviceTensor, error) {
	return m.wrap("Randn", tensor.Randn(shape, tensor.Float32))
}

func (m *memAccelerator) ScaleAdd(x *tensor.DeviceTensor, alpha float32, y *tensor.DeviceTensor) (*tensor.DeviceTensor, error) {
	scaled := m.host.MulScalar(m.data(x), float64(alpha))
	return m.wrap("ScaleAdd", m.host.Add(scaled, m.data(y)))
}

func (m *memAccelerator) MatMul(a, b *tensor.DeviceTensor) (*tensor.DeviceTensor, error) {
	return m.wrap("MatMul", m.host.MatMul(m.data(a), m.data(b)))
}

func (m *memAccelerator) Synchronize() error {
	m.syncs++
	if m.failOn == "Synchronize" {
		return errDeviceLost
	}
	return nil
}

func (m *memAccelerator) Release() { m.released = true }

type memDriver struct {
	acc     *memAccelerator
	openErr error
}

func (d *memDriver) Name() string              { return "CUDA" }
func (d *memDriver) DeviceCount() (int, error) { return 1, nil }

func (d *memDriver) Open(index int) (tensor.Accelerator, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.acc, nil
}

func newRunner(t *testing.T, drivers ...probe.Driver) (*Runner, *bytes.Buffer) {
	t.Helper()
	log, _ := test.NewNullLogger()
	var out bytes.Buffer
	return &Runner{
		Out:   &out,
		Log:   log,
		Host:  cpu.New(),
		Probe: probe.Probe(log, drivers...),
	}, &out
}

func TestRun_NoAccelerator(t *testing.T) {
	r, out := newRunner(t)

	rep, err := r.Run()
	require.NoError(t, err)

	assert.False(t, rep.Accelerated)
	assert.Nil(t, rep.DeviceResult)
	assert.Zero(t, rep.MatMulMillis)
	assert.Contains(t, out.String(), "is not available. Running on CPU.")
	assert.Contains(t, out.String(), "--- CPU Operations ---")
	assert.NotContains(t, out.String(), "took:")
	assert.True(t, strings.HasSuffix(out.String(), "=== Demo completed successfully! ===\n"))
}

func TestRun_CPUSumIsInputPlusOne(t *testing.T) {
	r, _ := newRunner(t)

	rep, err := r.Run()
	require.NoError(t, err)

	in, sum := rep.CPUInput.AsFloat32(), rep.CPUSum.AsFloat32()
	require.Len(t, sum, 12)
	for i := range in {
		assert.Equal(t, in[i]+1, sum[i], "element %d", i)
	}
}

func TestRun_WithAccelerator(t *testing.T) {
	acc := newMemAccelerator()
	r, out := newRunner(t, &memDriver{acc: acc})

	rep, err := r.Run()
	require.NoError(t, err)

	assert.True(t, rep.Accelerated)
	assert.Equal(t, "CUDA", rep.Backend)
	assert.GreaterOrEqual(t, rep.DeviceCount, 1)
	assert.Equal(t, "cuda:0", rep.TransferDevice)
	assert.True(t, rep.RoundTripOK)
	assert.True(t, rep.HostCheckOK)
	assert.True(t, rep.MatMulCheckOK)
	assert.GreaterOrEqual(t, rep.MatMulMillis, int64(0))
	assert.Equal(t, rep.MatMulElapsed.Milliseconds(), rep.MatMulMillis)

	in, res := rep.CPUInput.AsFloat32(), rep.DeviceResult.AsFloat32()
	require.Len(t, res, len(in))
	for i := range in {
		assert.InDelta(t, in[i]*Scale+1, res[i], 1e-6, "element %d", i)
	}

	text := out.String()
	assert.Contains(t, text, "CUDA is available! Device count: 1")
	assert.Contains(t, text, "--- CUDA Operations ---")
	assert.Contains(t, text, "Tensor moved to CUDA device: cuda:0")
	assert.Contains(t, text, "Round-trip checksum: ok (")
	assert.Contains(t, text, "CUDA computation result (moved back to CPU):")
	assert.Contains(t, text, "CUDA matrix multiplication (1000x1000) took: ")
	assert.Contains(t, text, " ms\n")

	assert.True(t, acc.released)
	assert.Equal(t, acc.allocated, acc.freed, "device tensors leaked")
	assert.GreaterOrEqual(t, acc.syncs, 1)
}

func TestRun_Twice(t *testing.T) {
	acc := newMemAccelerator()
	r, _ := newRunner(t, &memDriver{acc: acc})

	first, err := r.Run()
	require.NoError(t, err)
	second, err := r.Run()
	require.NoError(t, err)

	assert.True(t, first.RoundTripOK)
	assert.True(t, second.RoundTripOK)
}

func TestRun_DeviceFaults(t *testing.T) {
	for _, op := range []string{"ToDevice", "Ones", "ToHost", "ScaleAdd", "Randn", "MatMul", "Synchronize"} {
		t.Run(op, func(t *testing.T) {
			acc := newMemAccelerator()
			acc.failOn = op
			r, out := newRunner(t, &memDriver{acc: acc})

			_, err := r.Run()
			require.ErrorIs(t, err, errDeviceLost)
			assert.NotContains(t, out.String(), "Demo completed successfully")
			assert.True(t, acc.released)
		})
	}
}

func TestRun_OpenFails(t *testing.T) {
	r, _ := newRunner(t, &memDriver{openErr: errDeviceLost})

	rep, err := r.Run()
	require.ErrorIs(t, err, errDeviceLost)
	assert.NotNil(t, rep.CPUSum)
}

func TestDeviceArithmetic_RoundTripMismatch(t *testing.T) {
	acc := newMemAccelerator()
	acc.corrupt = true
	r, out := newRunner(t)

	rep := &Report{Backend: "CUDA"}
	err := r.DeviceArithmetic(acc, rep)

	require.ErrorIs(t, err, ErrRoundTrip)
	assert.False(t, rep.RoundTripOK)
	assert.Contains(t, out.String(), "Round-trip checksum: mismatch")
}

// countingBackend records which host operations a run uses.
type countingBackend struct {
	tensor.Backend
	calls map[string]int
}

func (c *countingBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	c.calls["Add"]++
	return c.Backend.Add(a, b)
}

func (c *countingBackend) MulScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	c.calls["MulScalar"]++
	return c.Backend.MulScalar(x, s)
}

func (c *countingBackend) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	c.calls["AddScalar"]++
	return c.Backend.AddScalar(x, s)
}

func (c *countingBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	c.calls["MatMul"]++
	return c.Backend.MatMul(a, b)
}

func TestRun_HostReferences(t *testing.T) {
	r, _ := newRunner(t, &memDriver{acc: newMemAccelerator()})
	host := &countingBackend{Backend: cpu.New(), calls: map[string]int{}}
	r.Host = host

	_, err := r.Run()
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"Add": 1, "MulScalar": 1, "AddScalar": 1, "MatMul": 1}, host.calls)
}

func TestRun_HostMismatch(t *testing.T) {
	for _, op := range []string{"ScaleAdd", "MatMul"} {
		t.Run(op, func(t *testing.T) {
			acc := newMemAccelerator()
			acc.skewOn = op
			r, out := newRunner(t, &memDriver{acc: acc})

			rep, err := r.Run()
			require.ErrorIs(t, err, ErrHostMismatch)
			assert.NotContains(t, out.String(), "Demo completed successfully")
			assert.False(t, rep.MatMulCheckOK)
			assert.Equal(t, op == "MatMul", rep.HostCheckOK)
			assert.Equal(t, acc.allocated, acc.freed, "device tensors leaked")
		})
	}
}

func TestMatches(t *testing.T) {
	want, err := tensor.FromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)

	got := want.Clone()
	worst, ok := matches(got, want, 2, 1e-6)
	assert.True(t, ok)
	assert.Zero(t, worst)

	got.AsFloat32()[3] = 4.5
	worst, ok = matches(got, want, 2, 1e-6)
	assert.False(t, ok)
	assert.InDelta(t, 0.5, worst, 1e-9)

	// Only the sampled rows are compared.
	_, ok = matches(got, want, 1, 1e-6)
	assert.True(t, ok)

	got.AsFloat32()[0] = float32(math.NaN())
	_, ok = matches(got, want, 1, 1e-6)
	assert.False(t, ok)
}
