//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/devprobe/internal/tensor"
)

// buffer is a storage buffer holding a device tensor.
type buffer struct {
	owner *Backend
	buf   *wgpu.Buffer
	size  int
}

// Bytes returns the buffer size.
func (b *buffer) Bytes() int {
	return b.size
}

// Release frees the GPU buffer.
func (b *buffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

func (b *Backend) wrap(buf *wgpu.Buffer, size int, shape tensor.Shape) (*tensor.DeviceTensor, error) {
	wrapped := &buffer{owner: b, buf: buf, size: size}
	t, err := tensor.NewDeviceTensor(wrapped, shape, tensor.Float32, b.Device())
	if err != nil {
		wrapped.Release()
		return nil, err
	}
	return t, nil
}

func (b *Backend) bufferOf(t *tensor.DeviceTensor) (*buffer, error) {
	if b.released {
		return nil, ErrReleased
	}
	buf, ok := t.Buffer().(*buffer)
	if !ok || buf.owner != b {
		return nil, fmt.Errorf("webgpu: tensor on %s does not belong to this backend", t.Device())
	}
	if buf.buf == nil {
		return nil, fmt.Errorf("webgpu: tensor on %s was released", t.Device())
	}
	return buf, nil
}

// ToDevice uploads a float32 host tensor into a storage buffer.
func (b *Backend) ToDevice(host *tensor.RawTensor) (*tensor.DeviceTensor, error) {
	if b.released {
		return nil, ErrReleased
	}
	if host.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", host.DType())
	}
	buf := b.upload(host.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	return b.wrap(buf, host.ByteSize(), host.Shape())
}

// ToHost reads a device tensor back through a staging buffer.
func (b *Backend) ToHost(t *tensor.DeviceTensor) (*tensor.RawTensor, error) {
	buf, err := b.bufferOf(t)
	if err != nil {
		return nil, err
	}
	data, err := b.download(buf.buf, uint64(t.ByteSize())) //nolint:gosec // G115: ByteSize is non-negative
	if err != nil {
		return nil, err
	}
	host, err := tensor.NewRaw(t.Shape(), t.DType(), tensor.HostDevice)
	if err != nil {
		return nil, err
	}
	copy(host.Data(), data)
	return host, nil
}

// Ones allocates a device tensor filled with ones.
func (b *Backend) Ones(shape tensor.Shape) (*tensor.DeviceTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return b.ToDevice(tensor.Ones(shape, tensor.Float32))
}

// Randn allocates a device tensor of standard normal samples.
// WebGPU has no random number library, so samples are drawn on the host.
func (b *Backend) Randn(shape tensor.Shape) (*tensor.DeviceTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return b.ToDevice(tensor.Randn(shape, tensor.Float32))
}

// ScaleAdd returns x*alpha + y.
func (b *Backend) ScaleAdd(x *tensor.DeviceTensor, alpha float32, y *tensor.DeviceTensor) (*tensor.DeviceTensor, error) {
	if !x.Shape().Equal(y.Shape()) {
		return nil, fmt.Errorf("webgpu: scale-add shape mismatch: %v vs %v", x.Shape(), y.Shape())
	}
	xBuf, err := b.bufferOf(x)
	if err != nil {
		return nil, err
	}
	yBuf, err := b.bufferOf(y)
	if err != nil {
		return nil, err
	}

	numElements := x.NumElements()
	size := uint64(x.ByteSize()) //nolint:gosec // G115: ByteSize is non-negative
	result := b.alloc(size)

	params := make([]byte, 8)
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements)) //nolint:gosec // G115: element count fits in u32
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(alpha))
	uniform := b.uniform(params)
	defer uniform.buf.Release()

	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize) //nolint:gosec // G115: non-negative
	b.run("scale_add", scaleAddShader, workgroups, 1,
		binding{xBuf.buf, size}, binding{yBuf.buf, size}, binding{result, size}, uniform)

	return b.wrap(result, x.ByteSize(), x.Shape())
}

// MatMul returns a @ b for 2D tensors.
func (b *Backend) MatMul(a, other *tensor.DeviceTensor) (*tensor.DeviceTensor, error) {
	if len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		return nil, fmt.Errorf("webgpu: matmul requires 2D tensors, got %v and %v", a.Shape(), other.Shape())
	}
	m, k := a.Shape()[0], a.Shape()[1]
	if other.Shape()[0] != k {
		return nil, fmt.Errorf("webgpu: matmul shape mismatch: [%d,%d] @ [%d,%d]", m, k, other.Shape()[0], other.Shape()[1])
	}
	n := other.Shape()[1]

	aBuf, err := b.bufferOf(a)
	if err != nil {
		return nil, err
	}
	bBuf, err := b.bufferOf(other)
	if err != nil {
		return nil, err
	}

	resultBytes := m * n * tensor.Float32.Size()
	result := b.alloc(uint64(resultBytes)) //nolint:gosec // G115: non-negative

	params := make([]byte, 12)
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))  //nolint:gosec // G115: fits in u32
	binary.LittleEndian.PutUint32(params[4:8], uint32(k))  //nolint:gosec // G115: fits in u32
	binary.LittleEndian.PutUint32(params[8:12], uint32(n)) //nolint:gosec // G115: fits in u32
	uniform := b.uniform(params)
	defer uniform.buf.Release()

	//nolint:gosec // G115: sizes and tile counts are non-negative
	b.run("matmul", matmulShader, uint32((n+matmulTile-1)/matmulTile), uint32((m+matmulTile-1)/matmulTile),
		binding{aBuf.buf, uint64(a.ByteSize())},
		binding{bBuf.buf, uint64(other.ByteSize())},
		binding{result, uint64(resultBytes)},
		uniform)

	return b.wrap(result, resultBytes, tensor.Shape{m, n})
}

// Synchronize waits for all submitted work by reading back the fence buffer.
func (b *Backend) Synchronize() error {
	if b.released {
		return ErrReleased
	}
	_, err := b.download(b.fence, 4)
	return err
}
