package cuda

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/born-ml/devprobe/internal/tensor"
)

// buffer is a cudaMalloc allocation.
type buffer struct {
	owner *Backend
	ptr   uintptr
	size  int
}

// Bytes returns the allocation size.
func (b *buffer) Bytes() int {
	return b.size
}

// Release frees the device memory on the owning backend's device.
func (b *buffer) Release() {
	b.owner.mu.Lock()
	defer b.owner.mu.Unlock()
	if err := b.owner.bindDevice(); err != nil {
		b.owner.log.WithError(err).Debug("bind device before free")
	}
	b.free()
}

// free releases the allocation. The caller holds owner.mu.
func (b *buffer) free() {
	if b.ptr == 0 {
		return
	}
	if err := b.owner.rt.check("cudaFree", b.owner.rt.free(b.ptr)); err != nil {
		b.owner.log.WithError(err).WithField("bytes", b.size).Debug("device free failed")
	}
	b.ptr = 0
}

// Backend implements tensor.Accelerator on one CUDA device.
// Only float32 tensors are supported.
type Backend struct {
	rt    *runtimeAPI
	blas  *cublasAPI
	rand  *curandAPI
	index int
	log   logrus.FieldLogger

	handle uintptr // cublasHandle_t
	gen    uintptr // curandGenerator_t

	mu       sync.Mutex
	released bool
}

func newBackend(rt *runtimeAPI, cfg Config, index int, log logrus.FieldLogger) (b *Backend, err error) {
	b = &Backend{rt: rt, index: index, log: log.WithField("device", index)}
	defer func() {
		if err != nil {
			b.Release()
			b = nil
		}
	}()

	if err = b.bindDevice(); err != nil {
		return b, err
	}
	if b.blas, err = loadCublas(cfg.CublasLibrary); err != nil {
		return b, err
	}
	if b.rand, err = loadCurand(cfg.CurandLibrary); err != nil {
		return b, err
	}
	if err = cublasCheck("cublasCreate", b.blas.create(&b.handle)); err != nil {
		return b, err
	}
	if err = curandCheck("curandCreateGenerator", b.rand.createGenerator(&b.gen, curandRngPseudoDefault)); err != nil {
		return b, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // G115: any bit pattern is a valid seed
	}
	if err = curandCheck("curandSetPseudoRandomGeneratorSeed", b.rand.setSeed(b.gen, seed)); err != nil {
		return b, err
	}

	b.log.WithFields(logrus.Fields{
		"cublas": b.blas.lib.path,
		"curand": b.rand.lib.path,
	}).Debug("opened CUDA backend")
	return b, nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "CUDA"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.NewDevice(tensor.CUDA, b.index)
}

// bindDevice makes the backend's device current on the calling OS thread.
// Goroutines can migrate between threads, so every entry point calls it.
func (b *Backend) bindDevice() error {
	return b.rt.check("cudaSetDevice", b.rt.setDevice(int32(b.index))) //nolint:gosec // G115: device index is small
}

// begin locks the backend and binds its device.
func (b *Backend) begin() error {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return ErrReleased
	}
	if err := b.bindDevice(); err != nil {
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *Backend) end() {
	b.mu.Unlock()
}

func (b *Backend) alloc(size int) (*buffer, error) {
	var ptr uintptr
	if err := b.rt.check("cudaMalloc", b.rt.malloc(&ptr, uintptr(size))); err != nil {
		return nil, err
	}
	return &buffer{owner: b, ptr: ptr, size: size}, nil
}

func (b *Backend) wrap(buf *buffer, shape tensor.Shape) (*tensor.DeviceTensor, error) {
	t, err := tensor.NewDeviceTensor(buf, shape, tensor.Float32, b.Device())
	if err != nil {
		buf.free()
		return nil, err
	}
	return t, nil
}

func (b *Backend) bufferOf(t *tensor.DeviceTensor) (*buffer, error) {
	buf, ok := t.Buffer().(*buffer)
	if !ok || buf.owner != b {
		return nil, fmt.Errorf("cuda: tensor on %s does not belong to this backend", t.Device())
	}
	if t.DType() != tensor.Float32 {
		return nil, fmt.Errorf("cuda: only float32 is supported, got %s", t.DType())
	}
	if buf.ptr == 0 {
		return nil, fmt.Errorf("cuda: tensor on %s was released", t.Device())
	}
	return buf, nil
}

// ToDevice copies a float32 host tensor into device memory.
func (b *Backend) ToDevice(host *tensor.RawTensor) (*tensor.DeviceTensor, error) {
	if host.DType() != tensor.Float32 {
		return nil, fmt.Errorf("cuda: only float32 is supported, got %s", host.DType())
	}
	if err := b.begin(); err != nil {
		return nil, err
	}
	defer b.end()

	size := host.ByteSize()
	buf, err := b.alloc(size)
	if err != nil {
		return nil, err
	}
	data := host.Data()
	if err := b.rt.check("cudaMemcpy", b.rt.memcpyHtoD(buf.ptr, unsafe.Pointer(&data[0]), uintptr(size), memcpyHostToDevice)); err != nil {
		buf.free()
		return nil, err
	}
	return b.wrap(buf, host.Shape())
}

// ToHost copies a device tensor back to host memory.
func (b *Backend) ToHost(t *tensor.DeviceTensor) (*tensor.RawTensor, error) {
	buf, err := b.bufferOf(t)
	if err != nil {
		return nil, err
	}
	if err := b.begin(); err != nil {
		return nil, err
	}
	defer b.end()

	host, err := tensor.NewRaw(t.Shape(), t.DType(), tensor.HostDevice)
	if err != nil {
		return nil, err
	}
	data := host.Data()
	if err := b.rt.check("cudaMemcpy", b.rt.memcpyDtoH(unsafe.Pointer(&data[0]), buf.ptr, uintptr(host.ByteSize()), memcpyDeviceToHost)); err != nil {
		return nil, err
	}
	return host, nil
}

// Ones allocates a device tensor filled with ones.
func (b *Backend) Ones(shape tensor.Shape) (*tensor.DeviceTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return b.ToDevice(tensor.Ones(shape, tensor.Float32))
}

// Randn allocates a device tensor of standard normal samples drawn by cuRAND.
func (b *Backend) Randn(shape tensor.Shape) (*tensor.DeviceTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := b.begin(); err != nil {
		return nil, err
	}
	defer b.end()

	n := normalCount(shape.NumElements())
	buf, err := b.alloc(n * tensor.Float32.Size())
	if err != nil {
		return nil, err
	}
	if err := curandCheck("curandGenerateNormal", b.rand.generateNormal(b.gen, buf.ptr, uintptr(n), 0, 1)); err != nil {
		buf.free()
		return nil, err
	}
	return b.wrap(buf, shape)
}

// ScaleAdd returns x*alpha + y. y is copied first, then cuBLAS SAXPY
// accumulates alpha*x into the copy.
func (b *Backend) ScaleAdd(x *tensor.DeviceTensor, alpha float32, y *tensor.DeviceTensor) (*tensor.DeviceTensor, error) {
	if !x.Shape().Equal(y.Shape()) {
		return nil, fmt.Errorf("cuda: scale-add shape mismatch: %v vs %v", x.Shape(), y.Shape())
	}
	xBuf, err := b.bufferOf(x)
	if err != nil {
		return nil, err
	}
	yBuf, err := b.bufferOf(y)
	if err != nil {
		return nil, err
	}
	if err := b.begin(); err != nil {
		return nil, err
	}
	defer b.end()

	size := y.ByteSize()
	out, err := b.alloc(size)
	if err != nil {
		return nil, err
	}
	if err := b.rt.check("cudaMemcpy", b.rt.memcpyDtoD(out.ptr, yBuf.ptr, uintptr(size), memcpyDeviceToDevice)); err != nil {
		out.free()
		return nil, err
	}
	n := int32(x.NumElements()) //nolint:gosec // G115: demo tensors are far below 2^31 elements
	if err := cublasCheck("cublasSaxpy", b.blas.saxpy(b.handle, n, &alpha, xBuf.ptr, 1, out.ptr, 1)); err != nil {
		out.free()
		return nil, err
	}
	return b.wrap(out, y.Shape())
}

// MatMul returns a @ b for 2D tensors using cuBLAS SGEMM.
func (b *Backend) MatMul(a, other *tensor.DeviceTensor) (*tensor.DeviceTensor, error) {
	if len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		return nil, fmt.Errorf("cuda: matmul requires 2D tensors, got %v and %v", a.Shape(), other.Shape())
	}
	m, k := a.Shape()[0], a.Shape()[1]
	if other.Shape()[0] != k {
		return nil, fmt.Errorf("cuda: matmul shape mismatch: [%d,%d] @ [%d,%d]", m, k, other.Shape()[0], other.Shape()[1])
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
	if err := b.begin(); err != nil {
		return nil, err
	}
	defer b.end()

	out, err := b.alloc(m * n * tensor.Float32.Size())
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G115: matrix dimensions fit in int32
	if err := b.blas.gemmRowMajor(b.handle, int32(m), int32(k), int32(n), aBuf.ptr, bBuf.ptr, out.ptr); err != nil {
		out.free()
		return nil, err
	}
	return b.wrap(out, tensor.Shape{m, n})
}

// Synchronize blocks until all queued work on the device has finished.
func (b *Backend) Synchronize() error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()
	return b.rt.check("cudaDeviceSynchronize", b.rt.deviceSynchronize())
}

// Release destroys the cuBLAS handle and cuRAND generator and unloads their
// libraries. Tensors created by the backend must be released first.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true

	if b.gen != 0 {
		_ = b.rand.destroyGenerator(b.gen)
		b.gen = 0
	}
	if b.handle != 0 {
		_ = b.blas.destroy(b.handle)
		b.handle = 0
	}
	if b.rand != nil {
		_ = b.rand.lib.close()
	}
	if b.blas != nil {
		_ = b.blas.lib.close()
	}
}
