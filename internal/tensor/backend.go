package tensor

// Backend defines the host compute operations used by the probe.
// Implementations panic on shape or dtype mismatches; callers pass fixed,
// compatible shapes.
//
// Implementations:
//   - cpu: pure Go elementwise ops, gonum BLAS for MatMul
type Backend interface {
	// Element-wise binary operations
	Add(a, b *RawTensor) *RawTensor

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}

// Accelerator is a compute device with its own memory space. Data moves
// between host and device explicitly through ToDevice and ToHost.
//
// Every operation that touches the device returns an error: a device can
// disappear between the probe and its first use.
//
// Implementations:
//   - cuda: NVIDIA GPUs through the CUDA runtime, cuBLAS and cuRAND
//   - webgpu: any WebGPU adapter (Windows)
type Accelerator interface {
	Name() string
	Device() Device

	// ToDevice copies a host tensor into device memory.
	ToDevice(host *RawTensor) (*DeviceTensor, error)
	// ToHost copies a device tensor back to host memory.
	ToHost(t *DeviceTensor) (*RawTensor, error)

	// Ones allocates a device tensor filled with ones.
	Ones(shape Shape) (*DeviceTensor, error)
	// Randn allocates a device tensor of standard normal samples.
	Randn(shape Shape) (*DeviceTensor, error)

	// ScaleAdd returns x*alpha + y as a new device tensor.
	ScaleAdd(x *DeviceTensor, alpha float32, y *DeviceTensor) (*DeviceTensor, error)
	// MatMul returns a @ b for 2D tensors as a new device tensor.
	MatMul(a, b *DeviceTensor) (*DeviceTensor, error)

	// Synchronize blocks until all queued device work has finished.
	Synchronize() error
	// Release frees the accelerator context.
	Release()
}
