package tensor

import (
	"fmt"
	"sync"
)

// DeviceBuffer is accelerator memory owned by a DeviceTensor.
// Each accelerator defines its own buffer type and asserts it back.
type DeviceBuffer interface {
	Bytes() int
	Release()
}

// DeviceTensor is a tensor whose storage lives in accelerator memory.
type DeviceTensor struct {
	buf    DeviceBuffer
	shape  Shape
	dtype  DataType
	device Device

	once sync.Once
}

// NewDeviceTensor wraps an accelerator buffer. The buffer must hold at least
// shape.NumElements() elements of dtype.
func NewDeviceTensor(buf DeviceBuffer, shape Shape, dtype DataType, device Device) (*DeviceTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if need := shape.NumElements() * dtype.Size(); buf.Bytes() < need {
		return nil, fmt.Errorf("device buffer holds %d bytes, shape %v needs %d", buf.Bytes(), shape, need)
	}
	return &DeviceTensor{
		buf:    buf,
		shape:  shape.Clone(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Buffer returns the accelerator buffer.
func (t *DeviceTensor) Buffer() DeviceBuffer {
	return t.buf
}

// Shape returns the tensor's shape.
func (t *DeviceTensor) Shape() Shape {
	return t.shape
}

// DType returns the tensor's data type.
func (t *DeviceTensor) DType() DataType {
	return t.dtype
}

// Device returns the accelerator holding the tensor.
func (t *DeviceTensor) Device() Device {
	return t.device
}

// NumElements returns the total number of elements.
func (t *DeviceTensor) NumElements() int {
	return t.shape.NumElements()
}

// ByteSize returns the size of the tensor's elements in bytes.
func (t *DeviceTensor) ByteSize() int {
	return t.NumElements() * t.dtype.Size()
}

// Release frees the device memory. Safe to call more than once.
func (t *DeviceTensor) Release() {
	t.once.Do(t.buf.Release)
}

// String returns a short description of the tensor.
func (t *DeviceTensor) String() string {
	return fmt.Sprintf("Tensor[%s][%v] on %s", t.dtype, t.shape, t.device)
}
