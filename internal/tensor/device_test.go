package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_String(t *testing.T) {
	tests := []struct {
		device Device
		want   string
	}{
		{HostDevice, "cpu"},
		{NewDevice(CUDA, 0), "cuda:0"},
		{NewDevice(CUDA, 3), "cuda:3"},
		{NewDevice(WebGPU, 0), "webgpu:0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.device.String())
		})
	}
}

type fakeBuffer struct {
	size     int
	released int
}

func (b *fakeBuffer) Bytes() int { return b.size }
func (b *fakeBuffer) Release()   { b.released++ }

func TestDeviceTensor(t *testing.T) {
	buf := &fakeBuffer{size: 48}
	dt, err := NewDeviceTensor(buf, Shape{3, 4}, Float32, NewDevice(CUDA, 0))
	require.NoError(t, err)

	assert.Equal(t, 12, dt.NumElements())
	assert.Equal(t, 48, dt.ByteSize())
	assert.Equal(t, "Tensor[float32][3,4] on cuda:0", dt.String())

	dt.Release()
	dt.Release()
	assert.Equal(t, 1, buf.released)
}

func TestNewDeviceTensor_BufferTooSmall(t *testing.T) {
	_, err := NewDeviceTensor(&fakeBuffer{size: 8}, Shape{3, 4}, Float32, NewDevice(CUDA, 0))
	require.Error(t, err)
}
