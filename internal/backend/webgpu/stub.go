//go:build !windows

package webgpu

import "github.com/born-ml/devprobe/internal/tensor"

// Backend is unavailable on this platform.
type Backend struct {
	tensor.Accelerator
}

// New always fails on this platform.
func New() (*Backend, error) {
	return nil, ErrUnavailable
}

// IsAvailable always reports false on this platform.
func IsAvailable() bool {
	return false
}
