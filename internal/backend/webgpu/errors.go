package webgpu

import "errors"

var (
	// ErrUnavailable is returned when no WebGPU adapter can be used.
	ErrUnavailable = errors.New("webgpu: not available")

	// ErrReleased is returned by operations on a released backend.
	ErrReleased = errors.New("webgpu: backend released")
)
