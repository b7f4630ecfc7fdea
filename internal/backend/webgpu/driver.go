// Package webgpu implements the WebGPU accelerator backend.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
// The backend is only built for Windows; elsewhere a stub reports no devices.
package webgpu

import (
	"github.com/sirupsen/logrus"

	"github.com/born-ml/devprobe/internal/tensor"
)

// Driver probes for a WebGPU adapter and opens accelerators on it.
// WebGPU exposes a single default adapter, so the count is 0 or 1.
type Driver struct {
	log logrus.FieldLogger
}

// NewDriver creates a WebGPU driver.
func NewDriver(log logrus.FieldLogger) *Driver {
	return &Driver{log: log.WithField("backend", "webgpu")}
}

// Name returns the backend name.
func (d *Driver) Name() string {
	return "WebGPU"
}

// DeviceCount returns 1 when a WebGPU adapter is available, 0 otherwise.
func (d *Driver) DeviceCount() (int, error) {
	if !IsAvailable() {
		return 0, nil
	}
	return 1, nil
}

// Open creates an accelerator on the default adapter. Only index 0 exists.
func (d *Driver) Open(index int) (tensor.Accelerator, error) {
	if index != 0 {
		return nil, ErrUnavailable
	}
	b, err := New()
	if err != nil {
		return nil, err
	}
	d.log.WithField("adapter", b.Name()).Debug("opened WebGPU backend")
	return b, nil
}
