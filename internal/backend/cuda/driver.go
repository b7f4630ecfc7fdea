// Package cuda implements the NVIDIA accelerator backend without cgo.
//
// The CUDA runtime, cuBLAS and cuRAND shared libraries are loaded at run
// time with purego (dlopen) on unix and LoadLibrary on Windows. A machine
// without the libraries or without a GPU simply reports zero devices.
package cuda

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/born-ml/devprobe/internal/tensor"
)

// Config selects the shared libraries and the random seed. Empty library
// paths fall back to the platform's usual names.
type Config struct {
	RuntimeLibrary string
	CublasLibrary  string
	CurandLibrary  string
	Seed           uint64
}

// Driver probes for CUDA devices and opens accelerators on them.
// The runtime library is loaded once, on first use.
type Driver struct {
	cfg Config
	log logrus.FieldLogger

	once sync.Once
	rt   *runtimeAPI
	err  error
}

// NewDriver creates a CUDA driver. Nothing is loaded until DeviceCount or Open.
func NewDriver(cfg Config, log logrus.FieldLogger) *Driver {
	return &Driver{cfg: cfg, log: log.WithField("backend", "cuda")}
}

// Name returns the backend name.
func (d *Driver) Name() string {
	return "CUDA"
}

func (d *Driver) runtime() (*runtimeAPI, error) {
	d.once.Do(func() {
		d.rt, d.err = loadRuntime(d.cfg.RuntimeLibrary)
		if d.err != nil {
			return
		}
		r, v := d.rt.versions()
		d.log.WithFields(logrus.Fields{
			"library": d.rt.lib.path,
			"runtime": formatVersion(r),
			"driver":  formatVersion(v),
		}).Debug("loaded CUDA runtime")
	})
	return d.rt, d.err
}

// DeviceCount returns the number of CUDA devices.
// A missing runtime library yields zero and an error wrapping ErrLibraryNotFound.
func (d *Driver) DeviceCount() (int, error) {
	rt, err := d.runtime()
	if err != nil {
		return 0, err
	}
	return rt.deviceCount()
}

// Open creates an accelerator on device index.
func (d *Driver) Open(index int) (tensor.Accelerator, error) {
	return d.NewBackend(index)
}

// NewBackend creates a CUDA backend bound to device index.
func (d *Driver) NewBackend(index int) (*Backend, error) {
	rt, err := d.runtime()
	if err != nil {
		return nil, err
	}
	count, err := rt.deviceCount()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= count {
		return nil, fmt.Errorf("%w: index %d, %d device(s)", ErrNoDevice, index, count)
	}
	return newBackend(rt, d.cfg, index, d.log)
}

// Close unloads the runtime library. Backends opened from the driver must be
// released first.
func (d *Driver) Close() error {
	if d.rt == nil {
		return nil
	}
	return d.rt.lib.close()
}

// IsNotFound reports whether err means the CUDA libraries are absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLibraryNotFound)
}
