package probe

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/born-ml/devprobe/internal/backend/cuda"
	"github.com/born-ml/devprobe/internal/backend/webgpu"
	"github.com/born-ml/devprobe/internal/config"
)

// Drivers builds the ordered driver list for the configured accelerator
// preference. "auto" tries CUDA first, then WebGPU.
func Drivers(cfg *config.Config, log logrus.FieldLogger) ([]Driver, error) {
	cudaDriver := func() Driver {
		return cuda.NewDriver(cuda.Config{
			RuntimeLibrary: cfg.CUDA.RuntimeLibrary,
			CublasLibrary:  cfg.CUDA.CublasLibrary,
			CurandLibrary:  cfg.CUDA.CurandLibrary,
			Seed:           cfg.CUDA.Seed,
		}, log)
	}
	webgpuDriver := func() Driver {
		return webgpu.NewDriver(log)
	}

	switch cfg.Accelerator {
	case config.AcceleratorAuto, "":
		return []Driver{cudaDriver(), webgpuDriver()}, nil
	case config.AcceleratorCUDA:
		return []Driver{cudaDriver()}, nil
	case config.AcceleratorWebGPU:
		return []Driver{webgpuDriver()}, nil
	case config.AcceleratorNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown accelerator %q", cfg.Accelerator)
	}
}
