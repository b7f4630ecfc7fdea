package cpu

import (
	"fmt"

	"github.com/born-ml/devprobe/internal/parallel"
	"github.com/born-ml/devprobe/internal/tensor"
)

// Scalar operations - element-wise operations with a scalar value.

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.mapScalar("mulScalar", x, func(v float64) float64 { return v * scalar })
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.mapScalar("addScalar", x, func(v float64) float64 { return v + scalar })
}

func (cpu *CPUBackend) mapScalar(op string, x *tensor.RawTensor, fn func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}

	switch x.DType() {
	case tensor.Float32:
		dst, src := result.AsFloat32(), x.AsFloat32()
		parallel.Chunks(len(dst), cpu.par, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				dst[i] = float32(fn(float64(src[i])))
			}
		})
	case tensor.Float64:
		dst, src := result.AsFloat64(), x.AsFloat64()
		parallel.Chunks(len(dst), cpu.par, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				dst[i] = fn(src[i])
			}
		})
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %v", op, x.DType()))
	}

	return result
}
