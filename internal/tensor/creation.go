package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

// Zeros creates a host tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32)
func Zeros(shape Shape, dtype DataType) *RawTensor {
	raw, err := NewRaw(shape, dtype, HostDevice)
	if err != nil {
		panic(err) // Shapes used by callers are fixed; an invalid one is a bug.
	}
	return raw
}

// Ones creates a host tensor filled with ones.
func Ones(shape Shape, dtype DataType) *RawTensor {
	return Full(shape, 1, dtype)
}

// Full creates a host tensor filled with a specific value.
func Full(shape Shape, value float64, dtype DataType) *RawTensor {
	t := Zeros(shape, dtype)
	switch dtype {
	case Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = value
		}
	}
	return t
}

// Rand creates a host tensor with values uniformly distributed in [0, 1).
func Rand(shape Shape, dtype DataType) *RawTensor {
	t := Zeros(shape, dtype)
	switch dtype {
	case Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = rand.Float32() //nolint:gosec // G404: statistical use, not security
		}
	case Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = rand.Float64() //nolint:gosec // G404: statistical use, not security
		}
	}
	return t
}

// Randn creates a host tensor with values from a standard normal distribution.
// Uses the Box-Muller transform.
func Randn(shape Shape, dtype DataType) *RawTensor {
	t := Zeros(shape, dtype)
	switch dtype {
	case Float32:
		data := t.AsFloat32()
		for i := 0; i < len(data); i += 2 {
			z0, z1 := boxMuller()
			data[i] = float32(z0)
			if i+1 < len(data) {
				data[i+1] = float32(z1)
			}
		}
	case Float64:
		data := t.AsFloat64()
		for i := 0; i < len(data); i += 2 {
			z0, z1 := boxMuller()
			data[i] = z0
			if i+1 < len(data) {
				data[i+1] = z1
			}
		}
	}
	return t
}

// boxMuller returns two independent standard normal samples.
func boxMuller() (float64, float64) {
	u1 := 1 - rand.Float64() //nolint:gosec // G404: statistical use, not security
	u2 := rand.Float64()     //nolint:gosec // G404: statistical use, not security
	r := math.Sqrt(-2.0 * math.Log(u1))
	return r * math.Cos(2.0*math.Pi*u2), r * math.Sin(2.0*math.Pi*u2)
}

// FromFloat32 creates a host tensor from a Go slice. The slice is copied.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, Float32, HostDevice)
	if err != nil {
		return nil, err
	}
	copy(raw.AsFloat32(), data)
	return raw, nil
}
