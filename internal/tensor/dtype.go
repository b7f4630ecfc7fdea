// Package tensor provides the host tensor representation and the backend
// contracts used by the device probe.
package tensor

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// typeName is the scalar type name used when printing tensors.
func (dt DataType) typeName() string {
	switch dt {
	case Float32:
		return "Float"
	case Float64:
		return "Double"
	default:
		return "Unknown"
	}
}
