package tensor

import "fmt"

// DeviceKind identifies the memory space a tensor lives in.
type DeviceKind int

// Supported device kinds.
const (
	Host DeviceKind = iota
	CUDA
	WebGPU
)

// String returns the lower-case device kind name used in device strings.
func (k DeviceKind) String() string {
	switch k {
	case Host:
		return "cpu"
	case CUDA:
		return "cuda"
	case WebGPU:
		return "webgpu"
	default:
		return "unknown"
	}
}

// Device is a handle for either host memory or accelerator number Index.
type Device struct {
	Kind  DeviceKind
	Index int
}

// HostDevice is the CPU memory space.
var HostDevice = Device{Kind: Host}

// NewDevice returns the device handle for accelerator index of the given kind.
func NewDevice(kind DeviceKind, index int) Device {
	return Device{Kind: kind, Index: index}
}

// IsHost reports whether the device is host memory.
func (d Device) IsHost() bool {
	return d.Kind == Host
}

// String renders the device as "cpu" or "<kind>:<index>".
func (d Device) String() string {
	if d.IsHost() {
		return d.Kind.String()
	}
	return fmt.Sprintf("%s:%d", d.Kind, d.Index)
}

// typePrefix is the device prefix used when printing tensor types.
func (d Device) typePrefix() string {
	switch d.Kind {
	case Host:
		return "CPU"
	case CUDA:
		return "CUDA"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}
