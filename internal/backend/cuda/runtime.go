package cuda

import (
	"fmt"
	"unsafe"
)

// cudaMemcpyKind values.
const (
	memcpyHostToDevice   int32 = 1
	memcpyDeviceToHost   int32 = 2
	memcpyDeviceToDevice int32 = 3
)

// cudaErrorNoDevice and cudaErrorInsufficientDriver mean "no usable GPU",
// which the probe treats as a count of zero.
const (
	cudaErrorInsufficientDriver int32 = 35
	cudaErrorNoDevice           int32 = 100
)

// runtimeAPI holds the CUDA runtime entry points used by the backend.
type runtimeAPI struct {
	lib *library

	getDeviceCount    func(count *int32) int32
	setDevice         func(device int32) int32
	malloc            func(devPtr *uintptr, size uintptr) int32
	free              func(devPtr uintptr) int32
	memcpyHtoD        func(dst uintptr, src unsafe.Pointer, count uintptr, kind int32) int32
	memcpyDtoH        func(dst unsafe.Pointer, src uintptr, count uintptr, kind int32) int32
	memcpyDtoD        func(dst, src uintptr, count uintptr, kind int32) int32
	deviceSynchronize func() int32
	getErrorString    func(code int32) string
	runtimeGetVersion func(version *int32) int32
	driverGetVersion  func(version *int32) int32
}

func loadRuntime(path string) (*runtimeAPI, error) {
	lib, err := openLibrary(path, defaultRuntimeLibraries)
	if err != nil {
		return nil, err
	}

	rt := &runtimeAPI{lib: lib}
	err = lib.bind(
		symbol{&rt.getDeviceCount, "cudaGetDeviceCount"},
		symbol{&rt.setDevice, "cudaSetDevice"},
		symbol{&rt.malloc, "cudaMalloc"},
		symbol{&rt.free, "cudaFree"},
		symbol{&rt.memcpyHtoD, "cudaMemcpy"},
		symbol{&rt.memcpyDtoH, "cudaMemcpy"},
		symbol{&rt.memcpyDtoD, "cudaMemcpy"},
		symbol{&rt.deviceSynchronize, "cudaDeviceSynchronize"},
		symbol{&rt.getErrorString, "cudaGetErrorString"},
		symbol{&rt.runtimeGetVersion, "cudaRuntimeGetVersion"},
		symbol{&rt.driverGetVersion, "cudaDriverGetVersion"},
	)
	if err != nil {
		_ = lib.close()
		return nil, err
	}
	return rt, nil
}

// check converts a cudaError_t into a Go error.
func (rt *runtimeAPI) check(op string, code int32) error {
	if code == 0 {
		return nil
	}
	return &Error{Op: op, Code: code, Message: rt.getErrorString(code)}
}

// deviceCount returns the number of CUDA devices. A missing driver or an
// empty machine yields zero without an error.
func (rt *runtimeAPI) deviceCount() (int, error) {
	var n int32
	code := rt.getDeviceCount(&n)
	switch code {
	case 0:
		return int(n), nil
	case cudaErrorNoDevice, cudaErrorInsufficientDriver:
		return 0, nil
	default:
		return 0, rt.check("cudaGetDeviceCount", code)
	}
}

// versions returns the runtime and driver versions encoded as 1000*major + 10*minor.
func (rt *runtimeAPI) versions() (runtimeVersion, driverVersion int) {
	var r, d int32
	if rt.runtimeGetVersion(&r) == 0 {
		runtimeVersion = int(r)
	}
	if rt.driverGetVersion(&d) == 0 {
		driverVersion = int(d)
	}
	return runtimeVersion, driverVersion
}

// formatVersion renders an encoded CUDA version as "major.minor".
func formatVersion(v int) string {
	if v <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d.%d", v/1000, (v%1000)/10)
}
