package cuda

import (
	"errors"
	"fmt"
)

var (
	// ErrLibraryNotFound is returned when a CUDA shared library cannot be loaded.
	ErrLibraryNotFound = errors.New("cuda: shared library not found")

	// ErrNoDevice is returned when the runtime loads but reports no devices.
	ErrNoDevice = errors.New("cuda: no device available")

	// ErrReleased is returned by operations on a released backend.
	ErrReleased = errors.New("cuda: backend released")
)

// Error is a non-success status returned by the CUDA runtime, cuBLAS or cuRAND.
type Error struct {
	Op      string
	Code    int32
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cuda: %s: %s (code %d)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("cuda: %s failed (code %d)", e.Op, e.Code)
}

// cuBLAS status names for the codes worth printing.
var cublasStatus = map[int32]string{
	1:  "CUBLAS_STATUS_NOT_INITIALIZED",
	3:  "CUBLAS_STATUS_ALLOC_FAILED",
	7:  "CUBLAS_STATUS_INVALID_VALUE",
	8:  "CUBLAS_STATUS_ARCH_MISMATCH",
	11: "CUBLAS_STATUS_MAPPING_ERROR",
	13: "CUBLAS_STATUS_EXECUTION_FAILED",
	14: "CUBLAS_STATUS_INTERNAL_ERROR",
	15: "CUBLAS_STATUS_NOT_SUPPORTED",
}

// cuRAND status names for the codes worth printing.
var curandStatus = map[int32]string{
	101: "CURAND_STATUS_NOT_INITIALIZED",
	102: "CURAND_STATUS_ALLOCATION_FAILED",
	104: "CURAND_STATUS_OUT_OF_RANGE",
	105: "CURAND_STATUS_LENGTH_NOT_MULTIPLE",
	201: "CURAND_STATUS_LAUNCH_FAILURE",
	999: "CURAND_STATUS_INTERNAL_ERROR",
}

func cublasCheck(op string, code int32) error {
	if code == 0 {
		return nil
	}
	return &Error{Op: op, Code: code, Message: cublasStatus[code]}
}

func curandCheck(op string, code int32) error {
	if code == 0 {
		return nil
	}
	return &Error{Op: op, Code: code, Message: curandStatus[code]}
}
