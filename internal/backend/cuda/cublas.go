package cuda

// cublasOperation_t values.
const cublasOpN int32 = 0

// cublasAPI holds the cuBLAS v2 entry points used by the backend.
type cublasAPI struct {
	lib *library

	create  func(handle *uintptr) int32
	destroy func(handle uintptr) int32
	saxpy   func(handle uintptr, n int32, alpha *float32, x uintptr, incx int32, y uintptr, incy int32) int32
	sgemm   func(handle uintptr, transa, transb int32, m, n, k int32,
		alpha *float32, a uintptr, lda int32, b uintptr, ldb int32,
		beta *float32, c uintptr, ldc int32) int32
}

func loadCublas(path string) (*cublasAPI, error) {
	lib, err := openLibrary(path, defaultCublasLibraries)
	if err != nil {
		return nil, err
	}

	api := &cublasAPI{lib: lib}
	err = lib.bind(
		symbol{&api.create, "cublasCreate_v2"},
		symbol{&api.destroy, "cublasDestroy_v2"},
		symbol{&api.saxpy, "cublasSaxpy_v2"},
		symbol{&api.sgemm, "cublasSgemm_v2"},
	)
	if err != nil {
		_ = lib.close()
		return nil, err
	}
	return api, nil
}

// gemmRowMajor computes C = A @ B for row-major A [m,k], B [k,n], C [m,n].
// cuBLAS is column-major, so it is asked for C^T = B^T @ A^T, which has the
// same memory layout as row-major C.
func (api *cublasAPI) gemmRowMajor(handle uintptr, m, k, n int32, a, b, c uintptr) error {
	alpha, beta := float32(1), float32(0)
	return cublasCheck("cublasSgemm", api.sgemm(handle, cublasOpN, cublasOpN,
		n, m, k,
		&alpha, b, n, a, k,
		&beta, c, n))
}
