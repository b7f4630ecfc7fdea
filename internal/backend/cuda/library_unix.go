//go:build !windows

package cuda

import (
	"github.com/ebitengine/purego"
)

// Default shared library names, most specific last.
var (
	defaultRuntimeLibraries = []string{"libcudart.so", "libcudart.so.12", "libcudart.so.11.0"}
	defaultCublasLibraries  = []string{"libcublas.so", "libcublas.so.12", "libcublas.so.11"}
	defaultCurandLibraries  = []string{"libcurand.so", "libcurand.so.10"}
)

func loadLibrary(path string) (uintptr, error) {
	libHandle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil || libHandle == 0 {
		return 0, err
	}
	return libHandle, nil
}

func getSymbol(handle uintptr, symbol string) (uintptr, error) {
	return purego.Dlsym(handle, symbol)
}

func closeLibrary(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return purego.Dlclose(handle)
}
