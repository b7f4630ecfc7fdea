//go:build windows

package cuda

import (
	"golang.org/x/sys/windows"
)

// Default DLL names, most specific last.
var (
	defaultRuntimeLibraries = []string{"cudart64_12.dll", "cudart64_110.dll"}
	defaultCublasLibraries  = []string{"cublas64_12.dll", "cublas64_11.dll"}
	defaultCurandLibraries  = []string{"curand64_10.dll"}
)

func loadLibrary(path string) (uintptr, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil || handle == 0 {
		return 0, err
	}
	return uintptr(handle), nil
}

func getSymbol(handle uintptr, symbol string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), symbol)
}

func closeLibrary(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return windows.FreeLibrary(windows.Handle(handle))
}
