package cuda

import (
	"errors"
	"fmt"

	"github.com/ebitengine/purego"
)

// library is a loaded shared library whose symbols are bound to Go function
// variables with purego.
type library struct {
	handle uintptr
	path   string
}

// openLibrary loads the first path in candidates that can be opened.
// An explicit path, when set, is the only candidate.
func openLibrary(explicit string, candidates []string) (*library, error) {
	if explicit != "" {
		candidates = []string{explicit}
	}

	var errs []error
	for _, path := range candidates {
		handle, err := loadLibrary(path)
		if err == nil && handle != 0 {
			return &library{handle: handle, path: path}, nil
		}
		if err == nil {
			err = errors.New("null handle")
		}
		errs = append(errs, fmt.Errorf("%s: %w", path, err))
	}
	return nil, fmt.Errorf("%w: %w", ErrLibraryNotFound, errors.Join(errs...))
}

// symbol binds fn (a pointer to a func variable) to the exported symbol name.
type symbol struct {
	fn   any
	name string
}

// bind registers every symbol, stopping at the first missing one.
func (l *library) bind(symbols ...symbol) error {
	for _, s := range symbols {
		ptr, err := getSymbol(l.handle, s.name)
		if err != nil || ptr == 0 {
			return fmt.Errorf("cuda: %s: missing symbol %s: %v", l.path, s.name, err)
		}
		purego.RegisterFunc(s.fn, ptr)
	}
	return nil
}

func (l *library) close() error {
	if l == nil {
		return nil
	}
	err := closeLibrary(l.handle)
	l.handle = 0
	return err
}
