package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Permission reports whether the process may read the inbox.
type Permission interface {
	Granted(ctx context.Context) (bool, error)
}

// StaticPermission is a fixed answer, taken from configuration.
type StaticPermission bool

func (p StaticPermission) Granted(ctx context.Context) (bool, error) {
	return bool(p), nil
}

// FilePermission is granted when the inbox source at Path can be opened for
// reading. Missing files and access denials mean "not granted"; any other
// failure is returned as an error.
type FilePermission struct {
	Path string
}

func (p FilePermission) Granted(ctx context.Context) (bool, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return false, nil
		}
		return false, fmt.Errorf("check inbox access: %w", err)
	}
	f.Close()
	return true, nil
}
