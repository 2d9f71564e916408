package secret

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret
// values.
type Source interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvSource resolves references as environment variable names.
type EnvSource struct{}

// Name returns "env".
func (EnvSource) Name() string { return "env" }

// Resolve returns the variable's value.
func (EnvSource) Resolve(_ context.Context, ref string) (string, error) {
	value, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrNotFound, ref)
	}
	return value, nil
}

// FileSource resolves references as file paths, the way container
// orchestrators mount secrets. Trailing whitespace is trimmed.
type FileSource struct {
	// Dir resolves relative references. Default: the working directory.
	Dir string
}

// Name returns "file".
func (FileSource) Name() string { return "file" }

// Resolve reads the referenced file.
func (f FileSource) Resolve(_ context.Context, ref string) (string, error) {
	path := ref
	if !filepath.IsAbs(path) && f.Dir != "" {
		path = filepath.Join(f.Dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
		}
		return "", fmt.Errorf("secret: reading %s: %w", ref, err)
	}
	return strings.TrimRight(string(data), " \t\r\n"), nil
}
