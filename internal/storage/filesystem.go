package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidKey = errors.New("storage: invalid key")

// Filesystem stores artifact files flat under a root directory.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	const op = "storage.NewFilesystem"

	if root == "" {
		return nil, fmt.Errorf("%s: root required", op)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &Filesystem{root: abs}, nil
}

func (f *Filesystem) Root() string {
	return f.root
}

// Write replaces the file at key via a uniquely named temp file and rename,
// so readers never see a partial artifact and concurrent writers of one key
// end with the last rename winning. Temp files are hidden and Path never
// resolves them.
func (f *Filesystem) Write(ctx context.Context, key string, data []byte) error {
	const op = "storage.Write"

	path, err := f.Path(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(f.root, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0644)
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (f *Filesystem) Read(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.Read"

	path, err := f.Path(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// Path maps a key to its absolute path. Keys must be plain, non-hidden file
// names.
func (f *Filesystem) Path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return "", ErrInvalidKey
	}
	return filepath.Join(f.root, key), nil
}
