package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists and serves generated thumbnail objects.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// LocalStorage keeps objects on the local filesystem under a base
// directory. Names are cleaned and confined to the base.
type LocalStorage struct {
	base string
}

// NewLocalStorage constructs filesystem-backed storage rooted at base.
func NewLocalStorage(base string) *LocalStorage {
	return &LocalStorage{base: filepath.Clean(base)}
}

func (s *LocalStorage) resolve(name string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(name))
	full := filepath.Join(s.base, cleaned)
	if full != s.base && !strings.HasPrefix(full, s.base+string(filepath.Separator)) {
		return "", fmt.Errorf("local storage: name %q escapes base", name)
	}
	return full, nil
}

// Save writes the object, creating parent directories as needed.
func (s *LocalStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	full, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("local storage mkdir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("local storage create %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("local storage write %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("local storage close %s: %w", name, err)
	}

	return full, nil
}

// Open returns a reader for the object; fs.ErrNotExist when absent.
func (s *LocalStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	full, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Remove deletes the object; removing an absent object is a no-op.
func (s *LocalStorage) Remove(_ context.Context, name string) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local storage remove %s: %w", name, err)
	}
	return nil
}

var _ Storage = (*LocalStorage)(nil)
