package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/voice-studio/internal/ttsutils"
)

const filePermissions = 0o600

// Store errors.
var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// DirStore implements core.ObjectStore on a session directory. Close removes
// the directory and every object in it.
type DirStore struct {
	dir string
}

// NewDirStore creates dir if needed.
func NewDirStore(dir string) (*DirStore, error) {
	err := ttsutils.EnsureDir(dir)
	if err != nil {
		return nil, err
	}

	return &DirStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// Path returns the file path for key.
func (s *DirStore) Path(key string) (string, error) {
	if key == "" || key != ttsutils.SanitizeFilename(key) || key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return filepath.Join(s.dir, key), nil
}

// Download reads an object.
func (s *DirStore) Download(_ context.Context, key string) ([]byte, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("failed to read object '%s': %w", key, err)
	}

	return data, nil
}

// Upload writes an object.
func (s *DirStore) Upload(_ context.Context, key string, data []byte) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, data, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write object '%s': %w", key, err)
	}

	return nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *DirStore) Delete(_ context.Context, key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object '%s': %w", key, err)
	}

	return nil
}

// Close removes the session directory.
func (s *DirStore) Close() error {
	err := os.RemoveAll(s.dir)
	if err != nil {
		return fmt.Errorf("failed to remove session dir %s: %w", s.dir, err)
	}

	return nil
}
