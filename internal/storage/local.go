package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/cryptshare/cryptshare/internal/errors"
)

// LocalStore stores blobs as files under a base directory. Keys may contain
// forward slashes which map to subdirectories.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a LocalStore rooted at basePath, creating the
// directory when missing.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if basePath == "" {
		return nil, errors.New("storage base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, apperrors.Wrap(err, "failed to create storage directory")
	}
	return &LocalStore{basePath: basePath}, nil
}

// Put writes the blob to a temporary file and renames it into place, so a
// crash mid-write never leaves a truncated blob under the final key.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return apperrors.Wrap(err, "failed to create blob directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return apperrors.Wrap(err, "failed to create temporary blob")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return apperrors.Wrap(err, "failed to write blob")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.Wrap(err, "failed to close blob")
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.Wrap(err, "failed to move blob into place")
	}

	return nil
}

// Get reads the blob stored under the key.
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read blob")
	}

	return data, nil
}

// Delete removes the blob. Missing blobs are ignored.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.Wrap(err, "failed to delete blob")
	}

	return nil
}

// resolve maps a key to a path under basePath and rejects keys that would
// escape it.
func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("blob key cannot be empty")
	}

	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(path, filepath.Clean(s.basePath)+string(os.PathSeparator)) {
		return "", errors.New("blob key escapes storage directory")
	}

	return path, nil
}
