package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps objects as flat files under a root directory. Keys are
// generated UUIDs, never client-supplied names, so no path validation
// beyond a separator check is needed.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if necessary.
func NewDiskStore(root string) (*DiskStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("disk store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("disk store: create root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Put writes the object to a temporary file and renames it into place.
func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("disk store: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("disk store: write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("disk store: close temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("disk store: finalise object: %w", err)
	}
	return nil
}

// Open returns a reader over the stored object.
func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("disk store: open object: %w", err)
	}
	return f, nil
}

// Remove deletes the stored object. Absence is not an error.
func (s *DiskStore) Remove(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disk store: remove object: %w", err)
	}
	return nil
}

func (s *DiskStore) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("disk store: key is required")
	}
	if strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return "", fmt.Errorf("disk store: invalid key %q", key)
	}
	return filepath.Join(s.root, key), nil
}
