// Package fsxlocal implements the fsx store on the local filesystem, for
// development and tests.
package fsxlocal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Abraxas-365/chatstream/pkg/fsx"
)

// Store keeps objects as files under one root directory
type Store struct {
	root string
}

// NewStore creates a local store rooted at dir
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Put writes one object
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (fsx.Object, error) {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fsx.Object{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fsx.Object{}, err
	}
	return fsx.Object{
		Key:         key,
		URL:         "file://" + path,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Get reads one object
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return os.ReadFile(s.path(key))
}

// Delete removes one object
func (s *Store) Delete(ctx context.Context, key string) error {
	return os.Remove(s.path(key))
}
