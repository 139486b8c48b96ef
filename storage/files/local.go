package files

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// localStorage writes files under a media root on disk.
type localStorage struct {
	root string
}

var _ Storage = (*localStorage)(nil)

func NewLocalStorage(root string) (Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media root")
	}
	return &localStorage{root: root}, nil
}

func (s *localStorage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *localStorage) Save(_ context.Context, key string, r io.Reader) (string, error) {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "creating media dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "writing file")
	}
	return key, nil
}

func (s *localStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	return f, errors.Wrap(err, "opening file")
}

func (s *localStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting file")
	}
	return nil
}
