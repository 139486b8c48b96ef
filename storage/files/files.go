// Package files stores uploaded lecture material and submission attachments.
package files

import (
	"context"
	"io"
	"path/filepath"

	"github.com/google/uuid"
)

// Storage persists uploads under opaque keys. Save returns the key the file
// is retrievable by.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MakeKey builds a collision-free key under prefix, keeping the original
// extension so content types survive the round trip.
func MakeKey(prefix, filename string) string {
	return prefix + "/" + uuid.NewString() + filepath.Ext(filename)
}
