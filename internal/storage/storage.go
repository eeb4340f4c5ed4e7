package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// Store persists uploaded file bytes under opaque keys. File metadata and
// grants live in the database; the blob store only ever sees the
// generated storage key.
type Store interface {
	// Put writes the object. An existing object under the same key is
	// replaced.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open returns a reader over the object, or ErrObjectNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Remove deletes the object. Absence is not an error.
	Remove(ctx context.Context, key string) error
}
