package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction over a flat object namespace used to move
// backup payloads in and out of durable storage. Names may contain
// forward slashes; implementations treat them as opaque keys, not
// directories.
type Store interface {
	// Put writes the object wholesale, replacing any previous content
	// under the same name. The write is atomic where the backend allows
	// it: readers never observe a half-written object.
	Put(ctx context.Context, name string, r io.Reader) error

	// Open opens the object for sequential reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Stat reports the object's size without opening it.
	Stat(ctx context.Context, name string) (Info, error)

	// Delete removes the object. Deleting a missing object is a no-op.
	Delete(ctx context.Context, name string) error

	// List returns, in sorted order, the names of all objects starting
	// with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Info describes a stored object.
type Info struct {
	Name string
	Size int64
}
