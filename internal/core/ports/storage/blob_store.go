package storage

import (
	"context"
	"io"
)

// BlobStore is the object store holding uploaded location files.
type BlobStore interface {
	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Open returns a reader over the object at path. The caller closes it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Save writes data to path, replacing any existing object.
	Save(ctx context.Context, path string, data []byte) error
}
