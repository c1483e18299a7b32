package media

import (
	"context"
	"io"
)

// StorageProvider abstracts object storage operations.
type StorageProvider interface {
	// Put writes data to storage under the given key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Open returns a reader for the given storage key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
	// AccessPath returns the stable public URL for a storage key.
	AccessPath(key string) string
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
