package repository

import "context"

// BlobStore is a whole-object key-value store. Every Put replaces the entire
// blob; there is no partial or append write.
type BlobStore interface {
	// Get returns the blob content, or (nil, nil) when the key does not exist.
	// Any other backend failure is returned as a storage error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the blob stored under key.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the blob. It returns false when the key did not exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Name identifies the backend in logs and health output.
	Name() string

	// Persistent is false for the in-process fallback, whose data is lost on exit.
	Persistent() bool
}
