// Package store provides opaque byte-blob storage keyed by document
// identity. Every backend guarantees atomic replacement: a reader never
// observes a torn blob.
package store

import "context"

// Store is the blob-storage contract. Keys are structured document
// identities: "registry", "bulletins", "list/<id>".
type Store interface {
	// Read returns the blob under key, or (nil, nil) when absent.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write atomically replaces the blob under key.
	Write(ctx context.Context, key string, data []byte) error
	// Delete removes the blob under key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close()
}
