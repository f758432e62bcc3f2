// Package storage provides blob storage backends for encrypted file bodies.
// Blobs are opaque nonce-prefixed ciphertexts and are written once: they are
// never updated in place, only created and deleted.
package storage

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned when the requested blob does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore stores encrypted file bodies under opaque keys.
type BlobStore interface {
	// Put writes a blob under the given key. Keys are unique per file, so
	// an existing blob under the same key indicates a bug in key generation.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the blob stored under the key. Returns ErrBlobNotFound when
	// the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob. Deleting a missing key is not an error, so
	// compensating deletes after failed uploads are idempotent.
	Delete(ctx context.Context, key string) error
}
