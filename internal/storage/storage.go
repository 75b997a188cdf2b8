// Package storage provides the durable key-value blob store the catalog
// snapshot is persisted to. Backends are interchangeable: SQLite for the
// default single-node deployment, Redis for shared hosting, memory for
// tests and throwaway runs.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no blob exists under the key.
var ErrKeyNotFound = errors.New("storage: key not found")

// BlobStore is a whole-value key-value store. Values are opaque byte blobs;
// Put overwrites unconditionally.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
