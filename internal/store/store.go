// Package store implements the durable, thread-safe key/value layer that
// backs the key-material store, grounded on the dual in-memory/embedded-db
// backend split in drand's chain/memdb and chain/boltdb packages.
package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound mirrors drand's chain/errors sentinel-error pattern for a
// missing key. No backend in this package returns it: Get returns
// (nil, nil) for a missing key, matching spec.md's Option<V> contract,
// Del of a missing key succeeds, and Exists reports false.
var ErrNotFound = errors.New("store: key not found")

// Store is the durable byte map spec.md §4.B describes: at most one
// entry per key, durable before Set returns, idempotent Del, and safe for
// concurrent use across distinct keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}
