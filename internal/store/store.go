// Package store defines the database facade the adapter is built against.
// Implementations live in subpackages (currently valkey via rueidis).
package store

import (
	"context"
	"time"
)

// Store is the full database facade. Consumers depend on the narrow
// sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	JSONStore
	KVStore
	IndexAdmin
	Searcher

	// Connect establishes the connection eagerly. Every operation also
	// connects lazily on first use, so calling Connect is optional.
	Connect(ctx context.Context) error
	// Close shuts the connection down and resets to disconnected.
	// Close-time errors are swallowed.
	Close()
	// WaitForReady polls Ping until the store responds or timeout expires.
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	// Del removes keys in one round trip and returns the number actually
	// removed; absent keys are not an error.
	Del(ctx context.Context, keys ...string) (int64, error)
}

// KVStore provides plain key-value operations (used for the embedding cache).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexAdmin provides search index lifecycle operations.
type IndexAdmin interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	// IndexExists probes via index metadata; absence is (false, nil),
	// transport failures are (false, err).
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexInfo(ctx context.Context, name string) (*IndexInfo, error)
	ListIndexes(ctx context.Context) ([]string, error)
}

// Searcher provides KNN search over an index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
