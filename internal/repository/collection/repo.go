// Package collection persists collections as search indexes. A collection
// exists exactly when its index does; there is no separate metadata record.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kailas-cloud/veckey/internal/domain"
	"github.com/kailas-cloud/veckey/internal/store"
)

// indexStore is the slice of the store that collection management needs.
type indexStore interface {
	CreateIndex(ctx context.Context, def *store.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexInfo(ctx context.Context, name string) (*store.IndexInfo, error)
	ListIndexes(ctx context.Context) ([]string, error)
}

// HNSWConfig holds HNSW index parameters. Zero values leave the server
// defaults in place.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements collection persistence over the index store.
type Repo struct {
	store indexStore
	hnsw  HNSWConfig

	mu sync.Mutex // serializes Ensure so concurrent callers create once
}

// New creates a collection repository.
func New(s indexStore) *Repo {
	return &Repo{store: s}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// Exists reports whether the collection's index is present.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	return r.store.IndexExists(ctx, domain.IndexName(name))
}

// Ensure creates the collection's index when absent. Racing creators and
// repeat calls both settle on the same index. Returns true when this call
// created it.
func (r *Repo) Ensure(ctx context.Context, name string, vectorDim int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.store.IndexExists(ctx, domain.IndexName(name))
	if err != nil {
		return false, fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return false, nil
	}

	def := r.buildIndex(name, vectorDim)
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, store.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return true, nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context, name string) (int, error) {
	info, err := r.store.IndexInfo(ctx, domain.IndexName(name))
	if err != nil {
		if errors.Is(err, store.ErrIndexNotFound) {
			return 0, domain.ErrCollectionNotFound
		}
		return 0, fmt.Errorf("index info %s: %w", name, err)
	}
	return info.NumDocs, nil
}

// DropAll removes every index on the server and returns the dropped names.
// Document keys stay behind; reindexing a collection picks them back up.
func (r *Repo) DropAll(ctx context.Context) ([]string, error) {
	names, err := r.store.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	dropped := make([]string, 0, len(names))
	for _, name := range names {
		if err := r.store.DropIndex(ctx, name); err != nil {
			return dropped, fmt.Errorf("drop index %s: %w", name, err)
		}
		dropped = append(dropped, name)
	}
	return dropped, nil
}

// buildIndex prepares the tag + HNSW cosine schema over the collection's
// key prefix.
func (r *Repo) buildIndex(name string, vectorDim int) *store.IndexDefinition {
	return &store.IndexDefinition{
		Name:     domain.IndexName(name),
		Prefixes: []string{domain.KeyPrefix(name)},
		Fields: []store.IndexField{
			{Name: "id", Type: store.IndexFieldTag},
			{
				Name:        "vector",
				Type:        store.IndexFieldVector,
				VectorDim:   vectorDim,
				M:           r.hnsw.M,
				EFConstruct: r.hnsw.EFConstruct,
			},
		},
	}
}
