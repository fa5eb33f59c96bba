// Package document persists data points as JSON documents keyed under the
// collection's key prefix.
package document

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/veckey/internal/domain"
)

// upsertConcurrency bounds parallel JSON.SET calls per batch.
const upsertConcurrency = 16

// jsonStore is the slice of the store that document storage needs.
type jsonStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, keys ...string) (int64, error)
}

// Repo implements data point persistence over the JSON store.
type Repo struct {
	store jsonStore
}

// New creates a document repository.
func New(s jsonStore) *Repo {
	return &Repo{store: s}
}

// Upsert writes one document per point, pairing points with their vectors by
// position. Writes run concurrently; the first failure cancels the rest.
func (r *Repo) Upsert(ctx context.Context, collection string, points []*domain.DataPoint, vectors [][]float32) error {
	if len(points) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d points", len(vectors), len(points))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(upsertConcurrency)

	for i := range points {
		g.Go(func() error {
			data, err := encodeStorageDoc(points[i], vectors[i])
			if err != nil {
				return err
			}
			key := domain.DocKey(collection, points[i].ID)
			if err := r.store.JSONSet(gctx, key, "$", data); err != nil {
				return fmt.Errorf("json.set %s: %w", key, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Get reads one data point back. Absent keys surface store.ErrKeyNotFound.
func (r *Repo) Get(ctx context.Context, collection, id string) (*domain.DataPoint, error) {
	key := domain.DocKey(collection, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		return nil, err
	}
	return decodePoint(id, raw)
}

// Delete removes the given points in one round trip and reports how many
// documents actually existed.
func (r *Repo) Delete(ctx context.Context, collection string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = domain.DocKey(collection, id)
	}

	n, err := r.store.Del(ctx, keys...)
	if err != nil {
		return 0, fmt.Errorf("del %d keys: %w", len(keys), err)
	}
	return n, nil
}
