package veckey

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/veckey/internal/store"
)

// mockStore implements store.Store with overridable behavior per test.
// Defaults: every index exists and is empty, reads miss, writes succeed.
type mockStore struct {
	pingFn        func(ctx context.Context) error
	jsonSetFn     func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn     func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn         func(ctx context.Context, keys ...string) (int64, error)
	getFn         func(ctx context.Context, key string) ([]byte, error)
	setFn         func(ctx context.Context, key string, value []byte) error
	setWithTTLFn  func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	createIndexFn func(ctx context.Context, def *store.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	indexInfoFn   func(ctx context.Context, name string) (*store.IndexInfo, error)
	listIndexesFn func(ctx context.Context) ([]string, error)
	searchKNNFn   func(ctx context.Context, q *store.KNNQuery) (*store.SearchResult, error)

	closed bool
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, store.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return int64(len(keys)), nil
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, store.ErrKeyNotFound
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *store.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return true, nil
}

func (m *mockStore) IndexInfo(ctx context.Context, name string) (*store.IndexInfo, error) {
	if m.indexInfoFn != nil {
		return m.indexInfoFn(ctx, name)
	}
	return &store.IndexInfo{}, nil
}

func (m *mockStore) ListIndexes(ctx context.Context) ([]string, error) {
	if m.listIndexesFn != nil {
		return m.listIndexesFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *store.KNNQuery) (*store.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &store.SearchResult{}, nil
}

func (m *mockStore) Connect(_ context.Context) error { return nil }

func (m *mockStore) Close() { m.closed = true }

func (m *mockStore) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// mockGateway implements EmbeddingGateway. The default returns one zero
// vector of VectorSize per text.
type mockGateway struct {
	embedFn func(ctx context.Context, texts []string) (EmbeddingResult, error)
	calls   [][]string
	dim     int
}

func (m *mockGateway) EmbedTexts(ctx context.Context, texts []string) (EmbeddingResult, error) {
	m.calls = append(m.calls, texts)
	if m.embedFn != nil {
		return m.embedFn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, m.VectorSize())
	}
	return EmbeddingResult{Vectors: vectors, TotalTokens: len(texts)}, nil
}

func (m *mockGateway) VectorSize() int {
	if m.dim > 0 {
		return m.dim
	}
	return 4
}

// newTestClient wires a Client over the mock store with a mock gateway.
// Options apply on top and may replace the gateway.
func newTestClient(t *testing.T, ms *mockStore, opts ...Option) (*Client, *mockGateway) {
	t.Helper()

	gw := &mockGateway{}
	cfg := defaultConfig()
	cfg.gateway = gw
	for _, o := range opts {
		o.apply(cfg)
	}
	return newClient(ms, cfg), gw
}

func floatPtr(f float64) *float64 { return &f }

func intPtr(n int) *int { return &n }
