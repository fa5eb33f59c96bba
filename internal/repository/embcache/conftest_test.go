package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veckey/internal/domain"
	"github.com/kailas-cloud/veckey/internal/store"
)

// mockGateway implements domain.EmbeddingGateway for tests.
type mockGateway struct {
	embedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
	calls   int
	dim     int
}

func (m *mockGateway) EmbedTexts(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = testVector(m.vectorSize())
	}
	return domain.BatchEmbeddingResult{
		Vectors:      vectors,
		PromptTokens: 3 * len(texts),
		TotalTokens:  3 * len(texts),
	}, nil
}

func (m *mockGateway) VectorSize() int { return m.vectorSize() }

func (m *mockGateway) vectorSize() int {
	if m.dim > 0 {
		return m.dim
	}
	return 4
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setFn        func(ctx context.Context, key string, value []byte) error
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, store.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedGateway(t *testing.T, inner *mockGateway, ttl time.Duration) (*CachedGateway, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cg := New(inner, ms, ttl, nil, zap.NewNop())
	return cg, ms
}

func testVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(i) * 0.001
	}
	return vec
}
