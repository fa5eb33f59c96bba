package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/veckey/internal/domain"
	"github.com/kailas-cloud/veckey/internal/store"
)

func TestEmbedTexts_AllMisses(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner, time.Hour)

	var cachedKeys []string
	var gotTTL time.Duration
	ms.setWithTTLFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		cachedKeys = append(cachedKeys, key)
		gotTTL = ttl
		return nil
	}

	result, err := cg.EmbedTexts(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if len(result.Vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(result.Vectors))
	}
	if result.TotalTokens != 6 {
		t.Errorf("expected 6 total tokens, got %d", result.TotalTokens)
	}
	if len(cachedKeys) != 2 {
		t.Errorf("expected 2 cache writes, got %d", len(cachedKeys))
	}
	if gotTTL != time.Hour {
		t.Errorf("expected 1h ttl, got %v", gotTTL)
	}
}

func TestEmbedTexts_AllHits(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner, time.Hour)

	cached := vectorToCacheBytes(testVector(4))
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := cg.EmbedTexts(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 0 {
		t.Errorf("expected no inner calls, got %d", inner.calls)
	}
	if result.TotalTokens != 0 {
		t.Errorf("expected 0 tokens on full hit, got %d", result.TotalTokens)
	}
	if len(result.Vectors) != 2 || len(result.Vectors[0]) != 4 {
		t.Errorf("unexpected vectors: %v", result.Vectors)
	}
}

func TestEmbedTexts_PartialHit(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner, time.Hour)

	hitKey := cg.cacheKey("cached")
	hitVec := []float32{9, 9, 9, 9}
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		if key == hitKey {
			return vectorToCacheBytes(hitVec), nil
		}
		return nil, store.ErrKeyNotFound
	}

	var gotTexts []string
	inner.embedFn = func(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
		gotTexts = texts
		return domain.BatchEmbeddingResult{
			Vectors:      [][]float32{{1, 1, 1, 1}},
			PromptTokens: 3,
			TotalTokens:  3,
		}, nil
	}

	result, err := cg.EmbedTexts(context.Background(), []string{"cached", "fresh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotTexts) != 1 || gotTexts[0] != "fresh" {
		t.Errorf("expected inner call with [fresh], got %v", gotTexts)
	}
	if result.Vectors[0][0] != 9 {
		t.Errorf("expected cached vector first, got %v", result.Vectors[0])
	}
	if result.Vectors[1][0] != 1 {
		t.Errorf("expected fresh vector second, got %v", result.Vectors[1])
	}
	if result.TotalTokens != 3 {
		t.Errorf("expected tokens for the miss only, got %d", result.TotalTokens)
	}
}

func TestEmbedTexts_InnerError(t *testing.T) {
	inner := &mockGateway{}
	inner.embedFn = func(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
		return domain.BatchEmbeddingResult{}, errors.New("provider down")
	}
	cg, _ := newTestCachedGateway(t, inner, time.Hour)

	_, err := cg.EmbedTexts(context.Background(), []string{"one"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedTexts_VectorCountMismatch(t *testing.T) {
	inner := &mockGateway{}
	inner.embedFn = func(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
		return domain.BatchEmbeddingResult{Vectors: [][]float32{}}, nil
	}
	cg, _ := newTestCachedGateway(t, inner, time.Hour)

	_, err := cg.EmbedTexts(context.Background(), []string{"one"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedTexts_CacheReadFailsOpen(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner, time.Hour)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}

	result, err := cg.EmbedTexts(context.Background(), []string{"one"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected fallback to inner, got %d calls", inner.calls)
	}
	if len(result.Vectors) != 1 {
		t.Errorf("expected 1 vector, got %d", len(result.Vectors))
	}
}

func TestEmbedTexts_CacheWriteFailsOpen(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner, time.Hour)

	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("readonly replica")
	}

	if _, err := cg.EmbedTexts(context.Background(), []string{"one"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmbedTexts_ZeroTTLUsesPlainSet(t *testing.T) {
	inner := &mockGateway{}
	cg, ms := newTestCachedGateway(t, inner, 0)

	setCalled := false
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		setCalled = true
		return nil
	}
	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		t.Error("SetWithTTL must not be called with zero ttl")
		return nil
	}

	if _, err := cg.EmbedTexts(context.Background(), []string{"one"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !setCalled {
		t.Error("expected plain Set call")
	}
}

func TestVectorSize_Delegates(t *testing.T) {
	inner := &mockGateway{dim: 1536}
	cg, _ := newTestCachedGateway(t, inner, time.Hour)

	if got := cg.VectorSize(); got != 1536 {
		t.Errorf("expected 1536, got %d", got)
	}
}

func TestCacheBytesRoundTrip(t *testing.T) {
	vec := []float32{0.1, -2.5, 3}
	got, err := bytesToVector(vectorToCacheBytes(vec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("expected %d components, got %d", len(vec), len(got))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("component %d: expected %f, got %f", i, vec[i], got[i])
		}
	}
}

func TestBytesToVector_InvalidLength(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated data")
	}
}
