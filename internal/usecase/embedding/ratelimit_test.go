package embedding

import (
	"context"
	"testing"
)

func TestRateLimited_Delegates(t *testing.T) {
	inner := &mockGateway{}
	g := NewRateLimited(inner, 100, 1)

	result, err := g.EmbedTexts(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 1 {
		t.Fatalf("expected 1 inner call, got %d", len(inner.calls))
	}
	if len(result.Vectors) != 2 {
		t.Errorf("expected 2 vectors, got %d", len(result.Vectors))
	}
}

func TestRateLimited_LargeBatchSingleToken(t *testing.T) {
	inner := &mockGateway{}
	g := NewRateLimited(inner, 1, 1)

	texts := make([]string, 50)
	for i := range texts {
		texts[i] = "t"
	}
	if _, err := g.EmbedTexts(context.Background(), texts); err != nil {
		t.Fatalf("batch larger than burst must still pass: %v", err)
	}
}

func TestRateLimited_CanceledContext(t *testing.T) {
	inner := &mockGateway{}
	g := NewRateLimited(inner, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Drain the initial burst token so the second call has to wait.
	if _, err := g.EmbedTexts(context.Background(), []string{"warm"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.EmbedTexts(ctx, []string{"a"}); err == nil {
		t.Fatal("expected error from canceled context")
	}
	if len(inner.calls) != 1 {
		t.Errorf("inner must not be called after a failed wait, got %d calls", len(inner.calls))
	}
}

func TestRateLimited_VectorSize(t *testing.T) {
	inner := &mockGateway{dim: 1536}
	g := NewRateLimited(inner, 10, 1)

	if got := g.VectorSize(); got != 1536 {
		t.Errorf("expected 1536, got %d", got)
	}
}
