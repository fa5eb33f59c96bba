package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veckey/internal/domain"
)

func TestEmbedTexts_Empty(t *testing.T) {
	inner := &mockGateway{}
	g := NewInstrumented(inner, "openai", "test-model", zap.NewNop())

	result, err := g.EmbedTexts(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 0 {
		t.Errorf("expected no inner calls, got %d", len(inner.calls))
	}
	if len(result.Vectors) != 0 {
		t.Errorf("expected no vectors, got %d", len(result.Vectors))
	}
}

func TestEmbedTexts_SingleChunk(t *testing.T) {
	inner := &mockGateway{}
	g := NewInstrumented(inner, "openai", "test-model", zap.NewNop())

	result, err := g.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 1 {
		t.Fatalf("expected 1 inner call, got %d", len(inner.calls))
	}
	if len(result.Vectors) != 3 {
		t.Errorf("expected 3 vectors, got %d", len(result.Vectors))
	}
	if result.TotalTokens != 3 {
		t.Errorf("expected 3 tokens, got %d", result.TotalTokens)
	}
}

func TestEmbedTexts_ChunksLargeBatches(t *testing.T) {
	inner := &mockGateway{}
	g := NewInstrumented(inner, "openai", "test-model", zap.NewNop()).WithMaxBatchSize(2)

	texts := []string{"t0", "t1", "t2", "t3", "t4"}
	result, err := g.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inner.calls) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(inner.calls))
	}
	if len(inner.calls[0]) != 2 || len(inner.calls[2]) != 1 {
		t.Errorf("unexpected chunk sizes: %v", inner.calls)
	}
	if len(result.Vectors) != 5 {
		t.Errorf("expected 5 vectors, got %d", len(result.Vectors))
	}
	if result.PromptTokens != 5 || result.TotalTokens != 5 {
		t.Errorf("expected summed tokens 5/5, got %d/%d", result.PromptTokens, result.TotalTokens)
	}
}

func TestEmbedTexts_ChunkOrderPreserved(t *testing.T) {
	inner := &mockGateway{}
	inner.embedFn = func(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = []float32{float32(len(text))}
		}
		return domain.BatchEmbeddingResult{Vectors: vectors}, nil
	}
	g := NewInstrumented(inner, "openai", "test-model", zap.NewNop()).WithMaxBatchSize(2)

	result, err := g.EmbedTexts(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Vectors[0][0] != 1 || result.Vectors[1][0] != 2 || result.Vectors[2][0] != 3 {
		t.Errorf("vectors out of order: %v", result.Vectors)
	}
}

func TestEmbedTexts_ChunkError(t *testing.T) {
	inner := &mockGateway{}
	inner.embedFn = func(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
		if texts[0] == "t2" {
			return domain.BatchEmbeddingResult{}, errors.New("provider down")
		}
		vectors := make([][]float32, len(texts))
		return domain.BatchEmbeddingResult{Vectors: vectors}, nil
	}
	g := NewInstrumented(inner, "openai", "test-model", zap.NewNop()).WithMaxBatchSize(2)

	_, err := g.EmbedTexts(context.Background(), []string{"t0", "t1", "t2"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(inner.calls) != 2 {
		t.Errorf("expected to stop after the failing chunk, got %d calls", len(inner.calls))
	}
}

func TestInstrumented_VectorSize(t *testing.T) {
	inner := &mockGateway{dim: 256}
	g := NewInstrumented(inner, "openai", "test-model", zap.NewNop())

	if got := g.VectorSize(); got != 256 {
		t.Errorf("expected 256, got %d", got)
	}
}
