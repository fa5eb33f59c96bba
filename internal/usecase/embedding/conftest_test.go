package embedding

import (
	"context"

	"github.com/kailas-cloud/veckey/internal/domain"
)

// mockGateway implements domain.EmbeddingGateway for tests.
type mockGateway struct {
	embedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
	calls   [][]string
	dim     int
}

func (m *mockGateway) EmbedTexts(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls = append(m.calls, texts)
	if m.embedFn != nil {
		return m.embedFn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, m.VectorSize())
	}
	return domain.BatchEmbeddingResult{
		Vectors:      vectors,
		PromptTokens: len(texts),
		TotalTokens:  len(texts),
	}, nil
}

func (m *mockGateway) VectorSize() int {
	if m.dim > 0 {
		return m.dim
	}
	return 4
}
