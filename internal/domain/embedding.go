package domain

import "context"

// EmbeddingGateway is the external text vectorization contract. The adapter
// derives index dimensionality from VectorSize and embeds whole batches in
// one call.
type EmbeddingGateway interface {
	EmbedTexts(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
	VectorSize() int
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BatchEmbeddingResult carries one vector per input text plus aggregate
// token usage for the decorator chain.
type BatchEmbeddingResult struct {
	Vectors      [][]float32
	PromptTokens int
	TotalTokens  int
}
