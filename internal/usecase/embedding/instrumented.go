// Package embedding decorates the embedding gateway with logging, batch
// chunking, and outbound rate limiting.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/veckey/internal/domain"
)

// DefaultMaxAPIBatchSize bounds the number of texts sent in one API request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedGateway wraps an embedding gateway with logging and chunking.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedGateway struct {
	inner        domain.EmbeddingGateway
	provider     string
	model        string
	maxBatchSize int
	logger       *zap.Logger
}

// NewInstrumented wraps a gateway with observability.
func NewInstrumented(
	inner domain.EmbeddingGateway, provider, model string, logger *zap.Logger,
) *InstrumentedGateway {
	return &InstrumentedGateway{
		inner:        inner,
		provider:     provider,
		model:        model,
		maxBatchSize: DefaultMaxAPIBatchSize,
		logger:       logger,
	}
}

// WithMaxBatchSize configures the per-request batch bound.
func (p *InstrumentedGateway) WithMaxBatchSize(size int) *InstrumentedGateway {
	if size > 0 {
		p.maxBatchSize = size
	}
	return p
}

// VectorSize reports the inner gateway's embedding width.
func (p *InstrumentedGateway) VectorSize() int {
	return p.inner.VectorSize()
}

// EmbedTexts splits the batch into provider-sized chunks and delegates.
func (p *InstrumentedGateway) EmbedTexts(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// embedChunked forwards the texts in chunks of maxBatchSize, stitching the
// vectors back together in input order.
func (p *InstrumentedGateway) embedChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	var allVectors [][]float32
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(texts); offset += p.maxBatchSize {
		end := min(offset+p.maxBatchSize, len(texts))
		chunk := texts[offset:end]

		chunkResult, err := p.inner.EmbedTexts(ctx, chunk)
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		allVectors = append(allVectors, chunkResult.Vectors...)
		totalPrompt += chunkResult.PromptTokens
		totalTokens += chunkResult.TotalTokens
	}

	return domain.BatchEmbeddingResult{
		Vectors:      allVectors,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}
