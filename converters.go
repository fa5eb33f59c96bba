package veckey

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/veckey/internal/domain"
)

// toDomainPoints converts public points for the repositories.
func toDomainPoints(points []DataPoint) []*domain.DataPoint {
	out := make([]*domain.DataPoint, len(points))
	for i, p := range points {
		out[i] = &domain.DataPoint{
			ID:      p.ID,
			Text:    p.Text,
			Payload: domain.Payload(p.Payload),
		}
	}
	return out
}

// fromDomainResults converts repository hits to the public shape.
func fromDomainResults(results []domain.ScoredResult) []ScoredResult {
	out := make([]ScoredResult, len(results))
	for i, r := range results {
		out[i] = ScoredResult{
			ID:      r.ID,
			Payload: Payload(r.Payload),
			Score:   r.Score,
			Vector:  r.Vector,
		}
	}
	return out
}

// gatewayAdapter wraps the public EmbeddingGateway to satisfy the internal
// contract.
type gatewayAdapter struct {
	inner EmbeddingGateway
}

func (a *gatewayAdapter) EmbedTexts(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.inner.EmbedTexts(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed texts: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Vectors:      r.Vectors,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *gatewayAdapter) VectorSize() int {
	return a.inner.VectorSize()
}
