package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/veckey/internal/domain"
)

// RateLimitedGateway throttles outbound embedding requests. One request
// consumes one token regardless of batch size, so large batches are never
// starved by a small burst.
type RateLimitedGateway struct {
	inner   domain.EmbeddingGateway
	limiter *rate.Limiter
}

// NewRateLimited wraps a gateway with a token-bucket limiter of rps
// requests per second and the given burst.
func NewRateLimited(inner domain.EmbeddingGateway, rps float64, burst int) *RateLimitedGateway {
	return &RateLimitedGateway{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// VectorSize reports the inner gateway's embedding width.
func (g *RateLimitedGateway) VectorSize() int {
	return g.inner.VectorSize()
}

// EmbedTexts blocks until the limiter grants a slot, then delegates.
func (g *RateLimitedGateway) EmbedTexts(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return g.inner.EmbedTexts(ctx, texts)
}
