// Package health aggregates readiness probes for the /health endpoint.
package health

import "context"

// StorePinger probes the vector store connection.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker probes the embedding provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
