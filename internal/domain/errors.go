package domain

import "errors"

var (
	// ErrEmbeddingGatewayRequired signals the adapter was constructed
	// without an embedding gateway.
	ErrEmbeddingGatewayRequired = errors.New("embedding gateway is required")
	// ErrCollectionNotFound signals a write against an absent collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrMissingQueryParameter signals a search with neither text nor vector.
	ErrMissingQueryParameter = errors.New("either query text or query vector is required")
	// ErrEmbeddingProviderError marks upstream embedding API failures so the
	// HTTP layer can map them to 502.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
