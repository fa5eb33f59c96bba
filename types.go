package veckey

import (
	"context"

	"github.com/kailas-cloud/veckey/internal/domain"
)

// Payload is an arbitrary nested mapping stored alongside a data point.
type Payload map[string]any

// DataPoint is a record to embed and index. Text is vectorized through the
// embedding gateway at insertion time.
type DataPoint struct {
	ID      string
	Text    string
	Payload Payload
}

// ScoredResult is one search hit. Score is cosine distance (lower is more
// similar) and is nil when the server did not report one. Vector is set only
// when the search requested it.
type ScoredResult struct {
	ID      string
	Payload Payload
	Score   *float64
	Vector  []float32
}

// SearchRequest describes a single KNN query.
type SearchRequest struct {
	// QueryText is embedded through the gateway when QueryVector is empty.
	QueryText string
	// QueryVector runs the search directly, skipping the gateway.
	QueryVector []float32
	// Limit caps the result count. Nil substitutes the collection's current
	// document count.
	Limit *int
	// WithVector includes each hit's stored vector in the results.
	WithVector bool
}

// BatchSearchRequest describes a set of text queries answered together: one
// gateway call embeds every text, then the searches run concurrently.
type BatchSearchRequest struct {
	QueryTexts []string
	// Limit caps each query's result count. Nil substitutes the
	// collection's current document count.
	Limit *int
	// WithVectors includes each hit's stored vector in the results.
	WithVectors bool
	// ScoreThreshold keeps hits with cosine distance strictly below it.
	// Nil uses the client's configured default.
	ScoreThreshold *float64
}

// EmbeddingGateway turns texts into fixed-width vectors. VectorSize sizes
// new collection indexes.
type EmbeddingGateway interface {
	EmbedTexts(ctx context.Context, texts []string) (EmbeddingResult, error)
	VectorSize() int
}

// EmbeddingResult carries one vector per input text plus token usage.
type EmbeddingResult struct {
	Vectors      [][]float32
	PromptTokens int
	TotalTokens  int
}

// Sentinel errors surfaced by the adapter. Match with errors.Is.
var (
	// ErrEmbeddingGatewayRequired: the operation needs text vectorization
	// but the client was built without WithEmbeddingGateway.
	ErrEmbeddingGatewayRequired = domain.ErrEmbeddingGatewayRequired
	// ErrCollectionNotFound: a write addressed a collection that does not
	// exist.
	ErrCollectionNotFound = domain.ErrCollectionNotFound
	// ErrMissingQueryParameter: a search carried neither text nor vector.
	ErrMissingQueryParameter = domain.ErrMissingQueryParameter
)
