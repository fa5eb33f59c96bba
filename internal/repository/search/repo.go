// Package search runs KNN queries against a collection's index and decodes
// the replies into scored results.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/veckey/internal/domain"
	"github.com/kailas-cloud/veckey/internal/store"
)

// searchStore is the slice of the store that KNN search needs.
type searchStore interface {
	SearchKNN(ctx context.Context, q *store.KNNQuery) (*store.SearchResult, error)
}

// Repo implements KNN search over the store.
type Repo struct {
	store searchStore
}

// New creates a search repository.
func New(s searchStore) *Repo {
	return &Repo{store: s}
}

// KNN returns the limit nearest points by cosine distance, ascending. A
// non-positive limit short-circuits to no results.
func (r *Repo) KNN(
	ctx context.Context, collection string, vector []float32, limit int, withVector bool,
) ([]domain.ScoredResult, error) {
	if limit <= 0 {
		return []domain.ScoredResult{}, nil
	}

	fields := []store.ReturnField{
		{Identifier: "$.id", Alias: "id"},
		{Identifier: "$.payload_data", Alias: "payload_data"},
		{Identifier: "__vector_score", Alias: "score"},
	}
	if withVector {
		fields = append(fields, store.ReturnField{Identifier: "$.vector", Alias: "vector"})
	}

	q := &store.KNNQuery{
		IndexName:    domain.IndexName(collection),
		Vector:       vector,
		K:            limit,
		ReturnFields: fields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", collection, err)
	}

	return parseResults(sr), nil
}

// parseResults converts a store.SearchResult into scored results.
func parseResults(sr *store.SearchResult) []domain.ScoredResult {
	if sr == nil || len(sr.Entries) == 0 {
		return []domain.ScoredResult{}
	}

	results := make([]domain.ScoredResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		results = append(results, parseEntry(entry))
	}
	return results
}

// parseEntry decodes one reply row. A missing id field falls back to the
// raw document key, and an unparseable score decodes to nil rather than 0.
func parseEntry(entry store.SearchEntry) domain.ScoredResult {
	id := entry.Fields["id"]
	if id == "" {
		id = entry.Key
	}

	var score *float64
	raw, ok := entry.Fields["score"]
	if !ok {
		// The server reports the KNN pseudo-field under its own name when
		// the AS alias is not applied.
		raw, ok = entry.Fields["__vector_score"]
	}
	if ok {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			score = &f
		}
	}

	var vector []float32
	if raw, ok := entry.Fields["vector"]; ok {
		// The index stores vectors as JSON arrays, so the return field
		// carries the serialized array text.
		_ = json.Unmarshal([]byte(raw), &vector)
	}

	return domain.ScoredResult{
		ID:      id,
		Score:   score,
		Payload: parsePayloadField(entry.Fields["payload_data"]),
		Vector:  vector,
	}
}

// parsePayloadField parses the payload_data JSON string with the same
// fallbacks as document retrieval: non-objects under _payload, unparseable
// text under _payload_raw, missing field as an empty payload.
func parsePayloadField(s string) domain.Payload {
	if s == "" {
		return domain.Payload{}
	}

	// A JSON null decodes into a nil map without error; it belongs under
	// _payload with the other non-objects.
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err == nil && m != nil {
		return domain.Payload(m)
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return domain.Payload{"_payload": v}
	}

	return domain.Payload{"_payload_raw": s}
}
