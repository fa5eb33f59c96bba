package domain

// Payload is an arbitrary nested mapping carried alongside a data point.
type Payload map[string]any

// DataPoint is a caller-supplied record to be embedded and indexed.
type DataPoint struct {
	ID      string
	Text    string // embeddable text; vectorized at insertion time
	Payload Payload
}

// ScoredResult is one search hit. Score is cosine distance (lower = more
// similar) and is nil when the backend did not report one. Vector is set
// only when the search requested it.
type ScoredResult struct {
	ID      string
	Payload Payload
	Score   *float64
	Vector  []float32
}

// StorageDocument is the on-wire JSON envelope stored per data point.
// The payload travels as a JSON-encoded string, not a nested object.
type StorageDocument struct {
	ID          string    `json:"id"`
	Vector      []float32 `json:"vector"`
	PayloadData string    `json:"payload_data"`
}
