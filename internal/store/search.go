package store

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []ReturnField
}

// ReturnField selects one attribute of each hit, optionally renamed.
type ReturnField struct {
	Identifier string
	Alias      string
}

// SearchResult is the output of a search operation. Field values are
// normalized to text at the protocol boundary; no raw bytes leak upward.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit keyed by its storage key.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
