package store

// IndexFieldType identifies how a schema field is indexed.
type IndexFieldType string

// Supported field types. Documents are always indexed ON JSON.
const (
	IndexFieldTag    IndexFieldType = "TAG"
	IndexFieldVector IndexFieldType = "VECTOR"
)

// DistanceCosine is the only distance metric this adapter creates indexes
// with; scores it produces are cosine distances (lower = more similar).
const DistanceCosine = "COSINE"

// IndexDefinition describes a search index over JSON documents.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// IndexField is a single schema field. Vector fields use HNSW with FLOAT32
// elements; M and EFConstruct are emitted only when positive.
type IndexField struct {
	Name        string
	Type        IndexFieldType
	VectorDim   int
	M           int
	EFConstruct int
}

// IndexInfo is the subset of index metadata the adapter consumes.
type IndexInfo struct {
	NumDocs int
}
