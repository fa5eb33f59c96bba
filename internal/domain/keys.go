package domain

// Index identifiers and storage keys are pure functions of the collection
// name, so every layer derives them instead of passing them around.

// IndexName returns the search index identifier for a collection.
func IndexName(collection string) string {
	return "index:" + collection
}

// KeyPrefix returns the storage key prefix scoping a collection's documents.
func KeyPrefix(collection string) string {
	return "vdb:" + collection + ":"
}

// DocKey returns the storage key addressing a single data point.
func DocKey(collection, id string) string {
	return KeyPrefix(collection) + id
}
