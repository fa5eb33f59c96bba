package veckey

// CollectionOption configures collection creation.
type CollectionOption func(*collectionConfig)

type collectionConfig struct {
	payloadSchema any
}

// WithPayloadSchema attaches a caller-defined payload schema to collection
// creation. The schema is currently accepted and ignored: the index always
// derives its fields (id tag + vector) internally, and payloads stay
// schemaless.
func WithPayloadSchema(schema any) CollectionOption {
	return func(c *collectionConfig) {
		c.payloadSchema = schema
	}
}
