package veckey

import (
	"time"

	"go.uber.org/zap"
)

// DefaultScoreThreshold is the batch-search score cutoff when neither the
// client nor the request sets one.
const DefaultScoreThreshold = 0.1

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	url      string
	username string
	password string
	db       int

	requestTimeout time.Duration
	dialRetries    int
	dialBackoff    time.Duration

	gateway EmbeddingGateway

	hnswM           int
	hnswEFConstruct int

	scoreThreshold float64

	logger *zap.Logger
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		url:            "valkey://localhost:6379",
		scoreThreshold: DefaultScoreThreshold,
		logger:         zap.NewNop(),
	}
}

// WithURL sets the connection URL (scheme://host:port). Host defaults to
// localhost, port to 6379.
func WithURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.url = url
	})
}

// WithAuth sets connection credentials.
func WithAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithDB selects the logical database.
func WithDB(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = n
	})
}

// WithRequestTimeout bounds each request on the wire. Defaults to 5 s.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.requestTimeout = d
	})
}

// WithDialRetry shapes the bounded exponential redial on connect: retries
// extra attempts, backoff doubling each time. Defaults: 3 retries from 1 s.
func WithDialRetry(retries int, backoff time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.dialRetries = retries
		c.dialBackoff = backoff
	})
}

// WithEmbeddingGateway sets the text vectorization provider. Required for
// CreateCollection, CreateDataPoints, and text queries; vector-only searches
// work without it.
func WithEmbeddingGateway(g EmbeddingGateway) Option {
	return optionFunc(func(c *clientConfig) {
		c.gateway = g
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Zero values leave the server defaults in place.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithScoreThreshold sets the default batch-search score cutoff.
func WithScoreThreshold(threshold float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.scoreThreshold = threshold
	})
}

// WithLogger enables structured logging for adapter operations.
// Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
