package veckey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/veckey/internal/domain"
	"github.com/kailas-cloud/veckey/internal/metrics"
	collectionrepo "github.com/kailas-cloud/veckey/internal/repository/collection"
	documentrepo "github.com/kailas-cloud/veckey/internal/repository/document"
	searchrepo "github.com/kailas-cloud/veckey/internal/repository/search"
	"github.com/kailas-cloud/veckey/internal/store"
	valkeystore "github.com/kailas-cloud/veckey/internal/store/valkey"
)

// batchSearchConcurrency bounds parallel KNN queries per batch.
const batchSearchConcurrency = 16

// Client is the veckey entry point. All methods are safe for concurrent use;
// the connection dials once on first use and is shared.
type Client struct {
	store       store.Store
	collections *collectionrepo.Repo
	documents   *documentrepo.Repo
	searches    *searchrepo.Repo
	gateway     domain.EmbeddingGateway // nil without WithEmbeddingGateway

	scoreThreshold float64
	logger         *zap.Logger
}

// New creates a Client. The connection dials lazily on first use; call
// Connect to dial eagerly.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	st, err := valkeystore.New(valkeystore.Config{
		URL:            cfg.url,
		Username:       cfg.username,
		Password:       cfg.password,
		DB:             cfg.db,
		RequestTimeout: cfg.requestTimeout,
		DialRetries:    cfg.dialRetries,
		DialBackoff:    cfg.dialBackoff,
	})
	if err != nil {
		return nil, fmt.Errorf("veckey: %w", err)
	}

	return newClient(st, cfg), nil
}

// newClient wires the repositories over a store. Tests inject fakes here.
func newClient(st store.Store, cfg *clientConfig) *Client {
	collections := collectionrepo.New(st)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		collections = collections.WithHNSW(collectionrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}

	var gateway domain.EmbeddingGateway
	if cfg.gateway != nil {
		gateway = &gatewayAdapter{inner: cfg.gateway}
	}

	return &Client{
		store:          st,
		collections:    collections,
		documents:      documentrepo.New(st),
		searches:       searchrepo.New(st),
		gateway:        gateway,
		scoreThreshold: cfg.scoreThreshold,
		logger:         cfg.logger,
	}
}

// Connect dials eagerly. Optional: every operation connects on first use.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Close releases the connection. Close-time errors are swallowed; the next
// operation reconnects.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls the database until it responds or the timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	if err := c.store.WaitForReady(ctx, timeout); err != nil {
		return fmt.Errorf("wait for ready: %w", err)
	}
	return nil
}

// HasCollection reports whether the collection's index exists. Probe
// failures of any kind read as absence.
func (c *Client) HasCollection(ctx context.Context, collection string) bool {
	defer c.observe("has_collection", time.Now(), nil)

	exists, err := c.collections.Exists(ctx, collection)
	if err != nil {
		c.logger.Debug("collection existence probe failed",
			zap.String("collection", collection), zap.Error(err))
		return false
	}
	return exists
}

// CreateCollection creates the collection's index when absent; repeat calls
// are no-ops. The vector dimension comes from the embedding gateway. A
// payload schema supplied via WithPayloadSchema is accepted and ignored.
func (c *Client) CreateCollection(ctx context.Context, collection string, opts ...CollectionOption) (err error) {
	defer c.observe("create_collection", time.Now(), &err)

	if c.gateway == nil {
		return domain.ErrEmbeddingGatewayRequired
	}

	ccfg := &collectionConfig{}
	for _, o := range opts {
		o(ccfg)
	}
	if ccfg.payloadSchema != nil {
		c.logger.Debug("payload schema ignored, index fields are derived internally",
			zap.String("collection", collection))
	}

	created, err := c.collections.Ensure(ctx, collection, c.gateway.VectorSize())
	if err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}
	if !created {
		c.logger.Info("collection already exists", zap.String("collection", collection))
		return nil
	}
	c.logger.Info("collection created",
		zap.String("collection", collection),
		zap.Int("vector_dim", c.gateway.VectorSize()))
	return nil
}

// CountDataPoints returns the number of indexed documents in the collection.
func (c *Client) CountDataPoints(ctx context.Context, collection string) (n int, err error) {
	defer c.observe("count_data_points", time.Now(), &err)

	n, err = c.collections.Count(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("count data points %s: %w", collection, err)
	}
	return n, nil
}

// CreateDataPoints embeds the points' texts in one gateway call and writes
// the documents concurrently. The collection must exist. Empty input writes
// nothing and succeeds.
func (c *Client) CreateDataPoints(ctx context.Context, collection string, points []DataPoint) (err error) {
	defer c.observe("create_data_points", time.Now(), &err)

	if len(points) == 0 {
		return nil
	}
	if c.gateway == nil {
		return domain.ErrEmbeddingGatewayRequired
	}

	exists, err := c.collections.Exists(ctx, collection)
	if err != nil {
		return fmt.Errorf("create data points %s: %w", collection, err)
	}
	if !exists {
		return fmt.Errorf("create data points %s: %w", collection, domain.ErrCollectionNotFound)
	}

	texts := make([]string, len(points))
	for i, p := range points {
		texts[i] = p.Text
	}
	emb, err := c.gateway.EmbedTexts(ctx, texts)
	if err != nil {
		c.logger.Error("batch embedding failed",
			zap.String("collection", collection),
			zap.Int("points", len(points)), zap.Error(err))
		return err
	}

	if err := c.documents.Upsert(ctx, collection, toDomainPoints(points), emb.Vectors); err != nil {
		c.logger.Error("data point write failed",
			zap.String("collection", collection),
			zap.Int("points", len(points)), zap.Error(err))
		return err
	}

	c.logger.Debug("data points created",
		zap.String("collection", collection),
		zap.Int("points", len(points)),
		zap.Int("total_tokens", emb.TotalTokens))
	return nil
}

// Retrieve reads payloads by id, skipping absent ids. Any unexpected failure
// logs a warning and yields an empty result; Retrieve never errors.
func (c *Client) Retrieve(ctx context.Context, collection string, ids []string) []Payload {
	defer c.observe("retrieve", time.Now(), nil)

	payloads := make([]Payload, 0, len(ids))
	for _, id := range ids {
		point, err := c.documents.Get(ctx, collection, id)
		if err != nil {
			if errors.Is(err, store.ErrKeyNotFound) {
				continue
			}
			c.logger.Warn("retrieve failed",
				zap.String("collection", collection),
				zap.String("id", id), zap.Error(err))
			return []Payload{}
		}
		payloads = append(payloads, Payload(point.Payload))
	}
	return payloads
}

// Search returns the nearest points to the query by cosine distance,
// ascending. One of QueryText and QueryVector must be set; an absent
// collection yields an empty result, not an error.
func (c *Client) Search(ctx context.Context, collection string, req SearchRequest) (results []ScoredResult, err error) {
	defer c.observe("search", time.Now(), &err)

	if req.QueryText == "" && len(req.QueryVector) == 0 {
		return nil, domain.ErrMissingQueryParameter
	}

	exists, probeErr := c.collections.Exists(ctx, collection)
	if probeErr != nil || !exists {
		c.logger.Warn("search against absent collection",
			zap.String("collection", collection), zap.Error(probeErr))
		return []ScoredResult{}, nil
	}

	limit, err := c.resolveLimit(ctx, collection, req.Limit)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []ScoredResult{}, nil
	}

	vector := req.QueryVector
	if len(vector) == 0 {
		vector, err = c.embedQuery(ctx, req.QueryText)
		if err != nil {
			return nil, err
		}
	}

	hits, err := c.searches.KNN(ctx, collection, vector, limit, req.WithVector)
	if err != nil {
		c.logger.Error("search failed",
			zap.String("collection", collection), zap.Error(err))
		return nil, err
	}
	return fromDomainResults(hits), nil
}

// BatchSearch embeds every query text in one gateway call, runs the searches
// concurrently, and filters each query's hits to scores strictly below the
// threshold. Output is positionally aligned with the input, empty sub-slices
// included. An absent collection yields an empty top-level slice.
func (c *Client) BatchSearch(ctx context.Context, collection string, req BatchSearchRequest) (results [][]ScoredResult, err error) {
	defer c.observe("batch_search", time.Now(), &err)

	exists, probeErr := c.collections.Exists(ctx, collection)
	if probeErr != nil || !exists {
		c.logger.Warn("batch search against absent collection",
			zap.String("collection", collection), zap.Error(probeErr))
		return [][]ScoredResult{}, nil
	}
	if len(req.QueryTexts) == 0 {
		return [][]ScoredResult{}, nil
	}
	if c.gateway == nil {
		return nil, domain.ErrEmbeddingGatewayRequired
	}

	emb, err := c.gateway.EmbedTexts(ctx, req.QueryTexts)
	if err != nil {
		c.logger.Error("batch embedding failed",
			zap.String("collection", collection),
			zap.Int("queries", len(req.QueryTexts)), zap.Error(err))
		return nil, err
	}
	if len(emb.Vectors) != len(req.QueryTexts) {
		return nil, fmt.Errorf("got %d vectors for %d queries", len(emb.Vectors), len(req.QueryTexts))
	}

	limit, err := c.resolveLimit(ctx, collection, req.Limit)
	if err != nil {
		return nil, err
	}

	threshold := c.scoreThreshold
	if req.ScoreThreshold != nil {
		threshold = *req.ScoreThreshold
	}

	out := make([][]ScoredResult, len(emb.Vectors))
	if limit <= 0 {
		for i := range out {
			out[i] = []ScoredResult{}
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSearchConcurrency)
	for i, vector := range emb.Vectors {
		g.Go(func() error {
			hits, err := c.searches.KNN(gctx, collection, vector, limit, req.WithVectors)
			if err != nil {
				return err
			}
			out[i] = filterByScore(fromDomainResults(hits), threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("batch search failed",
			zap.String("collection", collection), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// DeleteDataPoints removes points by id in one round trip and returns the
// number of documents that actually existed. Absent ids count as zero, not
// as an error.
func (c *Client) DeleteDataPoints(ctx context.Context, collection string, ids []string) (n int64, err error) {
	defer c.observe("delete_data_points", time.Now(), &err)

	n, err = c.documents.Delete(ctx, collection, ids)
	if err != nil {
		c.logger.Error("delete failed",
			zap.String("collection", collection),
			zap.Int("ids", len(ids)), zap.Error(err))
		return 0, err
	}
	c.logger.Debug("data points deleted",
		zap.String("collection", collection),
		zap.Int("requested", len(ids)), zap.Int64("removed", n))
	return n, nil
}

// Prune drops every search index on the server. Stored documents keep their
// keys until deleted or expired; recreating a collection picks them back up.
// The first drop failure stops the sweep.
func (c *Client) Prune(ctx context.Context) (err error) {
	defer c.observe("prune", time.Now(), &err)

	dropped, err := c.collections.DropAll(ctx)
	for _, name := range dropped {
		c.logger.Info("dropped index", zap.String("index", name))
	}
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	return nil
}

// resolveLimit substitutes the collection's document count when the caller
// left the limit unset.
func (c *Client) resolveLimit(ctx context.Context, collection string, limit *int) (int, error) {
	if limit != nil {
		return *limit, nil
	}
	n, err := c.collections.Count(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("resolve limit %s: %w", collection, err)
	}
	return n, nil
}

// embedQuery turns one query text into a vector.
func (c *Client) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if c.gateway == nil {
		return nil, domain.ErrEmbeddingGatewayRequired
	}
	emb, err := c.gateway.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(emb.Vectors) != 1 {
		return nil, fmt.Errorf("got %d vectors for one query", len(emb.Vectors))
	}
	return emb.Vectors[0], nil
}

// filterByScore keeps hits whose score is reported and strictly below the
// cutoff (cosine distance, lower is more similar).
func filterByScore(hits []ScoredResult, threshold float64) []ScoredResult {
	out := make([]ScoredResult, 0, len(hits))
	for _, h := range hits {
		if h.Score != nil && *h.Score < threshold {
			out = append(out, h)
		}
	}
	return out
}

// observe records one adapter operation for the Prometheus collectors.
func (c *Client) observe(op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	metrics.ObserveAdapterOp(op, time.Since(start).Seconds(), err)
}
