package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/veckey"
	"github.com/kailas-cloud/veckey/internal/domain"
	logpkg "github.com/kailas-cloud/veckey/internal/logger"
	healthuc "github.com/kailas-cloud/veckey/internal/usecase/health"
)

const (
	// maxBatchSize caps points, ids and query texts per request.
	maxBatchSize = 100
	// maxSearchLimit caps an explicit search limit.
	maxSearchLimit = 1000
	// defaultSearchLimit applies when a search request omits the limit.
	defaultSearchLimit = 15
)

const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeCollectionNotFound     = "collection_not_found"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeInternalError          = "internal_error"
)

// Adapter is the vector-store capability surface the HTTP layer exposes.
type Adapter interface {
	Ping(ctx context.Context) error
	HasCollection(ctx context.Context, collection string) bool
	CreateCollection(ctx context.Context, collection string, opts ...veckey.CollectionOption) error
	CountDataPoints(ctx context.Context, collection string) (int, error)
	CreateDataPoints(ctx context.Context, collection string, points []veckey.DataPoint) error
	Retrieve(ctx context.Context, collection string, ids []string) []veckey.Payload
	Search(ctx context.Context, collection string, req veckey.SearchRequest) ([]veckey.ScoredResult, error)
	BatchSearch(ctx context.Context, collection string, req veckey.BatchSearchRequest) ([][]veckey.ScoredResult, error)
	DeleteDataPoints(ctx context.Context, collection string, ids []string) (int64, error)
	Prune(ctx context.Context) error
}

var _ Adapter = (*veckey.Client)(nil)

// Server exposes an Adapter over HTTP.
type Server struct {
	adapter      Adapter
	health       *healthuc.Service
	logger       *zap.Logger
	defaultLimit int
}

// NewServer creates an HTTP API server over the given adapter.
func NewServer(adapter Adapter, logger *zap.Logger) *Server {
	return &Server{
		adapter:      adapter,
		health:       healthuc.New(adapter, nil),
		logger:       logger,
		defaultLimit: defaultSearchLimit,
	}
}

// WithSearchDefaults overrides the limit applied when a search omits one.
func (s *Server) WithSearchDefaults(defaultLimit int) *Server {
	if defaultLimit > 0 {
		s.defaultLimit = defaultLimit
	}
	return s
}

// WithEmbeddingChecker adds an embedding provider probe to /health.
func (s *Server) WithEmbeddingChecker(embedding healthuc.EmbeddingChecker) *Server {
	s.health = healthuc.New(s.adapter, embedding)
	return s
}

// Routes registers every endpoint on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/collections", s.handleCreateCollection)
		r.Delete("/collections", s.handlePrune)
		r.Route("/collections/{collection}", func(r chi.Router) {
			r.Get("/", s.handleGetCollection)
			r.Post("/points", s.handleCreatePoints)
			r.Post("/points/retrieve", s.handleRetrievePoints)
			r.Delete("/points", s.handleDeletePoints)
			r.Post("/search", s.handleSearch)
			r.Post("/search/batch", s.handleBatchSearch)
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

type createCollectionResponse struct {
	Name string `json:"name"`
}

type collectionResponse struct {
	Name        string `json:"name"`
	PointsCount int    `json:"points_count"`
}

type pointItem struct {
	ID      string         `json:"id"`
	Text    string         `json:"text"`
	Payload veckey.Payload `json:"payload,omitempty"`
}

type createPointsRequest struct {
	Points []pointItem `json:"points"`
}

type createPointsResponse struct {
	Created int `json:"created"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

type retrieveResponse struct {
	Payloads []veckey.Payload `json:"payloads"`
}

type deletePointsResponse struct {
	Removed int64 `json:"removed"`
}

type searchRequest struct {
	QueryText   string    `json:"query_text,omitempty"`
	QueryVector []float32 `json:"query_vector,omitempty"`
	Limit       *int      `json:"limit,omitempty"`
	WithVector  bool      `json:"with_vector,omitempty"`
}

type searchResultItem struct {
	ID      string         `json:"id"`
	Score   *float64       `json:"score,omitempty"`
	Payload veckey.Payload `json:"payload,omitempty"`
	Vector  []float32      `json:"vector,omitempty"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

type batchSearchRequest struct {
	QueryTexts     []string `json:"query_texts"`
	Limit          *int     `json:"limit,omitempty"`
	WithVectors    bool     `json:"with_vectors,omitempty"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty"`
}

type batchSearchResponse struct {
	Results [][]searchResultItem `json:"results"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleCreateCollection handles POST /api/v1/collections.
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Collection name is required")
		return
	}

	if err := s.adapter.CreateCollection(r.Context(), req.Name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createCollectionResponse{Name: req.Name})
}

// handleGetCollection handles GET /api/v1/collections/{collection}.
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")

	if !s.adapter.HasCollection(r.Context(), name) {
		writeError(w, http.StatusNotFound, codeCollectionNotFound, domain.ErrCollectionNotFound.Error())
		return
	}

	count, err := s.adapter.CountDataPoints(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, collectionResponse{Name: name, PointsCount: count})
}

// handlePrune handles DELETE /api/v1/collections.
func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	if err := s.adapter.Prune(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreatePoints handles POST /api/v1/collections/{collection}/points.
func (s *Server) handleCreatePoints(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req createPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Points) == 0 || len(req.Points) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("points count must be between 1 and %d", maxBatchSize))
		return
	}

	points := make([]veckey.DataPoint, len(req.Points))
	for i, p := range req.Points {
		if p.ID == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				fmt.Sprintf("point %d: id is required", i))
			return
		}
		if p.Text == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				fmt.Sprintf("point %d: text is required", i))
			return
		}
		points[i] = veckey.DataPoint{ID: p.ID, Text: p.Text, Payload: p.Payload}
	}

	if err := s.adapter.CreateDataPoints(r.Context(), collection, points); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createPointsResponse{Created: len(points)})
}

// handleRetrievePoints handles POST /api/v1/collections/{collection}/points/retrieve.
func (s *Server) handleRetrievePoints(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req idsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 || len(req.IDs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("ids count must be between 1 and %d", maxBatchSize))
		return
	}

	payloads := s.adapter.Retrieve(r.Context(), collection, req.IDs)
	writeJSON(w, http.StatusOK, retrieveResponse{Payloads: payloads})
}

// handleDeletePoints handles DELETE /api/v1/collections/{collection}/points.
func (s *Server) handleDeletePoints(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req idsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 || len(req.IDs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("ids count must be between 1 and %d", maxBatchSize))
		return
	}

	removed, err := s.adapter.DeleteDataPoints(r.Context(), collection, req.IDs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deletePointsResponse{Removed: removed})
}

// handleSearch handles POST /api/v1/collections/{collection}/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validateLimit(req.Limit); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results, err := s.adapter.Search(r.Context(), collection, veckey.SearchRequest{
		QueryText:   req.QueryText,
		QueryVector: req.QueryVector,
		Limit:       s.limitOrDefault(req.Limit),
		WithVector:  req.WithVector,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := resultItems(results)
	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

// handleBatchSearch handles POST /api/v1/collections/{collection}/search/batch.
func (s *Server) handleBatchSearch(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req batchSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.QueryTexts) == 0 || len(req.QueryTexts) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("query_texts count must be between 1 and %d", maxBatchSize))
		return
	}
	if err := validateLimit(req.Limit); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results, err := s.adapter.BatchSearch(r.Context(), collection, veckey.BatchSearchRequest{
		QueryTexts:     req.QueryTexts,
		Limit:          s.limitOrDefault(req.Limit),
		WithVectors:    req.WithVectors,
		ScoreThreshold: req.ScoreThreshold,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out := make([][]searchResultItem, len(results))
	for i, hits := range results {
		out[i] = resultItems(hits)
	}
	writeJSON(w, http.StatusOK, batchSearchResponse{Results: out})
}

// handleHealth handles GET /health. Only a lost database returns 503; a
// degraded report still answers 200 so orchestrators do not restart a
// working service over a provider outage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	if report.Status != healthuc.Healthy {
		s.logger.Warn("health probes failing", zap.String("status", string(report.Status)))
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// errorMappings pairs adapter sentinels with their HTTP renditions.
var errorMappings = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrMissingQueryParameter, http.StatusBadRequest, codeValidationFailed},
	{domain.ErrCollectionNotFound, http.StatusNotFound, codeCollectionNotFound},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError},
}

// handleDomainError maps adapter errors to HTTP responses. Sentinel messages
// are safe to return; anything else stays "internal error".
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			log.Warn("request failed", zap.Error(err))
			writeError(w, m.status, m.code, m.sentinel.Error())
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func validateLimit(limit *int) error {
	if limit == nil {
		return nil
	}
	if *limit < 1 || *limit > maxSearchLimit {
		return fmt.Errorf("limit must be between 1 and %d", maxSearchLimit)
	}
	return nil
}

func (s *Server) limitOrDefault(limit *int) *int {
	if limit != nil {
		return limit
	}
	l := s.defaultLimit
	return &l
}

func resultItems(results []veckey.ScoredResult) []searchResultItem {
	items := make([]searchResultItem, len(results))
	for i, res := range results {
		items[i] = searchResultItem{
			ID:      res.ID,
			Score:   res.Score,
			Payload: res.Payload,
			Vector:  res.Vector,
		}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
