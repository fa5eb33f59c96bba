package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/veckey"
	"github.com/kailas-cloud/veckey/internal/config"
	"github.com/kailas-cloud/veckey/internal/domain"
	logpkg "github.com/kailas-cloud/veckey/internal/logger"
	"github.com/kailas-cloud/veckey/internal/metrics"
	"github.com/kailas-cloud/veckey/internal/repository/embcache"
	"github.com/kailas-cloud/veckey/internal/store"
	valkeystore "github.com/kailas-cloud/veckey/internal/store/valkey"
	"github.com/kailas-cloud/veckey/internal/transport/httpapi"
	openaigw "github.com/kailas-cloud/veckey/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/veckey/internal/usecase/embedding"
	"github.com/kailas-cloud/veckey/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting veckey API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_url", cfg.Database.URL),
		zap.String("embedding_model", cfg.Embedding.Provider.Model),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterAdapterMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()

	// The embedding cache runs on its own connection so cache traffic never
	// competes with index operations.
	var cacheStore store.Store
	if cfg.Embedding.Cache.Enabled {
		cs, err := valkeystore.New(valkeystore.Config{
			URL:            cfg.Database.URL,
			Username:       cfg.Database.Username,
			Password:       cfg.Database.Password,
			DB:             cfg.Database.DB,
			RequestTimeout: time.Duration(cfg.Database.RequestTimeoutMS) * time.Millisecond,
			DialRetries:    cfg.Database.DialRetries,
			DialBackoff:    time.Duration(cfg.Database.DialBackoffMS) * time.Millisecond,
		})
		if err != nil {
			logger.Fatal("Failed to create embedding cache store", zap.Error(err))
		}
		cacheStore = cs
		defer cacheStore.Close()
	}

	gateway, embeddingChecker := buildGateway(cfg, cacheStore, logger)
	logger.Info("Embedding gateway created",
		zap.String("model", cfg.Embedding.Provider.Model),
		zap.Int("dimensions", gateway.VectorSize()),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
		zap.Float64("rate_limit_rps", cfg.Embedding.RateLimit.RPS),
	)

	// Providers register at startup; the registry owns no globals.
	registry := veckey.NewRegistry()
	if err := registry.Register("valkey", func(_ context.Context, opts ...veckey.Option) (*veckey.Client, error) {
		return veckey.New(opts...)
	}); err != nil {
		logger.Fatal("Failed to register provider", zap.Error(err))
	}

	client, err := registry.Open(ctx, "valkey",
		veckey.WithURL(cfg.Database.URL),
		veckey.WithAuth(cfg.Database.Username, cfg.Database.Password),
		veckey.WithDB(cfg.Database.DB),
		veckey.WithRequestTimeout(time.Duration(cfg.Database.RequestTimeoutMS)*time.Millisecond),
		veckey.WithDialRetry(cfg.Database.DialRetries, time.Duration(cfg.Database.DialBackoffMS)*time.Millisecond),
		veckey.WithHNSW(cfg.Index.HNSWM, cfg.Index.HNSWEFConstruct),
		veckey.WithScoreThreshold(cfg.Search.ScoreThreshold),
		veckey.WithEmbeddingGateway(&gatewayBridge{inner: gateway}),
		veckey.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("Failed to open adapter", zap.Error(err))
	}
	defer client.Close()

	if err := client.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	server := httpapi.NewServer(client, logger).
		WithSearchDefaults(cfg.Search.DefaultLimit).
		WithEmbeddingChecker(embeddingChecker)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildGateway assembles the decorator chain:
// OpenAI -> cached -> instrumented -> rate limited.
// The base gateway is returned separately because it is the only layer that
// can probe the provider; the decorators only forward EmbedTexts.
func buildGateway(cfg config.Config, cacheStore store.Store, logger *zap.Logger) (domain.EmbeddingGateway, *openaigw.Gateway) {
	provCfg := cfg.Embedding.Provider

	base := openaigw.NewGateway(&openaigw.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      provCfg.Model,
		Dimensions: provCfg.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	var gateway domain.EmbeddingGateway = base
	if cacheStore != nil {
		gateway = embcache.New(base, cacheStore,
			time.Duration(cfg.Embedding.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger)
	}

	gateway = embeddinguc.NewInstrumented(gateway, "openai", provCfg.Model, logger)

	if cfg.Embedding.RateLimit.RPS > 0 {
		gateway = embeddinguc.NewRateLimited(gateway, cfg.Embedding.RateLimit.RPS, cfg.Embedding.RateLimit.Burst)
	}
	return gateway, base
}

// gatewayBridge exposes the internal gateway chain through the public
// embedding contract.
type gatewayBridge struct {
	inner domain.EmbeddingGateway
}

func (b *gatewayBridge) EmbedTexts(ctx context.Context, texts []string) (veckey.EmbeddingResult, error) {
	res, err := b.inner.EmbedTexts(ctx, texts)
	if err != nil {
		return veckey.EmbeddingResult{}, err
	}
	return veckey.EmbeddingResult{
		Vectors:      res.Vectors,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (b *gatewayBridge) VectorSize() int {
	return b.inner.VectorSize()
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain
// text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates
// X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
