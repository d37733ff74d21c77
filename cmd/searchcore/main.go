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

	"github.com/propfind/searchcore/internal/config"
	dbRedis "github.com/propfind/searchcore/internal/db/redis"
	"github.com/propfind/searchcore/internal/domain/quiz"
	logpkg "github.com/propfind/searchcore/internal/logger"
	"github.com/propfind/searchcore/internal/metrics"
	"github.com/propfind/searchcore/internal/repository/facetcache"
	propertyrepo "github.com/propfind/searchcore/internal/repository/property"
	chiTransport "github.com/propfind/searchcore/internal/transport/chi"
	facetuc "github.com/propfind/searchcore/internal/usecase/facet"
	healthuc "github.com/propfind/searchcore/internal/usecase/health"
	quizuc "github.com/propfind/searchcore/internal/usecase/quiz"
	searchuc "github.com/propfind/searchcore/internal/usecase/search"
	"github.com/propfind/searchcore/internal/version"
)

const facetCachePrefix = "facets:"

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchcore API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("store_addrs", cfg.Store.Addrs),
		zap.String("index_name", cfg.Store.IndexName),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Store.Addrs,
		Password: cfg.Store.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create property store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the store to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Property store not ready", zap.Error(err))
	}
	logger.Info("Connected to property store")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Create repositories (domain-native, no adapters)
	propRepo := propertyrepo.New(store, cfg.Store.KeyPrefix, cfg.Store.IndexName).
		WithQueryTimeout(time.Duration(cfg.Store.QueryTimeoutMS) * time.Millisecond)
	if err := propRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure property index", zap.Error(err))
	}

	facetTTL := time.Duration(cfg.Search.FacetCacheTTLSec) * time.Second
	facetCache := facetcache.New(store, facetCachePrefix, facetTTL)

	// Create use case services
	searchSvc := searchuc.New(propRepo).
		WithGeoCandidatesCap(cfg.Search.GeoCandidatesCap)
	facetSvc := facetuc.New(propRepo).
		WithCache(facetCache).
		WithSampleCap(cfg.Search.FacetSampleCap).
		WithComputeHook(metrics.FacetComputationsTotal.Inc)
	quizSvc := quizuc.New(searchSvc, quiz.NarrowingLimits{
		Early: cfg.Quiz.EarlyStepLimit,
		Mid:   cfg.Quiz.MidStepLimit,
		Late:  cfg.Quiz.LateStepLimit,
	}, time.Duration(cfg.Quiz.SessionTTLMin)*time.Minute).
		WithCompletionHook(metrics.QuizCompletionsTotal.Inc)

	healthSvc := healthuc.New(store, store, cfg.Store.IndexName)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, facetSvc, quizSvc, propRepo, healthSvc, logger).
		WithDefaultPageSize(cfg.Search.DefaultPageSize)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
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

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
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
