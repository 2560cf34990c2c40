// ABOUTME: Entry point for the inference capacity planner service
// ABOUTME: Loads the provider catalog and serves the ranking HTTP API

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/markalston/inference-capacity-planner/cache"
	"github.com/markalston/inference-capacity-planner/catalog"
	"github.com/markalston/inference-capacity-planner/config"
	"github.com/markalston/inference-capacity-planner/handlers"
	"github.com/markalston/inference-capacity-planner/logger"
	"github.com/markalston/inference-capacity-planner/metrics"
	"github.com/markalston/inference-capacity-planner/middleware"
	"github.com/markalston/inference-capacity-planner/models"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Initialize structured logging
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting Inference Capacity Planner")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	if cfg.MetricsEnabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := metrics.InitMetrics(registry); err != nil {
			slog.Error("Failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	// Load the catalog before accepting traffic
	source, err := catalog.NewSource(cfg.CatalogPath, cfg.CatalogURL, cfg.CatalogAllProxy)
	if err != nil {
		slog.Error("Invalid catalog source", "error", err)
		os.Exit(1)
	}
	store := catalog.NewStore(source)
	if _, err := store.Reload(ctx); err != nil {
		slog.Error("Failed to load catalog", "source", source.String(), "error", err)
		os.Exit(1)
	}
	if interval := cfg.RefreshInterval(); interval > 0 {
		store.StartRefresh(ctx, interval)
		slog.Info("Catalog refresh enabled", "interval", interval)
	}

	// Initialize cache
	c := cache.New[*models.RankResponse](cfg.CacheDuration())
	defer c.Stop()
	slog.Info("Cache initialized", "ttl", cfg.CacheDuration())

	h := handlers.NewHandler(cfg, store, c)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newMux(cfg, h, registry),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}

// newMux registers every API route behind the middleware chain. Each path also
// answers OPTIONS so CORS preflights reach the CORS middleware.
func newMux(cfg *config.Config, h *handlers.Handler, registry *prometheus.Registry) *http.ServeMux {
	var rankLimiter, defaultLimiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		rankLimiter = middleware.NewRateLimiter(cfg.RateLimitRank, time.Minute)
		defaultLimiter = middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute)
		slog.Info("Rate limiting enabled",
			"rank_per_minute", cfg.RateLimitRank,
			"default_per_minute", cfg.RateLimitDefault)
	} else {
		slog.Warn("Rate limiting disabled")
	}

	cors := middleware.CORSFor(cfg.CORSAllowedOrigins)

	mux := http.NewServeMux()
	preflight := make(map[string]bool)

	for _, route := range h.Routes() {
		limiter := defaultLimiter
		if route.Expensive {
			limiter = rankLimiter
		}

		mux.HandleFunc(route.Pattern(), middleware.Chain(route.Handler,
			middleware.LogRequest,
			middleware.Recover,
			cors,
			middleware.Instrument(route.Pattern()),
			middleware.RateLimit(limiter, middleware.ClientIP),
		))

		if !preflight[route.Path] {
			preflight[route.Path] = true
			mux.HandleFunc(http.MethodOptions+" "+route.Path, cors(func(w http.ResponseWriter, r *http.Request) {}))
		}
	}

	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler(registry))
	}

	return mux
}
