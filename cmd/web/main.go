package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/middleware"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/server"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/ui/templates"
	"ecommerce-dashboard/internal/views"
)

const (
	version           = "1.0.0"
	renderTimeout     = 10 * time.Second
	rateLimitInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
	logger.Info("application stopped gracefully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting application",
		"version", version,
		"csv_file", cfg.Dataset.CSVFile,
		"addr", cfg.Address(),
	)

	presenter, err := views.NewPresenter(cfg.Dashboard)
	if err != nil {
		return fmt.Errorf("dashboard settings: %w", err)
	}

	analytics, err := loadDataset(cfg.Dataset, logger)
	if err != nil {
		return err
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: newDashboardHandler(analytics, cfg.Dashboard),
	}
	srv := server.NewServer(analytics, presenter, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go rateLimiter.Run(limiterCtx, rateLimitInterval)

	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)(srv)

	// Each SSE response is a single recomputation, so the write timeout
	// applies to it like any other response.
	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("stopping rate limiter sweeper")
		stopLimiter()
		return nil
	})

	return gracefulServer.ListenAndServe()
}

// loadDataset reads the transactions once at startup. A load failure stops
// the process.
func loadDataset(cfg config.DatasetConfig, logger *slog.Logger) (*services.Analytics, error) {
	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithCacheDir(cfg.CacheDir),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.LoadFromCSV(ctx, cfg.CSVFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.CSVFile, err)
	}
	logger.Info("dataset loaded",
		"duration", time.Since(start),
		"date_range", analytics.Bounds().String(),
	)
	return analytics, nil
}

func newDashboardHandler(analytics *services.Analytics, cfg config.DashboardConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := templates.Dashboard(analytics.Bounds(), cfg).Render(ctx, w); err != nil {
			slog.Error("render dashboard page", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}
