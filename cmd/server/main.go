package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/leadgrid/leadgrid/internal"
	"github.com/leadgrid/leadgrid/internal/ai"
	"github.com/leadgrid/leadgrid/internal/ai/anthropic"
	aimock "github.com/leadgrid/leadgrid/internal/ai/mock"
	"github.com/leadgrid/leadgrid/internal/billing"
	"github.com/leadgrid/leadgrid/internal/domain"
	"github.com/leadgrid/leadgrid/internal/extract"
	"github.com/leadgrid/leadgrid/internal/handler"
	"github.com/leadgrid/leadgrid/internal/metrics"
	"github.com/leadgrid/leadgrid/internal/middleware"
	"github.com/leadgrid/leadgrid/internal/repository"
	"github.com/leadgrid/leadgrid/internal/scraper"
	scrapermock "github.com/leadgrid/leadgrid/internal/scraper/mock"
	"github.com/leadgrid/leadgrid/internal/scraper/serp"
	"github.com/leadgrid/leadgrid/internal/service"
	"github.com/leadgrid/leadgrid/internal/storage"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize file storage for CSV exports
	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize billing (optional in development)
	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			StarterMonthlyPriceID:  cfg.StripeStarterMonthlyPriceID,
			StarterYearlyPriceID:   cfg.StripeStarterYearlyPriceID,
			BusinessMonthlyPriceID: cfg.StripeBusinessMonthlyPriceID,
			BusinessYearlyPriceID:  cfg.StripeBusinessYearlyPriceID,
		})
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe billing disabled: STRIPE_SECRET_KEY not set")
	}

	// Plan registry and resolver
	registry := domain.NewPlanRegistry(domain.DefaultPlans()...)
	var prices service.PriceMapper
	if billingService != nil {
		prices = billingService
	}
	resolver := service.NewPlanResolver(registry, prices, logger)

	// Quota engine
	counters := service.NewCounterStore(repo)
	quotaService := service.NewQuotaService(resolver, counters, repo, nil, logger)

	// Domain services
	tenantService := service.NewTenantService(repo, logger)
	leadService := service.NewLeadService(repo, quotaService, logger)
	taskService := service.NewTaskService(repo, quotaService, logger)
	exportService := service.NewExportService(leadService, quotaService, store, logger)

	// AI provider
	aiProvider, err := newAIProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("AI provider initialization failed: %w", err)
	}
	outreachService := service.NewOutreachService(leadService, quotaService, aiProvider, logger)

	// Scraper provider and extraction coordinator
	scraperProvider, err := newScraperProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("scraper provider initialization failed: %w", err)
	}
	coordinator, err := extract.New(scraperProvider, leadService, resolver, extract.Config{
		MaxConcurrentJobs: cfg.ExtractMaxConcurrentJobs,
		PagesPerVariant:   cfg.ExtractPagesPerVariant,
		JobTimeout:        cfg.ExtractJobTimeout,
		RetainFinished:    cfg.ExtractRetainFinished,
		JanitorInterval:   cfg.ExtractJanitorInterval,
		ShutdownTimeout:   30 * time.Second,
	}, logger, nil)
	if err != nil {
		return fmt.Errorf("extraction coordinator initialization failed: %w", err)
	}
	coordinator.Start()
	defer coordinator.Stop()

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(tenantService, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	registrationLimiter := middleware.NewRegistrationRateLimiter(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	tenantHandler := handler.NewTenantHandler(tenantService, logger)
	quotaHandler := handler.NewQuotaHandler(quotaService, logger)
	leadHandler := handler.NewLeadHandler(leadService, exportService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	outreachHandler := handler.NewOutreachHandler(outreachService, logger)
	extractionHandler := handler.NewExtractionHandler(coordinator, logger)
	billingHandler := handler.NewBillingHandler(billingService, tenantService, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, tenantService, logger)
	healthHandler := handler.NewHealthHandler(db, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	public := middleware.Stack(metrics.Middleware, loggingMw.Handler, securityMw.Handler)
	protected := middleware.Stack(metrics.Middleware, loggingMw.Handler, securityMw.Handler, authMw.RequireTenant)

	// Health and metrics
	mux.Handle("GET /health", public(http.HandlerFunc(healthHandler.HandleHealth)))
	mux.Handle("GET /metrics", metricsAuthMw.Handler(metrics.PrometheusHandler()))

	// Public routes
	mux.Handle("POST /api/register", public(registrationLimiter.Limit(http.HandlerFunc(tenantHandler.HandleRegister))))
	mux.Handle("POST /webhooks/stripe", public(http.HandlerFunc(webhookHandler.HandleStripeWebhook)))

	// Account
	mux.Handle("GET /api/me", protected(http.HandlerFunc(tenantHandler.HandleMe)))
	mux.Handle("GET /api/quotas", protected(http.HandlerFunc(quotaHandler.HandleSnapshot)))

	// Leads and exports
	mux.Handle("POST /api/leads/import", protected(http.HandlerFunc(leadHandler.HandleImport)))
	mux.Handle("GET /api/leads", protected(http.HandlerFunc(leadHandler.HandleList)))
	mux.Handle("POST /api/exports", protected(http.HandlerFunc(leadHandler.HandleExport)))

	// Outreach
	mux.Handle("POST /api/leads/{id}/outreach", protected(http.HandlerFunc(outreachHandler.HandleGenerate)))

	// Tasks
	mux.Handle("POST /api/tasks", protected(http.HandlerFunc(taskHandler.HandleCreate)))
	mux.Handle("GET /api/tasks", protected(http.HandlerFunc(taskHandler.HandleList)))
	mux.Handle("POST /api/tasks/{id}/complete", protected(http.HandlerFunc(taskHandler.HandleComplete)))

	// Extraction jobs
	mux.Handle("POST /api/extractions", protected(http.HandlerFunc(extractionHandler.HandleSubmit)))
	mux.Handle("GET /api/extractions/{id}", protected(http.HandlerFunc(extractionHandler.HandleStatus)))
	mux.Handle("GET /api/extractions/{id}/results", protected(http.HandlerFunc(extractionHandler.HandleResults)))

	// Billing
	mux.Handle("POST /api/billing/checkout", protected(http.HandlerFunc(billingHandler.HandleCheckout)))
	mux.Handle("POST /api/billing/portal", protected(http.HandlerFunc(billingHandler.HandlePortal)))
	mux.Handle("POST /api/billing/cancel", protected(http.HandlerFunc(billingHandler.HandleCancel)))
	mux.Handle("POST /api/billing/reactivate", protected(http.HandlerFunc(billingHandler.HandleReactivate)))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newStorage builds the configured export storage backend.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StorageProvider == storage.ProviderR2 {
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	}
	return storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.LocalStoragePath,
		BaseURL:  cfg.LocalStorageURL,
	}, logger)
}

// newAIProvider builds the configured outreach provider.
func newAIProvider(cfg *internal.Config, logger *slog.Logger) (ai.Provider, error) {
	if cfg.AIProvider == "anthropic" {
		return anthropic.New(anthropic.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
		}, logger)
	}
	return aimock.New(logger), nil
}

// newScraperProvider builds the configured lead source.
func newScraperProvider(cfg *internal.Config, logger *slog.Logger) (scraper.Provider, error) {
	if cfg.ScraperProvider == "serp" {
		return serp.New(serp.Config{
			APIKey:  cfg.SerpAPIKey,
			BaseURL: cfg.SerpBaseURL,
		})
	}
	return scrapermock.New(logger), nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
