package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modessa/modessa/internal"
	"github.com/modessa/modessa/internal/handler"
	"github.com/modessa/modessa/internal/identity"
	"github.com/modessa/modessa/internal/metrics"
	"github.com/modessa/modessa/internal/middleware"
	"github.com/modessa/modessa/internal/notify"
	"github.com/modessa/modessa/internal/prediction"
	"github.com/modessa/modessa/internal/prediction/fashn"
	"github.com/modessa/modessa/internal/prediction/mock"
	"github.com/modessa/modessa/internal/service"
	"github.com/modessa/modessa/internal/storage"
	"github.com/modessa/modessa/internal/store"
	"github.com/modessa/modessa/internal/tryon"
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

	// Initialize record store
	st, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("record store connection failed: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(closeCtx)
	}()

	if err := st.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("index creation failed: %w", err)
	}
	logger.Info("Record store ready", "database", cfg.MongoDatabase)

	// Initialize object storage
	objectStorage, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize identity verification. The record store doubles as the
	// purchase checker that promotes registered callers.
	verifier, err := identity.NewVerifier(cfg.AuthTokenSecret, st, logger)
	if err != nil {
		return fmt.Errorf("identity verifier initialization failed: %w", err)
	}

	// Initialize prediction provider
	provider, err := newPredictionProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("prediction provider initialization failed: %w", err)
	}
	logger.Info("Prediction provider ready", "provider", cfg.PredictionProvider)

	// Load the brand watermark stamped onto results
	var logo []byte
	if cfg.LogoPath != "" {
		logo, err = os.ReadFile(cfg.LogoPath)
		if err != nil {
			return fmt.Errorf("logo load failed: %w", err)
		}
	}

	// Initialize try-on service
	tryonService := tryon.NewService(
		provider,
		identity.ContextProvider{},
		objectStorage,
		logo,
		tryon.Config{
			PollInterval:    cfg.TryOnPollInterval,
			MaxPollDuration: cfg.TryOnMaxPollDuration,
		},
		tryon.NewRealClock(),
		logger,
	)

	// Initialize order notifications
	var senders notify.Multi
	if cfg.SendGridAPIKey != "" {
		senders = append(senders, notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.OrderFromName, cfg.OrderFromEmail, cfg.AdminEmail, logger))
	}
	if cfg.ChatWebhookURL != "" {
		senders = append(senders, notify.NewChatWebhookSender(cfg.ChatWebhookURL, logger))
	}

	// Initialize storefront services
	catalogService := service.NewCatalogService(st, logger)
	orderService := service.NewOrderService(st, st, senders, logger)
	reviewService := service.NewReviewService(st, st, logger)
	blogService := service.NewBlogService(st, logger)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	deviceMw := middleware.NewDeviceMiddleware(isSecure)
	identityMw := middleware.NewIdentityMiddleware(verifier, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	adminMw := middleware.NewAdminKeyMiddleware(cfg.AdminAPIKey)
	tryonLimiter := middleware.NewTryOnRateLimiter(logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics (basic auth protected)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// API routes
	handler.NewTryOnHandler(tryonService, logger).RegisterRoutes(mux, tryonLimiter.LimitUpload, tryonLimiter.LimitSubmit)
	handler.NewCatalogHandler(catalogService, reviewService, objectStorage, logger).RegisterRoutes(mux, adminMw.Handler, middleware.RequireAuth)
	handler.NewOrderHandler(orderService, logger).RegisterRoutes(mux, adminMw.Handler, middleware.RequireAuth)
	handler.NewBlogHandler(blogService, logger).RegisterRoutes(mux, adminMw.Handler)

	// Local storage serves product imagery straight off disk
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Outermost first: security headers, then request metrics and logging,
	// then the device cookie and identity resolution every API route needs.
	stack := middleware.Stack(
		securityMw.Handler,
		metrics.Middleware,
		loggingMw.Handler,
		deviceMw.Handler,
		identityMw.Handler,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: stack(mux),
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

// newStorage builds the configured object storage backend.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	default:
		return storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
}

// newPredictionProvider builds the configured generation backend.
func newPredictionProvider(cfg *internal.Config, logger *slog.Logger) (prediction.Provider, error) {
	switch cfg.PredictionProvider {
	case "fashn":
		return fashn.New(fashn.Config{
			BaseURL: cfg.FashnBaseURL,
			APIKey:  cfg.FashnAPIKey,
		}, logger)
	default:
		return mock.New(), nil
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
