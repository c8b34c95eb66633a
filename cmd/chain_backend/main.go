package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	portsrepo "github.com/SscSPs/supply_chain_app/internal/core/ports/repositories"
	portsstorage "github.com/SscSPs/supply_chain_app/internal/core/ports/storage"
	"github.com/SscSPs/supply_chain_app/internal/core/services"
	"github.com/SscSPs/supply_chain_app/internal/handlers"
	"github.com/SscSPs/supply_chain_app/internal/middleware"
	"github.com/SscSPs/supply_chain_app/internal/platform/config"
	rediscache "github.com/SscSPs/supply_chain_app/internal/repositories/cache/redis"
	"github.com/SscSPs/supply_chain_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/supply_chain_app/internal/repositories/memory"
	"github.com/SscSPs/supply_chain_app/internal/repositories/storage/gcs"
	"github.com/SscSPs/supply_chain_app/internal/utils"
	"github.com/SscSPs/supply_chain_app/pkg/database"
)

// @title Supply Chain Traceability API
// @version 1.0
// @description Chain walks, traceability grades and location file exports for commodity transactions.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := setupRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize chain store", slog.String("store", cfg.ChainStore), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepos()

	blobs, closeBlobs := setupBlobStore(ctx, cfg, logger)
	defer closeBlobs()

	serviceContainer := services.NewServiceContainer(cfg, repos, blobs)

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (tracing, logging, recovery, cors)
	r.Use(
		otelgin.Middleware("chain-backend"),
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID", "x-api-key"},
			ExposeHeaders:    exposedHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, rateLimiter, posthogClient)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute, // ZIP bundles of long chains
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.ChainStore))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}
}

// exposedHeaders are the artifact summary headers browsers may read.
var exposedHeaders = []string{
	handlers.HeaderTotalTransactions,
	handlers.HeaderGeojsonMerged,
	handlers.HeaderGeojsonFailed,
	handlers.HeaderCustomLocationFile,
	handlers.HeaderNoLocationFile,
	"Content-Disposition",
	"X-Request-ID",
}

// setupRepositories opens the configured chain store and the optional
// counts cache. The returned func releases them.
func setupRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	var (
		repos   portsrepo.RepositoryProvider
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.ChainStore {
	case config.StoreMemory:
		store := memory.NewTransactionRepository()
		if cfg.ChainFixturesFile != "" {
			f, err := os.Open(cfg.ChainFixturesFile)
			if err != nil {
				return repos, closeAll, fmt.Errorf("failed to open fixtures: %w", err)
			}
			err = store.LoadFixtures(f)
			f.Close()
			if err != nil {
				return repos, closeAll, err
			}
		}
		repos.TransactionRepo = store
		logger.Warn("Using in-memory chain store; season backfill is disabled", slog.String("fixtures", cfg.ChainFixturesFile))

	default:
		if _, err := database.RunMigrations(cfg.DatabaseURL, database.DefaultMigrationsPath, logger); err != nil {
			return repos, closeAll, err
		}
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return repos, closeAll, err
		}
		closers = append(closers, func() { database.ClosePgxPool(dbPool) })
		repos = pgsql.NewRepositoryProvider(dbPool)
		logger.Info("Database connection pool established.")
	}

	if cfg.RedisAddr != "" {
		cache, err := rediscache.NewCountsCache(ctx, rediscache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CountsTTL,
		}, logger)
		if err != nil {
			// Counts still work uncached.
			logger.Warn("Redis unavailable, traceability counts are not cached", slog.String("error", err.Error()))
		} else {
			repos.CountsCache = cache
			closers = append(closers, func() { _ = cache.Close() })
		}
	}

	return repos, closeAll, nil
}

// setupBlobStore opens the location file bucket. Without a bucket every
// artifact reports its location files as unavailable.
func setupBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsstorage.BlobStore, func()) {
	if cfg.GCSBucket == "" {
		return nil, func() {}
	}
	store, err := gcs.NewBlobStore(ctx, cfg.GCSBucket, logger,
		gcs.ClientOptions(cfg.GoogleCredentialsJSON, cfg.GoogleCredentialsFile)...)
	if err != nil {
		logger.Error("Failed to open location file bucket", slog.String("bucket", cfg.GCSBucket), slog.String("error", err.Error()))
		return nil, func() {}
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Error("Error closing storage client", slog.String("error", err.Error()))
		}
	}
}
