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

	"github.com/SscSPs/identity_service/internal/core/ports/repositories"
	"github.com/SscSPs/identity_service/internal/core/services"
	"github.com/SscSPs/identity_service/internal/handlers"
	"github.com/SscSPs/identity_service/internal/middleware"
	"github.com/SscSPs/identity_service/internal/platform/config"
	"github.com/SscSPs/identity_service/internal/repositories/database/pgsql"
	"github.com/SscSPs/identity_service/internal/repositories/memory"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/SscSPs/identity_service/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// @title Identity Service API
// @version 1.0
// @description Password and OAuth sign-in, rotating refresh tokens and TOTP second factor.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := openCredentialStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	loginLimiter, err := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, redisClient)
	if err != nil {
		return err
	}

	container, err := services.NewServiceContainer(cfg, store)
	if err != nil {
		return err
	}
	logger.Info("OAuth providers configured", slog.Any("providers", container.OAuthProviders.Names()))

	analytics := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer analytics.Close()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(corsConfig(cfg)),
		middleware.PosthogMiddleware(analytics),
	)
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	handlers.RegisterRoutes(r, cfg, container, loginLimiter, analytics)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openCredentialStore connects to Postgres and applies migrations when
// PGSQL_URL is set, and falls back to the in-memory store otherwise.
func openCredentialStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.CredentialStore, func(), error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction {
			return nil, nil, errors.New("PGSQL_URL is required in production")
		}
		logger.Warn("Using in-memory credential store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns:       cfg.DatabaseMaxConns,
		ConnectTimeout: cfg.DatabaseConnectTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	db := database.OpenDB(pool)

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(db, cfg.MigrationsPath, logger); err != nil {
		_ = db.Close()
		database.ClosePgxPool(pool, logger)
		return nil, nil, err
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database handle", slog.String("error", err.Error()))
		}
		database.ClosePgxPool(pool, logger)
	}
	return pgsql.NewCredentialStore(db), closeFn, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	return cors.Config{
		AllowOrigins:     []string{cfg.FrontendBaseURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", cfg.CSRFHeaderName, "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
