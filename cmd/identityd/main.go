package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/curadesk/support-platform/internal/api/http"
	"github.com/curadesk/support-platform/internal/api/http/handlers"
	"github.com/curadesk/support-platform/internal/config"
	"github.com/curadesk/support-platform/internal/identity"
	"github.com/curadesk/support-platform/internal/observability"
	"github.com/curadesk/support-platform/internal/persistence"
	"github.com/curadesk/support-platform/internal/repository"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.IdentityPostgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.IdentityPostgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.IdentityPostgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	keyRepo := repository.NewAPIKeyRepository(pool)

	limiter := identity.NewRateLimiter(redis.Client, cfg.RateLimit.ValidatePerMinute, logger)
	validator := identity.NewValidator(keyRepo, userRepo, limiter, logger)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.Identity.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.Identity.RequestTimeout())

	httptransport.RegisterIdentityRoutes(app, httptransport.IdentityRouteConfig{
		Health:   handlers.NewHealthHandler(cfg.Identity.Name, version, pg, redis),
		Validate: handlers.NewValidateHandler(validator, metrics),
	})

	go func() {
		if err := app.Listen(cfg.Identity.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
