package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/auth-gateway/internal/api/http"
	"github.com/spec-kit/auth-gateway/internal/api/http/handlers"
	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/config"
	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/events"
	"github.com/spec-kit/auth-gateway/internal/observability"
	"github.com/spec-kit/auth-gateway/internal/persistence"
	"github.com/spec-kit/auth-gateway/internal/repository"
	"github.com/spec-kit/auth-gateway/internal/secrets"
	"github.com/spec-kit/auth-gateway/internal/service"
)

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

	// The signing secret must be in hand before the server accepts a single
	// request; a vault failure is a startup failure.
	secretProvider, err := secrets.Load(ctx, cfg.Vault)
	if err != nil {
		logger.Fatal("failed to retrieve signing secret", zap.Error(err))
	}

	var pg *persistence.Postgres
	if cfg.Store.IdentityDriver == config.StoreDriverPostgres || cfg.Store.RefreshDriver == config.StoreDriverPostgres {
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
	}

	var rd *persistence.Redis
	if cfg.Store.RefreshDriver == config.StoreDriverRedis {
		rd = persistence.NewRedis(cfg.Redis, logger)
		defer rd.Close()
	}

	var identities repository.IdentityRepository
	switch cfg.Store.IdentityDriver {
	case config.StoreDriverPostgres:
		identities = repository.NewIdentityRepository(pg.PoolHandle())
	default:
		identities = repository.NewMemoryIdentityRepository()
	}

	var refreshTokens repository.RefreshTokenRepository
	switch cfg.Store.RefreshDriver {
	case config.StoreDriverPostgres:
		refreshTokens = repository.NewRefreshTokenRepository(pg.PoolHandle())
	case config.StoreDriverRedis:
		refreshTokens = repository.NewRedisRefreshTokenRepository(rd.Client)
	default:
		refreshTokens = repository.NewMemoryRefreshTokenRepository()
	}

	codec := auth.NewTokenCodec(secretProvider.SigningSecret())

	dispatcher := events.NewMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	var flow service.Flow
	var guard *auth.AccessGuard
	switch cfg.Auth.Mode {
	case domain.AuthModeServiceGated:
		flow = service.NewServiceGatedFlow(cfg.Auth, codec, identities, dispatcher)
		// Service tokens carry no identity reference, so the guard skips the
		// existence recheck in this mode.
		guard = auth.NewAccessGuard(codec, nil)
	default:
		flow = service.NewSelfServiceFlow(cfg.Auth, codec, identities, refreshTokens, dispatcher)
		guard = auth.NewAccessGuard(codec, identities)
	}

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.CORS, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Mode:   cfg.Auth.Mode,
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rd),
		Auth:   handlers.NewAuthHandler(flow),
		Guard:  guard,
	})

	logger.Info("starting auth gateway",
		zap.String("mode", string(cfg.Auth.Mode)),
		zap.String("addr", cfg.App.Addr()))

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
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
