package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/api/internal/cache"
	"storefront/api/internal/config"
	"storefront/api/internal/database"
	"storefront/api/internal/handlers"
	"storefront/api/internal/jobs"
	"storefront/api/internal/log"
	"storefront/api/internal/metrics"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
	"storefront/api/internal/server"
	"storefront/api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	tokens, err := security.NewTokenCodec(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init token codec")
	}
	hasher := security.NewPasswordHasher(security.DefaultArgon2Params)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	accounts := repository.NewAccountRepository(dbPool)
	products := repository.NewProductRepository(dbPool)
	productCache := cache.NewProductCache(redisClient, products, cfg.Redis.ProductTTL, logger)

	authService := service.NewAuthService(accounts, hasher, tokens, service.AuthOptions{
		GracePaths:  handlers.GracePaths(),
		GraceWindow: cfg.Security.GraceWindow,
	}, m, logger)
	cartService := service.NewCartService(accounts, productCache, m, logger)
	sweeper := service.NewSessionSweeper(accounts, tokens, cfg.Security.GraceWindow, m, logger)

	handlerSet := handlers.NewHandlerSet(handlers.Deps{
		Log:          logger,
		Environment:  cfg.Environment,
		Auth:         authService,
		Cart:         cartService,
		Products:     products,
		ProductCache: productCache,
		Health: map[string]handlers.HealthCheck{
			"database": database.HealthCheck(dbPool),
			"cache":    cache.HealthCheck(redisClient),
		},
		Gatherer: registry,
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(sweeper, cfg.Security.SweepSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		scheduler.Stop(5 * time.Second)
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
