package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/tutormatch/internal/app"
	"github.com/Freeeeeet/tutormatch/internal/config"
	"github.com/Freeeeeet/tutormatch/internal/relay"
	"github.com/Freeeeeet/tutormatch/internal/repository"
	"github.com/Freeeeeet/tutormatch/internal/server"
	"github.com/Freeeeeet/tutormatch/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting tutormatch server", zap.String("environment", cfg.Environment))

	pool, err := connectDB(ctx, cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	_ = migrator.Close()

	var rl relay.Relay
	if cfg.RedisAddr != "" {
		rl, err = relay.NewRedisRelay(ctx, cfg.RedisAddr, logger)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
	} else {
		logger.Info("REDIS_ADDR not set, using in-process relay")
		rl = relay.NewMemoryRelay(logger)
	}
	defer rl.Close()

	profileRepo := repository.NewProfileRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	statsService := service.NewStatsService(sessionRepo, ratingRepo, statsRepo, logger)
	profileService := service.NewProfileService(profileRepo, logger)
	availabilityService := service.NewAvailabilityService(
		availabilityRepo, catalogRepo, profileRepo, rl, cfg.RequireVerifiedTeacher, logger)
	sessionService := service.NewSessionService(sessionRepo, statsService, rl, logger)
	ratingService := service.NewRatingService(ratingRepo, sessionRepo, statsService, logger)

	sweeper := app.NewSweeper(sessionService, cfg.SweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	srv := server.New(
		availabilityService, sessionService, ratingService, statsService, profileService,
		rl, cfg.HTTPAddr, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// connectDB подключается к Postgres с backoff — при старте всем стеком
// база может подниматься дольше нас
func connectDB(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	backoff := retry.WithMaxRetries(10, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("Database not ready, retrying", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
