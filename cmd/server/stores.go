package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpapi "github.com/lunch-picker/lunch-picker/internal/api/http"
	"github.com/lunch-picker/lunch-picker/internal/config"
	domainSession "github.com/lunch-picker/lunch-picker/internal/domain/session"
	domainUser "github.com/lunch-picker/lunch-picker/internal/domain/user"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/memory"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/postgres"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/redisstore"
	"github.com/lunch-picker/lunch-picker/internal/infrastructure/sqlite"
)

// stores is one backend's repositories plus its lifecycle hooks.
type stores struct {
	sessions domainSession.Repository
	choices  domainSession.ChoiceRepository
	users    domainUser.Repository
	health   httpapi.HealthChecker
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns:        cfg.DBMaxConns,
			MaxConnLifetime: cfg.DBMaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		return &stores{
			sessions: postgres.NewSessionRepository(pool),
			choices:  postgres.NewChoiceRepository(pool),
			users:    postgres.NewUserRepository(pool),
			health:   pool,
			close:    pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{
			sessions: sqlite.NewSessionRepository(db),
			choices:  sqlite.NewChoiceRepository(db),
			users:    sqlite.NewUserRepository(db),
			health:   db,
			close: func() {
				if err := db.Close(); err != nil {
					logger.Warn().Err(err).Msg("sqlite close failed")
				}
			},
		}, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store, err := redisstore.New(ctx, &redisstore.Config{RedisClient: client})
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &stores{
			sessions: redisstore.NewSessionRepository(store),
			choices:  redisstore.NewChoiceRepository(store),
			users:    redisstore.NewUserRepository(store),
			health:   store,
			close:    func() { _ = client.Close() },
		}, nil

	default:
		db := memory.NewDB()
		return &stores{
			sessions: memory.NewSessionRepository(db),
			choices:  memory.NewChoiceRepository(db),
			users:    memory.NewUserRepository(db),
			close:    func() {},
		}, nil
	}
}
