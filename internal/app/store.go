package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/config"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository"
	filerepo "github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository/file"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository/memory"
	pgrepo "github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository/postgres"
	redisrepo "github.com/ChristopheBouriel/restoh-frontend-sub000/internal/repository/redis"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/migrations"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/database"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/health"
)

// cartStore is the selected persistence backend together with its cleanup.
type cartStore struct {
	repository.CartStore
	close func()
}

// openCartStore connects the backend named by CART_STORE and registers its
// readiness check.
func openCartStore(ctx context.Context, cfg *config.Config, healthHandler *health.Handler, logger *slog.Logger) (*cartStore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory cart store, carts are lost on restart")
		return &cartStore{CartStore: memory.NewCartStore(), close: func() {}}, nil

	case config.StoreFile:
		logger.Info("using file cart store", slog.String("path", cfg.CartFilePath))
		return &cartStore{CartStore: filerepo.NewCartStore(cfg.CartFilePath, logger), close: func() {}}, nil

	case config.StoreRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.RedisConfig())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisConfig().Addr()),
			slog.Int("db", cfg.RedisDB),
		)
		healthHandler.Register("cart_store_redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		return &cartStore{
			CartStore: redisrepo.NewCartStore(rdb, cfg.CartTTLDuration(), logger),
			close: func() {
				if err := rdb.Close(); err != nil {
					logger.Error("redis close error", slog.String("error", err.Error()))
				}
			},
		}, nil

	case config.StorePostgres:
		pgCfg := cfg.PostgresConfig()
		pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		database.RegisterPoolMetrics(pool, "cart")

		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		if cfg.SlowQueryThresholdMs > 0 {
			database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
		}

		healthHandler.Register("cart_store_postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		return &cartStore{
			CartStore: pgrepo.NewCartStore(pool, logger),
			close:     pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown cart store %q", cfg.Store)
	}
}
