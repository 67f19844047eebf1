package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tejeshkinariwala/tightentrade/internal/cache/redis"
	"github.com/tejeshkinariwala/tightentrade/internal/config"
	"github.com/tejeshkinariwala/tightentrade/internal/domain"
	"github.com/tejeshkinariwala/tightentrade/internal/notify"
	"github.com/tejeshkinariwala/tightentrade/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// needs to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	Store     domain.Store
	SignalBus domain.SignalBus
	Notifier  *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.Store = postgres.NewStore(pgClient.Pool())

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Push.Enabled && cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		senders = append(senders, notify.NewWebPushSender(
			deps.Store.Subscriptions(),
			cfg.Push.Subscriber,
			cfg.Push.VAPIDPublicKey,
			cfg.Push.VAPIDPrivateKey,
			logger,
		))
	}
	deps.Notifier = notify.NewNotifier(senders, logger)

	return deps, cleanup, nil
}
