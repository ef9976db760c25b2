package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roi-cli/internal/resilience"
	"github.com/sells-group/roi-cli/internal/store"
)

// initStore opens the configured archive. The "none" driver returns a nil
// store and no error.
func initStore(ctx context.Context) (store.Store, error) {
	retry := resilience.DefaultRetryConfig()
	if cfg.Store.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.Store.RetryAttempts
	}

	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "roi.db"
		}
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return store.WithRetry(st, "sqlite", retry), nil
	case "postgres":
		connect := retry
		connect.OnRetry = resilience.RetryLogger("postgres", "connect")
		st, err := resilience.DoVal(ctx, connect, func(ctx context.Context) (*store.PostgresStore, error) {
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
		})
		if err != nil {
			return nil, err
		}
		return store.WithRetry(st, "postgres", retry), nil
	case "none", "":
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openArchive opens and migrates the archive, failing when archiving is
// disabled.
func openArchive(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("evaluation archive is disabled (store.driver = none)")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
