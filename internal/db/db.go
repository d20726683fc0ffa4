package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/jobtracker/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// NewPool opens the process-wide connection pool and verifies it with a ping.
// Call it once at startup and inject the pool into the repositories.
func NewPool(ctx context.Context, dbURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)

	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)

	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)

	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	err = pool.Ping(ctx)

	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

// ConnectWithRetry calls NewPool up to attempts times with exponential backoff,
// so the API can start alongside a database that is still booting.
func ConnectWithRetry(ctx context.Context, dbURL string, maxConns int32, attempts int) (*pgxpool.Pool, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		pool, err := NewPool(ctx, dbURL, maxConns)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		wait := ExponentialBackoff(attempt)
		slog.Default().WarnContext(ctx, "db.connect_retry", "attempt", attempt+1, "wait_ms", wait.Milliseconds(), "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, fmt.Errorf("connect after %d attempts: %w", attempts, lastErr)
}

// Migrate applies the embedded schema migrations through a database/sql view of the pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)

	defer sqlDB.Close()

	return migrations.Migrate(ctx, sqlDB)
}
