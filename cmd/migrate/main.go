// Command migrate applies the embedded schema migrations and exits. Use it
// when the API runs with DB_MIGRATE=false.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/jobtracker/internal/config"
	"github.com/geocoder89/jobtracker/internal/db"
	"github.com/geocoder89/jobtracker/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	pool, err := db.ConnectWithRetry(ctx, cfg.DBURL(), 2, cfg.DB.ConnectAttempts)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	log.Info("applying migrations")

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("migrations failed", "err", err)
		pool.Close()
		os.Exit(1)
	}

	log.Info("migrations complete")
}
