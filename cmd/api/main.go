package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/jobtracker/internal/auth"
	"github.com/geocoder89/jobtracker/internal/cache"
	"github.com/geocoder89/jobtracker/internal/config"
	"github.com/geocoder89/jobtracker/internal/db"
	httpx "github.com/geocoder89/jobtracker/internal/http"
	"github.com/geocoder89/jobtracker/internal/observability"
	"github.com/geocoder89/jobtracker/internal/redisclient"
	"github.com/geocoder89/jobtracker/internal/repo/memory"
	"github.com/geocoder89/jobtracker/internal/repo/postgres"
	"github.com/geocoder89/jobtracker/internal/security"
	"github.com/geocoder89/jobtracker/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Tokens:   auth.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL),
		Hasher:   security.NewHasher(cfg.BcryptCost),
		Prom:     prom,
		Gatherer: reg,
	}

	var counter stats.Counter

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		jobs := memory.NewJobsRepo()
		deps.Users = memory.NewUsersRepo()
		deps.Jobs = jobs
		counter = jobs
		log.Warn("using in-memory store; data is lost on restart")

	default:
		pool, err := db.ConnectWithRetry(ctx, cfg.DBURL(), cfg.DB.MaxConns, cfg.DB.ConnectAttempts)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.DB.Migrate {
			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}
			log.Info("migrations applied")
		}

		jobs := postgres.NewJobsRepo(pool, prom)
		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Jobs = jobs
		deps.Ping = pool.Ping
		counter = jobs
	}

	statsCache, closeCache := newStatsCache(ctx, cfg, log)
	defer closeCache()

	deps.Stats = stats.NewReporter(counter, statsCache, prom)

	router := httpx.NewRouter(cfg, deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-stop:
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// newStatsCache prefers Redis so replicas share invalidations, and falls back to
// the in-process cache when Redis is not configured or unreachable.
func newStatsCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Store, func()) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemory(cfg.StatsCacheTTL), func() {}
	}

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.Ping(pctx); err != nil {
		log.Warn("redis unavailable, using in-process stats cache", "addr", cfg.Redis.Addr, "err", err)
		_ = rc.Close()
		return cache.NewMemory(cfg.StatsCacheTTL), func() {}
	}

	log.Info("stats cache backed by redis", "addr", cfg.Redis.Addr)

	store := cache.NewBreaker(cache.NewRedis(rc.Raw(), cfg.StatsCacheTTL), cache.BreakerConfig{})
	return store, func() { _ = rc.Close() }
}
