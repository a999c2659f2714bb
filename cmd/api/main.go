package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/scheduler/internal/auth"
	"github.com/geocoder89/scheduler/internal/config"
	"github.com/geocoder89/scheduler/internal/db"
	httpx "github.com/geocoder89/scheduler/internal/http"
	"github.com/geocoder89/scheduler/internal/http/handlers"
	"github.com/geocoder89/scheduler/internal/observability"
	"github.com/geocoder89/scheduler/internal/redisclient"
	"github.com/geocoder89/scheduler/internal/repo/postgres"
	"github.com/geocoder89/scheduler/internal/security"
	"github.com/geocoder89/scheduler/internal/session"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "scheduler:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the config set up; missing secrets stop the process here
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	if cfg.Tracing.Endpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing, cfg.Env)
		if err != nil {
			return err
		}
		defer func() {
			tctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(tctx)
		}()
	}

	prom := observability.NewProm(observability.NewRegistry())

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:              cfg.DBURL,
		MaxConns:         cfg.DBMaxConns,
		StatementTimeout: cfg.StoreTimeout,
		AppName:          cfg.Tracing.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	usersRepo := postgres.NewUsersRepo(pool, prom)
	rolesRepo := postgres.NewRolesRepo(pool, prom)
	eventsRepo := postgres.NewEventsRepo(pool, prom)
	hasher := security.NewHasher(cfg.Session.BcryptCost)

	if err := db.Bootstrap(ctx, log, rolesRepo, usersRepo, hasher, cfg.Admin); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	ready := map[string]handlers.Check{
		"postgres": pool.Ping,
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redisclient.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()

		ready["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}

	var store session.Store
	switch cfg.Session.Store {
	case "redis":
		store = session.NewRedisStore(rdb)
	case "memory":
		log.Warn("session store is in memory; sessions do not survive a restart")
		store = session.NewMemoryStore()
	default:
		sessionsRepo := postgres.NewSessionsRepo(pool, prom)
		if n, err := sessionsRepo.DeleteExpired(ctx); err != nil {
			log.Warn("purge expired sessions", "err", err)
		} else if n > 0 {
			log.Info("purged expired sessions", "count", n)
		}
		store = sessionsRepo
	}

	sessions := auth.NewSessions(auth.NewManager(cfg.Session.Secret, cfg.Session.TTL), store, usersRepo)

	var draining atomic.Bool

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:    usersRepo,
		Roles:    rolesRepo,
		Events:   eventsRepo,
		Sessions: sessions,
		Hasher:   hasher,
		Prom:     prom,
		Ready:    ready,
		Draining: draining.Load,
	})

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
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "session_store", cfg.Session.Store)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	draining.Store(true)

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
