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

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	httpx "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/geocoder89/taskhub/internal/redisclient"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	if err := run(*envFile, *migrateOnly); err != nil {
		slog.Default().Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(envFile string, migrateOnly bool) error {
	// Load the config set up
	if err := config.LoadEnvFile(envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.OTELEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	if migrateOnly {
		log.Info("migrations applied")
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	users := postgres.NewUsersRepo(pool, prom)
	tasks := postgres.NewTasksRepo(pool, prom)

	if err := db.EnsureAdminUser(ctx, users, cfg); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	checks := map[string]handlers.Pinger{"postgres": pool.Ping}

	var anon, authed ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}

		checks["redis"] = rdb.Ping
		anon = ratelimit.NewRedis(rdb.Cmdable(), "rl:anon:", cfg.AnonRateLimit, cfg.RateLimitWindow)
		authed = ratelimit.NewRedis(rdb.Cmdable(), "rl:authed:", cfg.AuthedRateLimit, cfg.RateLimitWindow)
	} else {
		log.Warn("REDIS_ADDR not set, rate limits are per process")
		anon = ratelimit.NewMemory(cfg.AnonRateLimit, cfg.RateLimitWindow)
		authed = ratelimit.NewMemory(cfg.AuthedRateLimit, cfg.RateLimitWindow)
	}

	router := httpx.NewRouter(cfg, httpx.Deps{
		Users:         users,
		Tasks:         tasks,
		Codec:         auth.NewCodec(cfg.JWTSecret, cfg.TokenTTL),
		Sessions:      session.NewAuthority(users).WithObserver(prom),
		AnonLimiter:   anon,
		AuthedLimiter: authed,
		Prom:          prom,
		Checks:        checks,
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
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
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
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
