package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arcodify/arcodify-api/internal/cache"
	"github.com/arcodify/arcodify-api/internal/config"
	"github.com/arcodify/arcodify-api/internal/db"
	httpx "github.com/arcodify/arcodify-api/internal/http"
	"github.com/arcodify/arcodify-api/internal/observability"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// tracing is optional; without an endpoint the shutdown is a no-op
	shutdownTracer, err := observability.InitTracer(ctx, "arcodify-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Warn("tracer init failed", "err", err)
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	err = db.Migrate(ctx, cfg.DBURL)

	if err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	err = db.EnsureAdminUser(ctx, pool, cfg)

	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	store := cache.NewRedisStore(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer store.Close()

	router := httpx.NewRouter(cfg, log, httpx.Deps{
		Pool:       pool,
		CacheStore: store,
		CachePing:  store,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)

	if err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	if shutdownTracer != nil {
		_ = shutdownTracer(shutdownCtx)
	}

	log.Info("shutdown complete")
}
