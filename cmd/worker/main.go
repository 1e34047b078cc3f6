package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/arcodify/arcodify-api/internal/config"
	"github.com/arcodify/arcodify-api/internal/db"
	"github.com/arcodify/arcodify-api/internal/domain/job"
	"github.com/arcodify/arcodify-api/internal/jobs"
	"github.com/arcodify/arcodify-api/internal/notifications"
	"github.com/arcodify/arcodify-api/internal/observability"
	"github.com/arcodify/arcodify-api/internal/queue/worker"
	"github.com/arcodify/arcodify-api/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
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

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	prom := observability.NewProm(prometheus.NewRegistry())
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	notifier := buildNotifier(cfg)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval: 500 * time.Millisecond,
		WorkerID:     workerID,
	}, jobsRepo, notifier, log, prom)

	// tiny liveness server so orchestrators can probe the worker
	health := &http.Server{
		Addr:              ":8081",
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := health.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	go scheduleCleanup(ctx, jobsRepo, log)

	log.Info("worker starting", "worker_id", workerID)

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = health.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}

// scheduleCleanup enqueues a task-log pruning job once a day. The job
// itself retries like any other, so a missed tick here is harmless.
func scheduleCleanup(ctx context.Context, repo *postgres.JobsRepo, log *slog.Logger) {
	enqueue := func() {
		payload, err := jobs.EncodePayload(jobs.JobCleanupTaskLogs, jobs.CleanupTaskLogsPayload{
			OlderThanDays: 7,
		})

		if err != nil {
			log.Error("cleanup payload encode failed", "err", err)
			return
		}

		_, err = repo.Enqueue(ctx, job.CreateRequest{
			Type:    string(jobs.JobCleanupTaskLogs),
			Payload: payload,
		})

		if err != nil {
			log.Warn("cleanup enqueue failed", "err", err)
		}
	}

	enqueue()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}

// buildNotifier picks SMTP when configured, the log notifier otherwise,
// and wraps either in the circuit breaker.
func buildNotifier(cfg config.Config) notifications.Notifier {
	var inner notifications.Notifier

	if cfg.SMTPHost != "" {
		inner = notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		inner = notifications.NewLogNotifier()
	}

	return notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		Timeout:          5 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 2,
	})
}
