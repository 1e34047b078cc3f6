package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/arcodify/arcodify-api/internal/domain/job"
	"github.com/arcodify/arcodify-api/internal/notifications"
	"github.com/arcodify/arcodify-api/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	PurgeFinished(ctx context.Context, cutoff time.Time) (int64, error)
}

type Config struct {
	PollInterval time.Duration
	WorkerID     string
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		log:      log,
		prom:     prom,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil

		case <-ticker.C:
			// drain everything runnable before sleeping again
			for {
				claimed, err := w.ProcessOne(ctx)

				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					w.log.Error("process job", "err", err)
					break
				}

				if !claimed {
					break
				}
			}
		}
	}
}

func (w *Worker) setReady(ready bool) {
	w.readyMu.Lock()
	w.ready = ready
	w.readyMu.Unlock()
}
