package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arcodify/arcodify-api/internal/domain/job"
	"github.com/arcodify/arcodify-api/internal/jobs"
	"github.com/arcodify/arcodify-api/internal/notifications"
)

// ProcessOne claims and executes at most one job. The bool reports
// whether a job was claimed at all.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
	}

	start := time.Now()
	err = w.execute(ctx, j)

	if err != nil {
		w.observe(j.Type, "retry", start)
		w.handleFailure(ctx, j, err)
		return true, nil
	}

	err = w.repo.MarkDone(ctx, j.ID)

	if err != nil {
		w.observe(j.Type, "failed", start)
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.observe(j.Type, "done", start)
	w.log.Info("job done", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts)

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	t := jobs.JobType(j.Type)

	payload, err := jobs.DecodePayload(t, j.Payload)

	if err != nil {
		return err
	}

	if err := jobs.ValidatePayload(t, payload); err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.WelcomeEmailPayload:
		return w.notifier.SendWelcomeEmail(ctx, notifications.WelcomeEmailInput{
			Email:    p.Email,
			Username: p.Username,
		})

	case jobs.CleanupTaskLogsPayload:
		cutoff := time.Now().UTC().AddDate(0, 0, -p.OlderThanDays)
		n, err := w.repo.PurgeFinished(ctx, cutoff)
		if err != nil {
			return err
		}
		w.log.Info("task log pruned", "deleted", n, "older_than_days", p.OlderThanDays)
		return nil

	default:
		return fmt.Errorf("%w: %s", jobs.ErrInvalidJobType, j.Type)
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error) {
	// this attempt counts; Reschedule increments the stored counter
	attempt := j.Attempts + 1

	// payload errors never heal, retrying them just burns attempts
	permanent := errors.Is(execErr, jobs.ErrInvalidJobType) ||
		errors.Is(execErr, jobs.ErrInvalidJobPayload) ||
		errors.Is(execErr, jobs.ErrPayloadTypeMismatch)

	if permanent || attempt >= j.MaxAttempts {
		w.log.Error("job failed permanently", "job_id", j.ID, "type", j.Type, "attempts", attempt, "err", execErr)

		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed", "job_id", j.ID, "err", err)
		}
		return
	}

	runAt := time.Now().UTC().Add(ExponentialBackoff(attempt))
	w.log.Warn("job rescheduled", "job_id", j.ID, "type", j.Type, "attempt", attempt, "run_at", runAt, "err", execErr)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule", "job_id", j.ID, "err", err)
	}
}

func (w *Worker) observe(jobType, result string, start time.Time) {
	if w.prom == nil {
		return
	}

	w.prom.JobsInFlight.Dec()
	w.prom.JobResults.WithLabelValues(jobType, result).Inc()
	w.prom.JobDuration.WithLabelValues(jobType, result).Observe(time.Since(start).Seconds())
}
