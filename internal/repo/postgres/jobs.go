package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/arcodify/arcodify-api/internal/domain/job"
	"github.com/arcodify/arcodify-api/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, prom: prom}
}

func (r *JobsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const jobColumns = `id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by, last_error, created_at, updated_at`

func (r *JobsRepo) Enqueue(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	err := r.observe("jobs.enqueue", func() error {
		_, err := r.pool.Exec(ctx, `INSERT INTO jobs(
			id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by, last_error, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
		)`,
			j.ID, j.Type, j.Payload, string(j.Status), j.Attempts, j.MaxAttempts, j.RunAt, j.LockedAt, j.LockedBy, j.LastError, j.CreatedAt, j.UpdatedAt)

		return err
	})

	if err != nil {
		return job.Job{}, err
	}

	return j, nil
}

// ClaimNext claims one runnable job in a single statement using the
// SKIP LOCKED pattern, so concurrent workers never double-claim.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	var j job.Job
	var status string

	err := r.observe("jobs.claim_next", func() error {
		return r.pool.QueryRow(ctx, `
		WITH next AS (
			SELECT id
			FROM jobs
			WHERE status = 'pending'
			  AND run_at <= NOW()
			  AND attempts < max_attempts
			ORDER BY run_at ASC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE jobs
		SET status = 'processing',
		    locked_at = NOW(),
		    locked_by = $1,
		    updated_at = NOW()
		WHERE id = (SELECT id FROM next)
		RETURNING `+jobColumns,
			workerID).Scan(
			&j.ID, &j.Type, &j.Payload, &status,
			&j.Attempts, &j.MaxAttempts,
			&j.RunAt, &j.LockedAt, &j.LockedBy,
			&j.LastError, &j.CreatedAt, &j.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound // nothing runnable
		}
		return job.Job{}, err
	}

	j.Status = job.Status(status)
	return j, nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.mark_done", func() error {
		tag, err = r.pool.Exec(ctx,
			`UPDATE jobs
			SET status = 'done',
				locked_at = NULL,
				locked_by = NULL,
				last_error = NULL,
				updated_at = NOW()
			WHERE id = $1
			`, id)

		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.mark_failed", func() error {
		tag, err = r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'failed',
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $2,
		    updated_at = NOW()
		WHERE id = $1
	`, id, errMsg)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// Reschedule puts a failed attempt back in the queue with backoff.
func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.reschedule", func() error {
		tag, err = r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'pending',
		    attempts = attempts + 1,
		    run_at = $2,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $3,
		    updated_at = NOW()
		WHERE id = $1
	`, id, runAt, errMsg)

		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// PurgeFinished deletes done/failed rows older than the cutoff. Used by
// the cleanup job to keep the task log bounded.
func (r *JobsRepo) PurgeFinished(ctx context.Context, cutoff time.Time) (int64, error) {
	var rows int64

	err := r.observe("jobs.purge_finished", func() error {
		tag, err := r.pool.Exec(ctx, `
		DELETE FROM jobs
		WHERE status IN ('done', 'failed')
		  AND updated_at < $1
	`, cutoff)

		if err != nil {
			return err
		}

		rows = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return 0, err
	}

	return rows, nil
}

// ListRecent is the admin-facing task log view.
func (r *JobsRepo) ListRecent(ctx context.Context, status *string, limit int) ([]job.Job, error) {
	var items []job.Job

	err := r.observe("jobs.list_recent", func() error {
		rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY updated_at DESC, id DESC
		LIMIT $2
	`, status, limit)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var j job.Job
			var s string

			err := rows.Scan(
				&j.ID, &j.Type, &j.Payload, &s,
				&j.Attempts, &j.MaxAttempts,
				&j.RunAt, &j.LockedAt, &j.LockedBy,
				&j.LastError, &j.CreatedAt, &j.UpdatedAt,
			)

			if err != nil {
				return err
			}

			j.Status = job.Status(s)
			items = append(items, j)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []job.Job{}
	}

	return items, nil
}
