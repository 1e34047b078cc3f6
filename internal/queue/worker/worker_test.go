package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arcodify/arcodify-api/internal/domain/job"
	"github.com/arcodify/arcodify-api/internal/jobs"
	"github.com/arcodify/arcodify-api/internal/notifications"
)

type fakeJobsRepo struct {
	next        *job.Job
	doneIDs     []string
	failedIDs   []string
	rescheduled []string
	purged      int64
}

func (f *fakeJobsRepo) ClaimNext(_ context.Context, _ string) (job.Job, error) {
	if f.next == nil {
		return job.Job{}, job.ErrJobNotFound
	}
	j := *f.next
	f.next = nil
	return j, nil
}

func (f *fakeJobsRepo) MarkDone(_ context.Context, id string) error {
	f.doneIDs = append(f.doneIDs, id)
	return nil
}

func (f *fakeJobsRepo) MarkFailed(_ context.Context, id string, _ string) error {
	f.failedIDs = append(f.failedIDs, id)
	return nil
}

func (f *fakeJobsRepo) Reschedule(_ context.Context, id string, _ time.Time, _ string) error {
	f.rescheduled = append(f.rescheduled, id)
	return nil
}

func (f *fakeJobsRepo) PurgeFinished(_ context.Context, _ time.Time) (int64, error) {
	return f.purged, nil
}

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) SendWelcomeEmail(_ context.Context, _ notifications.WelcomeEmailInput) error {
	f.calls++
	return f.err
}

func newTestWorker(repo *fakeJobsRepo, n notifications.Notifier) *Worker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{WorkerID: "test-1", PollInterval: time.Millisecond}, repo, n, log, nil)
}

func welcomeJob(t *testing.T, attempts, maxAttempts int) job.Job {
	t.Helper()

	b, err := jobs.EncodePayload(jobs.JobSendWelcomeEmail, jobs.WelcomeEmailPayload{
		UserID: "u1", Email: "tester@example.com", Username: "Tester",
	})
	if err != nil {
		t.Fatalf("EncodePayload error: %v", err)
	}

	j := job.New(job.CreateRequest{Type: string(jobs.JobSendWelcomeEmail), Payload: b, MaxAttempts: maxAttempts})
	j.Attempts = attempts
	return j
}

func TestProcessOne_NoJobs(t *testing.T) {
	repo := &fakeJobsRepo{}
	w := newTestWorker(repo, &fakeNotifier{})

	claimed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne error: %v", err)
	}
	if claimed {
		t.Fatalf("expected no claim on empty queue")
	}
}

func TestProcessOne_Success(t *testing.T) {
	j := welcomeJob(t, 0, 5)
	repo := &fakeJobsRepo{next: &j}
	n := &fakeNotifier{}
	w := newTestWorker(repo, n)

	claimed, err := w.ProcessOne(context.Background())
	if err != nil || !claimed {
		t.Fatalf("claimed=%v err=%v", claimed, err)
	}

	if n.calls != 1 {
		t.Fatalf("expected one delivery, got %d", n.calls)
	}
	if len(repo.doneIDs) != 1 || repo.doneIDs[0] != j.ID {
		t.Fatalf("expected job marked done, got %v", repo.doneIDs)
	}
}

func TestProcessOne_FailureReschedulesWithBackoff(t *testing.T) {
	j := welcomeJob(t, 0, 5)
	repo := &fakeJobsRepo{next: &j}
	w := newTestWorker(repo, &fakeNotifier{err: errors.New("provider down")})

	claimed, err := w.ProcessOne(context.Background())
	if err != nil || !claimed {
		t.Fatalf("claimed=%v err=%v", claimed, err)
	}

	if len(repo.rescheduled) != 1 {
		t.Fatalf("expected reschedule, got %v failed=%v", repo.rescheduled, repo.failedIDs)
	}
}

func TestProcessOne_ExhaustedAttemptsFails(t *testing.T) {
	j := welcomeJob(t, 4, 5)
	repo := &fakeJobsRepo{next: &j}
	w := newTestWorker(repo, &fakeNotifier{err: errors.New("provider down")})

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne error: %v", err)
	}

	if len(repo.failedIDs) != 1 {
		t.Fatalf("expected permanent failure, got rescheduled=%v", repo.rescheduled)
	}
}

func TestProcessOne_BadPayloadFailsWithoutRetry(t *testing.T) {
	j := job.New(job.CreateRequest{Type: string(jobs.JobSendWelcomeEmail), Payload: []byte(`{"broken"`), MaxAttempts: 5})
	repo := &fakeJobsRepo{next: &j}
	n := &fakeNotifier{}
	w := newTestWorker(repo, n)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne error: %v", err)
	}

	if n.calls != 0 {
		t.Fatalf("notifier must not run for a bad payload")
	}
	if len(repo.failedIDs) != 1 || len(repo.rescheduled) != 0 {
		t.Fatalf("expected immediate failure, failed=%v rescheduled=%v", repo.failedIDs, repo.rescheduled)
	}
}

func TestExponentialBackoff(t *testing.T) {
	if d := ExponentialBackoff(0); d < 2*time.Second || d > 3*time.Second {
		t.Fatalf("attempt 0: unexpected delay %v", d)
	}
	if d := ExponentialBackoff(2); d < 8*time.Second || d > 9*time.Second {
		t.Fatalf("attempt 2: unexpected delay %v", d)
	}
	// capped
	if d := ExponentialBackoff(20); d > 5*time.Minute+time.Second {
		t.Fatalf("expected cap at 5m, got %v", d)
	}
}
