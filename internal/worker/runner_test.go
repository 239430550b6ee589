package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/worker"
)

type clockAt struct{ t time.Time }

func (c clockAt) Now() time.Time { return c.t }

type recorder struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[domain.JobType]bool
}

func (r *recorder) Handle(ctx context.Context, job domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[job.ID]++
	if r.fail[job.Type] {
		return errors.New("boom")
	}
	return nil
}

func newQueue(t *testing.T) *redisad.Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return redisad.NewQueue(c, "jobs:worker")
}

func TestTick_DispatchesDueJobs(t *testing.T) {
	ctx := context.Background()
	q := newQueue(t)
	for i := 0; i < 4; i++ {
		if _, err := q.Enqueue(ctx, domain.Job{Type: domain.JobReviewOpen, Payload: json.RawMessage(`{}`)}, 0); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if _, err := q.Enqueue(ctx, domain.Job{Type: domain.JobReviewOpen}, time.Hour); err != nil {
		t.Fatalf("enqueue later: %v", err)
	}

	h := &recorder{}
	r := worker.New(q, h, clockAt{time.Now().Add(time.Second)}, worker.Options{Batch: 10, Workers: 2})
	n, err := r.Tick(ctx)
	if err != nil || n != 4 {
		t.Fatalf("tick: n=%d err=%v", n, err)
	}
	r.Wait()
	if len(h.calls) != 4 {
		t.Fatalf("handled %d jobs", len(h.calls))
	}
	if left, _ := q.Len(ctx); left != 1 {
		t.Fatalf("future job consumed: left=%d", left)
	}
}

func TestTick_RetriesWithBackoffThenDrops(t *testing.T) {
	ctx := context.Background()
	q := newQueue(t)
	id, _ := q.Enqueue(ctx, domain.Job{Type: domain.JobMembershipExpire, Payload: json.RawMessage(`{}`)}, 0)

	h := &recorder{fail: map[domain.JobType]bool{domain.JobMembershipExpire: true}}
	base := time.Now()
	now := base.Add(time.Second)
	for attempt := 1; attempt <= worker.MaxAttempts; attempt++ {
		r := worker.New(q, h, clockAt{now}, worker.Options{Batch: 10, Workers: 1, Backoff: time.Minute})
		n, err := r.Tick(ctx)
		if err != nil || n != 1 {
			t.Fatalf("attempt %d: n=%d err=%v", attempt, n, err)
		}
		r.Wait()
		if attempt == worker.MaxAttempts {
			break
		}
		// the retry is not due before its backoff elapses
		delay := time.Minute << (attempt - 1)
		if n, _ := worker.New(q, h, clockAt{base.Add(delay - time.Second)}, worker.Options{Batch: 10}).Tick(ctx); n != 0 {
			t.Fatalf("retry %d fired early", attempt)
		}
		now = base.Add(delay + time.Second)
	}
	if h.calls[id] != worker.MaxAttempts {
		t.Fatalf("calls: %d", h.calls[id])
	}
	if left, _ := q.Len(ctx); left != 0 {
		t.Fatalf("dropped job still queued: %d", left)
	}
}

// partialQueue hands out jobs together with a claim error.
type partialQueue struct {
	jobs []domain.Job
	err  error
}

func (q *partialQueue) Enqueue(ctx context.Context, job domain.Job, delay time.Duration) (string, error) {
	q.jobs = append(q.jobs, job)
	return job.ID, nil
}

func (q *partialQueue) Due(ctx context.Context, now time.Time, max int) ([]domain.Job, error) {
	out := q.jobs
	q.jobs = nil
	return out, q.err
}

func TestTick_DispatchesJobsClaimedBeforeAnError(t *testing.T) {
	q := &partialQueue{
		jobs: []domain.Job{{ID: "a", Type: domain.JobMembershipExpire}, {ID: "b", Type: domain.JobReviewOpen}},
		err:  errors.New("connection reset"),
	}
	h := &recorder{}
	r := worker.New(q, h, clockAt{time.Now()}, worker.Options{Batch: 10, Workers: 2})
	n, err := r.Tick(context.Background())
	r.Wait()
	if err == nil || n != 2 {
		t.Fatalf("tick: n=%d err=%v", n, err)
	}
	if h.calls["a"] != 1 || h.calls["b"] != 1 {
		t.Fatalf("claimed jobs not handled: %v", h.calls)
	}
}
