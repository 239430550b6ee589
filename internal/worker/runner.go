// Package worker drains the delayed job queue with bounded concurrency.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

// MaxAttempts is how many times a failing job runs before it is dropped.
const MaxAttempts = 3

type Handler interface {
	Handle(ctx context.Context, job domain.Job) error
}

type Options struct {
	Poll    time.Duration
	Batch   int
	Workers int
	// Backoff is the retry delay after the first failure; it doubles per attempt.
	Backoff time.Duration
}

type Runner struct {
	queue   domain.JobQueue
	handler Handler
	clock   domain.Clock
	opts    Options
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
}

func New(q domain.JobQueue, h Handler, clock domain.Clock, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Batch < 1 {
		opts.Batch = 1
	}
	if opts.Poll <= 0 {
		opts.Poll = time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 5 * time.Second
	}
	return &Runner{queue: q, handler: h, clock: clock, opts: opts, sem: semaphore.NewWeighted(int64(opts.Workers))}
}

// Run polls until ctx is cancelled, then waits for in-flight jobs.
func (r *Runner) Run(ctx context.Context) error {
	t := time.NewTicker(r.opts.Poll)
	defer t.Stop()
	for {
		if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("poll failed")
		}
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return nil
		case <-t.C:
		}
	}
}

// Tick claims one batch of due jobs and dispatches them. It returns how many
// jobs were claimed; dispatched jobs may still be running. Jobs returned
// alongside a claim error are still dispatched, since they already left the queue.
func (r *Runner) Tick(ctx context.Context) (int, error) {
	jobs, claimErr := r.queue.Due(ctx, r.clock.Now(), r.opts.Batch)
	for i, job := range jobs {
		// acquire before launching the goroutine; release inside it
		if err := r.sem.Acquire(ctx, 1); err != nil {
			// put back what was claimed but never started
			for _, left := range jobs[i:] {
				r.requeue(context.WithoutCancel(ctx), left, 0)
			}
			return len(jobs), err
		}
		r.wg.Add(1)
		go func(job domain.Job) {
			defer r.wg.Done()
			defer r.sem.Release(1)
			r.process(ctx, job)
		}(job)
	}
	return len(jobs), claimErr
}

// Wait blocks until every dispatched job has finished.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) process(ctx context.Context, job domain.Job) {
	err := r.handler.Handle(ctx, job)
	if err == nil {
		log.Info().Str("job", job.ID).Str("type", string(job.Type)).Msg("job done")
		return
	}
	job.Attempts++
	if job.Attempts >= MaxAttempts {
		observability.ObserveJob(string(job.Type), "dropped")
		log.Error().Err(err).Str("job", job.ID).Str("type", string(job.Type)).Int("attempts", job.Attempts).Msg("job dropped")
		return
	}
	delay := r.opts.Backoff << (job.Attempts - 1)
	observability.ObserveJob(string(job.Type), "retry")
	log.Warn().Err(err).Str("job", job.ID).Str("type", string(job.Type)).Int("attempts", job.Attempts).Dur("delay", delay).Msg("job failed; retrying")
	r.requeue(context.WithoutCancel(ctx), job, delay)
}

func (r *Runner) requeue(ctx context.Context, job domain.Job, delay time.Duration) {
	if _, err := r.queue.Enqueue(ctx, job, delay); err != nil {
		log.Error().Err(err).Str("job", job.ID).Str("type", string(job.Type)).Msg("requeue failed; job lost")
	}
}
