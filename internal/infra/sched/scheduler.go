package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/august-unsainted/payment-bot/internal/domain"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/adapter"
	"github.com/august-unsainted/payment-bot/internal/domain/ports/repository"
	"github.com/august-unsainted/payment-bot/internal/infra/metrics"
	"github.com/august-unsainted/payment-bot/internal/infra/worker"
)

// Handler processes one fired job. A non-nil error keeps the persisted row so
// the job re-fires on next process start (at-least-once, never silent loss).
type Handler func(ctx context.Context, payload model.JobPayload) error

// Compile-time check
var _ adapter.Scheduler = (*ExpiryScheduler)(nil)

// ExpiryScheduler is a durable timer service keyed by (user_id, kind). Every
// job is persisted before its in-process timer is armed; Start reloads the
// table after a restart and fires past-due jobs immediately. Scheduling an
// existing key replaces the previous job without a double fire.
type ExpiryScheduler struct {
	jobs repository.JobRepository
	pool *worker.Pool
	now  func() time.Time
	log  *zerolog.Logger

	mu       sync.Mutex
	ctx      context.Context
	gen      uint64
	timers   map[model.JobKey]armedTimer
	handlers map[model.JobKind]Handler
}

// armedTimer pairs a timer with the generation that armed it, so a fire from
// a replaced timer can be told apart from the current one.
type armedTimer struct {
	timer *time.Timer
	gen   uint64
}

// NewExpiryScheduler constructs the scheduler with injected storage and
// clock. A nil now defaults to time.Now; a nil pool runs handlers on their
// timer goroutine (used in tests).
func NewExpiryScheduler(jobs repository.JobRepository, pool *worker.Pool, now func() time.Time, logger *zerolog.Logger) *ExpiryScheduler {
	if now == nil {
		now = time.Now
	}
	schedLog := logger.With().Str("component", "ExpiryScheduler").Logger()
	return &ExpiryScheduler{
		jobs:     jobs,
		pool:     pool,
		now:      now,
		log:      &schedLog,
		timers:   map[model.JobKey]armedTimer{},
		handlers: map[model.JobKind]Handler{},
	}
}

// RegisterHandler wires the handler for a job kind. Must be called before
// Start; kinds without a handler fail their fires (and are retried later).
func (s *ExpiryScheduler) RegisterHandler(kind model.JobKind, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

// Start reloads all persisted jobs and arms their timers. Jobs whose fire
// time already elapsed fire right away.
func (s *ExpiryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	jobs, err := s.jobs.ListAll(ctx, repository.NoTX)
	if err != nil {
		return fmt.Errorf("reload scheduled jobs: %w", err)
	}
	for _, job := range jobs {
		s.arm(job)
	}
	s.log.Info().Int("count", len(jobs)).Msg("scheduled jobs re-armed")
	return nil
}

// Stop disarms all in-process timers. Persisted rows stay for the next start.
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, key)
	}
}

// Schedule persists the job and arms its timer, atomically replacing a job
// with the same (user_id, kind).
func (s *ExpiryScheduler) Schedule(ctx context.Context, job *model.ScheduledJob) error {
	if job.Kind != model.JobKindNotify && job.Kind != model.JobKindRevoke {
		return domain.ErrInvalidArgument
	}
	if err := s.jobs.Upsert(ctx, repository.NoTX, job); err != nil {
		return err
	}
	s.arm(job)
	return nil
}

// Cancel removes the persisted job and disarms its timer. No-op if absent.
func (s *ExpiryScheduler) Cancel(ctx context.Context, key model.JobKey) error {
	if err := s.jobs.Delete(ctx, repository.NoTX, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.timers[key]; ok {
		a.timer.Stop()
		delete(s.timers, key)
	}
	return nil
}

func (s *ExpiryScheduler) arm(job *model.ScheduledJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := job.Key()
	if old, ok := s.timers[key]; ok {
		old.timer.Stop()
	}

	delay := job.FireAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	cp := *job
	s.gen++
	gen := s.gen
	timer := time.AfterFunc(delay, func() { s.fire(gen, &cp) })
	s.timers[key] = armedTimer{timer: timer, gen: gen}
}

// fire runs after the timer elapses. The generation check drops fires of
// timers that were replaced after this callback was already queued.
func (s *ExpiryScheduler) fire(gen uint64, job *model.ScheduledJob) {
	s.mu.Lock()
	key := job.Key()
	if cur, ok := s.timers[key]; !ok || cur.gen != gen {
		s.mu.Unlock()
		return // superseded by a later Schedule
	}
	delete(s.timers, key)
	ctx := s.ctx
	handler := s.handlers[job.Kind]
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	run := func(ctx context.Context) error {
		s.runJob(ctx, handler, job)
		return nil
	}
	if s.pool != nil {
		if err := s.pool.Submit(run); err == nil {
			return
		}
		// queue saturated: run on this goroutine rather than dropping
	}
	_ = run(ctx)
}

func (s *ExpiryScheduler) runJob(ctx context.Context, handler Handler, job *model.ScheduledJob) {
	if handler == nil {
		s.log.Error().Str("kind", string(job.Kind)).Int64("tg_id", job.UserID).Msg("no handler registered; job retained")
		metrics.IncJobFired(string(job.Kind), "failed")
		return
	}
	if err := handler(ctx, job.Payload); err != nil {
		// Row stays put; the job re-fires on next process start.
		s.log.Error().Err(err).Str("kind", string(job.Kind)).Int64("tg_id", job.UserID).Msg("job handler failed; job retained")
		metrics.IncJobFired(string(job.Kind), "failed")
		return
	}
	// Delete only this job's row: a replacement upserted under the same key
	// while the handler was running must keep its persisted row.
	if err := s.jobs.DeleteFired(ctx, repository.NoTX, job.Key(), job.FireAt); err != nil {
		// Deleting failed after a successful handler run: the job may fire
		// again after restart, which handlers tolerate by being idempotent.
		s.log.Error().Err(err).Str("kind", string(job.Kind)).Int64("tg_id", job.UserID).Msg("job delete failed")
	}
	metrics.IncJobFired(string(job.Kind), "completed")
}
