package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	jobrepo "github.com/kysclient/foodly-backend/internal/data/repos/jobs"
	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/jobs/runtime"
	"github.com/kysclient/foodly-backend/internal/pkg/dbctx"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
)

// Config tunes the polling workers. Zero values fall back to defaults.
type Config struct {
	Concurrency       int
	PollInterval      time.Duration
	MaxAttempts       int
	RetryDelay        time.Duration
	StaleRunning      time.Duration
	HeartbeatInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 1 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 30 * time.Second
	}
	if c.StaleRunning <= 0 {
		c.StaleRunning = 2 * time.Minute
	}
	// Must stay well under StaleRunning or live jobs get reclaimed.
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 15 * time.Second
	}
	return c
}

// Worker polls job_runs for runnable rows and dispatches them to registered
// handlers. Each claim is exclusive (SKIP LOCKED), so running several workers
// against the same database is safe.
type Worker struct {
	log      *logger.Logger
	repo     jobrepo.JobRunRepo
	registry *runtime.Registry
	cfg      Config
}

func NewWorker(baseLog *logger.Logger, repo jobrepo.JobRunRepo, registry *runtime.Registry, cfg Config) *Worker {
	return &Worker{
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		cfg:      cfg.withDefaults(),
	}
}

func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.Concurrency; i++ {
		go w.loop(ctx, i)
	}
}

func (w *Worker) loop(ctx context.Context, slot int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	log := w.log.With("slot", slot)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, w.cfg.MaxAttempts, w.cfg.RetryDelay, w.cfg.StaleRunning)
			if err != nil {
				log.Warn("ClaimNextRunnable failed", "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.runOne(ctx, log, job)
		}
	}
}

func (w *Worker) runOne(ctx context.Context, log *logger.Logger, job *domain.JobRun) {
	jc := runtime.NewContext(ctx, job, w.repo)
	h, ok := w.registry.Get(job.JobType)
	if !ok {
		log.Warn("No handler registered for job_type", "job_type", job.JobType, "job_id", job.ID)
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
		return
	}
	// Long handler phases (a slow provider call in particular) emit no
	// progress, so the claim's heartbeat is refreshed on a side ticker for as
	// long as the handler runs. Otherwise a live run past StaleRunning would
	// be reclaimed and executed twice.
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go w.heartbeatLoop(hbCtx, log, job.ID)

	// A panicking handler must not take the worker loop down with it, and the
	// run must still land in a terminal state.
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return h.Run(jc)
	}()
	if err != nil {
		log.Warn("Job failed", "job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts, "error", err)
		// Handlers usually record failure themselves; this is the backstop for
		// panics and handlers that bail before reaching a terminal state.
		if !isTerminal(jc.Job.Status) {
			jc.Fail(jc.Job.Stage, err)
		}
		return
	}
	log.Info("Job finished", "job_id", job.ID, "job_type", job.JobType)
}

func (w *Worker) heartbeatLoop(ctx context.Context, log *logger.Logger, jobID uuid.UUID) {
	ticker := time.NewTicker(w.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.repo.Heartbeat(dbctx.Context{Ctx: ctx}, jobID); err != nil {
				log.Warn("Heartbeat failed", "job_id", jobID, "error", err)
			}
		}
	}
}

func isTerminal(status string) bool {
	switch status {
	case domain.JobStatusSucceeded, domain.JobStatusFailed, domain.JobStatusCanceled:
		return true
	}
	return false
}
