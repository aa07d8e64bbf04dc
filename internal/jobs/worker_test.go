package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/jobs/runtime"
	"github.com/kysclient/foodly-backend/internal/pkg/dbctx"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
)

type memJobRepo struct {
	job *domain.JobRun

	mu         sync.Mutex
	heartbeats int
}

func (m *memJobRepo) Create(_ dbctx.Context, job *domain.JobRun) (*domain.JobRun, error) {
	return job, nil
}
func (m *memJobRepo) GetByID(_ dbctx.Context, _ uuid.UUID) (*domain.JobRun, error) {
	return m.job, nil
}
func (m *memJobRepo) GetByIDForUser(_ dbctx.Context, _ uuid.UUID, _ uuid.UUID) (*domain.JobRun, error) {
	return m.job, nil
}
func (m *memJobRepo) ClaimNextRunnable(_ dbctx.Context, _ int, _ time.Duration, _ time.Duration) (*domain.JobRun, error) {
	return nil, nil
}
func (m *memJobRepo) UpdateFieldsUnlessStatus(_ dbctx.Context, _ uuid.UUID, disallowed []string, updates map[string]interface{}) (bool, error) {
	for _, s := range disallowed {
		if m.job.Status == s {
			return false, nil
		}
	}
	if v, ok := updates["status"].(string); ok {
		m.job.Status = v
	}
	if v, ok := updates["stage"].(string); ok {
		m.job.Stage = v
	}
	if v, ok := updates["error"].(string); ok {
		m.job.Error = v
	}
	return true, nil
}
func (m *memJobRepo) Heartbeat(_ dbctx.Context, _ uuid.UUID) error {
	m.mu.Lock()
	m.heartbeats++
	m.mu.Unlock()
	return nil
}

func (m *memJobRepo) heartbeatCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heartbeats
}

type funcHandler struct {
	jobType string
	run     func(jc *runtime.Context) error
}

func (h *funcHandler) Type() string                  { return h.jobType }
func (h *funcHandler) Run(jc *runtime.Context) error { return h.run(jc) }

func newWorkerFixture(t *testing.T, jobType string, h runtime.Handler) (*Worker, *memJobRepo) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	registry := runtime.NewRegistry()
	if h != nil {
		if err := registry.Register(h); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	repo := &memJobRepo{job: &domain.JobRun{
		ID:      uuid.New(),
		JobType: jobType,
		Status:  domain.JobStatusRunning,
		Stage:   "claimed",
	}}
	return NewWorker(log, repo, registry, Config{}), repo
}

func TestRunOnePanicMarksFailed(t *testing.T) {
	h := &funcHandler{jobType: "panicky", run: func(_ *runtime.Context) error {
		panic("boom")
	}}
	w, repo := newWorkerFixture(t, "panicky", h)

	w.runOne(context.Background(), w.log, repo.job)

	if repo.job.Status != domain.JobStatusFailed {
		t.Fatalf("panicking handler should leave the job failed: %+v", repo.job)
	}
	if repo.job.Error == "" {
		t.Fatalf("panic should be recorded on the run")
	}
}

func TestRunOneMissingHandlerFails(t *testing.T) {
	w, repo := newWorkerFixture(t, "unknown", nil)

	w.runOne(context.Background(), w.log, repo.job)

	if repo.job.Status != domain.JobStatusFailed || repo.job.Stage != "dispatch" {
		t.Fatalf("unroutable job should fail at dispatch: %+v", repo.job)
	}
}

func TestRunOneErrorBackstop(t *testing.T) {
	// A handler that errors without reaching a terminal state still ends
	// terminal.
	h := &funcHandler{jobType: "flaky", run: func(_ *runtime.Context) error {
		return errors.New("transient")
	}}
	w, repo := newWorkerFixture(t, "flaky", h)

	w.runOne(context.Background(), w.log, repo.job)

	if repo.job.Status != domain.JobStatusFailed {
		t.Fatalf("errored run should be failed: %+v", repo.job)
	}
}

func TestRunOneKeepsHandlerTerminalState(t *testing.T) {
	// When the handler already recorded failure itself, the backstop must not
	// overwrite its stage.
	h := &funcHandler{jobType: "selfterm", run: func(jc *runtime.Context) error {
		jc.Fail("parse", errors.New("bad response"))
		return errors.New("bad response")
	}}
	w, repo := newWorkerFixture(t, "selfterm", h)

	w.runOne(context.Background(), w.log, repo.job)

	if repo.job.Status != domain.JobStatusFailed || repo.job.Stage != "parse" {
		t.Fatalf("handler terminal state should stand: %+v", repo.job)
	}
}

func TestRunOneHeartbeatsDuringSlowHandler(t *testing.T) {
	// A handler stuck in a long phase emits no progress; the claim must still
	// stay fresh or another worker reclaims a live job.
	h := &funcHandler{jobType: "slow", run: func(_ *runtime.Context) error {
		time.Sleep(60 * time.Millisecond)
		return nil
	}}
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	registry := runtime.NewRegistry()
	if err := registry.Register(h); err != nil {
		t.Fatalf("register: %v", err)
	}
	repo := &memJobRepo{job: &domain.JobRun{
		ID:      uuid.New(),
		JobType: "slow",
		Status:  domain.JobStatusRunning,
		Stage:   "claimed",
	}}
	w := NewWorker(log, repo, registry, Config{HeartbeatInterval: 10 * time.Millisecond})

	w.runOne(context.Background(), w.log, repo.job)

	if repo.heartbeatCount() == 0 {
		t.Fatalf("expected heartbeats while the handler ran")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Concurrency != 4 || cfg.PollInterval != time.Second || cfg.MaxAttempts != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.HeartbeatInterval != 15*time.Second {
		t.Fatalf("unexpected heartbeat default: %+v", cfg)
	}
	custom := Config{Concurrency: 2, MaxAttempts: 3}.withDefaults()
	if custom.Concurrency != 2 || custom.MaxAttempts != 3 {
		t.Fatalf("explicit values overridden: %+v", custom)
	}
}
