package runtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kysclient/foodly-backend/internal/data/repos/jobs"
	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/pkg/dbctx"
)

// Context is the execution handle for one claimed job run. It owns the only
// sanctioned ways to report progress or terminate execution; handlers never
// write job_run rows directly. All transitions are guarded so a canceled job
// is not overwritten.
type Context struct {
	Ctx  context.Context
	Job  *domain.JobRun
	Repo jobs.JobRunRepo
}

func NewContext(ctx context.Context, job *domain.JobRun, repo jobs.JobRunRepo) *Context {
	return &Context{Ctx: ctx, Job: job, Repo: repo}
}

// DecodePayload unmarshals the job payload into v.
func (c *Context) DecodePayload(v any) error {
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(c.Job.Payload, v)
}

// Progress persists a non-terminal stage/progress update and refreshes the
// heartbeat so the claim is not considered stale.
func (c *Context) Progress(stage string, pct int, msg string) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, []string{domain.JobStatusCanceled}, map[string]interface{}{
		"stage":        stage,
		"progress":     pct,
		"error":        "",
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if !ok {
		return
	}
	c.Job.Stage = stage
	c.Job.Progress = pct
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now
}

// Fail marks the run terminally failed and records the error. locked_at is
// cleared so other workers will not treat the row as in-progress.
func (c *Context) Fail(stage string, err error) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, []string{domain.JobStatusCanceled}, map[string]interface{}{
		"status":        domain.JobStatusFailed,
		"stage":         stage,
		"error":         msg,
		"last_error_at": now,
		"locked_at":     nil,
		"updated_at":    now,
	})
	if !ok {
		return
	}
	c.Job.Status = domain.JobStatusFailed
	c.Job.Stage = stage
	c.Job.Error = msg
	c.Job.LastErrorAt = &now
	c.Job.LockedAt = nil
	c.Job.UpdatedAt = now
}

// Succeed marks the run terminally succeeded and stores the result payload.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	var res datatypes.JSON
	if result != nil {
		b, _ := json.Marshal(result)
		res = datatypes.JSON(b)
	}
	ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, []string{domain.JobStatusCanceled}, map[string]interface{}{
		"status":       domain.JobStatusSucceeded,
		"stage":        finalStage,
		"progress":     100,
		"error":        "",
		"result":       res,
		"locked_at":    nil,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if !ok {
		return
	}
	c.Job.Status = domain.JobStatusSucceeded
	c.Job.Stage = finalStage
	c.Job.Progress = 100
	c.Job.Error = ""
	c.Job.Result = res
	c.Job.LockedAt = nil
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now
}
