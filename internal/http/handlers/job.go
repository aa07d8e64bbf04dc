package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jobrepo "github.com/kysclient/foodly-backend/internal/data/repos/jobs"
	"github.com/kysclient/foodly-backend/internal/http/response"
	"github.com/kysclient/foodly-backend/internal/pkg/dbctx"
	"github.com/kysclient/foodly-backend/internal/pkg/requestdata"
)

type JobHandler struct {
	jobs jobrepo.JobRunRepo
}

func NewJobHandler(jobs jobrepo.JobRunRepo) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.GetByIDForUser(dbctx.Context{Ctx: c.Request.Context()}, jobID, rd.UserID)
	if err != nil {
		if errors.Is(err, jobrepo.ErrJobNotFound) {
			response.RespondError(c, http.StatusNotFound, "job_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "get_job_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}
