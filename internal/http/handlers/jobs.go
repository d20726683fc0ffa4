package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/jobtracker/internal/domain/job"
	"github.com/geocoder89/jobtracker/internal/http/middlewares"
	"github.com/geocoder89/jobtracker/internal/observability"
	"github.com/gin-gonic/gin"
)

type JobStore interface {
	Create(ctx context.Context, ownerID string, req job.CreateRequest) (job.Job, error)
	Update(ctx context.Context, ownerID, id string, upd job.UpdateRequest) (job.Job, error)
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string, filter job.ListFilter) ([]job.Job, error)
}

// StatsInvalidator is told about every successful write so cached counts never
// outlive the data they summarise.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, ownerID string)
}

type JobsHandler struct {
	jobs  JobStore
	stats StatsInvalidator
	prom  *observability.Prom
}

func NewJobsHandler(jobs JobStore, stats StatsInvalidator, prom *observability.Prom) *JobsHandler {
	return &JobsHandler{jobs: jobs, stats: stats, prom: prom}
}

// POST /api/jobs
func (h *JobsHandler) Create(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req job.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	req.Company = strings.TrimSpace(req.Company)
	req.Position = strings.TrimSpace(req.Position)
	req.Location = strings.TrimSpace(req.Location)

	if fields := blankFields(&req.Company, &req.Position); len(fields) > 0 {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": fields})
		return
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	created, err := h.jobs.Create(cctx, ownerID, req)
	h.prom.RecordJobMutation("create", err)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "job.create_failed", "err", err)
		RespondInternal(ctx, "Could not create job")
		return
	}

	h.invalidate(ctx, ownerID)
	slog.Default().InfoContext(ctx.Request.Context(), "job.created", "job_id", created.ID, "status", created.Status)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Job added",
		"job":     created,
	})
}

// GET /api/jobs?status=&company=
func (h *JobsHandler) List(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var filter job.ListFilter

	if s := strings.TrimSpace(ctx.Query("status")); s != "" {
		status := job.Status(s)
		filter.Status = &status
	}

	if c := strings.TrimSpace(ctx.Query("company")); c != "" {
		filter.Company = &c
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	jobs, err := h.jobs.List(cctx, ownerID, filter)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "job.list_failed", "err", err)
		RespondInternal(ctx, "Could not fetch jobs")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, jobs)
}

// PUT|PATCH /api/jobs/:id
func (h *JobsHandler) Update(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	var req job.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	for _, field := range []*string{req.Company, req.Position, req.Location} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}

	if fields := blankFields(req.Company, req.Position); len(fields) > 0 {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": fields})
		return
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	updated, err := h.jobs.Update(cctx, ownerID, id, req)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			RespondNotFound(ctx, "Job not found")
			return
		}

		h.prom.RecordJobMutation("update", err)
		slog.Default().ErrorContext(ctx.Request.Context(), "job.update_failed", "job_id", id, "err", err)
		RespondInternal(ctx, "Could not update job")
		return
	}

	h.prom.RecordJobMutation("update", nil)
	h.invalidate(ctx, ownerID)
	slog.Default().InfoContext(ctx.Request.Context(), "job.updated", "job_id", updated.ID, "status", updated.Status)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Job updated",
		"job":     updated,
	})
}

// DELETE /api/jobs/:id
func (h *JobsHandler) Delete(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	err := h.jobs.Delete(cctx, ownerID, id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			RespondNotFound(ctx, "Job not found")
			return
		}

		h.prom.RecordJobMutation("delete", err)
		slog.Default().ErrorContext(ctx.Request.Context(), "job.delete_failed", "job_id", id, "err", err)
		RespondInternal(ctx, "Could not delete job")
		return
	}

	h.prom.RecordJobMutation("delete", nil)
	h.invalidate(ctx, ownerID)
	slog.Default().InfoContext(ctx.Request.Context(), "job.deleted", "job_id", id)

	ctx.JSON(http.StatusOK, gin.H{"message": "Job deleted"})
}

func (h *JobsHandler) invalidate(ctx *gin.Context, ownerID string) {
	if h.stats == nil {
		return
	}
	// the write already happened; a cancelled client must not leave stale counts
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Request.Context()), time.Second)
	defer cancel()

	h.stats.Invalidate(cctx, ownerID)
}

// blankFields reports present company/position values that are empty after trimming.
func blankFields(company, position *string) []FieldError {
	var out []FieldError
	if company != nil && *company == "" {
		out = append(out, FieldError{Field: "company", Rule: "required", Message: validationMessage("required", "")})
	}
	if position != nil && *position == "" {
		out = append(out, FieldError{Field: "position", Rule: "required", Message: validationMessage("required", "")})
	}
	return out
}
