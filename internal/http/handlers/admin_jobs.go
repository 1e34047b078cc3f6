package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/arcodify/arcodify-api/internal/config"
	"github.com/arcodify/arcodify-api/internal/domain/job"
	"github.com/gin-gonic/gin"
)

type JobLogReader interface {
	ListRecent(ctx context.Context, status *string, limit int) ([]job.Job, error)
}

// AdminJobsHandler exposes the jobs table as a task log.
type AdminJobsHandler struct {
	jobs JobLogReader
}

func NewAdminJobsHandler(jobs JobLogReader) *AdminJobsHandler {
	return &AdminJobsHandler{jobs: jobs}
}

func (h *AdminJobsHandler) List(ctx *gin.Context) {
	limit := parseIntQuery(ctx, "limit", 50)

	if limit < 1 {
		limit = 1
	}

	if limit > 200 {
		limit = 200
	}

	var status *string

	if raw := ctx.Query("status"); raw != "" {
		switch job.Status(raw) {
		case job.StatusPending, job.StatusProcessing, job.StatusDone, job.StatusFailed:
			status = &raw
		default:
			RespondBadRequest(ctx, "Invalid status filter", gin.H{
				"allowed": []string{"pending", "processing", "done", "failed"},
			})
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.jobs.ListRecent(cctx, status, limit)

	if err != nil {
		RespondInternal(ctx, "Could not list jobs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"jobs":  items,
		"limit": limit,
	})
}
