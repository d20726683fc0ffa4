package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/jobtracker/internal/domain/job"
	"github.com/geocoder89/jobtracker/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type StatsReader interface {
	CountsByStatus(ctx context.Context, ownerID string) (job.StatusCounts, error)
}

type StatsHandler struct {
	stats StatsReader
}

func NewStatsHandler(stats StatsReader) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GET /api/stats
func (h *StatsHandler) Get(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	counts, err := h.stats.CountsByStatus(cctx, ownerID)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "stats.failed", "err", err)
		RespondInternal(ctx, "Failed to fetch stats")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, counts)
}
