package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classsync/backend/internal/domain/reconcile"
)

// SyncService is the application port the sync handler drives
type SyncService interface {
	StartManual(ctx context.Context, storeID uuid.UUID, rangeDays int) (*reconcile.SyncRun, error)
	Progress(ctx context.Context, storeID uuid.UUID) (*reconcile.SyncRun, error)
	ListRuns(ctx context.Context, storeID uuid.UUID, limit int) ([]reconcile.SyncRun, error)
	Reset(ctx context.Context, storeID uuid.UUID) error
}

// SyncHandler exposes sync run operations
type SyncHandler struct {
	BaseHandler
	syncs SyncService
}

// NewSyncHandler creates a sync handler
func NewSyncHandler(syncs SyncService) *SyncHandler {
	return &SyncHandler{syncs: syncs}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stores := rg.Group("/stores/:id")
	{
		stores.POST("/sync", h.Start)
		stores.GET("/sync/progress", h.Progress)
		stores.GET("/sync/runs", h.Runs)
		stores.DELETE("/sync-data", h.Reset)
	}
}

// Start handles POST /stores/:id/sync
func (h *SyncHandler) Start(c *gin.Context) {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid store ID")
		return
	}

	var req StartSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	run, err := h.syncs.StartManual(c.Request.Context(), storeID, req.RangeDays)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toSyncRunResponse(run))
}

// Progress handles GET /stores/:id/sync/progress
func (h *SyncHandler) Progress(c *gin.Context) {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid store ID")
		return
	}

	run, err := h.syncs.Progress(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSyncRunResponse(run))
}

// Runs handles GET /stores/:id/sync/runs
func (h *SyncHandler) Runs(c *gin.Context) {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid store ID")
		return
	}

	runs, err := h.syncs.ListRuns(c.Request.Context(), storeID, queryInt(c, "limit", 0))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]SyncRunResponse, len(runs))
	for i := range runs {
		out[i] = toSyncRunResponse(&runs[i])
	}
	h.Success(c, out)
}

// Reset handles DELETE /stores/:id/sync-data
func (h *SyncHandler) Reset(c *gin.Context) {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid store ID")
		return
	}

	if err := h.syncs.Reset(c.Request.Context(), storeID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
