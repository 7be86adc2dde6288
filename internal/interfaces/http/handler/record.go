package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classsync/backend/internal/domain/reconcile"
)

// RecordService is the application port serving record queries
type RecordService interface {
	List(ctx context.Context, storeID uuid.UUID, filter reconcile.OrderRecordFilter) ([]reconcile.OrderRecord, int64, error)
	Get(ctx context.Context, recordID uuid.UUID) (*reconcile.OrderRecord, error)
	Delete(ctx context.Context, recordID uuid.UUID) error
}

// StatusService is the application port for manual workflow transitions
type StatusService interface {
	ChangeStatus(ctx context.Context, recordID uuid.UUID, requested reconcile.ManageStatus, round *int, actor string) (*reconcile.OrderRecord, error)
	History(ctx context.Context, recordID uuid.UUID) ([]reconcile.StatusHistory, error)
}

// RecordHandler exposes order records and their status workflow
type RecordHandler struct {
	BaseHandler
	records  RecordService
	statuses StatusService
}

// NewRecordHandler creates a record handler
func NewRecordHandler(records RecordService, statuses StatusService) *RecordHandler {
	return &RecordHandler{records: records, statuses: statuses}
}

// RegisterRoutes registers record routes
func (h *RecordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stores/:id/records", h.List)

	records := rg.Group("/records/:id")
	{
		records.GET("", h.Get)
		records.DELETE("", h.Delete)
		records.POST("/status", h.ChangeStatus)
		records.GET("/history", h.History)
	}
}

// List handles GET /stores/:id/records
func (h *RecordHandler) List(c *gin.Context) {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid store ID")
		return
	}

	filter := reconcile.OrderRecordFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 50),
	}
	if raw := c.Query("status"); raw != "" {
		status := reconcile.ManageStatus(raw)
		if !status.IsValid() {
			h.BadRequest(c, "unknown manage status: "+raw)
			return
		}
		filter.Status = &status
	}

	records, total, err := h.records.List(c.Request.Context(), storeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]RecordResponse, len(records))
	for i := range records {
		out[i] = toRecordResponse(&records[i])
	}
	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}

// Get handles GET /records/:id
func (h *RecordHandler) Get(c *gin.Context) {
	recordID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid record ID")
		return
	}

	record, err := h.records.Get(c.Request.Context(), recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponse(record))
}

// Delete handles DELETE /records/:id. Only operator-entered records may be
// deleted individually; synced rows go away only through a data reset.
func (h *RecordHandler) Delete(c *gin.Context) {
	recordID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid record ID")
		return
	}

	if err := h.records.Delete(c.Request.Context(), recordID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ChangeStatus handles POST /records/:id/status
func (h *RecordHandler) ChangeStatus(c *gin.Context) {
	recordID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid record ID")
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	record, err := h.statuses.ChangeStatus(
		c.Request.Context(),
		recordID,
		reconcile.ManageStatus(req.Status),
		req.Round,
		req.Actor,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponse(record))
}

// History handles GET /records/:id/history
func (h *RecordHandler) History(c *gin.Context) {
	recordID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid record ID")
		return
	}

	entries, err := h.statuses.History(c.Request.Context(), recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]StatusHistoryResponse, len(entries))
	for i := range entries {
		out[i] = toStatusHistoryResponse(&entries[i])
	}
	h.Success(c, out)
}
