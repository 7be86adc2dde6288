package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classsync/backend/internal/domain/reconcile"
)

// ScheduleService is the application port for per-store scheduling state
type ScheduleService interface {
	Toggle(ctx context.Context, storeID uuid.UUID, enabled bool, intervalMinutes int) (*reconcile.StoreSchedule, error)
	Status(ctx context.Context, storeID uuid.UUID) (*reconcile.StoreSchedule, error)
}

// ScheduleHandler exposes store schedule operations
type ScheduleHandler struct {
	BaseHandler
	schedules ScheduleService
}

// NewScheduleHandler creates a schedule handler
func NewScheduleHandler(schedules ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// RegisterRoutes registers schedule routes
func (h *ScheduleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stores := rg.Group("/stores/:id")
	{
		stores.PUT("/schedule", h.Toggle)
		stores.GET("/schedule", h.Status)
	}
}

// Toggle handles PUT /stores/:id/schedule
func (h *ScheduleHandler) Toggle(c *gin.Context) {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid store ID")
		return
	}

	var req ToggleScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	schedule, err := h.schedules.Toggle(c.Request.Context(), storeID, *req.Enabled, req.IntervalMinutes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toScheduleResponse(schedule))
}

// Status handles GET /stores/:id/schedule
func (h *ScheduleHandler) Status(c *gin.Context) {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid store ID")
		return
	}

	schedule, err := h.schedules.Status(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toScheduleResponse(schedule))
}
