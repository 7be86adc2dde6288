package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/classsync/backend/internal/infrastructure/scheduler"
)

// ActivitySource exposes recent scheduler activity
type ActivitySource interface {
	Recent() []scheduler.Event
}

// SchedulerHandler exposes the scheduler's activity feed
type SchedulerHandler struct {
	BaseHandler
	activity ActivitySource
}

// NewSchedulerHandler creates a scheduler handler
func NewSchedulerHandler(activity ActivitySource) *SchedulerHandler {
	return &SchedulerHandler{activity: activity}
}

// RegisterRoutes registers scheduler routes
func (h *SchedulerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/scheduler/activity", h.Activity)
}

// Activity handles GET /scheduler/activity
func (h *SchedulerHandler) Activity(c *gin.Context) {
	h.Success(c, h.activity.Recent())
}
