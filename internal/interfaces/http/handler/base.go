package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/domain/shared"
	"github.com/classsync/backend/internal/domain/upstream"
	"github.com/classsync/backend/internal/interfaces/http/dto"
	"github.com/classsync/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDContextKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// parseIDParam parses a UUID path parameter
func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Accepted sends a 202 response for work continuing in the background
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving the status from the code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps domain errors to the dto error envelope. Every
// rejection carries a distinct code so operators can tell a blocked run
// from a workflow violation from an unreachable upstream.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, reconcile.ErrRecordNotFound),
		errors.Is(err, reconcile.ErrRunNotFound),
		errors.Is(err, reconcile.ErrScheduleNotFound):
		h.NotFound(c, err.Error())

	case errors.Is(err, reconcile.ErrSyncAlreadyRunning),
		errors.Is(err, reconcile.ErrResetWhileRunning):
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, err.Error())

	case errors.Is(err, reconcile.ErrRefundEntryIsAuto):
		h.ErrorWithCode(c, dto.ErrCodeRefundIsAutomatic, err.Error())

	case errors.Is(err, reconcile.ErrInvalidTransition),
		errors.Is(err, reconcile.ErrUnknownStatus),
		errors.Is(err, reconcile.ErrDeferralRoundNotSet):
		h.ErrorWithCode(c, dto.ErrCodeInvalidTransition, err.Error())

	case errors.Is(err, reconcile.ErrInvalidInterval):
		h.ErrorWithCode(c, dto.ErrCodeValidation, err.Error())

	case errors.Is(err, reconcile.ErrNoAutomationCredential),
		errors.Is(err, upstream.ErrCredentialNotFound):
		h.ErrorWithCode(c, dto.ErrCodeNoCredential, err.Error())

	case errors.Is(err, upstream.ErrUnavailable),
		errors.Is(err, upstream.ErrRateLimited),
		errors.Is(err, upstream.ErrAuthFailed):
		h.ErrorWithCode(c, dto.ErrCodeUpstreamUnavailable, err.Error())

	default:
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			h.ErrorWithCode(c, "ERR_"+domainErr.Code, domainErr.Message)
			return
		}
		h.InternalError(c, "An unexpected error occurred")
	}
}
