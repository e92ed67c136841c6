package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/calendar"
	"github.com/workpulse/work-pulse/internal/dto"
	"github.com/workpulse/work-pulse/internal/service"
	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/middleware"
	"github.com/workpulse/work-pulse/pkg/response"
)

// respondError maps service errors onto the response envelope. Anything unrecognised is
// logged and answered with a generic INTERNAL_ERROR.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var verrs dto.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, response.ValidationFailed(verrs.Details()))
	case errors.Is(err, calendar.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, response.InvalidArgument(err.Error()))
	case errors.Is(err, service.ErrEventNotFound):
		c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
	case errors.Is(err, service.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, response.NotFound("Tenant not found"))
	case errors.Is(err, service.ErrNoActiveSession):
		c.JSON(http.StatusNotFound, response.NotFound("No focus session"))
	case errors.Is(err, service.ErrTenantAlreadyExists):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeDuplicateEntry, "Tenant with this slug already exists"))
	case errors.Is(err, service.ErrSessionActive):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeSessionActive, "A focus session is already running or paused"))
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeInvalidTransition, "Focus session cannot make that transition"))
	case errors.Is(err, service.ErrFocusConflict):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeConflict, "Focus session was modified concurrently, retry"))
	default:
		log.WithContext(c.Request.Context()).Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, response.InternalError(""))
	}
}

// caller returns the tenant and user from the bearer token, answering 401 when absent
func caller(c *gin.Context) (tenantID, userID string, ok bool) {
	tenantID, _ = middleware.GetTenantID(c)
	userID, _ = middleware.GetUserID(c)
	if tenantID == "" || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return "", "", false
	}
	return tenantID, userID, true
}
