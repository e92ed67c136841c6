package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/internal/dto"
	"github.com/workpulse/work-pulse/internal/service"
	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/middleware"
	"github.com/workpulse/work-pulse/pkg/response"
)

// FocusHandler handles the caller's focus timer
type FocusHandler struct {
	focusService service.FocusService
	log          *logger.Logger
	now          service.Clock
}

// NewFocusHandler creates a new FocusHandler
func NewFocusHandler(focusService service.FocusService, log *logger.Logger) *FocusHandler {
	return &FocusHandler{
		focusService: focusService,
		log:          log.Named("focus-handler"),
		now:          time.Now,
	}
}

// Current handles GET /api/v1/focus/current
func (h *FocusHandler) Current(c *gin.Context) {
	h.respond(c, http.StatusOK, h.focusService.Current)
}

// Start handles POST /api/v1/focus/start
func (h *FocusHandler) Start(c *gin.Context) {
	var req dto.StartFocusRequest
	// an empty body starts a default session
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
			return
		}
	}

	h.respond(c, http.StatusCreated, func(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error) {
		return h.focusService.Start(ctx, tenantID, userID, &req)
	})
}

// Pause handles POST /api/v1/focus/pause
func (h *FocusHandler) Pause(c *gin.Context) {
	h.respond(c, http.StatusOK, h.focusService.Pause)
}

// Resume handles POST /api/v1/focus/resume
func (h *FocusHandler) Resume(c *gin.Context) {
	h.respond(c, http.StatusOK, h.focusService.Resume)
}

// Complete handles POST /api/v1/focus/complete
func (h *FocusHandler) Complete(c *gin.Context) {
	h.respond(c, http.StatusOK, h.focusService.Complete)
}

// Cancel handles POST /api/v1/focus/cancel
func (h *FocusHandler) Cancel(c *gin.Context) {
	h.respond(c, http.StatusOK, h.focusService.Cancel)
}

func (h *FocusHandler) respond(c *gin.Context, status int, op func(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error)) {
	tenantID, userID, ok := caller(c)
	if !ok {
		return
	}

	session, err := op(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	middleware.SetAuditResourceID(c, session.ID)
	c.JSON(status, response.Success(dto.ToFocusSessionResponse(session, h.now())))
}
