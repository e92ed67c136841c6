package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workpulse/work-pulse/internal/dto"
	"github.com/workpulse/work-pulse/internal/service"
	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/middleware"
	"github.com/workpulse/work-pulse/pkg/response"
)

// EventHandler handles calendar event CRUD requests
type EventHandler struct {
	eventService service.EventService
	log          *logger.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService service.EventService, log *logger.Logger) *EventHandler {
	return &EventHandler{eventService: eventService, log: log.Named("event-handler")}
}

// List handles listing stored events
// GET /api/v1/calendar
func (h *EventHandler) List(c *gin.Context) {
	tenantID, _, ok := caller(c)
	if !ok {
		return
	}

	var query dto.ListEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	result, err := h.eventService.List(c.Request.Context(), tenantID, &query)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(result.Events, result.Page, result.Limit, int64(result.TotalCount)))
}

// Create handles event creation
// POST /api/v1/calendar
func (h *EventHandler) Create(c *gin.Context) {
	tenantID, _, ok := caller(c)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), tenantID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	middleware.SetAuditResourceID(c, event.ID)
	c.JSON(http.StatusCreated, response.Success(dto.ToEventResponse(event)))
}

// Get handles retrieving one event
// GET /api/v1/calendar/:id
func (h *EventHandler) Get(c *gin.Context) {
	tenantID, _, ok := caller(c)
	if !ok {
		return
	}

	event, err := h.eventService.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.ToEventResponse(event)))
}

// Update handles a partial event update
// PUT /api/v1/calendar/:id
func (h *EventHandler) Update(c *gin.Context) {
	tenantID, _, ok := caller(c)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), tenantID, c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.ToEventResponse(event)))
}

// Delete handles event soft deletion
// DELETE /api/v1/calendar/:id
func (h *EventHandler) Delete(c *gin.Context) {
	tenantID, _, ok := caller(c)
	if !ok {
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Event deleted successfully"}))
}
