package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/workpulse/work-pulse/internal/dto"
	"github.com/workpulse/work-pulse/internal/ics"
	"github.com/workpulse/work-pulse/internal/service"
	"github.com/workpulse/work-pulse/pkg/logger"
	"github.com/workpulse/work-pulse/pkg/response"
)

// CalendarHandler serves the month grid, upcoming list and iCalendar export
type CalendarHandler struct {
	calendarService service.CalendarService
	log             *logger.Logger
	now             service.Clock
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(calendarService service.CalendarService, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		calendarService: calendarService,
		log:             log.Named("calendar-handler"),
		now:             time.Now,
	}
}

// Grid handles the month grid
// GET /api/v1/calendar/grid?month=YYYY-MM&tz=Area/City
func (h *CalendarHandler) Grid(c *gin.Context) {
	tenantID, _, ok := caller(c)
	if !ok {
		return
	}

	var query dto.GridQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	ctx := c.Request.Context()
	fallback, err := h.calendarService.Location(ctx, tenantID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	anchor, verrs := query.Anchor(h.now(), fallback)
	if len(verrs) > 0 {
		respondError(c, h.log, verrs)
		return
	}

	days, err := h.calendarService.Grid(ctx, tenantID, anchor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.ToGridResponse(anchor, days)))
}

// Upcoming handles the paged list of future events
// GET /api/v1/calendar/upcoming?search=&page=&page_size=
func (h *CalendarHandler) Upcoming(c *gin.Context) {
	tenantID, _, ok := caller(c)
	if !ok {
		return
	}

	var query dto.UpcomingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	page, pageSize := query.Values()
	result, err := h.calendarService.Upcoming(c.Request.Context(), tenantID, h.now(), query.Search, page, pageSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.ToUpcomingResponse(result)))
}

// Export handles the iCalendar download
// GET /api/v1/calendar/export.ics
func (h *CalendarHandler) Export(c *gin.Context) {
	tenantID, _, ok := caller(c)
	if !ok {
		return
	}

	body, err := h.calendarService.Export(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="calendar.ics"`)
	c.Data(http.StatusOK, ics.ContentType, body)
}
