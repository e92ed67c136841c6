package dto

import (
	"time"

	"github.com/workpulse/work-pulse/internal/calendar"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"

	defaultUpcomingPageSize = 10
)

// GridQuery represents query parameters for the month grid
type GridQuery struct {
	Month    string `form:"month"`
	Timezone string `form:"tz"`
}

// Anchor resolves the query into a month anchor. Missing values fall back to the
// current month and fallback location.
func (q *GridQuery) Anchor(now time.Time, fallback *time.Location) (time.Time, ValidationErrors) {
	var errs ValidationErrors

	loc := fallback
	if q.Timezone != "" {
		l, err := time.LoadLocation(q.Timezone)
		if err != nil {
			errs.Add("tz", "unknown time zone")
			return time.Time{}, errs
		}
		loc = l
	}

	if q.Month == "" {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc), nil
	}

	month, err := time.ParseInLocation(monthLayout, q.Month, loc)
	if err != nil {
		errs.Add("month", "month must be formatted YYYY-MM")
		return time.Time{}, errs
	}
	return month, nil
}

// UpcomingQuery represents query parameters for upcoming events.
// Pointers distinguish an absent value (defaulted) from an explicit zero (rejected).
type UpcomingQuery struct {
	Search   string `form:"search" binding:"omitempty,max=255"`
	Page     *int   `form:"page"`
	PageSize *int   `form:"page_size"`
}

// Values returns the page and page size with defaults applied
func (q *UpcomingQuery) Values() (page, pageSize int) {
	page, pageSize = 1, defaultUpcomingPageSize
	if q.Page != nil {
		page = *q.Page
	}
	if q.PageSize != nil {
		pageSize = *q.PageSize
	}
	return page, pageSize
}

// DayResponse is one grid cell; blank leading cells carry day 0 and no date
type DayResponse struct {
	Day    int              `json:"day"`
	Date   *string          `json:"date"`
	Events []*EventResponse `json:"events"`
}

// GridResponse is a rendered month
type GridResponse struct {
	Month    string        `json:"month"`
	Timezone string        `json:"timezone"`
	Days     []DayResponse `json:"days"`
}

// ToGridResponse converts a projected grid
func ToGridResponse(anchor time.Time, days []calendar.Day) *GridResponse {
	resp := &GridResponse{
		Month:    anchor.Format(monthLayout),
		Timezone: anchor.Location().String(),
		Days:     make([]DayResponse, 0, len(days)),
	}
	for _, d := range days {
		cell := DayResponse{Day: d.Day, Events: ToEventResponses(d.Events)}
		if d.Date != nil {
			s := d.Date.Format(dateLayout)
			cell.Date = &s
		}
		resp.Days = append(resp.Days, cell)
	}
	return resp
}

// UpcomingResponse is one page of upcoming events
type UpcomingResponse struct {
	Items      []*EventResponse `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalItems int              `json:"total_items"`
	TotalPages int              `json:"total_pages"`
}

// ToUpcomingResponse converts a projected page
func ToUpcomingResponse(p *calendar.UpcomingPage) *UpcomingResponse {
	return &UpcomingResponse{
		Items:      ToEventResponses(p.Items),
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
	}
}
