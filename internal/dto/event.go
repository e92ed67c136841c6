package dto

import (
	"time"
	"unicode/utf8"

	"github.com/workpulse/work-pulse/internal/domain"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxLocationLength    = 255
)

// CreateEventRequest represents the request to create a calendar event
type CreateEventRequest struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Start         time.Time         `json:"start"`
	End           time.Time         `json:"end"`
	Location      string            `json:"location"`
	Type          domain.EventType  `json:"type"`
	Repeat        domain.RepeatRule `json:"repeat"`
	RepeatEndDate *time.Time        `json:"repeat_end_date"`
}

// SetDefaults fills the optional enums
func (r *CreateEventRequest) SetDefaults() {
	if r.Type == "" {
		r.Type = domain.EventTypeEvent
	}
	if r.Repeat == "" {
		r.Repeat = domain.RepeatOnce
	}
}

// Validate checks every field and reports all failures at once
func (r *CreateEventRequest) Validate() ValidationErrors {
	return ValidateEvent(&domain.Event{
		Title:         r.Title,
		Description:   r.Description,
		Start:         r.Start,
		End:           r.End,
		Location:      r.Location,
		Type:          r.Type,
		Repeat:        r.Repeat,
		RepeatEndDate: r.RepeatEndDate,
	})
}

// UpdateEventRequest represents a partial update; nil fields are left unchanged
type UpdateEventRequest struct {
	Title         *string            `json:"title"`
	Description   *string            `json:"description"`
	Start         *time.Time         `json:"start"`
	End           *time.Time         `json:"end"`
	Location      *string            `json:"location"`
	Type          *domain.EventType  `json:"type"`
	Repeat        *domain.RepeatRule `json:"repeat"`
	RepeatEndDate *time.Time         `json:"repeat_end_date"`
	// ClearRepeatEnd removes an existing repeat end date
	ClearRepeatEnd bool `json:"clear_repeat_end_date"`
}

// IsEmpty reports whether no field was provided
func (r *UpdateEventRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Start == nil && r.End == nil &&
		r.Location == nil && r.Type == nil && r.Repeat == nil && r.RepeatEndDate == nil && !r.ClearRepeatEnd
}

// Apply copies the provided fields onto e
func (r *UpdateEventRequest) Apply(e *domain.Event) {
	if r.Title != nil {
		e.Title = *r.Title
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Start != nil {
		e.Start = *r.Start
	}
	if r.End != nil {
		e.End = *r.End
	}
	if r.Location != nil {
		e.Location = *r.Location
	}
	if r.Type != nil {
		e.Type = *r.Type
	}
	if r.Repeat != nil {
		e.Repeat = *r.Repeat
	}
	if r.RepeatEndDate != nil {
		end := *r.RepeatEndDate
		e.RepeatEndDate = &end
	}
	if r.ClearRepeatEnd {
		e.RepeatEndDate = nil
	}
}

// ValidateEvent checks the stored shape of an event
func ValidateEvent(e *domain.Event) ValidationErrors {
	var errs ValidationErrors

	switch n := utf8.RuneCountInString(e.Title); {
	case n == 0:
		errs.Add("title", "title is required")
	case n > maxTitleLength:
		errs.Add("title", "title must not exceed 200 characters")
	}

	if utf8.RuneCountInString(e.Description) > maxDescriptionLength {
		errs.Add("description", "description must not exceed 2000 characters")
	}
	if utf8.RuneCountInString(e.Location) > maxLocationLength {
		errs.Add("location", "location must not exceed 255 characters")
	}

	if e.Start.IsZero() {
		errs.Add("start", "start is required")
	}
	if e.End.IsZero() {
		errs.Add("end", "end is required")
	}
	if !e.Start.IsZero() && !e.End.IsZero() && e.End.Before(e.Start) {
		errs.Add("end", "end must not be before start")
	}

	if !e.Type.IsValid() {
		errs.Add("type", "type must be one of meeting, event, deadline")
	}
	if !e.Repeat.IsValid() {
		errs.Add("repeat", "repeat must be one of once, daily, weekly, monthly, yearly")
	}

	if e.RepeatEndDate != nil && !e.Start.IsZero() && e.RepeatEndDate.Before(e.Start) {
		errs.Add("repeat_end_date", "repeat_end_date must not be before start")
	}

	return errs
}

// EventResponse represents an event in responses
type EventResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Location      string  `json:"location,omitempty"`
	Type          string  `json:"type"`
	Repeat        string  `json:"repeat"`
	RepeatEndDate *string `json:"repeat_end_date,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// ToEventResponse converts a domain event
func ToEventResponse(e *domain.Event) *EventResponse {
	resp := &EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start.Format(time.RFC3339),
		End:         e.End.Format(time.RFC3339),
		Location:    e.Location,
		Type:        string(e.Type),
		Repeat:      string(e.Repeat),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
	if e.RepeatEndDate != nil {
		s := e.RepeatEndDate.Format(time.RFC3339)
		resp.RepeatEndDate = &s
	}
	return resp
}

// ToEventResponses converts a slice of domain events
func ToEventResponses(events []domain.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for i := range events {
		out = append(out, ToEventResponse(&events[i]))
	}
	return out
}

// ListEventsQuery represents query parameters for listing events
type ListEventsQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search" binding:"omitempty,max=255"`
}

// SetDefaults sets default values for query parameters
func (q *ListEventsQuery) SetDefaults() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
}

// ListEventsResponse represents a page of stored events
type ListEventsResponse struct {
	Events     []*EventResponse `json:"events"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}
