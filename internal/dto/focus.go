package dto

import (
	"time"

	"github.com/workpulse/work-pulse/internal/domain"
)

// StartFocusRequest starts a focus session; Minutes 0 means the configured default
type StartFocusRequest struct {
	Label   string `json:"label" binding:"omitempty,max=200"`
	Minutes int    `json:"minutes"`
}

// Validate checks the requested duration against max
func (r *StartFocusRequest) Validate(max time.Duration) ValidationErrors {
	var errs ValidationErrors
	if r.Minutes < 0 {
		errs.Add("minutes", "minutes must not be negative")
	} else if time.Duration(r.Minutes)*time.Minute > max {
		errs.Add("minutes", "minutes must not exceed "+max.String())
	}
	return errs
}

// FocusSessionResponse represents a focus session with its live countdown
type FocusSessionResponse struct {
	ID               string  `json:"id"`
	Label            string  `json:"label,omitempty"`
	State            string  `json:"state"`
	DurationSeconds  int64   `json:"duration_seconds"`
	ElapsedSeconds   int64   `json:"elapsed_seconds"`
	RemainingSeconds int64   `json:"remaining_seconds"`
	StartedAt        string  `json:"started_at"`
	PausedAt         *string `json:"paused_at,omitempty"`
	CompletedAt      *string `json:"completed_at,omitempty"`
}

// ToFocusSessionResponse converts a session as of now
func ToFocusSessionResponse(s *domain.FocusSession, now time.Time) *FocusSessionResponse {
	resp := &FocusSessionResponse{
		ID:               s.ID,
		Label:            s.Label,
		State:            string(s.State),
		DurationSeconds:  int64(s.Duration / time.Second),
		ElapsedSeconds:   int64(s.ElapsedAt(now) / time.Second),
		RemainingSeconds: int64(s.Remaining(now) / time.Second),
		StartedAt:        s.StartedAt.Format(time.RFC3339),
	}
	if s.PausedAt != nil {
		p := s.PausedAt.Format(time.RFC3339)
		resp.PausedAt = &p
	}
	if s.CompletedAt != nil {
		c := s.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &c
	}
	return resp
}
