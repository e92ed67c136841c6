package domain

import (
	"errors"
	"time"
)

// FocusState is the lifecycle state of a focus session
type FocusState string

const (
	FocusRunning   FocusState = "running"
	FocusPaused    FocusState = "paused"
	FocusCompleted FocusState = "completed"
	FocusCancelled FocusState = "cancelled"
)

// ErrInvalidTransition is returned when a state change is not allowed
var ErrInvalidTransition = errors.New("invalid focus session transition")

// allowed next states per current state
var focusTransitions = map[FocusState][]FocusState{
	FocusRunning:   {FocusPaused, FocusCompleted, FocusCancelled},
	FocusPaused:    {FocusRunning, FocusCompleted, FocusCancelled},
	FocusCompleted: {},
	FocusCancelled: {},
}

// IsTerminal reports whether no further transitions are possible
func (s FocusState) IsTerminal() bool {
	return s == FocusCompleted || s == FocusCancelled
}

// CanTransitionTo reports whether moving to target is allowed
func (s FocusState) CanTransitionTo(target FocusState) bool {
	for _, allowed := range focusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// FocusSession is a per-user countdown timer.
// Elapsed accumulates time spent running before the current run began at StartedAt.
type FocusSession struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	UserID      string        `json:"user_id"`
	Label       string        `json:"label,omitempty"`
	State       FocusState    `json:"state"`
	Duration    time.Duration `json:"duration"`
	Elapsed     time.Duration `json:"elapsed"`
	StartedAt   time.Time     `json:"started_at"`
	PausedAt    *time.Time    `json:"paused_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Version     int64         `json:"version"`
}

// ElapsedAt returns the total running time as of now
func (s *FocusSession) ElapsedAt(now time.Time) time.Duration {
	elapsed := s.Elapsed
	if s.State == FocusRunning && now.After(s.StartedAt) {
		elapsed += now.Sub(s.StartedAt)
	}
	if elapsed > s.Duration {
		return s.Duration
	}
	return elapsed
}

// Remaining returns the time left as of now
func (s *FocusSession) Remaining(now time.Time) time.Duration {
	if s.State.IsTerminal() {
		return 0
	}
	return s.Duration - s.ElapsedAt(now)
}

// Transition moves the session to target at now, updating the timing fields
func (s *FocusSession) Transition(target FocusState, now time.Time) error {
	if !s.State.CanTransitionTo(target) {
		return ErrInvalidTransition
	}

	switch target {
	case FocusPaused:
		s.Elapsed = s.ElapsedAt(now)
		s.PausedAt = &now
	case FocusRunning:
		s.StartedAt = now
		s.PausedAt = nil
	case FocusCompleted, FocusCancelled:
		s.Elapsed = s.ElapsedAt(now)
		s.CompletedAt = &now
	}

	s.State = target
	s.UpdatedAt = now
	s.Version++
	return nil
}
