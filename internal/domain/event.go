package domain

import "time"

// EventType classifies a calendar entry for display
type EventType string

const (
	EventTypeMeeting  EventType = "meeting"
	EventTypeEvent    EventType = "event"
	EventTypeDeadline EventType = "deadline"
)

// IsValid reports whether t is a known event type
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeMeeting, EventTypeEvent, EventTypeDeadline:
		return true
	}
	return false
}

// RepeatRule is the recurrence cadence of an event
type RepeatRule string

const (
	RepeatOnce    RepeatRule = "once"
	RepeatDaily   RepeatRule = "daily"
	RepeatWeekly  RepeatRule = "weekly"
	RepeatMonthly RepeatRule = "monthly"
	RepeatYearly  RepeatRule = "yearly"
)

// IsValid reports whether r is a known repeat rule
func (r RepeatRule) IsValid() bool {
	switch r {
	case RepeatOnce, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	}
	return false
}

// IsRecurring reports whether r produces more than one occurrence
func (r RepeatRule) IsRecurring() bool {
	return r.IsValid() && r != RepeatOnce
}

// Event is a calendar entry owned by a tenant
type Event struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	Location      string     `json:"location,omitempty"`
	Type          EventType  `json:"type"`
	Repeat        RepeatRule `json:"repeat"`
	RepeatEndDate *time.Time `json:"repeat_end_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// Duration returns End - Start, never negative
func (e *Event) Duration() time.Duration {
	if e.End.Before(e.Start) {
		return 0
	}
	return e.End.Sub(e.Start)
}

// Clone returns a copy that shares no pointers with e
func (e *Event) Clone() *Event {
	c := *e
	if e.RepeatEndDate != nil {
		t := *e.RepeatEndDate
		c.RepeatEndDate = &t
	}
	if e.DeletedAt != nil {
		t := *e.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// EventChangeType names a write against the event store
type EventChangeType string

const (
	EventCreated EventChangeType = "event.created"
	EventUpdated EventChangeType = "event.updated"
	EventDeleted EventChangeType = "event.deleted"
)

// EventChange is published after every successful write
type EventChange struct {
	Type       EventChangeType `json:"type"`
	TenantID   string          `json:"tenant_id"`
	EventID    string          `json:"event_id"`
	Version    int64           `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
}
