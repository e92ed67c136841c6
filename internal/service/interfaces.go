package service

import (
	"context"
	"errors"
	"time"

	"github.com/workpulse/work-pulse/internal/calendar"
	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/internal/dto"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTenantAlreadyExists = errors.New("tenant with this slug already exists")
	ErrNoActiveSession     = errors.New("no active focus session")
	ErrSessionActive       = errors.New("a focus session is already active")
	ErrInvalidTransition   = domain.ErrInvalidTransition
)

// EventService defines the interface for calendar event management
type EventService interface {
	// Create validates and stores a new event
	Create(ctx context.Context, tenantID string, req *dto.CreateEventRequest) (*domain.Event, error)
	// Get retrieves an event by ID
	Get(ctx context.Context, tenantID, id string) (*domain.Event, error)
	// List retrieves stored events with pagination and title search
	List(ctx context.Context, tenantID string, query *dto.ListEventsQuery) (*dto.ListEventsResponse, error)
	// Update applies a partial update
	Update(ctx context.Context, tenantID, id string, req *dto.UpdateEventRequest) (*domain.Event, error)
	// Delete soft deletes an event
	Delete(ctx context.Context, tenantID, id string) error
}

// CalendarService defines the interface for calendar projections
type CalendarService interface {
	// Grid returns the month grid containing anchor
	Grid(ctx context.Context, tenantID string, anchor time.Time) ([]calendar.Day, error)
	// Upcoming returns one page of events starting at or after now
	Upcoming(ctx context.Context, tenantID string, now time.Time, search string, page, pageSize int) (*calendar.UpcomingPage, error)
	// Export returns the tenant's events as an iCalendar document
	Export(ctx context.Context, tenantID string) ([]byte, error)
	// Location returns the tenant's configured time zone
	Location(ctx context.Context, tenantID string) (*time.Location, error)
	// Warm precomputes the grids of the given months
	Warm(ctx context.Context, tenantID string, anchors ...time.Time) error
}

// TenantService defines the interface for tenant management operations
type TenantService interface {
	// Create creates a new tenant
	Create(ctx context.Context, req *dto.CreateTenantRequest) (*dto.TenantResponse, error)
	// GetByID retrieves a tenant by ID
	GetByID(ctx context.Context, id string) (*dto.TenantResponse, error)
	// GetBySlug retrieves a tenant by slug
	GetBySlug(ctx context.Context, slug string) (*dto.TenantResponse, error)
	// List retrieves tenants with pagination and filters
	List(ctx context.Context, query *dto.ListTenantsQuery) (*dto.ListTenantsResponse, error)
	// Update updates a tenant
	Update(ctx context.Context, id string, req *dto.UpdateTenantRequest) (*dto.TenantResponse, error)
	// Delete soft deletes a tenant
	Delete(ctx context.Context, id string) error
}

// FocusService defines the interface for per-user focus timers
type FocusService interface {
	// Start begins a new session; fails with ErrSessionActive while one is running or paused
	Start(ctx context.Context, tenantID, userID string, req *dto.StartFocusRequest) (*domain.FocusSession, error)
	// Current returns the latest session, completing it if its time ran out
	Current(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error)
	// Pause pauses the running session
	Pause(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error)
	// Resume resumes the paused session
	Resume(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error)
	// Complete finishes the session early
	Complete(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error)
	// Cancel abandons the session
	Cancel(ctx context.Context, tenantID, userID string) (*domain.FocusSession, error)
}

// Clock returns the current time
type Clock func() time.Time
