package repository

import (
	"context"

	"github.com/workpulse/work-pulse/internal/domain"
)

// EventRepository defines the interface for calendar event data access.
// Every method is scoped to a tenant; a missing or soft-deleted event reads as (nil, nil).
type EventRepository interface {
	// Create inserts a new event
	Create(ctx context.Context, event *domain.Event) error
	// GetByID retrieves an event by tenant and ID
	GetByID(ctx context.Context, tenantID, id string) (*domain.Event, error)
	// List retrieves events ordered by start with pagination and title search
	List(ctx context.Context, tenantID string, page, limit int, search string) ([]*domain.Event, int, error)
	// ListAll retrieves every live event of a tenant
	ListAll(ctx context.Context, tenantID string) ([]*domain.Event, error)
	// Update updates an event
	Update(ctx context.Context, event *domain.Event) error
	// SoftDelete marks an event deleted
	SoftDelete(ctx context.Context, tenantID, id string) error
}
