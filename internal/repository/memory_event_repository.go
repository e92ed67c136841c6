package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/workpulse/work-pulse/internal/domain"
)

// MemoryEventRepository is an in-memory EventRepository for tests and single-node runs
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.Event // keyed by tenantID + "/" + id
}

// NewMemoryEventRepository creates an empty MemoryEventRepository
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string]*domain.Event)}
}

func eventKey(tenantID, id string) string {
	return tenantID + "/" + id
}

// Create inserts a copy of event
func (r *MemoryEventRepository) Create(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[eventKey(event.TenantID, event.ID)] = event.Clone()
	return nil
}

// GetByID returns a copy of the live event, or nil
func (r *MemoryEventRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[eventKey(tenantID, id)]
	if !ok || event.DeletedAt != nil {
		return nil, nil
	}
	return event.Clone(), nil
}

// List pages through live events ordered by start, filtered by title substring
func (r *MemoryEventRepository) List(ctx context.Context, tenantID string, page, limit int, search string) ([]*domain.Event, int, error) {
	all := r.live(tenantID, strings.ToLower(search))

	total := len(all)
	offset := (page - 1) * limit
	if offset >= total || offset < 0 {
		return []*domain.Event{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

// ListAll returns copies of every live event of a tenant
func (r *MemoryEventRepository) ListAll(ctx context.Context, tenantID string) ([]*domain.Event, error) {
	return r.live(tenantID, ""), nil
}

// Update replaces a live event
func (r *MemoryEventRepository) Update(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := eventKey(event.TenantID, event.ID)
	existing, ok := r.events[key]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	r.events[key] = event.Clone()
	return nil
}

// SoftDelete marks a live event deleted
func (r *MemoryEventRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.events[eventKey(tenantID, id)]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	existing.DeletedAt = &now
	return nil
}

func (r *MemoryEventRepository) live(tenantID, needle string) []*domain.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Event, 0)
	for _, event := range r.events {
		if event.TenantID != tenantID || event.DeletedAt != nil {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(event.Title), needle) {
			continue
		}
		out = append(out, event.Clone())
	}

	slices.SortFunc(out, func(a, b *domain.Event) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
