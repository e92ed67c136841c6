package repository

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/workpulse/work-pulse/internal/domain"
)

// MemoryTenantRepository is an in-memory TenantRepository
type MemoryTenantRepository struct {
	mu      sync.RWMutex
	tenants map[string]*domain.Tenant
}

// NewMemoryTenantRepository creates an empty MemoryTenantRepository
func NewMemoryTenantRepository() *MemoryTenantRepository {
	return &MemoryTenantRepository{tenants: make(map[string]*domain.Tenant)}
}

func cloneTenant(t *domain.Tenant) *domain.Tenant {
	c := *t
	c.Settings = maps.Clone(t.Settings)
	if t.DeletedAt != nil {
		d := *t.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}

// Create stores a copy of tenant
func (r *MemoryTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[tenant.ID] = cloneTenant(tenant)
	return nil
}

// GetByID returns the live tenant with id, or nil
func (r *MemoryTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]
	if !ok || t.DeletedAt != nil {
		return nil, nil
	}
	return cloneTenant(t), nil
}

// GetBySlug returns the live tenant with slug, or nil
func (r *MemoryTenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tenants {
		if t.Slug == slug && t.DeletedAt == nil {
			return cloneTenant(t), nil
		}
	}
	return nil, nil
}

// List pages through live tenants, newest first
func (r *MemoryTenantRepository) List(ctx context.Context, page, limit int, isActive *bool, search string) ([]*domain.Tenant, int, error) {
	needle := strings.ToLower(search)
	all := r.filter(func(t *domain.Tenant) bool {
		if isActive != nil && t.IsActive != *isActive {
			return false
		}
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(t.Name), needle) || strings.Contains(strings.ToLower(t.Slug), needle)
	})
	slices.Reverse(all)

	total := len(all)
	offset := (page - 1) * limit
	if offset >= total || offset < 0 {
		return []*domain.Tenant{}, total, nil
	}
	return all[offset:min(offset+limit, total)], total, nil
}

// ListActive returns every active live tenant, oldest first
func (r *MemoryTenantRepository) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	return r.filter(func(t *domain.Tenant) bool { return t.IsActive }), nil
}

// Update replaces a live tenant
func (r *MemoryTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tenants[tenant.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	tenant.UpdatedAt = time.Now()
	r.tenants[tenant.ID] = cloneTenant(tenant)
	return nil
}

// SoftDelete marks a live tenant deleted
func (r *MemoryTenantRepository) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tenants[id]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	existing.DeletedAt = &now
	return nil
}

// ExistsBySlug reports whether a live tenant has slug
func (r *MemoryTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	t, err := r.GetBySlug(ctx, slug)
	return t != nil, err
}

// filter returns copies of matching live tenants ordered by creation time
func (r *MemoryTenantRepository) filter(keep func(*domain.Tenant) bool) []*domain.Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Tenant, 0)
	for _, t := range r.tenants {
		if t.DeletedAt == nil && keep(t) {
			out = append(out, cloneTenant(t))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Tenant) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
