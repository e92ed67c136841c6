package domain

import (
	"time"
)

// Tenant is an organisation account; every event and focus session belongs to one
type Tenant struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Domain    string         `json:"domain,omitempty"`
	LogoURL   string         `json:"logo_url,omitempty"`
	Settings  map[string]any `json:"settings,omitempty"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt *time.Time     `json:"deleted_at,omitempty"`
}

// Timezone returns the tenant's "timezone" setting, or "" when unset
func (t *Tenant) Timezone() string {
	if tz, ok := t.Settings["timezone"].(string); ok {
		return tz
	}
	return ""
}
