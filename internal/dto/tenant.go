package dto

import (
	"regexp"
	"time"

	"github.com/workpulse/work-pulse/internal/domain"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// CreateTenantRequest represents the request to onboard an organisation
type CreateTenantRequest struct {
	Name     string         `json:"name" binding:"required,min=2,max=255"`
	Slug     string         `json:"slug" binding:"required,min=2,max=100"`
	Domain   string         `json:"domain" binding:"omitempty,max=255"`
	LogoURL  string         `json:"logo_url" binding:"omitempty,url"`
	Settings map[string]any `json:"settings"`
}

// Validate checks the slug format and the timezone setting
func (r *CreateTenantRequest) Validate() ValidationErrors {
	var errs ValidationErrors
	if !slugPattern.MatchString(r.Slug) {
		errs.Add("slug", "slug must contain only lowercase letters, numbers, and hyphens")
	}
	validateSettings(r.Settings, &errs)
	return errs
}

// UpdateTenantRequest represents request to update tenant information
type UpdateTenantRequest struct {
	Name     *string         `json:"name" binding:"omitempty,min=2,max=255"`
	Domain   *string         `json:"domain" binding:"omitempty,max=255"`
	LogoURL  *string         `json:"logo_url" binding:"omitempty,url"`
	Settings *map[string]any `json:"settings"`
	IsActive *bool           `json:"is_active"`
}

// Validate requires at least one field and checks the timezone setting
func (r *UpdateTenantRequest) Validate() ValidationErrors {
	var errs ValidationErrors
	if r.Name == nil && r.Domain == nil && r.LogoURL == nil && r.Settings == nil && r.IsActive == nil {
		errs.Add("body", "at least one field must be provided for update")
	}
	if r.Settings != nil {
		validateSettings(*r.Settings, &errs)
	}
	return errs
}

func validateSettings(settings map[string]any, errs *ValidationErrors) {
	raw, ok := settings["timezone"]
	if !ok {
		return
	}
	tz, ok := raw.(string)
	if !ok {
		errs.Add("settings.timezone", "timezone must be a string")
		return
	}
	if _, err := time.LoadLocation(tz); err != nil {
		errs.Add("settings.timezone", "unknown time zone")
	}
}

// TenantResponse represents tenant data in response
type TenantResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Domain    string         `json:"domain,omitempty"`
	LogoURL   string         `json:"logo_url,omitempty"`
	Settings  map[string]any `json:"settings,omitempty"`
	IsActive  bool           `json:"is_active"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// ToTenantResponse converts a domain tenant
func ToTenantResponse(t *domain.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Domain:    t.Domain,
		LogoURL:   t.LogoURL,
		Settings:  t.Settings,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}

// ListTenantsQuery represents query parameters for listing tenants
type ListTenantsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	IsActive *bool  `form:"is_active" binding:"omitempty"`
	Search   string `form:"search" binding:"omitempty,max=255"`
}

// SetDefaults sets default values for query parameters
func (q *ListTenantsQuery) SetDefaults() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
}

// ListTenantsResponse represents paginated list of tenants
type ListTenantsResponse struct {
	Tenants    []TenantResponse `json:"tenants"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}
