package dto

import (
	"time"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	MaxUsers    int       `json:"max_users"`
	UserCount   int64     `json:"user_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTenantResponse converts a domain tenant
func NewTenantResponse(t *domain.Tenant, userCount int64) *TenantResponse {
	return &TenantResponse{
		ID:          t.ID,
		Name:        t.Name,
		Slug:        t.Slug,
		Description: t.Description,
		Active:      t.Active,
		MaxUsers:    t.MaxUsers,
		UserCount:   userCount,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
