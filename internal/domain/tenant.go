package domain

import (
	"time"
)

// Tenant represents an organization; the isolation boundary for all data
type Tenant struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	MaxUsers    int       `json:"max_users"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultMaxUsers is the user quota for newly registered tenants
const DefaultMaxUsers = 100
