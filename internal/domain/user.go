package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is a named permission set granted to a user
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

// AuthorityPrefix is prepended to role names to form authorities
const AuthorityPrefix = "ROLE_"

// ParseRole parses a role name, accepting an optional ROLE_ prefix
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), AuthorityPrefix))
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return r, nil
	}
	return "", NewValidationError("roles", fmt.Sprintf("unknown role %q", s))
}

// Authority returns the authority string for the role
func (r Role) Authority() string {
	return AuthorityPrefix + string(r)
}

// User is an account belonging to exactly one tenant
type User struct {
	ID            int64      `json:"id"`
	TenantID      int64      `json:"tenant_id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Phone         string     `json:"phone,omitempty"`
	Active        bool       `json:"active"`
	EmailVerified bool       `json:"email_verified"`
	Roles         []Role     `json:"roles"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// FullName returns first and last name joined
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasRole reports whether the user holds the role
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsDeleted reports whether the user was soft deleted
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// RoleNames returns roles as plain strings
func RoleNames(roles []Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

// UserStatistics summarises task counts for one user
type UserStatistics struct {
	UserID         int64 `json:"user_id"`
	CreatedTasks   int   `json:"created_tasks"`
	AssignedTasks  int   `json:"assigned_tasks"`
	CompletedTasks int   `json:"completed_tasks"`
	PendingTasks   int   `json:"pending_tasks"`
	OverdueTasks   int   `json:"overdue_tasks"`
}
