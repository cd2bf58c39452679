package dto

import (
	"time"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// UserResponse represents a user in API responses
type UserResponse struct {
	ID            int64      `json:"id"`
	TenantID      int64      `json:"tenant_id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	Active        bool       `json:"active"`
	EmailVerified bool       `json:"email_verified"`
	Roles         []string   `json:"roles"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewUserResponse converts a domain user. The password hash never leaves the service.
func NewUserResponse(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		TenantID:      u.TenantID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		FullName:      u.FullName(),
		Email:         u.Email,
		Phone:         u.Phone,
		Active:        u.Active,
		EmailVerified: u.EmailVerified,
		Roles:         domain.RoleNames(u.Roles),
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// UpdateProfileRequest replaces the editable profile fields of the current user
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Phone     string `json:"phone" binding:"max=20"`
}

// ChangePasswordRequest changes the current user's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// UpdateRolesRequest replaces a user's roles
type UpdateRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1"`
}

// ListUsersQuery represents query parameters for listing users
type ListUsersQuery struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Size   int    `form:"size"`
}

// SetDefaults applies default and maximum page sizes
func (q *ListUsersQuery) SetDefaults() {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = domain.DefaultPageSize
	}
	if q.Size > domain.MaxPageSize {
		q.Size = domain.MaxPageSize
	}
}

// UserPage is one page of users
type UserPage struct {
	Items []*UserResponse
	Page  int
	Size  int
	Total int64
}
