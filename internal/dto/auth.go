package dto

// RegisterRequest creates an organization together with its first administrator
type RegisterRequest struct {
	OrganizationName        string `json:"organization_name" binding:"required,min=2,max=100"`
	OrganizationDescription string `json:"organization_description" binding:"max=500"`
	FirstName               string `json:"first_name" binding:"required,max=50"`
	LastName                string `json:"last_name" binding:"required,max=50"`
	Email                   string `json:"email" binding:"required,email,max=100"`
	Password                string `json:"password" binding:"required"`
	Phone                   string `json:"phone" binding:"max=20"`
}

// LoginRequest authenticates a user of the tenant identified by slug
type LoginRequest struct {
	TenantSlug string `json:"tenant_slug" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new access token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user"`
}
