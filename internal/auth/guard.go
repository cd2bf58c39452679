package auth

import (
	"context"
	"fmt"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// AuthorizationError is returned when a principal lacks a required role
type AuthorizationError struct {
	Required domain.Role
	UserID   int64
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d lacks role %s", e.UserID, e.Required)
}

func (e *AuthorizationError) Unwrap() error { return domain.ErrForbidden }

// Require checks that the principal is active and holds the role.
// Protected operations call it explicitly with the role they need.
func Require(p *domain.Principal, role domain.Role) error {
	if p == nil {
		return domain.ErrUnauthenticated
	}
	if !p.Active() || !p.HasRole(role) {
		return &AuthorizationError{Required: role, UserID: p.UserID()}
	}
	return nil
}

// RequireFromContext is Require for the principal bound to ctx
func RequireFromContext(ctx context.Context, role domain.Role) (*domain.Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	if err := Require(p, role); err != nil {
		return nil, err
	}
	return p, nil
}

type principalKey struct{}

// WithPrincipal returns a child context carrying the principal
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, if any
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(principalKey{}).(*domain.Principal)
	return p, ok && p != nil
}

// CurrentPrincipal returns the principal or domain.ErrUnauthenticated
func CurrentPrincipal(ctx context.Context) (*domain.Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}
