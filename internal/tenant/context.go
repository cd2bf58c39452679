// Package tenant carries the current tenant of a unit of work on its
// context.Context. Nothing is kept in package-level state, so concurrent
// requests can never observe each other's tenant.
package tenant

import (
	"context"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

type contextKey struct{}

// cleared marks a context whose tenant was explicitly removed
type cleared struct{}

// WithTenant returns a child context carrying the tenant id
func WithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, tenantID)
}

// FromContext returns the tenant id, or false when none is set
func FromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(contextKey{}).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// Clear returns a child context in which no tenant is visible
func Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, cleared{})
}

// Require returns the tenant id or domain.ErrTenantRequired
func Require(ctx context.Context) (int64, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return 0, domain.ErrTenantRequired
	}
	return id, nil
}

// Run executes fn with the tenant bound to its context. Background jobs use
// it instead of the HTTP middleware.
func Run(ctx context.Context, tenantID int64, fn func(ctx context.Context) error) error {
	if tenantID <= 0 {
		return domain.ErrTenantRequired
	}
	return fn(WithTenant(ctx, tenantID))
}
