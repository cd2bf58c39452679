package service

import (
	"context"
	"fmt"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/dto"
	"github.com/CrownAlter/task-management-api/internal/repository"
)

// TenantService defines operations on the current tenant
type TenantService interface {
	// Current returns the tenant of the request
	Current(ctx context.Context) (*dto.TenantResponse, error)
	// Deactivate disables the tenant. Tenants are never deleted. ADMIN only.
	Deactivate(ctx context.Context) (*dto.TenantResponse, error)
}

type tenantService struct {
	tenants repository.TenantRepository
	users   repository.UserRepository
	audit   AuditRecorder
	now     Clock
}

// NewTenantService creates a new TenantService
func NewTenantService(tenants repository.TenantRepository, users repository.UserRepository, audit AuditRecorder) TenantService {
	return &tenantService{tenants: tenants, users: users, audit: audit, now: utcNow}
}

func (s *tenantService) Current(ctx context.Context) (*dto.TenantResponse, error) {
	org, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, org)
}

func (s *tenantService) Deactivate(ctx context.Context) (*dto.TenantResponse, error) {
	if _, err := auth.RequireFromContext(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}
	org, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !org.Active {
		return nil, domain.NewValidationError("active", "organization is already inactive")
	}

	org.Active = false
	org.UpdatedAt = s.now()
	if err := s.tenants.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to deactivate organization: %w", err)
	}

	s.audit.Record(ctx, domain.ActionTenantDeactivated, domain.EntityTenant, org.ID, "Deactivated organization: "+org.Name, "")
	return s.toResponse(ctx, org)
}

func (s *tenantService) load(ctx context.Context) (*domain.Tenant, error) {
	tenantID, _, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	org, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil {
		return nil, domain.NewNotFoundError("Tenant", tenantID)
	}
	return org, nil
}

func (s *tenantService) toResponse(ctx context.Context, org *domain.Tenant) (*dto.TenantResponse, error) {
	count, err := s.users.CountByTenant(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	return dto.NewTenantResponse(org, count), nil
}
