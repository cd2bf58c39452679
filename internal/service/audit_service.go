package service

import (
	"context"
	"fmt"
	"io"

	"github.com/CrownAlter/task-management-api/internal/audit"
	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/dto"
	"github.com/CrownAlter/task-management-api/internal/repository"
)

// MaxExportRows caps the size of an audit log export
const MaxExportRows = 10000

// AuditService gives administrators read access to their tenant's audit log
type AuditService interface {
	// List returns one page of entries, newest first. ADMIN only.
	List(ctx context.Context, f domain.AuditFilter) (*dto.AuditPage, error)
	// Export writes every matching entry as an XLSX workbook. ADMIN only.
	Export(ctx context.Context, f domain.AuditFilter, w io.Writer) error
}

type auditService struct {
	entries repository.AuditRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(entries repository.AuditRepository) AuditService {
	return &auditService{entries: entries}
}

func (s *auditService) List(ctx context.Context, f domain.AuditFilter) (*dto.AuditPage, error) {
	tenantID, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}
	if f.Size <= 0 {
		f.Size = domain.DefaultPageSize
	}
	f.Size = min(f.Size, domain.MaxPageSize)
	f.Page = max(f.Page, 0)

	items, total, err := s.entries.List(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	return &dto.AuditPage{Items: items, Page: f.Page, Size: f.Size, Total: total}, nil
}

func (s *auditService) Export(ctx context.Context, f domain.AuditFilter, w io.Writer) error {
	tenantID, err := s.authorize(ctx)
	if err != nil {
		return err
	}

	f.Size = domain.MaxPageSize
	all := make([]*domain.AuditEntry, 0, f.Size)
	for f.Page = 0; len(all) < MaxExportRows; f.Page++ {
		page, total, err := s.entries.List(ctx, tenantID, f)
		if err != nil {
			return fmt.Errorf("failed to read audit log: %w", err)
		}
		all = append(all, page...)
		if len(page) < f.Size || int64(len(all)) >= total {
			break
		}
	}
	if len(all) > MaxExportRows {
		all = all[:MaxExportRows]
	}
	return audit.WriteXLSX(w, all)
}

func (s *auditService) authorize(ctx context.Context) (int64, error) {
	tenantID, _, err := scope(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := auth.RequireFromContext(ctx, domain.RoleAdmin); err != nil {
		return 0, err
	}
	return tenantID, nil
}
