package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/query"
	"github.com/CrownAlter/task-management-api/pkg/database"
)

// Lookups return (nil, nil) when no row matches. Tenant-owned lookups take
// the tenant id and never see rows of another tenant.

// TenantRepository defines tenant data access
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id int64) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
}

// UserRepository defines user data access; soft-deleted users are invisible
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, tenantID int64, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, tenantID int64, email string) (bool, error)
	// List pages users of a tenant ordered by id; search matches name or email
	List(ctx context.Context, tenantID int64, search string, page, size int) ([]*domain.User, int64, error)
	CountByTenant(ctx context.Context, tenantID int64) (int64, error)
	Update(ctx context.Context, user *domain.User) error
}

// TaskRepository defines task data access
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	// Find returns one page of the plan and the total match count
	Find(ctx context.Context, plan *query.Plan) ([]*domain.Task, int64, error)
	Count(ctx context.Context, plan *query.Plan) (int64, error)
}

// AuditRepository is the append-only audit store
type AuditRepository interface {
	InsertBatch(ctx context.Context, entries []*domain.AuditEntry) error
	// List returns entries of a tenant newest first
	List(ctx context.Context, tenantID int64, filter domain.AuditFilter) ([]*domain.AuditEntry, int64, error)
}

// Transactor runs fn as one unit of work. Repository calls made with the
// context passed to fn join it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoTx runs fn directly, for stores without transactions
type NoTx struct{}

// WithTx calls fn with ctx
func (NoTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn returns the transaction on ctx, or the pool
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := database.TxFromContext(ctx); ok {
		return tx
	}
	return pool
}

const uniqueViolation = "23505"

// conflictOr maps a unique violation to a ConflictError on field
func conflictOr(err error, field, value string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &domain.ConflictError{Field: field, Value: value}
	}
	return err
}

func auditPaging(f domain.AuditFilter) (page, size int) {
	page, size = f.Page, f.Size
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = domain.DefaultPageSize
	}
	if size > domain.MaxPageSize {
		size = domain.MaxPageSize
	}
	return page, size
}
