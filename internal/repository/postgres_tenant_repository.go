package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// PostgresTenantRepository implements TenantRepository using PostgreSQL
type PostgresTenantRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTenantRepository creates a new PostgresTenantRepository
func NewPostgresTenantRepository(pool *pgxpool.Pool) *PostgresTenantRepository {
	return &PostgresTenantRepository{pool: pool}
}

const tenantColumns = `id, name, slug, description, active, max_users, created_at, updated_at`

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.Active, &t.MaxUsers, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// Create inserts the tenant and sets its id
func (r *PostgresTenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	query := `
		INSERT INTO tenants (name, slug, description, active, max_users, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		t.Name, t.Slug, t.Description, t.Active, t.MaxUsers, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return conflictOr(err, "slug", t.Slug)
	}
	return nil
}

// GetByID retrieves a tenant by id
func (r *PostgresTenantRepository) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	return scanTenant(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
}

// GetBySlug retrieves a tenant by slug
func (r *PostgresTenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return scanTenant(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
}

// ExistsBySlug checks whether a slug is taken
func (r *PostgresTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tenants WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

// ExistsByName checks whether an organization name is taken, ignoring case
func (r *PostgresTenantRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tenants WHERE LOWER(name) = LOWER($1))`, name).Scan(&exists)
	return exists, err
}

// Update saves name, description, active flag and quota
func (r *PostgresTenantRepository) Update(ctx context.Context, t *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, description = $3, active = $4, max_users = $5, updated_at = $6
		WHERE id = $1
	`
	t.UpdatedAt = time.Now().UTC()
	result, err := conn(ctx, r.pool).Exec(ctx, query, t.ID, t.Name, t.Description, t.Active, t.MaxUsers, t.UpdatedAt)
	if err != nil {
		return conflictOr(err, "name", t.Name)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %d: %w", t.ID, domain.NewNotFoundError("Tenant", t.ID))
	}
	return nil
}
