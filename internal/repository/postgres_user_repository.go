package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, tenant_id, first_name, last_name, email, password_hash, phone, active,
	email_verified, roles, last_login, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	var roles []string
	err := row.Scan(
		&u.ID, &u.TenantID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Phone, &u.Active,
		&u.EmailVerified, &roles, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Roles = make([]domain.Role, len(roles))
	for i, r := range roles {
		u.Roles[i] = domain.Role(r)
	}
	return u, nil
}

func oneUser(row pgx.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// Create inserts the user and sets its id
func (r *PostgresUserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (tenant_id, first_name, last_name, email, password_hash, phone, active,
			email_verified, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		u.TenantID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Phone, u.Active,
		u.EmailVerified, domain.RoleNames(u.Roles), u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return conflictOr(err, "email", u.Email)
	}
	return nil
}

// GetByID retrieves a live user of the tenant
func (r *PostgresUserRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`
	return oneUser(conn(ctx, r.pool).QueryRow(ctx, query, id, tenantID))
}

// GetByEmail retrieves a live user of the tenant by email, ignoring case
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, tenantID int64, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND tenant_id = $2 AND deleted_at IS NULL`
	return oneUser(conn(ctx, r.pool).QueryRow(ctx, query, email, tenantID))
}

// ExistsByEmail checks whether the email is taken within the tenant
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, tenantID int64, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND tenant_id = $2 AND deleted_at IS NULL)`
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, query, email, tenantID).Scan(&exists)
	return exists, err
}

// List pages the tenant's users
func (r *PostgresUserRepository) List(ctx context.Context, tenantID int64, search string, page, size int) ([]*domain.User, int64, error) {
	whereClause := "WHERE tenant_id = $1 AND deleted_at IS NULL"
	args := []interface{}{tenantID}
	argIndex := 2

	if search = strings.TrimSpace(search); search != "" {
		whereClause += fmt.Sprintf(
			` AND (LOWER(first_name || ' ' || last_name) LIKE $%d ESCAPE '\' OR LOWER(email) LIKE $%d ESCAPE '\')`,
			argIndex, argIndex,
		)
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
		argIndex++
	}

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, "SELECT COUNT(*) FROM users "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY id LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIndex, argIndex+1)
	args = append(args, size, page*size)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// CountByTenant counts live users of the tenant
func (r *PostgresUserRepository) CountByTenant(ctx context.Context, tenantID int64) (int64, error) {
	var n int64
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND deleted_at IS NULL`, tenantID).Scan(&n)
	return n, err
}

// Update saves every mutable column, scoped to the user's tenant
func (r *PostgresUserRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET first_name = $3, last_name = $4, email = $5, password_hash = $6, phone = $7, active = $8,
			email_verified = $9, roles = $10, last_login = $11, updated_at = $12, deleted_at = $13
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`
	u.UpdatedAt = time.Now().UTC()
	result, err := conn(ctx, r.pool).Exec(ctx, query,
		u.ID, u.TenantID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Phone, u.Active,
		u.EmailVerified, domain.RoleNames(u.Roles), u.LastLogin, u.UpdatedAt, u.DeletedAt,
	)
	if err != nil {
		return conflictOr(err, "email", u.Email)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("User", u.ID)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
