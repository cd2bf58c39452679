package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// PostgresAuditRepository implements AuditRepository using PostgreSQL
type PostgresAuditRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditRepository creates a new PostgresAuditRepository
func NewPostgresAuditRepository(pool *pgxpool.Pool) *PostgresAuditRepository {
	return &PostgresAuditRepository{pool: pool}
}

// InsertBatch writes all entries in one round trip
func (r *PostgresAuditRepository) InsertBatch(ctx context.Context, entries []*domain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO audit_logs (tenant_id, user_id, user_email, action, entity_type, entity_id, details, ip_address, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query,
			e.TenantID, e.UserID, e.UserEmail, e.Action, e.EntityType, e.EntityID, e.Details, e.IPAddress, e.Timestamp,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert audit entry %d of %d: %w", i+1, len(entries), err)
		}
	}
	return nil
}

// List returns the tenant's entries newest first
func (r *PostgresAuditRepository) List(ctx context.Context, tenantID int64, f domain.AuditFilter) ([]*domain.AuditEntry, int64, error) {
	whereClause := "WHERE tenant_id = $1"
	args := []interface{}{tenantID}
	argIndex := 2

	if f.EntityType != "" {
		whereClause += fmt.Sprintf(" AND entity_type = $%d", argIndex)
		args = append(args, f.EntityType)
		argIndex++
	}
	if f.EntityID != nil {
		whereClause += fmt.Sprintf(" AND entity_id = $%d", argIndex)
		args = append(args, *f.EntityID)
		argIndex++
	}
	if f.UserID != nil {
		whereClause += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, *f.UserID)
		argIndex++
	}
	if f.Action != "" {
		whereClause += fmt.Sprintf(" AND action = $%d", argIndex)
		args = append(args, f.Action)
		argIndex++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, size := auditPaging(f)
	query := fmt.Sprintf(`
		SELECT id, tenant_id, user_id, user_email, action, entity_type, entity_id, details, ip_address, timestamp
		FROM audit_logs
		%s
		ORDER BY timestamp DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)
	args = append(args, size, page*size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]*domain.AuditEntry, 0)
	for rows.Next() {
		e := &domain.AuditEntry{}
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.UserID, &e.UserEmail, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.IPAddress, &e.Timestamp,
		); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
