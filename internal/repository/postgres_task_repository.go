package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/query"
)

// PostgresTaskRepository implements TaskRepository using PostgreSQL
type PostgresTaskRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTaskRepository creates a new PostgresTaskRepository
func NewPostgresTaskRepository(pool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{pool: pool}
}

const taskColumns = `id, tenant_id, title, description, status, priority, due_date, created_by_id,
	assigned_to_id, tags, completed_at, created_at, updated_at, deleted_at`

func scanTask(row pgx.Row) (*domain.Task, error) {
	t := &domain.Task{}
	var status, priority string
	err := row.Scan(
		&t.ID, &t.TenantID, &t.Title, &t.Description, &status, &priority, &t.DueDate, &t.CreatedByID,
		&t.AssignedToID, &t.Tags, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	return t, nil
}

// Create inserts the task and sets its id
func (r *PostgresTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (tenant_id, title, description, status, priority, due_date, created_by_id,
			assigned_to_id, tags, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		t.TenantID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, t.CreatedByID,
		t.AssignedToID, t.Tags, t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
}

// GetByID retrieves a live task of the tenant
func (r *PostgresTaskRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`
	t, err := scanTask(conn(ctx, r.pool).QueryRow(ctx, query, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// Update saves every mutable column, scoped to the task's tenant
func (r *PostgresTaskRepository) Update(ctx context.Context, t *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, priority = $6, due_date = $7, assigned_to_id = $8,
			tags = $9, completed_at = $10, updated_at = $11, deleted_at = $12
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	}
	result, err := conn(ctx, r.pool).Exec(ctx, query,
		t.ID, t.TenantID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, t.AssignedToID,
		t.Tags, t.CompletedAt, t.UpdatedAt, t.DeletedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("Task", t.ID)
	}
	return nil
}

// Find runs the plan's count and page queries
func (r *PostgresTaskRepository) Find(ctx context.Context, plan *query.Plan) ([]*domain.Task, int64, error) {
	args := &query.Args{}
	where := plan.WhereSQL(args)
	whereArgs := args.Len()

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, "SELECT COUNT(*) FROM tasks WHERE "+where, args.Values()[:whereArgs]...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	limit := args.Add(plan.Size)
	offset := args.Add(plan.Offset())
	sql := fmt.Sprintf("SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
		taskColumns, where, plan.OrderSQL(), limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, sql, args.Values()...)
	if err != nil {
		return nil, 0, fmt.Errorf("find tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0, plan.Size)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

// Count returns the number of tasks matching the plan, ignoring paging
func (r *PostgresTaskRepository) Count(ctx context.Context, plan *query.Plan) (int64, error) {
	args := &query.Args{}
	where := plan.WhereSQL(args)

	var total int64
	if err := conn(ctx, r.pool).QueryRow(ctx, "SELECT COUNT(*) FROM tasks WHERE "+where, args.Values()...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}
