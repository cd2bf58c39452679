package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(100) NOT NULL UNIQUE,
		slug        VARCHAR(50)  NOT NULL UNIQUE,
		description TEXT         NOT NULL DEFAULT '',
		active      BOOLEAN      NOT NULL DEFAULT TRUE,
		max_users   INTEGER      NOT NULL DEFAULT 100,
		created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id             BIGSERIAL PRIMARY KEY,
		tenant_id      BIGINT       NOT NULL REFERENCES tenants(id),
		first_name     VARCHAR(50)  NOT NULL,
		last_name      VARCHAR(50)  NOT NULL,
		email          VARCHAR(100) NOT NULL,
		password_hash  VARCHAR(255) NOT NULL,
		phone          VARCHAR(20)  NOT NULL DEFAULT '',
		active         BOOLEAN      NOT NULL DEFAULT TRUE,
		email_verified BOOLEAN      NOT NULL DEFAULT FALSE,
		roles          TEXT[]       NOT NULL DEFAULT '{USER}',
		last_login     TIMESTAMPTZ,
		created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		deleted_at     TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_tenant_email_key
		ON users (tenant_id, LOWER(email)) WHERE deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id             BIGSERIAL PRIMARY KEY,
		tenant_id      BIGINT       NOT NULL REFERENCES tenants(id),
		title          VARCHAR(200) NOT NULL,
		description    TEXT         NOT NULL DEFAULT '',
		status         VARCHAR(20)  NOT NULL,
		priority       VARCHAR(20)  NOT NULL,
		due_date       TIMESTAMPTZ,
		created_by_id  BIGINT       NOT NULL REFERENCES users(id),
		assigned_to_id BIGINT       REFERENCES users(id),
		tags           VARCHAR(500) NOT NULL DEFAULT '',
		completed_at   TIMESTAMPTZ,
		created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		deleted_at     TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_tenant_status_idx ON tasks (tenant_id, status) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS tasks_tenant_assignee_idx ON tasks (tenant_id, assigned_to_id) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS tasks_tenant_due_idx ON tasks (tenant_id, due_date) WHERE deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          BIGSERIAL PRIMARY KEY,
		tenant_id   BIGINT       NOT NULL,
		user_id     BIGINT,
		user_email  VARCHAR(100) NOT NULL DEFAULT '',
		action      VARCHAR(50)  NOT NULL,
		entity_type VARCHAR(50)  NOT NULL,
		entity_id   BIGINT,
		details     TEXT         NOT NULL DEFAULT '',
		ip_address  VARCHAR(45)  NOT NULL DEFAULT '',
		timestamp   TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS audit_logs_tenant_ts_idx ON audit_logs (tenant_id, timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS audit_logs_entity_idx ON audit_logs (tenant_id, entity_type, entity_id)`,
}

// Migrate creates the schema if it does not exist
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}
