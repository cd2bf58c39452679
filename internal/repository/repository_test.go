package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/query"
	"github.com/CrownAlter/task-management-api/pkg/database/dbtest"
)

type repos struct {
	tenants TenantRepository
	users   UserRepository
	tasks   TaskRepository
	audit   AuditRepository
}

func memoryRepos() repos {
	return repos{
		tenants: NewMemoryTenantRepository(),
		users:   NewMemoryUserRepository(),
		tasks:   NewMemoryTaskRepository(),
		audit:   NewMemoryAuditRepository(),
	}
}

func TestMemoryRepositories(t *testing.T) {
	runRepositoryContract(t, memoryRepos())
}

func TestPostgresRepositories_Integration(t *testing.T) {
	db := dbtest.Postgres(t)
	require.NoError(t, Migrate(context.Background(), db.Pool()))
	// migrations are idempotent
	require.NoError(t, Migrate(context.Background(), db.Pool()))

	runRepositoryContract(t, repos{
		tenants: NewPostgresTenantRepository(db.Pool()),
		users:   NewPostgresUserRepository(db.Pool()),
		tasks:   NewPostgresTaskRepository(db.Pool()),
		audit:   NewPostgresAuditRepository(db.Pool()),
	})

	t.Run("transaction rolls back tenant and user together", func(t *testing.T) {
		ctx := context.Background()
		tenants := NewPostgresTenantRepository(db.Pool())
		users := NewPostgresUserRepository(db.Pool())
		now := time.Now().UTC()

		err := db.WithTx(ctx, func(ctx context.Context) error {
			org := &domain.Tenant{Name: "Rollback Co", Slug: "rollback-co", Active: true, MaxUsers: 10, CreatedAt: now, UpdatedAt: now}
			if err := tenants.Create(ctx, org); err != nil {
				return err
			}
			exists, err := tenants.ExistsByName(ctx, "Rollback Co")
			require.NoError(t, err)
			assert.True(t, exists, "insert is visible inside the transaction")
			// tenant_id 0 violates the foreign key
			return users.Create(ctx, &domain.User{TenantID: 0, Email: "a@b.c", PasswordHash: "x", Active: true,
				Roles: []domain.Role{domain.RoleUser}, CreatedAt: now, UpdatedAt: now})
		})
		require.Error(t, err)

		exists, err := tenants.ExistsByName(ctx, "Rollback Co")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func runRepositoryContract(t *testing.T, r repos) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	acme := &domain.Tenant{Name: "Acme", Slug: "acme", Active: true, MaxUsers: 10, CreatedAt: now, UpdatedAt: now}
	globex := &domain.Tenant{Name: "Globex", Slug: "globex", Active: true, MaxUsers: 10, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.tenants.Create(ctx, acme))
	require.NoError(t, r.tenants.Create(ctx, globex))
	require.NotZero(t, acme.ID)

	t.Run("tenants", func(t *testing.T) {
		dup := &domain.Tenant{Name: "Other", Slug: "acme", Active: true, CreatedAt: now, UpdatedAt: now}
		assert.ErrorIs(t, r.tenants.Create(ctx, dup), domain.ErrConflict)

		got, err := r.tenants.GetBySlug(ctx, "acme")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, acme.ID, got.ID)

		missing, err := r.tenants.GetByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, missing)

		exists, err := r.tenants.ExistsByName(ctx, "ACME")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	alice := &domain.User{TenantID: acme.ID, FirstName: "Alice", LastName: "Admin", Email: "alice@acme.test",
		PasswordHash: "hash", Active: true, Roles: []domain.Role{domain.RoleAdmin, domain.RoleUser}, CreatedAt: now, UpdatedAt: now}
	bob := &domain.User{TenantID: acme.ID, FirstName: "Bob", LastName: "Builder", Email: "bob@acme.test",
		PasswordHash: "hash", Active: true, Roles: []domain.Role{domain.RoleUser}, CreatedAt: now, UpdatedAt: now}
	gina := &domain.User{TenantID: globex.ID, FirstName: "Gina", LastName: "Globex", Email: "alice@acme.test",
		PasswordHash: "hash", Active: true, Roles: []domain.Role{domain.RoleUser}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.users.Create(ctx, alice))
	require.NoError(t, r.users.Create(ctx, bob))
	require.NoError(t, r.users.Create(ctx, gina), "same email in another tenant is allowed")

	t.Run("users", func(t *testing.T) {
		dup := &domain.User{TenantID: acme.ID, FirstName: "A", LastName: "B", Email: "ALICE@acme.test",
			PasswordHash: "hash", Active: true, Roles: []domain.Role{domain.RoleUser}, CreatedAt: now, UpdatedAt: now}
		assert.ErrorIs(t, r.users.Create(ctx, dup), domain.ErrConflict)

		got, err := r.users.GetByEmail(ctx, acme.ID, "Alice@Acme.test")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, []domain.Role{domain.RoleAdmin, domain.RoleUser}, got.Roles)

		foreign, err := r.users.GetByID(ctx, globex.ID, alice.ID)
		require.NoError(t, err)
		assert.Nil(t, foreign)

		page, total, err := r.users.List(ctx, acme.ID, "build", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, page, 1)
		assert.Equal(t, bob.ID, page[0].ID)

		count, err := r.users.CountByTenant(ctx, acme.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("tasks", func(t *testing.T) {
		due := now.Add(-time.Hour)
		overdue := domain.NewTask(acme.ID, alice.ID, "Ship release", "", domain.StatusInProgress, domain.PriorityHigh, &due, "release", now)
		overdue.AssignedToID = &bob.ID
		done := domain.NewTask(acme.ID, alice.ID, "Write notes", "100% done", domain.StatusCompleted, domain.PriorityLow, nil, "", now)
		foreign := domain.NewTask(globex.ID, gina.ID, "Globex secret", "", domain.StatusTodo, domain.PriorityUrgent, nil, "", now)
		for _, task := range []*domain.Task{overdue, done, foreign} {
			require.NoError(t, r.tasks.Create(ctx, task))
		}

		got, err := r.tasks.GetByID(ctx, globex.ID, overdue.ID)
		require.NoError(t, err)
		assert.Nil(t, got, "a task is invisible from another tenant")

		yes := true
		plan, err := query.Build(acme.ID, domain.TaskFilter{Overdue: &yes}, now)
		require.NoError(t, err)
		tasks, total, err := r.tasks.Find(ctx, plan)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, tasks, 1)
		assert.Equal(t, overdue.ID, tasks[0].ID)
		require.NotNil(t, tasks[0].AssignedToID)
		assert.Equal(t, bob.ID, *tasks[0].AssignedToID)

		plan, err = query.Build(acme.ID, domain.TaskFilter{Search: "100%"}, now)
		require.NoError(t, err)
		n, err := r.tasks.Count(ctx, plan)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		plan, err = query.Build(acme.ID, domain.TaskFilter{SortBy: "priority", SortDirection: "desc"}, now)
		require.NoError(t, err)
		tasks, total, err = r.tasks.Find(ctx, plan)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, overdue.ID, tasks[0].ID)

		deletedAt := now
		done.DeletedAt = &deletedAt
		require.NoError(t, r.tasks.Update(ctx, done))
		got, err = r.tasks.GetByID(ctx, acme.ID, done.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		foreign.TenantID = acme.ID
		assert.ErrorIs(t, r.tasks.Update(ctx, foreign), domain.ErrNotFound)
	})

	t.Run("audit", func(t *testing.T) {
		taskID := int64(77)
		entries := []*domain.AuditEntry{
			{TenantID: acme.ID, UserID: &alice.ID, Action: domain.ActionTaskCreated, EntityType: domain.EntityTask, EntityID: &taskID, Timestamp: now.Add(-time.Minute)},
			{TenantID: acme.ID, UserID: &alice.ID, Action: domain.ActionTaskUpdated, EntityType: domain.EntityTask, EntityID: &taskID, Timestamp: now},
			{TenantID: globex.ID, Action: domain.ActionLogin, EntityType: domain.EntityUser, Timestamp: now},
		}
		require.NoError(t, r.audit.InsertBatch(ctx, entries))

		list, total, err := r.audit.List(ctx, acme.ID, domain.AuditFilter{EntityType: domain.EntityTask, EntityID: &taskID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, list, 2)
		assert.Equal(t, domain.ActionTaskUpdated, list[0].Action, "newest first")

		list, total, err = r.audit.List(ctx, globex.ID, domain.AuditFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Nil(t, list[0].UserID)
	})
}
