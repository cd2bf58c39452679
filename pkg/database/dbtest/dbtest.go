// Package dbtest starts a throwaway PostgreSQL container for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/CrownAlter/task-management-api/pkg/database"
)

// Postgres starts postgres:16-alpine and returns a connected pool. The test
// is skipped when SKIP_INTEGRATION=true or no container runtime is reachable.
func Postgres(t *testing.T) *database.PostgresDB {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" || testing.Short() {
		t.Skip("skipping PostgreSQL integration test")
	}

	ctx := context.Background()
	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("task_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	cfg := database.DefaultPostgresConfig()
	cfg.Host = host
	cfg.Port = port.Int()
	cfg.User = "test"
	cfg.Password = "test"
	cfg.Database = "task_test"
	cfg.MinConns = 1
	cfg.MaxConns = 5

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}
