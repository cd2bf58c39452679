package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrownAlter/task-management-api/pkg/database"
	"github.com/CrownAlter/task-management-api/pkg/database/dbtest"
)

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := database.DefaultPostgresConfig()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, int32(25), cfg.MaxConns)
	assert.Equal(t, int32(5), cfg.MinConns)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := &database.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable",
		cfg.DSN(),
	)
}

func TestNewPostgres_Unreachable(t *testing.T) {
	cfg := &database.PostgresConfig{
		Host:           "invalid-host-that-does-not-exist",
		Port:           9999,
		User:           "invalid",
		Password:       "invalid",
		Database:       "invalid",
		SSLMode:        "disable",
		MaxRetries:     1,
		RetryInterval:  50 * time.Millisecond,
		ConnectTimeout: time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg)
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestPostgresDB_Integration(t *testing.T) {
	db := dbtest.Postgres(t)
	ctx := context.Background()

	assert.True(t, db.IsConnected(ctx))
	require.NoError(t, db.HealthCheck(ctx))
	assert.NotNil(t, db.Stats())

	require.NoError(t, db.Exec(ctx, "CREATE TABLE tx_test (id SERIAL PRIMARY KEY, value INT)"))

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "INSERT INTO tx_test (value) VALUES ($1)", 100)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	var count int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM tx_test").Scan(&count))
	assert.Zero(t, count)

	errBoom := errors.New("boom")
	err = db.WithTx(ctx, func(ctx context.Context) error {
		tx, ok := database.TxFromContext(ctx)
		require.True(t, ok)
		_, err := tx.Exec(ctx, "INSERT INTO tx_test (value) VALUES ($1)", 1)
		require.NoError(t, err)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM tx_test").Scan(&count))
	assert.Zero(t, count)

	require.NoError(t, db.WithTx(ctx, func(ctx context.Context) error {
		tx, _ := database.TxFromContext(ctx)
		_, err := tx.Exec(ctx, "INSERT INTO tx_test (value) VALUES ($1)", 2)
		return err
	}))
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM tx_test").Scan(&count))
	assert.Equal(t, 1, count)
}
