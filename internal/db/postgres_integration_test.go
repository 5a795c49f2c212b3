//go:build integration

package db_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"marketly.com/app/internal/config"
	"marketly.com/app/internal/db"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/shared/apperr"
)

// startPostgres runs a throwaway Postgres container for the test.
func startPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "marketly",
				"POSTGRES_PASSWORD": "marketly",
				"POSTGRES_DB":       "marketly",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Driver:          "postgres",
		DSN:             fmt.Sprintf("postgres://marketly:marketly@%s:%s/marketly?sslmode=disable", host, port.Port()),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}
}

func TestPostgresMigrationsMatchModels(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := startPostgres(t)

	gdb, err := db.Open(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, db.MigrateUp(gdb, cfg.Driver, logger))
	v, dirty, err := db.MigrationVersion(gdb, cfg.Driver)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 1, v)

	// second run is a no-op
	require.NoError(t, db.MigrateUp(gdb, cfg.Driver, logger))

	ctx := context.Background()
	usersSvc := users.NewService(gdb)
	u, err := usersSvc.Register(ctx, users.RegisterInput{Email: "pg@example.com", Password: "correct-horse", Name: "PG"})
	require.NoError(t, err)

	_, err = usersSvc.Register(ctx, users.RegisterInput{Email: "PG@example.com", Password: "correct-horse", Name: "Dup"})
	assert.True(t, apperr.IsKind(err, apperr.Conflict), "unique index maps to conflict: %v", err)

	sh, err := shops.NewService(gdb).Create(ctx, u.ID, shops.CreateInput{Name: "Postgres Goods"})
	require.NoError(t, err)
	assert.Equal(t, "postgres-goods", sh.Slug)
	assert.Equal(t, "USD", sh.Settings.Data().Currency)

	require.NoError(t, db.MigrateDown(gdb, cfg.Driver, 1))
	v, _, err = db.MigrationVersion(gdb, cfg.Driver)
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)
}
