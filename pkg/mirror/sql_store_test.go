package mirror_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/catalogsync/pkg/logger"
	"github.com/dmitrymomot/catalogsync/pkg/mirror"
	"github.com/dmitrymomot/catalogsync/pkg/pg"
)

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PG_TEST_URL")
	if dsn == "" {
		t.Skip("PG_TEST_URL is not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: dsn,
		MaxOpenConns:     2,
		MaxIdleConns:     1,
		RetryAttempts:    1,
		MigrationsTable:  "catalogsync_test_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, mirror.MigratePostgres(ctx, pool, cfg, logger.Discard()))

	s := mirror.NewPostgresStore(pool)
	require.NoError(t, s.ClearProducts(ctx))
	t.Cleanup(func() { _ = s.ClearProducts(context.Background()) })

	testStoreContract(t, s)
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN is not set")
	}

	ctx := context.Background()
	db, err := mirror.OpenMySQL(ctx, mirror.MySQLConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1})
	require.NoError(t, err)

	s, err := mirror.NewGormStore(ctx, db)
	require.NoError(t, err)
	require.NoError(t, s.ClearProducts(ctx))
	t.Cleanup(func() { _ = s.ClearProducts(context.Background()) })

	testStoreContract(t, s)
}

func TestOpenMySQL_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := mirror.OpenMySQL(context.Background(), mirror.MySQLConfig{})
	require.ErrorIs(t, err, mirror.ErrEmptyDSN)
}
