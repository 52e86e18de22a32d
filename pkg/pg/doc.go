// Package pg opens PostgreSQL connection pools with the pgx/v5 driver and
// applies goose/v3 migrations against them.
//
// The package backs the Postgres adapter of the local catalog mirror. It
// keeps a small surface so callers stay free to use pgx directly for queries.
//
// # Architecture
//
// Three pieces cooperate:
//
//   - Config is populated from environment variables via
//     github.com/caarlos0/env. It controls pool limits, retry behaviour and
//     where migrations are read from.
//   - Connect opens a *pgxpool.Pool and pings it, retrying with a linear
//     back-off (RetryInterval multiplied by the attempt number) until the
//     database answers or the attempts run out.
//   - Migrate bridges the pool to database/sql and runs goose "up" against
//     it. Migrations come from Config.MigrationsPath on disk or, with
//     WithMigrationsFS, from an fs.FS such as an embed.FS shipped next to
//     the code that owns the schema.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	err = pg.Migrate(ctx, pool, cfg, log,
//		pg.WithMigrationsFS(mirror.PostgresMigrations, "migrations"),
//	)
//
// Goose records applied versions in Config.MigrationsTable, which defaults to
// catalogsync_migrations so the mirror can share a database with other
// services.
//
// # Configuration
//
// Variables use the PG_ prefix: PG_CONN_URL (required), PG_MAX_OPEN_CONNS,
// PG_MAX_IDLE_CONNS, PG_HEALTHCHECK_PERIOD, PG_MAX_CONN_IDLE_TIME,
// PG_MAX_CONN_LIFETIME, PG_RETRY_ATTEMPTS, PG_RETRY_INTERVAL,
// PG_MIGRATIONS_PATH and PG_MIGRATIONS_TABLE. See the field tags on Config
// for defaults.
//
// # Error Handling
//
// Failures are reported as sentinel errors joined with the driver error, so
// errors.Is works on both:
//
//	if errors.Is(err, pg.ErrFailedToOpenDBConnection) { ... }
//
// IsDuplicateKeyError and IsForeignKeyViolationError unwrap *pgconn.PgError
// and classify it by SQLSTATE, which lets stores translate constraint
// violations without importing pgconn.
package pg
