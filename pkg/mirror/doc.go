// Package mirror keeps a local copy of the managed remote catalog.
//
// The Engine reads the managed products and prices from the billing provider
// and reconciles them into a Store by set difference: active remote objects
// are inserted or updated, inactive remote objects and local rows the
// provider no longer reports are deleted. Products are applied first, then
// prices, each in its own transaction.
//
// Stores are provided for Postgres (pgx + goose migrations), MySQL (gorm),
// MongoDB, Redis and memory:
//
//	pool, _ := pg.Connect(ctx, pgCfg)
//	if err := mirror.MigratePostgres(ctx, pool, pgCfg, log); err != nil {
//		return err
//	}
//	store := mirror.NewPostgresStore(pool)
//	engine := mirror.NewEngine(catalog.NewFetcher(provider), store, mirror.WithLogger(log))
//	report, err := engine.Sync(ctx)
//
// The other adapters are built the same way:
//
//	mirror.NewMemoryStore()
//	mirror.NewRedisStore(client, "catalogsync")
//	mirror.NewMongoStore(ctx, db)
//	mirror.NewGormStore(ctx, gormDB) // gormDB from OpenMySQL
//
// # Sync rules
//
// Only objects tagged with the configured owner are mirrored. When several
// remote objects share an internal id the active one wins, then the newest.
// Prices whose product is not mirrored are skipped with a warning. A remote
// product with malformed feature metadata aborts the product pass before
// anything is written.
//
// A failed product pass does not stop the price pass, which then runs
// against the products already in the store. Sync returns the report along
// with the joined errors of both passes.
//
// # Store contract
//
// Local rows are keyed by internal id. ApplyProducts and ApplyPrices must be
// all-or-nothing. Deleting a product also deletes its prices. Purge calls
// ClearPrices then ClearProducts.
package mirror
