package mirror

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/catalogsync/pkg/pg"
)

// PostgresMigrations holds the goose migrations for the mirror tables under "migrations".
//
//go:embed migrations/*.sql
var PostgresMigrations embed.FS

// MigratePostgres creates or upgrades the mirror tables.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, cfg, log, pg.WithMigrationsFS(PostgresMigrations, "migrations"))
}

// PostgresStore is a Store on the catalog_products and catalog_prices tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store on pool. Run MigratePostgres first.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const (
	pgSelectProducts = `SELECT id, remote_id, name, description, active, type,
		marketing_features, features, metadata, synced_at
		FROM catalog_products ORDER BY id`
	pgInsertProduct = `INSERT INTO catalog_products
		(id, remote_id, name, description, active, type, marketing_features, features, metadata, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	pgUpdateProduct = `UPDATE catalog_products SET remote_id = $2, name = $3, description = $4,
		active = $5, type = $6, marketing_features = $7, features = $8, metadata = $9, synced_at = $10
		WHERE id = $1`
	pgDeleteProductPrices = `DELETE FROM catalog_prices WHERE product_id = ANY($1)`
	pgDeleteProducts      = `DELETE FROM catalog_products WHERE id = ANY($1)`

	pgSelectPrices = `SELECT id, remote_id, product_id, remote_product_id, currency, unit_amount,
		billing_interval, interval_count, usage_type, nickname, active, metadata, synced_at
		FROM catalog_prices ORDER BY id`
	pgInsertPrice = `INSERT INTO catalog_prices
		(id, remote_id, product_id, remote_product_id, currency, unit_amount,
		billing_interval, interval_count, usage_type, nickname, active, metadata, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	pgUpdatePrice = `UPDATE catalog_prices SET remote_id = $2, product_id = $3, remote_product_id = $4,
		currency = $5, unit_amount = $6, billing_interval = $7, interval_count = $8, usage_type = $9,
		nickname = $10, active = $11, metadata = $12, synced_at = $13
		WHERE id = $1`
	pgDeletePrices = `DELETE FROM catalog_prices WHERE id = ANY($1)`
)

// Products returns every mirrored product ordered by id.
func (s *PostgresStore) Products(ctx context.Context) ([]ProductRow, error) {
	rows, err := s.pool.Query(ctx, pgSelectProducts)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProductRow, error) {
		var r ProductRow
		err := row.Scan(&r.ID, &r.RemoteID, &r.Name, &r.Description, &r.Active, &r.Type,
			&r.MarketingFeatures, &r.Features, &r.Metadata, &r.SyncedAt)
		r.SyncedAt = r.SyncedAt.UTC()
		return r, err
	})
}

// Prices returns every mirrored price ordered by id.
func (s *PostgresStore) Prices(ctx context.Context) ([]PriceRow, error) {
	rows, err := s.pool.Query(ctx, pgSelectPrices)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PriceRow, error) {
		var r PriceRow
		err := row.Scan(&r.ID, &r.RemoteID, &r.ProductID, &r.RemoteProductID, &r.Currency, &r.UnitAmount,
			&r.Interval, &r.IntervalCount, &r.UsageType, &r.Nickname, &r.Active, &r.Metadata, &r.SyncedAt)
		r.SyncedAt = r.SyncedAt.UTC()
		return r, err
	})
}

// ApplyProducts sends the change set as one batch inside a transaction.
func (s *PostgresStore) ApplyProducts(ctx context.Context, cs ChangeSet[ProductRow]) error {
	b := &pgx.Batch{}
	for _, r := range cs.Insert {
		b.Queue(pgInsertProduct, productArgs(r)...)
	}
	for _, r := range cs.Update {
		b.Queue(pgUpdateProduct, productArgs(r)...)
	}
	if len(cs.Delete) > 0 {
		b.Queue(pgDeleteProductPrices, cs.Delete)
		b.Queue(pgDeleteProducts, cs.Delete)
	}
	return s.sendTx(ctx, b)
}

// ApplyPrices sends the change set as one batch inside a transaction.
func (s *PostgresStore) ApplyPrices(ctx context.Context, cs ChangeSet[PriceRow]) error {
	b := &pgx.Batch{}
	for _, r := range cs.Insert {
		b.Queue(pgInsertPrice, priceArgs(r)...)
	}
	for _, r := range cs.Update {
		b.Queue(pgUpdatePrice, priceArgs(r)...)
	}
	if len(cs.Delete) > 0 {
		b.Queue(pgDeletePrices, cs.Delete)
	}
	return s.sendTx(ctx, b)
}

// ClearProducts deletes all prices and products in one transaction.
func (s *PostgresStore) ClearProducts(ctx context.Context) error {
	b := &pgx.Batch{}
	b.Queue(`DELETE FROM catalog_prices`)
	b.Queue(`DELETE FROM catalog_products`)
	return s.sendTx(ctx, b)
}

// ClearPrices deletes all prices.
func (s *PostgresStore) ClearPrices(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM catalog_prices`); err != nil {
		return fmt.Errorf("clear prices: %w", err)
	}
	return nil
}

func (s *PostgresStore) sendTx(ctx context.Context, b *pgx.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			switch {
			case pg.IsForeignKeyViolationError(err):
				return fmt.Errorf("price references a missing product: %w", err)
			case pg.IsDuplicateKeyError(err):
				return fmt.Errorf("row already exists: %w", err)
			}
			return err
		}
		return nil
	})
}

func productArgs(r ProductRow) []any {
	return []any{
		r.ID, r.RemoteID, r.Name, r.Description, r.Active, r.Type,
		nonNilSlice(r.MarketingFeatures), nonNilMap(r.Features), nonNilMap(r.Metadata), r.SyncedAt,
	}
}

func priceArgs(r PriceRow) []any {
	return []any{
		r.ID, r.RemoteID, r.ProductID, r.RemoteProductID, r.Currency, r.UnitAmount,
		r.Interval, r.IntervalCount, r.UsageType, r.Nickname, r.Active, nonNilMap(r.Metadata), r.SyncedAt,
	}
}

// JSON columns are NOT NULL; nil collections would encode as SQL NULL.
func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}
