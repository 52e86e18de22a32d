package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
	"github.com/dmitrymomot/catalogsync/pkg/logger"
)

// Engine mirrors the managed remote catalog into a Store.
type Engine struct {
	fetcher *catalog.Fetcher
	store   Store
	log     *slog.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock sets the source of SyncedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine reads the remote catalog through f, whose owner and metadata
// keys decide which objects are managed.
func NewEngine(f *catalog.Fetcher, s Store, opts ...Option) *Engine {
	e := &Engine{
		fetcher: f,
		store:   s,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TypeReport counts the changes applied to one entity type.
type TypeReport struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
}

func (r TypeReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("inserted", r.Inserted),
		slog.Int("updated", r.Updated),
		slog.Int("deleted", r.Deleted),
		slog.Int("skipped", r.Skipped),
	)
}

// SyncReport is the outcome of one Sync.
type SyncReport struct {
	Products TypeReport `json:"products"`
	Prices   TypeReport `json:"prices"`
}

func (r *SyncReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("products", r.Products),
		slog.Any("prices", r.Prices),
	)
}

// Sync reconciles products, then prices. A failure in one pass is returned
// after the other pass has run; changes already applied are kept.
func (e *Engine) Sync(ctx context.Context) (*SyncReport, error) {
	rep := &SyncReport{}
	var errs []error

	e.log.InfoContext(ctx, "syncing products")
	if err := e.syncProducts(ctx, &rep.Products); err != nil {
		e.log.ErrorContext(ctx, "product sync failed", logger.Error(err))
		errs = append(errs, fmt.Errorf("sync products: %w", err))
	} else {
		e.log.InfoContext(ctx, "products synced", slog.Any("products", rep.Products))
	}

	e.log.InfoContext(ctx, "syncing prices")
	if err := e.syncPrices(ctx, &rep.Prices); err != nil {
		e.log.ErrorContext(ctx, "price sync failed", logger.Error(err))
		errs = append(errs, fmt.Errorf("sync prices: %w", err))
	} else {
		e.log.InfoContext(ctx, "prices synced", slog.Any("prices", rep.Prices))
	}

	return rep, errors.Join(errs...)
}

func (e *Engine) syncProducts(ctx context.Context, rep *TypeReport) error {
	remote, err := e.fetcher.FetchManagedProducts(ctx)
	if err != nil {
		return err
	}
	local, err := e.store.Products(ctx)
	if err != nil {
		return fmt.Errorf("load local products: %w", err)
	}

	known := make(map[string]bool, len(local))
	for _, r := range local {
		known[r.ID] = true
	}

	now := e.now().UTC().Truncate(time.Millisecond)
	seen := make(map[string]bool, len(remote))
	var cs ChangeSet[ProductRow]
	for _, p := range dedupe(remote, func(p catalog.RemoteProduct) string { return p.Tag.InternalID }, newestProduct) {
		id := p.Tag.InternalID
		seen[id] = true
		if !p.Active {
			if known[id] {
				cs.Delete = append(cs.Delete, id)
			}
			continue
		}

		row, err := productRow(p, now)
		if err != nil {
			return err
		}
		if known[id] {
			cs.Update = append(cs.Update, row)
		} else {
			cs.Insert = append(cs.Insert, row)
		}
	}
	for _, r := range local {
		if !seen[r.ID] {
			cs.Delete = append(cs.Delete, r.ID)
		}
	}

	if cs.Empty() {
		return nil
	}
	if err := e.store.ApplyProducts(ctx, cs); err != nil {
		return errors.Join(ErrApplyFailed, err)
	}
	rep.Inserted, rep.Updated, rep.Deleted = len(cs.Insert), len(cs.Update), len(cs.Delete)
	return nil
}

func (e *Engine) syncPrices(ctx context.Context, rep *TypeReport) error {
	remote, err := e.fetcher.FetchManagedPrices(ctx)
	if err != nil {
		return err
	}
	local, err := e.store.Prices(ctx)
	if err != nil {
		return fmt.Errorf("load local prices: %w", err)
	}
	products, err := e.store.Products(ctx)
	if err != nil {
		return fmt.Errorf("load local products: %w", err)
	}

	known := make(map[string]bool, len(local))
	for _, r := range local {
		known[r.ID] = true
	}
	parents := make(map[string]bool, len(products))
	for _, r := range products {
		parents[r.ID] = true
	}

	now := e.now().UTC().Truncate(time.Millisecond)
	seen := make(map[string]bool, len(remote))
	var cs ChangeSet[PriceRow]
	for _, p := range dedupe(remote, func(p catalog.RemotePrice) string { return p.Tag.InternalID }, newestPrice) {
		id := p.Tag.InternalID
		seen[id] = true
		if p.Active && !parents[p.InternalProductID] {
			e.log.WarnContext(ctx, "price references a product that is not mirrored",
				logger.PriceID(id),
				logger.ProductID(p.InternalProductID),
				logger.RemoteID(p.ID),
			)
			rep.Skipped++
			if known[id] {
				cs.Delete = append(cs.Delete, id)
			}
			continue
		}
		if !p.Active {
			if known[id] {
				cs.Delete = append(cs.Delete, id)
			}
			continue
		}

		row, err := priceRow(p, now)
		if err != nil {
			return err
		}
		if known[id] {
			cs.Update = append(cs.Update, row)
		} else {
			cs.Insert = append(cs.Insert, row)
		}
	}
	for _, r := range local {
		if !seen[r.ID] {
			cs.Delete = append(cs.Delete, r.ID)
		}
	}

	if cs.Empty() {
		return nil
	}
	if err := e.store.ApplyPrices(ctx, cs); err != nil {
		return errors.Join(ErrApplyFailed, err)
	}
	rep.Inserted, rep.Updated, rep.Deleted = len(cs.Insert), len(cs.Update), len(cs.Delete)
	return nil
}

// Purge deletes every local price, then every local product.
func (e *Engine) Purge(ctx context.Context) error {
	e.log.InfoContext(ctx, "purging local prices")
	if err := e.store.ClearPrices(ctx); err != nil {
		return errors.Join(ErrApplyFailed, fmt.Errorf("clear prices: %w", err))
	}
	e.log.InfoContext(ctx, "purging local products")
	if err := e.store.ClearProducts(ctx); err != nil {
		return errors.Join(ErrApplyFailed, fmt.Errorf("clear products: %w", err))
	}
	e.log.InfoContext(ctx, "local catalog purged")
	return nil
}
