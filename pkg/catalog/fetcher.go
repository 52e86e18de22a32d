package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Fetcher drains the provider listings and keeps only tagged objects.
type Fetcher struct {
	provider Provider
	settings
}

// NewFetcher returns a Fetcher that pages through p with the configured page size.
func NewFetcher(p Provider, opts ...Option) *Fetcher {
	return &Fetcher{provider: p, settings: newSettings(false, opts)}
}

// FetchProducts returns every remote product carrying an internal product id,
// active or not. Products of other owners are included.
func (f *Fetcher) FetchProducts(ctx context.Context) ([]RemoteProduct, error) {
	all, err := drain(ctx, f.pageSize, f.provider.ListProducts, func(p RemoteProduct) string { return p.ID })
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	out := make([]RemoteProduct, 0, len(all))
	for _, p := range all {
		f.keys.annotateProduct(&p)
		if p.Tag.IsZero() {
			continue
		}
		out = append(out, p)
	}
	f.log.DebugContext(ctx, "fetched remote products",
		slog.Int("listed", len(all)),
		slog.Int("tagged", len(out)),
	)
	return out, nil
}

// FetchPrices returns every remote price carrying an internal price id.
func (f *Fetcher) FetchPrices(ctx context.Context) ([]RemotePrice, error) {
	all, err := drain(ctx, f.pageSize, f.provider.ListPrices, func(p RemotePrice) string { return p.ID })
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}

	out := make([]RemotePrice, 0, len(all))
	for _, p := range all {
		f.keys.annotatePrice(&p)
		if p.Tag.IsZero() {
			continue
		}
		out = append(out, p)
	}
	f.log.DebugContext(ctx, "fetched remote prices",
		slog.Int("listed", len(all)),
		slog.Int("tagged", len(out)),
	)
	return out, nil
}

// FetchManagedProducts is FetchProducts restricted to the configured owner.
func (f *Fetcher) FetchManagedProducts(ctx context.Context) ([]RemoteProduct, error) {
	all, err := f.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	return ManagedProducts(all, f.owner), nil
}

// FetchManagedPrices is FetchPrices restricted to the configured owner.
func (f *Fetcher) FetchManagedPrices(ctx context.Context) ([]RemotePrice, error) {
	all, err := f.FetchPrices(ctx)
	if err != nil {
		return nil, err
	}
	return ManagedPrices(all, f.owner), nil
}

// Snapshot fetches tagged products and prices in two listing passes.
func (f *Fetcher) Snapshot(ctx context.Context) (*Snapshot, error) {
	products, err := f.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := f.FetchPrices(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Products: products, Prices: prices}, nil
}

// ManagedProducts keeps the products owned by owner.
func ManagedProducts(ps []RemoteProduct, owner string) []RemoteProduct {
	out := make([]RemoteProduct, 0, len(ps))
	for _, p := range ps {
		if p.Tag.Managed(owner) {
			out = append(out, p)
		}
	}
	return out
}

// ManagedPrices keeps the prices owned by owner.
func ManagedPrices(ps []RemotePrice, owner string) []RemotePrice {
	out := make([]RemotePrice, 0, len(ps))
	for _, p := range ps {
		if p.Tag.Managed(owner) {
			out = append(out, p)
		}
	}
	return out
}

// drain follows starting_after cursors until the provider reports no more pages.
func drain[T any](
	ctx context.Context,
	pageSize int64,
	list func(context.Context, ListParams) (*Page[T], error),
	id func(T) string,
) ([]T, error) {
	var (
		out    []T
		cursor string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := list(ctx, ListParams{Limit: pageSize, StartingAfter: cursor})
		if err != nil {
			return nil, errors.Join(ErrProviderRequest, err)
		}
		if page == nil {
			return out, nil
		}
		out = append(out, page.Data...)

		if !page.HasMore {
			return out, nil
		}
		if len(page.Data) == 0 {
			return nil, ErrPaginationStalled
		}
		cursor = id(page.Data[len(page.Data)-1])
	}
}
