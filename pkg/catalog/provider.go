package catalog

import "context"

// Provider is the billing provider capability the catalog components need.
//
// Implementations return raw metadata; correlation tags are decoded by the
// caller. Search is expected to honour every SearchQuery field, emulating
// it client-side where the provider has no search API.
type Provider interface {
	CreateProduct(ctx context.Context, params ProductParams) (*RemoteProduct, error)
	UpdateProduct(ctx context.Context, id string, params ProductUpdate) (*RemoteProduct, error)
	ListProducts(ctx context.Context, params ListParams) (*Page[RemoteProduct], error)
	SearchProducts(ctx context.Context, query SearchQuery) ([]RemoteProduct, error)

	CreatePrice(ctx context.Context, params PriceParams) (*RemotePrice, error)
	UpdatePrice(ctx context.Context, id string, params PriceUpdate) (*RemotePrice, error)
	ListPrices(ctx context.Context, params ListParams) (*Page[RemotePrice], error)
	SearchPrices(ctx context.Context, query SearchQuery) ([]RemotePrice, error)
}
