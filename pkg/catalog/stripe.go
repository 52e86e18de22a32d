package catalog

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
)

// StripeConfig holds configuration for the Stripe catalog provider.
type StripeConfig struct {
	SecretKey string `env:"STRIPE_SECRET_KEY,required"`
}

// StripeProvider implements Provider on the Stripe products and prices APIs.
type StripeProvider struct {
	products product.Client
	prices   price.Client
}

// StripeOption configures a StripeProvider.
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backend stripe.Backend
}

// WithStripeBackend replaces the API backend, e.g. one pointed at a test server.
func WithStripeBackend(b stripe.Backend) StripeOption {
	return func(o *stripeOptions) {
		if b != nil {
			o.backend = b
		}
	}
}

// NewStripeBackend returns an API backend for baseURL with SDK retries and logging off.
func NewStripeBackend(baseURL string) stripe.Backend {
	return stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(baseURL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
}

// NewStripeProvider builds a Stripe client for cfg.SecretKey.
func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	o := stripeOptions{backend: stripe.GetBackend(stripe.APIBackend)}
	for _, opt := range opts {
		opt(&o)
	}
	return &StripeProvider{
		products: product.Client{B: o.backend, Key: cfg.SecretKey},
		prices:   price.Client{B: o.backend, Key: cfg.SecretKey},
	}, nil
}

// CreateProduct creates a product with its marketing features.
func (s *StripeProvider) CreateProduct(ctx context.Context, p ProductParams) (*RemoteProduct, error) {
	params := &stripe.ProductParams{
		Name:   stripe.String(p.Name),
		Active: stripe.Bool(p.Active),
	}
	params.Context = ctx
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	for _, f := range p.MarketingFeatures {
		params.MarketingFeatures = append(params.MarketingFeatures, &stripe.ProductMarketingFeatureParams{
			Name: stripe.String(f),
		})
	}
	addMetadata(&params.Params, p.Metadata)

	prod, err := s.products.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create product: %w", err)
	}
	out := fromStripeProduct(prod)
	return &out, nil
}

// UpdateProduct updates the non-nil fields. Stripe merges metadata and
// removes keys set to an empty string.
func (s *StripeProvider) UpdateProduct(ctx context.Context, id string, u ProductUpdate) (*RemoteProduct, error) {
	params := &stripe.ProductParams{
		Name:        u.Name,
		Description: u.Description,
		Active:      u.Active,
	}
	params.Context = ctx
	addMetadata(&params.Params, u.Metadata)

	prod, err := s.products.Update(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: update product %s: %w", id, err)
	}
	out := fromStripeProduct(prod)
	return &out, nil
}

// ListProducts returns one page of products, active and archived.
func (s *StripeProvider) ListProducts(ctx context.Context, lp ListParams) (*Page[RemoteProduct], error) {
	params := &stripe.ProductListParams{}
	params.Context = ctx
	params.Single = true
	params.Limit = stripe.Int64(lp.Limit)
	if lp.StartingAfter != "" {
		params.StartingAfter = stripe.String(lp.StartingAfter)
	}

	it := s.products.List(params)
	page := &Page[RemoteProduct]{}
	for it.Next() {
		page.Data = append(page.Data, fromStripeProduct(it.Product()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list products: %w", err)
	}
	if l := it.ProductList(); l != nil {
		page.HasMore = l.HasMore
	}
	return page, nil
}

// SearchProducts uses the Search API with one metadata clause per pair.
// Search results are eventually consistent.
func (s *StripeProvider) SearchProducts(ctx context.Context, q SearchQuery) ([]RemoteProduct, error) {
	params := &stripe.ProductSearchParams{}
	params.Context = ctx
	params.Query = stripeQuery(q)
	params.Single = true
	if q.Limit > 0 {
		params.Limit = stripe.Int64(q.Limit)
	}

	it := s.products.Search(params)
	var out []RemoteProduct
	for it.Next() {
		out = append(out, fromStripeProduct(it.Product()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: search products: %w", err)
	}
	return out, nil
}

// CreatePrice creates a one-time or recurring price. A nil UnitAmount
// becomes a customer-chosen amount.
func (s *StripeProvider) CreatePrice(ctx context.Context, p PriceParams) (*RemotePrice, error) {
	params := &stripe.PriceParams{
		Product:  stripe.String(p.ProductID),
		Currency: stripe.String(strings.ToLower(p.Currency)),
		Active:   stripe.Bool(p.Active),
	}
	params.Context = ctx
	if p.UnitAmount != nil {
		params.UnitAmount = stripe.Int64(*p.UnitAmount)
	} else {
		params.CustomUnitAmount = &stripe.PriceCustomUnitAmountParams{Enabled: stripe.Bool(true)}
	}
	if p.Recurring != nil {
		params.Recurring = &stripe.PriceRecurringParams{
			Interval:      stripe.String(string(p.Recurring.Interval)),
			IntervalCount: stripe.Int64(p.Recurring.IntervalCount),
			UsageType:     stripe.String(string(p.Recurring.UsageType)),
		}
	}
	if p.Nickname != "" {
		params.Nickname = stripe.String(p.Nickname)
	}
	addMetadata(&params.Params, p.Metadata)

	pr, err := s.prices.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create price: %w", err)
	}
	out := fromStripePrice(pr)
	return &out, nil
}

// UpdatePrice changes active and metadata, the only mutable price fields.
func (s *StripeProvider) UpdatePrice(ctx context.Context, id string, u PriceUpdate) (*RemotePrice, error) {
	params := &stripe.PriceParams{Active: u.Active}
	params.Context = ctx
	addMetadata(&params.Params, u.Metadata)

	pr, err := s.prices.Update(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: update price %s: %w", id, err)
	}
	out := fromStripePrice(pr)
	return &out, nil
}

// ListPrices returns one page of prices, active and archived.
func (s *StripeProvider) ListPrices(ctx context.Context, lp ListParams) (*Page[RemotePrice], error) {
	params := &stripe.PriceListParams{}
	params.Context = ctx
	params.Single = true
	params.Limit = stripe.Int64(lp.Limit)
	if lp.StartingAfter != "" {
		params.StartingAfter = stripe.String(lp.StartingAfter)
	}

	it := s.prices.List(params)
	page := &Page[RemotePrice]{}
	for it.Next() {
		page.Data = append(page.Data, fromStripePrice(it.Price()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list prices: %w", err)
	}
	if l := it.PriceList(); l != nil {
		page.HasMore = l.HasMore
	}
	return page, nil
}

// SearchPrices uses the Search API, including the product clause.
func (s *StripeProvider) SearchPrices(ctx context.Context, q SearchQuery) ([]RemotePrice, error) {
	params := &stripe.PriceSearchParams{}
	params.Context = ctx
	params.Query = stripeQuery(q)
	params.Single = true
	if q.Limit > 0 {
		params.Limit = stripe.Int64(q.Limit)
	}

	it := s.prices.Search(params)
	var out []RemotePrice
	for it.Next() {
		out = append(out, fromStripePrice(it.Price()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: search prices: %w", err)
	}
	return out, nil
}

// stripeQuery renders q in the Stripe search query language. Clauses are
// sorted so the same query always renders the same way.
func stripeQuery(q SearchQuery) string {
	var clauses []string
	if q.ActiveOnly {
		clauses = append(clauses, "active:'true'")
	}
	for _, k := range slices.Sorted(maps.Keys(q.Metadata)) {
		clauses = append(clauses, fmt.Sprintf("metadata['%s']:'%s'", quoteStripe(k), quoteStripe(q.Metadata[k])))
	}
	if q.ProductID != "" {
		clauses = append(clauses, fmt.Sprintf("product:'%s'", quoteStripe(q.ProductID)))
	}
	return strings.Join(clauses, " AND ")
}

func quoteStripe(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

func addMetadata(p *stripe.Params, md map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(md)) {
		p.AddMetadata(k, md[k])
	}
}

func fromStripeProduct(p *stripe.Product) RemoteProduct {
	out := RemoteProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		Metadata:    maps.Clone(p.Metadata),
		CreatedAt:   unixTime(p.Created),
		UpdatedAt:   unixTime(p.Updated),
	}
	for _, f := range p.MarketingFeatures {
		if f != nil {
			out.MarketingFeatures = append(out.MarketingFeatures, f.Name)
		}
	}
	return out
}

func fromStripePrice(p *stripe.Price) RemotePrice {
	out := RemotePrice{
		ID:        p.ID,
		Currency:  strings.ToUpper(string(p.Currency)),
		Nickname:  p.Nickname,
		Active:    p.Active,
		Metadata:  maps.Clone(p.Metadata),
		CreatedAt: unixTime(p.Created),
	}
	if p.Product != nil {
		out.ProductID = p.Product.ID
	}
	if p.CustomUnitAmount == nil {
		amount := p.UnitAmount
		out.UnitAmount = &amount
	}
	if r := p.Recurring; r != nil {
		out.Recurring = &Recurring{
			Interval:      Interval(r.Interval),
			IntervalCount: r.IntervalCount,
			UsageType:     UsageType(r.UsageType),
		}
	}
	return out
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
