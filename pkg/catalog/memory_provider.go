package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Op names a Provider method, for call counting and failure injection.
type Op string

const (
	OpCreateProduct  Op = "CreateProduct"
	OpUpdateProduct  Op = "UpdateProduct"
	OpListProducts   Op = "ListProducts"
	OpSearchProducts Op = "SearchProducts"
	OpCreatePrice    Op = "CreatePrice"
	OpUpdatePrice    Op = "UpdatePrice"
	OpListPrices     Op = "ListPrices"
	OpSearchPrices   Op = "SearchPrices"
)

// MemoryProvider is an in-memory Provider with deterministic ids.
// It's useful for tests and dry runs.
//
// Metadata updates merge into existing metadata and an empty value removes
// the key, as Stripe does. Listing pages in creation order.
type MemoryProvider struct {
	mu       sync.Mutex
	products []*RemoteProduct
	prices   []*RemotePrice
	seq      int
	clock    time.Time
	calls    map[Op]int
	fail     func(op Op, key string) error
}

// NewMemoryProvider returns an empty in-memory catalog.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		calls: make(map[Op]int),
	}
}

// FailWith installs a hook consulted before every call. key is the remote id
// for updates, the product name or price nickname for creates, and empty for
// list and search. A non-nil return fails the call.
func (m *MemoryProvider) FailWith(fn func(op Op, key string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fn
}

// Calls returns how many times op was invoked.
func (m *MemoryProvider) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Products returns a copy of every stored product in creation order.
func (m *MemoryProvider) Products() []RemoteProduct {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RemoteProduct, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, cloneProduct(p))
	}
	return out
}

// Prices returns a copy of every stored price in creation order.
func (m *MemoryProvider) Prices() []RemotePrice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RemotePrice, 0, len(m.prices))
	for _, p := range m.prices {
		out = append(out, clonePrice(p))
	}
	return out
}

func (m *MemoryProvider) enter(ctx context.Context, op Op, key string) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.fail != nil {
		return m.fail(op, key)
	}
	return nil
}

func (m *MemoryProvider) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// CreateProduct stores a new product with the next sequential id.
func (m *MemoryProvider) CreateProduct(ctx context.Context, params ProductParams) (*RemoteProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpCreateProduct, params.Name); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, errors.New("product name is required")
	}

	m.seq++
	now := m.tick()
	p := &RemoteProduct{
		ID:                fmt.Sprintf("prod_%04d", m.seq),
		Name:              params.Name,
		Description:       params.Description,
		Active:            params.Active,
		MarketingFeatures: slices.Clone(params.MarketingFeatures),
		Metadata:          maps.Clone(params.Metadata),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m.products = append(m.products, p)
	out := cloneProduct(p)
	return &out, nil
}

// UpdateProduct applies the non-nil fields of params. Metadata is merged;
// an empty value removes the key.
func (m *MemoryProvider) UpdateProduct(ctx context.Context, id string, params ProductUpdate) (*RemoteProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpUpdateProduct, id); err != nil {
		return nil, err
	}

	i := slices.IndexFunc(m.products, func(p *RemoteProduct) bool { return p.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: product %s", ErrRemoteNotFound, id)
	}
	p := m.products[i]
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
	if params.Active != nil {
		p.Active = *params.Active
	}
	p.Metadata = mergeMetadata(p.Metadata, params.Metadata)
	p.UpdatedAt = m.tick()

	out := cloneProduct(p)
	return &out, nil
}

// ListProducts pages through products in creation order.
func (m *MemoryProvider) ListProducts(ctx context.Context, params ListParams) (*Page[RemoteProduct], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpListProducts, ""); err != nil {
		return nil, err
	}
	items, more, err := pageOf(m.products, params, func(p *RemoteProduct) string { return p.ID })
	if err != nil {
		return nil, err
	}
	page := &Page[RemoteProduct]{HasMore: more}
	for _, p := range items {
		page.Data = append(page.Data, cloneProduct(p))
	}
	return page, nil
}

// SearchProducts returns products carrying every metadata pair in q,
// honouring ActiveOnly and Limit.
func (m *MemoryProvider) SearchProducts(ctx context.Context, q SearchQuery) ([]RemoteProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpSearchProducts, ""); err != nil {
		return nil, err
	}
	var out []RemoteProduct
	for _, p := range m.products {
		if q.ActiveOnly && !p.Active {
			continue
		}
		if !metadataCovers(p.Metadata, q.Metadata) {
			continue
		}
		out = append(out, cloneProduct(p))
		if q.Limit > 0 && int64(len(out)) >= q.Limit {
			break
		}
	}
	return out, nil
}

// CreatePrice stores a new price. The product must exist.
func (m *MemoryProvider) CreatePrice(ctx context.Context, params PriceParams) (*RemotePrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpCreatePrice, params.Nickname); err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(m.products, func(p *RemoteProduct) bool { return p.ID == params.ProductID }) {
		return nil, fmt.Errorf("%w: product %s", ErrRemoteNotFound, params.ProductID)
	}

	m.seq++
	p := &RemotePrice{
		ID:         fmt.Sprintf("price_%04d", m.seq),
		ProductID:  params.ProductID,
		Currency:   params.Currency,
		UnitAmount: cloneAmount(params.UnitAmount),
		Nickname:   params.Nickname,
		Active:     params.Active,
		Metadata:   maps.Clone(params.Metadata),
		CreatedAt:  m.tick(),
	}
	if params.Recurring != nil {
		r := *params.Recurring
		p.Recurring = &r
	}
	m.prices = append(m.prices, p)
	out := clonePrice(p)
	return &out, nil
}

// UpdatePrice toggles active and merges metadata.
func (m *MemoryProvider) UpdatePrice(ctx context.Context, id string, params PriceUpdate) (*RemotePrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpUpdatePrice, id); err != nil {
		return nil, err
	}

	i := slices.IndexFunc(m.prices, func(p *RemotePrice) bool { return p.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: price %s", ErrRemoteNotFound, id)
	}
	p := m.prices[i]
	if params.Active != nil {
		p.Active = *params.Active
	}
	p.Metadata = mergeMetadata(p.Metadata, params.Metadata)

	out := clonePrice(p)
	return &out, nil
}

// ListPrices pages through prices in creation order.
func (m *MemoryProvider) ListPrices(ctx context.Context, params ListParams) (*Page[RemotePrice], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpListPrices, ""); err != nil {
		return nil, err
	}
	items, more, err := pageOf(m.prices, params, func(p *RemotePrice) string { return p.ID })
	if err != nil {
		return nil, err
	}
	page := &Page[RemotePrice]{HasMore: more}
	for _, p := range items {
		page.Data = append(page.Data, clonePrice(p))
	}
	return page, nil
}

// SearchPrices returns prices matching the metadata, product and active filters in q.
func (m *MemoryProvider) SearchPrices(ctx context.Context, q SearchQuery) ([]RemotePrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpSearchPrices, ""); err != nil {
		return nil, err
	}
	var out []RemotePrice
	for _, p := range m.prices {
		if q.ActiveOnly && !p.Active {
			continue
		}
		if q.ProductID != "" && p.ProductID != q.ProductID {
			continue
		}
		if !metadataCovers(p.Metadata, q.Metadata) {
			continue
		}
		out = append(out, clonePrice(p))
		if q.Limit > 0 && int64(len(out)) >= q.Limit {
			break
		}
	}
	return out, nil
}

func pageOf[T any](items []T, params ListParams, id func(T) string) ([]T, bool, error) {
	start := 0
	if params.StartingAfter != "" {
		i := slices.IndexFunc(items, func(v T) bool { return id(v) == params.StartingAfter })
		if i < 0 {
			return nil, false, fmt.Errorf("%w: cursor %s", ErrRemoteNotFound, params.StartingAfter)
		}
		start = i + 1
	}
	limit := int(params.Limit)
	if limit <= 0 {
		limit = 10
	}
	end := min(start+limit, len(items))
	return items[start:end], end < len(items), nil
}

func mergeMetadata(cur, upd map[string]string) map[string]string {
	if len(upd) == 0 {
		return cur
	}
	out := maps.Clone(cur)
	if out == nil {
		out = make(map[string]string, len(upd))
	}
	for k, v := range upd {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

func cloneProduct(p *RemoteProduct) RemoteProduct {
	out := *p
	out.MarketingFeatures = slices.Clone(p.MarketingFeatures)
	out.Metadata = maps.Clone(p.Metadata)
	return out
}

func clonePrice(p *RemotePrice) RemotePrice {
	out := *p
	out.UnitAmount = cloneAmount(p.UnitAmount)
	if p.Recurring != nil {
		r := *p.Recurring
		out.Recurring = &r
	}
	out.Metadata = maps.Clone(p.Metadata)
	return out
}

func cloneAmount(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
