package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle catalog provider.
type PaddleConfig struct {
	APIKey      string `env:"PADDLE_API_KEY,required"`
	Environment string `env:"PADDLE_ENVIRONMENT" envDefault:"sandbox"`
}

// PaddleProvider implements Provider on Paddle Billing.
//
// Paddle has no search API, so searches list the catalog and filter
// custom_data client-side. Prices without a fixed amount and metered usage
// are not representable and are rejected on create.
type PaddleProvider struct {
	client *paddle.SDK
}

// NewPaddleProvider returns a provider for the sandbox or production
// environment named in cfg.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox", "":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}
	return &PaddleProvider{client: client}, nil
}

const (
	paddleStatusActive   = paddle.Status("active")
	paddleStatusArchived = paddle.Status("archived")
)

// CreateProduct creates a product. Paddle products start active, so an
// inactive product is archived right after creation.
func (p *PaddleProvider) CreateProduct(ctx context.Context, params ProductParams) (*RemoteProduct, error) {
	req := &paddle.CreateProductRequest{
		Name:        params.Name,
		TaxCategory: paddle.TaxCategory("standard"),
		CustomData:  toCustomData(params.Metadata),
	}
	if params.Description != "" {
		req.Description = paddle.PtrTo(params.Description)
	}

	res, err := p.client.ProductsClient.CreateProduct(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("paddle: create product: %w", err)
	}
	out, err := decodePaddleProduct(res)
	if err != nil {
		return nil, err
	}

	// Products are created active; archive right away when declared inactive.
	if !params.Active {
		inactive := false
		return p.UpdateProduct(ctx, out.ID, ProductUpdate{Active: &inactive})
	}
	return &out, nil
}

// UpdateProduct patches the non-nil fields. Active maps onto the active and
// archived statuses.
func (p *PaddleProvider) UpdateProduct(ctx context.Context, id string, u ProductUpdate) (*RemoteProduct, error) {
	req := &paddle.UpdateProductRequest{ProductID: id}
	if u.Name != nil {
		req.Name = paddle.NewPatchField(*u.Name)
	}
	if u.Description != nil {
		req.Description = paddle.NewPatchField(paddle.PtrTo(*u.Description))
	}
	if u.Active != nil {
		req.Status = paddle.NewPatchField(paddleStatus(*u.Active))
	}
	if len(u.Metadata) > 0 {
		// custom_data is replaced as a whole; merge onto the current value.
		cur, err := p.findProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		req.CustomData = paddle.NewPatchField(toCustomData(mergeMetadata(cur.Metadata, u.Metadata)))
	}

	res, err := p.client.ProductsClient.UpdateProduct(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("paddle: update product %s: %w", id, err)
	}
	out, err := decodePaddleProduct(res)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts returns one page of products using Paddle's cursor.
func (p *PaddleProvider) ListProducts(ctx context.Context, lp ListParams) (*Page[RemoteProduct], error) {
	req := &paddle.ListProductsRequest{PerPage: paddle.PtrTo(int(lp.Limit))}
	if lp.StartingAfter != "" {
		req.After = paddle.PtrTo(lp.StartingAfter)
	}

	res, err := p.client.ProductsClient.ListProducts(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("paddle: list products: %w", err)
	}
	items, more, err := paddlePage(ctx, res, int(lp.Limit), decodePaddleProduct)
	if err != nil {
		return nil, fmt.Errorf("paddle: list products: %w", err)
	}
	return &Page[RemoteProduct]{Data: items, HasMore: more}, nil
}

// SearchProducts lists the catalog and filters custom_data locally.
func (p *PaddleProvider) SearchProducts(ctx context.Context, q SearchQuery) ([]RemoteProduct, error) {
	req := &paddle.ListProductsRequest{PerPage: paddle.PtrTo(DefaultPageSize)}
	if q.ActiveOnly {
		req.Status = []string{string(paddleStatusActive)}
	}

	res, err := p.client.ProductsClient.ListProducts(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("paddle: search products: %w", err)
	}
	all, _, err := paddlePage(ctx, res, 0, decodePaddleProduct)
	if err != nil {
		return nil, fmt.Errorf("paddle: search products: %w", err)
	}
	return filterSearch(all, q, func(r RemoteProduct) (map[string]string, string, bool) {
		return r.Metadata, "", r.Active
	}), nil
}

// paddlePriceRequest maps params onto Paddle's create request. Paddle
// requires a description, so the nickname falls back to the internal price id.
func paddlePriceRequest(params PriceParams) *paddle.CreatePriceRequest {
	desc := params.Nickname
	if desc == "" {
		desc = params.InternalID
	}
	req := &paddle.CreatePriceRequest{
		Description: desc,
		ProductID:   params.ProductID,
		UnitPrice: paddle.Money{
			Amount:       strconv.FormatInt(*params.UnitAmount, 10),
			CurrencyCode: paddle.CurrencyCode(strings.ToUpper(params.Currency)),
		},
		CustomData: toCustomData(params.Metadata),
	}
	if params.Nickname != "" {
		req.Name = paddle.PtrTo(params.Nickname)
	}
	if r := params.Recurring; r != nil {
		req.BillingCycle = &paddle.Duration{
			Interval:  paddle.Interval(r.Interval),
			Frequency: int(r.IntervalCount),
		}
	}
	return req
}

// CreatePrice creates a Paddle price. Variable and metered prices are rejected.
func (p *PaddleProvider) CreatePrice(ctx context.Context, params PriceParams) (*RemotePrice, error) {
	if params.UnitAmount == nil {
		return nil, fmt.Errorf("%w: paddle prices need a fixed unit amount", ErrUnsupportedPrice)
	}
	if params.Recurring != nil && params.Recurring.UsageType == UsageMetered {
		return nil, fmt.Errorf("%w: paddle has no metered prices", ErrUnsupportedPrice)
	}

	req := paddlePriceRequest(params)
	res, err := p.client.PricesClient.CreatePrice(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("paddle: create price: %w", err)
	}
	out, err := decodePaddlePrice(res)
	if err != nil {
		return nil, err
	}
	if !params.Active {
		inactive := false
		return p.UpdatePrice(ctx, out.ID, PriceUpdate{Active: &inactive})
	}
	return &out, nil
}

func (p *PaddleProvider) UpdatePrice(ctx context.Context, id string, u PriceUpdate) (*RemotePrice, error) {
	req := &paddle.UpdatePriceRequest{PriceID: id}
	if u.Active != nil {
		req.Status = paddle.NewPatchField(paddleStatus(*u.Active))
	}
	if len(u.Metadata) > 0 {
		cur, err := p.findPrice(ctx, id)
		if err != nil {
			return nil, err
		}
		req.CustomData = paddle.NewPatchField(toCustomData(mergeMetadata(cur.Metadata, u.Metadata)))
	}

	res, err := p.client.PricesClient.UpdatePrice(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("paddle: update price %s: %w", id, err)
	}
	out, err := decodePaddlePrice(res)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPrices returns one page of prices using Paddle's cursor.
func (p *PaddleProvider) ListPrices(ctx context.Context, lp ListParams) (*Page[RemotePrice], error) {
	req := &paddle.ListPricesRequest{PerPage: paddle.PtrTo(int(lp.Limit))}
	if lp.StartingAfter != "" {
		req.After = paddle.PtrTo(lp.StartingAfter)
	}

	res, err := p.client.PricesClient.ListPrices(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("paddle: list prices: %w", err)
	}
	items, more, err := paddlePage(ctx, res, int(lp.Limit), decodePaddlePrice)
	if err != nil {
		return nil, fmt.Errorf("paddle: list prices: %w", err)
	}
	return &Page[RemotePrice]{Data: items, HasMore: more}, nil
}

// SearchPrices lists prices, restricted to q.ProductID when set, and
// filters custom_data locally.
func (p *PaddleProvider) SearchPrices(ctx context.Context, q SearchQuery) ([]RemotePrice, error) {
	req := &paddle.ListPricesRequest{PerPage: paddle.PtrTo(DefaultPageSize)}
	if q.ActiveOnly {
		req.Status = []string{string(paddleStatusActive)}
	}
	if q.ProductID != "" {
		req.ProductID = []string{q.ProductID}
	}

	res, err := p.client.PricesClient.ListPrices(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("paddle: search prices: %w", err)
	}
	all, _, err := paddlePage(ctx, res, 0, decodePaddlePrice)
	if err != nil {
		return nil, fmt.Errorf("paddle: search prices: %w", err)
	}
	return filterSearch(all, q, func(r RemotePrice) (map[string]string, string, bool) {
		return r.Metadata, r.ProductID, r.Active
	}), nil
}

func (p *PaddleProvider) findProduct(ctx context.Context, id string) (*RemoteProduct, error) {
	res, err := p.client.ProductsClient.ListProducts(ctx, &paddle.ListProductsRequest{ID: []string{id}})
	if err != nil {
		return nil, fmt.Errorf("paddle: get product %s: %w", id, err)
	}
	items, _, err := paddlePage(ctx, res, 1, decodePaddleProduct)
	if err != nil {
		return nil, fmt.Errorf("paddle: get product %s: %w", id, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: product %s", ErrRemoteNotFound, id)
	}
	return &items[0], nil
}

func (p *PaddleProvider) findPrice(ctx context.Context, id string) (*RemotePrice, error) {
	res, err := p.client.PricesClient.ListPrices(ctx, &paddle.ListPricesRequest{ID: []string{id}})
	if err != nil {
		return nil, fmt.Errorf("paddle: get price %s: %w", id, err)
	}
	items, _, err := paddlePage(ctx, res, 1, decodePaddlePrice)
	if err != nil {
		return nil, fmt.Errorf("paddle: get price %s: %w", id, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: price %s", ErrRemoteNotFound, id)
	}
	return &items[0], nil
}

// paddlePage collects up to limit decoded items from a collection, reading
// one item past the limit to learn whether more exist. limit <= 0 drains it.
func paddlePage[T, O any](ctx context.Context, c *paddle.Collection[T], limit int, decode func(any) (O, error)) ([]O, bool, error) {
	var (
		out  []O
		more bool
	)
	err := c.Iter(ctx, func(v T) (bool, error) {
		if limit > 0 && len(out) == limit {
			more = true
			return false, nil
		}
		o, err := decode(v)
		if err != nil {
			return false, err
		}
		out = append(out, o)
		return true, nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, more, nil
}

// filterSearch applies the SearchQuery predicates Paddle cannot evaluate server-side.
func filterSearch[T any](items []T, q SearchQuery, fields func(T) (md map[string]string, productID string, active bool)) []T {
	var out []T
	for _, it := range items {
		md, productID, active := fields(it)
		if q.ActiveOnly && !active {
			continue
		}
		if q.ProductID != "" && productID != q.ProductID {
			continue
		}
		if !metadataCovers(md, q.Metadata) {
			continue
		}
		out = append(out, it)
		if q.Limit > 0 && int64(len(out)) >= q.Limit {
			break
		}
	}
	return out
}

// paddleProductWire is the subset of the Paddle product entity we read.
type paddleProductWire struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Status      string         `json:"status"`
	CustomData  map[string]any `json:"custom_data"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// paddlePriceWire is the subset of the Paddle price entity we read.
type paddlePriceWire struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	Description  string  `json:"description"`
	Name         *string `json:"name"`
	BillingCycle *struct {
		Interval  string `json:"interval"`
		Frequency int64  `json:"frequency"`
	} `json:"billing_cycle"`
	UnitPrice struct {
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currency_code"`
	} `json:"unit_price"`
	Status     string         `json:"status"`
	CustomData map[string]any `json:"custom_data"`
	CreatedAt  string         `json:"created_at"`
}

// decodePaddleProduct converts any SDK product representation through its
// JSON wire form.
func decodePaddleProduct(v any) (RemoteProduct, error) {
	var w paddleProductWire
	if err := rewire(v, &w); err != nil {
		return RemoteProduct{}, fmt.Errorf("paddle: decode product: %w", err)
	}
	out := RemoteProduct{
		ID:        w.ID,
		Name:      w.Name,
		Active:    w.Status == string(paddleStatusActive),
		Metadata:  fromCustomData(w.CustomData),
		CreatedAt: parsePaddleTime(w.CreatedAt),
		UpdatedAt: parsePaddleTime(w.UpdatedAt),
	}
	if w.Description != nil {
		out.Description = *w.Description
	}
	return out, nil
}

func decodePaddlePrice(v any) (RemotePrice, error) {
	var w paddlePriceWire
	if err := rewire(v, &w); err != nil {
		return RemotePrice{}, fmt.Errorf("paddle: decode price: %w", err)
	}
	out := RemotePrice{
		ID:        w.ID,
		ProductID: w.ProductID,
		Currency:  strings.ToUpper(w.UnitPrice.CurrencyCode),
		Nickname:  w.Description,
		Active:    w.Status == string(paddleStatusActive),
		Metadata:  fromCustomData(w.CustomData),
		CreatedAt: parsePaddleTime(w.CreatedAt),
	}
	if w.Name != nil {
		out.Nickname = *w.Name
	}
	if w.UnitPrice.Amount != "" {
		amount, err := strconv.ParseInt(w.UnitPrice.Amount, 10, 64)
		if err != nil {
			return RemotePrice{}, fmt.Errorf("paddle: decode price %s amount: %w", w.ID, err)
		}
		out.UnitAmount = &amount
	}
	if bc := w.BillingCycle; bc != nil {
		out.Recurring = &Recurring{
			Interval:      Interval(bc.Interval),
			IntervalCount: bc.Frequency,
			UsageType:     UsageLicensed,
		}
	}
	return out, nil
}

func rewire(src, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func paddleStatus(active bool) paddle.Status {
	if active {
		return paddleStatusActive
	}
	return paddleStatusArchived
}

func toCustomData(md map[string]string) paddle.CustomData {
	if len(md) == 0 {
		return nil
	}
	out := make(paddle.CustomData, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

func fromCustomData(cd map[string]any) map[string]string {
	if len(cd) == 0 {
		return nil
	}
	out := make(map[string]string, len(cd))
	for k, v := range cd {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}

func parsePaddleTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
