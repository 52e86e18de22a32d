package catalog_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
)

type stripeStub struct {
	mu       sync.Mutex
	requests []*http.Request
	forms    []url.Values
}

func (s *stripeStub) record(r *http.Request) url.Values {
	_ = r.ParseForm()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r)
	s.forms = append(s.forms, r.Form)
	return r.Form
}

func productJSON(id, internalID string, active bool) string {
	return fmt.Sprintf(`{"id":%q,"object":"product","name":"Plan %s","active":%t,"created":1700000000,"updated":1700000100,
		"metadata":{"internal_product_id":%q,"managed_by":"catalogsync"},"marketing_features":[{"name":"Fast"}]}`,
		id, internalID, active, internalID)
}

func newStripeServer(t *testing.T, stub *stripeStub) *catalog.StripeProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/products", func(w http.ResponseWriter, r *http.Request) {
		form := stub.record(r)
		w.Header().Set("Content-Type", "application/json")
		switch form.Get("starting_after") {
		case "":
			fmt.Fprintf(w, `{"object":"list","url":"/v1/products","has_more":true,"data":[%s,%s]}`,
				productJSON("prod_1", "a", true), productJSON("prod_2", "b", false))
		case "prod_2":
			fmt.Fprintf(w, `{"object":"list","url":"/v1/products","has_more":false,"data":[%s]}`,
				productJSON("prod_3", "c", true))
		default:
			http.Error(w, `{"error":{"message":"bad cursor","type":"invalid_request_error"}}`, http.StatusBadRequest)
		}
	})
	mux.HandleFunc("GET /v1/products/search", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"object":"search_result","url":"/v1/products/search","has_more":false,"next_page":null,"data":[%s]}`,
			productJSON("prod_1", "a", true))
	})
	mux.HandleFunc("POST /v1/products", func(w http.ResponseWriter, r *http.Request) {
		form := stub.record(r)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"prod_new","object":"product","name":%q,"active":true,"metadata":{"internal_product_id":%q}}`,
			form.Get("name"), form.Get("metadata[internal_product_id]"))
	})
	mux.HandleFunc("POST /v1/prices", func(w http.ResponseWriter, r *http.Request) {
		form := stub.record(r)
		w.Header().Set("Content-Type", "application/json")
		if form.Get("custom_unit_amount[enabled]") == "true" {
			fmt.Fprint(w, `{"id":"price_var","object":"price","active":true,"currency":"eur","product":"prod_new",
				"unit_amount":null,"custom_unit_amount":{"maximum":null,"minimum":null,"preset":null},"metadata":{}}`)
			return
		}
		fmt.Fprintf(w, `{"id":"price_new","object":"price","active":true,"currency":"usd","product":%q,"unit_amount":2999,
			"recurring":{"interval":"month","interval_count":1,"usage_type":"licensed"},
			"metadata":{"internal_price_id":%q}}`, form.Get("product"), form.Get("metadata[internal_price_id]"))
	})
	mux.HandleFunc("POST /v1/prices/{id}", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":%q,"object":"price","active":false,"currency":"usd","product":"prod_1","unit_amount":100,"metadata":{}}`,
			r.PathValue("id"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p, err := catalog.NewStripeProvider(
		catalog.StripeConfig{SecretKey: "sk_test_123"},
		catalog.WithStripeBackend(catalog.NewStripeBackend(srv.URL)),
	)
	require.NoError(t, err)
	return p
}

func TestStripeProvider_PaginatedFetch(t *testing.T) {
	t.Parallel()

	stub := &stripeStub{}
	p := newStripeServer(t, stub)

	products, err := catalog.NewFetcher(p, quiet(), catalog.WithPageSize(2)).FetchProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, products, 3)
	assert.Equal(t, []string{"prod_1", "prod_2", "prod_3"}, []string{products[0].ID, products[1].ID, products[2].ID})
	assert.False(t, products[1].Active)
	assert.Equal(t, "b", products[1].Tag.InternalID)
	assert.Equal(t, []string{"Fast"}, products[0].MarketingFeatures)
	assert.Equal(t, int64(1700000000), products[0].CreatedAt.Unix())

	require.Len(t, stub.forms, 2)
	assert.Equal(t, "2", stub.forms[0].Get("limit"))
	assert.Equal(t, "prod_2", stub.forms[1].Get("starting_after"))
}

func TestStripeProvider_SearchQuery(t *testing.T) {
	t.Parallel()

	stub := &stripeStub{}
	p := newStripeServer(t, stub)

	got, err := catalog.NewMatcher(p, quiet()).FindProduct(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "prod_1", got.ID)

	require.Len(t, stub.forms, 1)
	assert.Equal(t, "active:'true' AND metadata['internal_product_id']:'a'", stub.forms[0].Get("query"))
	assert.Equal(t, "2", stub.forms[0].Get("limit"))
}

func TestStripeProvider_Create(t *testing.T) {
	t.Parallel()

	stub := &stripeStub{}
	p := newStripeServer(t, stub)
	ctx := context.Background()

	prod, err := p.CreateProduct(ctx, catalog.ProductParams{
		Name:              "Pro",
		Active:            true,
		MarketingFeatures: []string{"SSO"},
		Metadata:          map[string]string{"internal_product_id": "pro", "managed_by": "catalogsync"},
	})
	require.NoError(t, err)
	assert.Equal(t, "prod_new", prod.ID)

	form := stub.forms[0]
	assert.Equal(t, "Pro", form.Get("name"))
	assert.Equal(t, "true", form.Get("active"))
	assert.Equal(t, "SSO", form.Get("marketing_features[0][name]"))
	assert.Equal(t, "catalogsync", form.Get("metadata[managed_by]"))
	assert.Empty(t, form.Get("description"))

	price, err := p.CreatePrice(ctx, catalog.PriceParams{
		ProductID:  "prod_new",
		Currency:   "USD",
		UnitAmount: amount(2999),
		Recurring:  &catalog.Recurring{Interval: catalog.IntervalMonth, IntervalCount: 1, UsageType: catalog.UsageLicensed},
		Active:     true,
		Metadata:   map[string]string{"internal_price_id": "pro-monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", price.Currency)
	assert.Equal(t, "prod_new", price.ProductID)
	require.NotNil(t, price.UnitAmount)
	assert.Equal(t, int64(2999), *price.UnitAmount)
	assert.Equal(t, catalog.IntervalMonth, price.Recurring.Interval)

	form = stub.forms[1]
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "2999", form.Get("unit_amount"))
	assert.Equal(t, "month", form.Get("recurring[interval]"))
	assert.Equal(t, "licensed", form.Get("recurring[usage_type]"))

	variable, err := p.CreatePrice(ctx, catalog.PriceParams{ProductID: "prod_new", Currency: "EUR", Active: true})
	require.NoError(t, err)
	assert.Nil(t, variable.UnitAmount)
	assert.Empty(t, stub.forms[2].Get("unit_amount"))
}

func TestStripeProvider_UpdatePriceSendsOnlyMutableFields(t *testing.T) {
	t.Parallel()

	stub := &stripeStub{}
	p := newStripeServer(t, stub)

	inactive := false
	_, err := p.UpdatePrice(context.Background(), "price_1", catalog.PriceUpdate{
		Active:   &inactive,
		Metadata: map[string]string{"tier": "2"},
	})
	require.NoError(t, err)

	form := stub.forms[0]
	assert.Equal(t, "false", form.Get("active"))
	assert.Equal(t, "2", form.Get("metadata[tier]"))
	for key := range form {
		assert.NotContains(t, []string{"unit_amount", "currency", "recurring[interval]"}, key)
	}
}

func TestNewStripeProvider_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := catalog.NewStripeProvider(catalog.StripeConfig{})
	assert.ErrorIs(t, err, catalog.ErrMissingAPIKey)
}
