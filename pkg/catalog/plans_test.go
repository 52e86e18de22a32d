package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
	"github.com/dmitrymomot/catalogsync/pkg/validator"
)

const validPlans = `
plans:
  - id: pro
    tier: "2"
    product:
      name: Pro
      description: For growing teams
      marketing_features: [Unlimited projects, Priority support]
      features:
        seats: 10
        sso: true
      metadata:
        color: blue
    prices:
      - id: pro-monthly
        currency: usd
        unit_amount: 2999
        recurring:
          interval: month
        nickname: Pro monthly
      - id: pro-donation
        currency: eur
        active: false
`

func TestParsePlans_Defaults(t *testing.T) {
	t.Parallel()

	plans, err := catalog.ParsePlans([]byte(validPlans))
	require.NoError(t, err)
	require.Len(t, plans, 1)

	p := plans[0]
	assert.Equal(t, "pro", p.ID)
	assert.Equal(t, "2", p.Tier)
	assert.Equal(t, "pro", p.Product.ID, "product id defaults to plan id")
	assert.True(t, p.Product.Active)
	assert.Equal(t, catalog.ProductTypeService, p.Product.Type)
	assert.Equal(t, 10, p.Product.Features["seats"])
	assert.Equal(t, "blue", p.Product.Metadata["color"])

	require.Len(t, p.Prices, 2)
	monthly := p.Prices[0]
	assert.Equal(t, "USD", monthly.Currency)
	assert.Equal(t, int64(2999), *monthly.UnitAmount)
	assert.True(t, monthly.Active)
	assert.Equal(t, &catalog.Recurring{
		Interval:      catalog.IntervalMonth,
		IntervalCount: 1,
		UsageType:     catalog.UsageLicensed,
	}, monthly.Recurring)

	donation := p.Prices[1]
	assert.Nil(t, donation.UnitAmount)
	assert.Nil(t, donation.Recurring)
	assert.False(t, donation.Active)
}

func TestParsePlans_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		doc   string
		field string
		dup   bool
	}{
		{
			name: "duplicate price id",
			doc: `
plans:
  - id: a
    product: {name: A}
    prices: [{id: p1, currency: usd, unit_amount: 1}]
  - id: b
    product: {name: B}
    prices: [{id: p1, currency: usd, unit_amount: 1}]
`,
			field: "plans.prices.id",
			dup:   true,
		},
		{
			name: "duplicate product id",
			doc: `
plans:
  - id: a
    product: {id: x, name: A}
    prices: [{id: p1, currency: usd, unit_amount: 1}]
  - id: b
    product: {id: x, name: B}
    prices: [{id: p2, currency: usd, unit_amount: 1}]
`,
			field: "plans.product.id",
			dup:   true,
		},
		{
			name: "unknown currency",
			doc: `
plans:
  - id: a
    product: {name: A}
    prices: [{id: p1, currency: xyz, unit_amount: 1}]
`,
			field: "plans[0].prices[0].currency",
		},
		{
			name: "negative amount",
			doc: `
plans:
  - id: a
    product: {name: A}
    prices: [{id: p1, currency: usd, unit_amount: -5}]
`,
			field: "plans[0].prices[0].unit_amount",
		},
		{
			name: "bad interval",
			doc: `
plans:
  - id: a
    product: {name: A}
    prices: [{id: p1, currency: usd, unit_amount: 1, recurring: {interval: fortnight}}]
`,
			field: "plans[0].prices[0].recurring.interval",
		},
		{
			name: "missing name",
			doc: `
plans:
  - id: a
    product: {}
    prices: [{id: p1, currency: usd, unit_amount: 1}]
`,
			field: "plans[0].product.name",
		},
		{
			name: "no prices",
			doc: `
plans:
  - id: a
    product: {name: A}
`,
			field: "plans[0].prices",
		},
		{
			name: "bad product type",
			doc: `
plans:
  - id: a
    product: {name: A, type: digital}
    prices: [{id: p1, currency: usd, unit_amount: 1}]
`,
			field: "plans[0].product.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := catalog.ParsePlans([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, catalog.ErrInvalidPlan)
			assert.Equal(t, tt.dup, errors.Is(err, catalog.ErrDuplicateID))
			assert.True(t, validator.ExtractValidationErrors(err).Has(tt.field), err.Error())
		})
	}
}

func TestParsePlans_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := catalog.ParsePlans([]byte("plans:\n  - id: a\n    colour: red\n"))
	assert.ErrorIs(t, err, catalog.ErrFailedToLoadPlans)
}

func TestParsePlans_Empty(t *testing.T) {
	t.Parallel()

	_, err := catalog.ParsePlans([]byte("plans: []\n"))
	assert.ErrorIs(t, err, catalog.ErrInvalidPlan)
}

func TestLoadPlans(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validPlans), 0o600))

	plans, err := catalog.LoadPlans(path)
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	_, err = catalog.LoadPlans(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, catalog.ErrFailedToLoadPlans)
}
