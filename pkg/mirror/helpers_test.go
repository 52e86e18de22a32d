package mirror_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
	"github.com/dmitrymomot/catalogsync/pkg/logger"
	"github.com/dmitrymomot/catalogsync/pkg/mirror"
)

var syncTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func quiet() catalog.Option { return catalog.WithLogger(logger.Discard()) }

func amount(v int64) *int64 { return &v }

func teamPlan() catalog.Plan {
	return catalog.Plan{
		ID:   "team",
		Tier: "2",
		Product: catalog.ProductSpec{
			ID:       "team",
			Name:     "Team",
			Active:   true,
			Type:     catalog.ProductTypeService,
			Features: map[string]any{"seats": 25},
		},
		Prices: []catalog.PriceSpec{{
			ID:         "team-monthly",
			Currency:   "USD",
			UnitAmount: amount(4900),
			Recurring:  &catalog.Recurring{Interval: catalog.IntervalMonth, IntervalCount: 1, UsageType: catalog.UsageLicensed},
			Active:     true,
		}},
	}
}

func starterPlan() catalog.Plan {
	return catalog.Plan{
		ID:   "starter",
		Tier: "1",
		Product: catalog.ProductSpec{
			ID:     "starter",
			Name:   "Starter",
			Active: true,
			Type:   catalog.ProductTypeService,
		},
		Prices: []catalog.PriceSpec{
			{ID: "starter-monthly", Currency: "USD", UnitAmount: amount(900), Active: true,
				Recurring: &catalog.Recurring{Interval: catalog.IntervalMonth, IntervalCount: 1, UsageType: catalog.UsageLicensed}},
			{ID: "starter-setup", Currency: "USD", UnitAmount: amount(1500), Active: true},
		},
	}
}

// ensure creates plans on a fresh memory provider.
func ensure(t *testing.T, plans ...catalog.Plan) *catalog.MemoryProvider {
	t.Helper()
	mp := catalog.NewMemoryProvider()
	_, err := catalog.NewReconciler(mp, quiet()).Ensure(context.Background(), plans)
	require.NoError(t, err)
	return mp
}

func newEngine(p catalog.Provider, s mirror.Store) *mirror.Engine {
	return mirror.NewEngine(
		catalog.NewFetcher(p, quiet(), catalog.WithPageSize(2)),
		s,
		mirror.WithLogger(logger.Discard()),
		mirror.WithClock(func() time.Time { return syncTime }),
	)
}

func productIDs(rows []mirror.ProductRow) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func priceIDs(rows []mirror.PriceRow) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}
