package catalog_test

import (
	"github.com/dmitrymomot/catalogsync/pkg/catalog"
)

func amount(v int64) *int64 { return &v }

func proPlan() catalog.Plan {
	return catalog.Plan{
		ID:   "pro",
		Tier: "2",
		Product: catalog.ProductSpec{
			ID:                "pro",
			Name:              "Pro",
			Description:       "For growing teams",
			Active:            true,
			Type:              catalog.ProductTypeService,
			MarketingFeatures: []string{"Unlimited projects"},
			Features:          map[string]any{"seats": 10},
		},
		Prices: []catalog.PriceSpec{{
			ID:         "pro-monthly",
			Currency:   "USD",
			UnitAmount: amount(2999),
			Recurring:  &catalog.Recurring{Interval: catalog.IntervalMonth, IntervalCount: 1, UsageType: catalog.UsageLicensed},
			Nickname:   "Pro monthly",
			Active:     true,
		}},
	}
}

func basicPlan() catalog.Plan {
	return catalog.Plan{
		ID:   "basic",
		Tier: "1",
		Product: catalog.ProductSpec{
			ID:     "basic",
			Name:   "Basic",
			Active: true,
			Type:   catalog.ProductTypeService,
		},
		Prices: []catalog.PriceSpec{
			{
				ID:         "basic-monthly",
				Currency:   "USD",
				UnitAmount: amount(999),
				Recurring:  &catalog.Recurring{Interval: catalog.IntervalMonth, IntervalCount: 1, UsageType: catalog.UsageLicensed},
				Nickname:   "Basic monthly",
				Active:     true,
			},
			{
				ID:         "basic-yearly",
				Currency:   "USD",
				UnitAmount: amount(9990),
				Recurring:  &catalog.Recurring{Interval: catalog.IntervalYear, IntervalCount: 1, UsageType: catalog.UsageLicensed},
				Nickname:   "Basic yearly",
				Active:     true,
			},
		},
	}
}
