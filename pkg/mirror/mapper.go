package mirror

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
	"github.com/dmitrymomot/catalogsync/pkg/validator"
)

func productRow(p catalog.RemoteProduct, now time.Time) (ProductRow, error) {
	if err := validator.Apply(
		validator.Required("id", p.ID),
		validator.Required("internal_id", p.Tag.InternalID),
		validator.Identifier("internal_id", p.Tag.InternalID),
		validator.Required("name", p.Name),
	); err != nil {
		return ProductRow{}, fmt.Errorf("%w: product %s: %w", ErrInvalidRemoteObject, p.ID, err)
	}

	var features map[string]any
	if raw := p.Metadata[catalog.FeaturesKey]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &features); err != nil {
			return ProductRow{}, fmt.Errorf("%w: product %s: %w", ErrMalformedFeatures, p.Tag.InternalID, err)
		}
	}

	return ProductRow{
		ID:                p.Tag.InternalID,
		RemoteID:          p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Active:            p.Active,
		Type:              p.Metadata[catalog.ProductTypeKey],
		MarketingFeatures: slices.Clone(p.MarketingFeatures),
		Features:          features,
		Metadata:          maps.Clone(p.Metadata),
		SyncedAt:          now,
	}, nil
}

func priceRow(p catalog.RemotePrice, now time.Time) (PriceRow, error) {
	rules := []validator.Rule{
		validator.Required("id", p.ID),
		validator.Required("internal_id", p.Tag.InternalID),
		validator.Identifier("internal_id", p.Tag.InternalID),
		validator.Required("internal_product_id", p.InternalProductID),
		validator.ValidCurrency("currency", p.Currency),
	}
	if p.UnitAmount != nil {
		rules = append(rules, validator.NonNegativeAmount("unit_amount", *p.UnitAmount))
	}
	if err := validator.Apply(rules...); err != nil {
		return PriceRow{}, fmt.Errorf("%w: price %s: %w", ErrInvalidRemoteObject, p.ID, err)
	}

	row := PriceRow{
		ID:              p.Tag.InternalID,
		RemoteID:        p.ID,
		ProductID:       p.InternalProductID,
		RemoteProductID: p.ProductID,
		Currency:        strings.ToUpper(p.Currency),
		Nickname:        p.Nickname,
		Active:          p.Active,
		Metadata:        maps.Clone(p.Metadata),
		SyncedAt:        now,
	}
	if p.UnitAmount != nil {
		amount := *p.UnitAmount
		row.UnitAmount = &amount
	}
	if r := p.Recurring; r != nil {
		row.Interval = string(r.Interval)
		row.IntervalCount = r.IntervalCount
		row.UsageType = string(r.UsageType)
	}
	return row, nil
}

// newestProduct picks one remote product per internal id: active wins,
// then the most recently changed.
func newestProduct(a, b catalog.RemoteProduct) catalog.RemoteProduct {
	if a.Active != b.Active {
		if a.Active {
			return a
		}
		return b
	}
	if b.UpdatedAt.After(a.UpdatedAt) || (b.UpdatedAt.Equal(a.UpdatedAt) && b.CreatedAt.After(a.CreatedAt)) {
		return b
	}
	return a
}

func newestPrice(a, b catalog.RemotePrice) catalog.RemotePrice {
	if a.Active != b.Active {
		if a.Active {
			return a
		}
		return b
	}
	if b.CreatedAt.After(a.CreatedAt) {
		return b
	}
	return a
}

// dedupe collapses items sharing an internal id, keeping first-seen order.
func dedupe[T any](items []T, id func(T) string, pick func(a, b T) T) []T {
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		key := id(it)
		if i, ok := index[key]; ok {
			out[i] = pick(out[i], it)
			continue
		}
		index[key] = len(out)
		out = append(out, it)
	}
	return out
}
