package catalog

import (
	"encoding/json"
	"fmt"
	"maps"
)

// productMetadata is the full metadata a managed product should carry.
func (s settings) productMetadata(spec ProductSpec) (map[string]string, error) {
	md := make(map[string]string, len(spec.Metadata)+4)
	maps.Copy(md, spec.Metadata)
	if len(spec.Features) > 0 {
		raw, err := json.Marshal(spec.Features)
		if err != nil {
			return nil, fmt.Errorf("product %s: encode features: %w", spec.ID, err)
		}
		md[FeaturesKey] = string(raw)
	}
	md[ProductTypeKey] = string(spec.Type)
	return s.keys.EncodeProductTag(CorrelationTag{InternalID: spec.ID, Owner: s.owner}, md), nil
}

// priceMetadata is the full metadata a managed price should carry.
func (s settings) priceMetadata(plan Plan, spec PriceSpec) map[string]string {
	md := make(map[string]string, len(spec.Metadata)+5)
	maps.Copy(md, spec.Metadata)
	md[s.keys.ProductID] = plan.Product.ID
	md[PlanNameKey] = plan.Product.Name
	if plan.Tier != "" {
		md[TierKey] = plan.Tier
	}
	return s.keys.EncodePriceTag(CorrelationTag{InternalID: spec.ID, Owner: s.owner}, md)
}

func (s settings) productParams(spec ProductSpec) (ProductParams, error) {
	md, err := s.productMetadata(spec)
	if err != nil {
		return ProductParams{}, err
	}
	return ProductParams{
		Name:              spec.Name,
		Description:       spec.Description,
		Active:            spec.Active,
		MarketingFeatures: spec.MarketingFeatures,
		Metadata:          md,
	}, nil
}

func (s settings) priceParams(plan Plan, spec PriceSpec, remoteProductID string) PriceParams {
	var rec *Recurring
	if spec.Recurring != nil {
		r := *spec.Recurring
		rec = &r
	}
	return PriceParams{
		InternalID: spec.ID,
		ProductID:  remoteProductID,
		Currency:   spec.Currency,
		UnitAmount: spec.UnitAmount,
		Recurring:  rec,
		Nickname:   spec.Nickname,
		Active:     spec.Active,
		Metadata:   s.priceMetadata(plan, spec),
	}
}

func (s settings) productUpdate(spec ProductSpec) (ProductUpdate, error) {
	md, err := s.productMetadata(spec)
	if err != nil {
		return ProductUpdate{}, err
	}
	return ProductUpdate{
		Name:        &spec.Name,
		Description: &spec.Description,
		Active:      &spec.Active,
		Metadata:    md,
	}, nil
}

func (s settings) priceUpdate(plan Plan, spec PriceSpec) PriceUpdate {
	active := spec.Active
	return PriceUpdate{
		Active:   &active,
		Metadata: s.priceMetadata(plan, spec),
	}
}

// metadataCovers reports whether every key in want has the same value in have.
func metadataCovers(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
