package catalog

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// DiffStatus is the drift state of a declared object.
type DiffStatus string

const (
	DiffOK      DiffStatus = "OK"
	DiffMissing DiffStatus = "MISSING"
	DiffDiffers DiffStatus = "DIFFERS"
)

// PriceDiff describes one declared price against the remote catalog.
type PriceDiff struct {
	PriceID  string     `json:"price_id"`
	RemoteID string     `json:"remote_id,omitempty"`
	Status   DiffStatus `json:"status"`
	Details  []string   `json:"details,omitempty"`
}

// PlanDiff describes one declared plan against the remote catalog.
type PlanDiff struct {
	PlanID    string      `json:"plan_id"`
	ProductID string      `json:"product_id"`
	RemoteID  string      `json:"remote_id,omitempty"`
	Status    DiffStatus  `json:"status"`
	Details   []string    `json:"details,omitempty"`
	Prices    []PriceDiff `json:"prices"`
}

// DiffSummary counts plans by status.
type DiffSummary struct {
	Total   int `json:"total"`
	Synced  int `json:"synced"`
	Missing int `json:"missing"`
	Differs int `json:"differs"`
}

// Diff is a read-only drift report.
type Diff struct {
	Plans   []PlanDiff  `json:"plans"`
	Summary DiffSummary `json:"summary"`
}

// HasDrift reports whether any plan is missing or differs.
func (d *Diff) HasDrift() bool {
	return d.Summary.Missing > 0 || d.Summary.Differs > 0
}

// Compare checks declared plans against a snapshot of managed remote objects.
// Active remote objects are preferred. A declared-inactive product or price
// also matches an archived remote object carrying its tag.
func Compare(plans []Plan, snap *Snapshot, opts ...Option) (*Diff, error) {
	s := newSettings(false, opts)
	idx := newRemoteIndex(snap, s.owner)

	d := &Diff{Plans: make([]PlanDiff, 0, len(plans))}
	for _, plan := range plans {
		pd, err := s.comparePlan(plan, idx)
		if err != nil {
			return nil, err
		}
		d.Plans = append(d.Plans, pd)

		d.Summary.Total++
		switch pd.Status {
		case DiffOK:
			d.Summary.Synced++
		case DiffMissing:
			d.Summary.Missing++
		default:
			d.Summary.Differs++
		}
	}
	return d, nil
}

// remoteIndex keeps the active match per tag and, separately, the first
// inactive one.
type remoteIndex struct {
	products         map[string]RemoteProduct
	inactiveProducts map[string]RemoteProduct
	prices           map[priceKey]RemotePrice
	inactivePrices   map[priceKey]RemotePrice
}

func newRemoteIndex(snap *Snapshot, owner string) remoteIndex {
	idx := remoteIndex{
		products:         make(map[string]RemoteProduct),
		inactiveProducts: make(map[string]RemoteProduct),
		prices:           make(map[priceKey]RemotePrice),
		inactivePrices:   make(map[priceKey]RemotePrice),
	}
	for _, p := range ManagedProducts(snap.Products, owner) {
		byTag := idx.products
		if !p.Active {
			byTag = idx.inactiveProducts
		}
		if _, seen := byTag[p.Tag.InternalID]; !seen {
			byTag[p.Tag.InternalID] = p
		}
	}
	for _, p := range ManagedPrices(snap.Prices, owner) {
		byTag := idx.prices
		if !p.Active {
			byTag = idx.inactivePrices
		}
		k := priceKey{p.ProductID, p.Tag.InternalID}
		if _, seen := byTag[k]; !seen {
			byTag[k] = p
		}
	}
	return idx
}

func (idx remoteIndex) product(spec ProductSpec) (RemoteProduct, bool) {
	if p, ok := idx.products[spec.ID]; ok {
		return p, true
	}
	if spec.Active {
		return RemoteProduct{}, false
	}
	p, ok := idx.inactiveProducts[spec.ID]
	return p, ok
}

func (idx remoteIndex) price(spec PriceSpec, remoteProductID string) (RemotePrice, bool) {
	k := priceKey{remoteProductID, spec.ID}
	if p, ok := idx.prices[k]; ok {
		return p, true
	}
	if spec.Active {
		return RemotePrice{}, false
	}
	p, ok := idx.inactivePrices[k]
	return p, ok
}

func (s settings) comparePlan(plan Plan, idx remoteIndex) (PlanDiff, error) {
	pd := PlanDiff{PlanID: plan.ID, ProductID: plan.Product.ID, Status: DiffOK}

	remote, ok := idx.product(plan.Product)
	if !ok {
		pd.Status = DiffMissing
		for _, ps := range plan.Prices {
			pd.Prices = append(pd.Prices, PriceDiff{PriceID: ps.ID, Status: DiffMissing})
		}
		return pd, nil
	}
	pd.RemoteID = remote.ID

	want, err := s.productMetadata(plan.Product)
	if err != nil {
		return pd, err
	}
	if remote.Name != plan.Product.Name {
		pd.Details = append(pd.Details, fmt.Sprintf("name: %q -> %q", remote.Name, plan.Product.Name))
	}
	if remote.Description != plan.Product.Description {
		pd.Details = append(pd.Details, fmt.Sprintf("description: %q -> %q", remote.Description, plan.Product.Description))
	}
	if remote.Active != plan.Product.Active {
		pd.Details = append(pd.Details, fmt.Sprintf("active: %t -> %t", remote.Active, plan.Product.Active))
	}
	pd.Details = append(pd.Details, metadataDrift(remote.Metadata, want)...)

	for _, ps := range plan.Prices {
		rp, ok := idx.price(ps, remote.ID)
		if !ok {
			pd.Prices = append(pd.Prices, PriceDiff{PriceID: ps.ID, Status: DiffMissing})
			pd.Details = append(pd.Details, fmt.Sprintf("price %s missing", ps.ID))
			continue
		}
		prd := comparePrice(ps, rp, s.priceMetadata(plan, ps))
		if prd.Status != DiffOK {
			pd.Details = append(pd.Details, fmt.Sprintf("price %s differs", ps.ID))
		}
		pd.Prices = append(pd.Prices, prd)
	}

	if len(pd.Details) > 0 {
		pd.Status = DiffDiffers
	}
	return pd, nil
}

func comparePrice(spec PriceSpec, remote RemotePrice, wantMD map[string]string) PriceDiff {
	d := PriceDiff{PriceID: spec.ID, RemoteID: remote.ID, Status: DiffOK}

	immutable := func(field string, have, want any) {
		d.Details = append(d.Details, fmt.Sprintf("%s: %v -> %v (requires new price)", field, have, want))
	}

	if !strings.EqualFold(remote.Currency, spec.Currency) {
		immutable("currency", remote.Currency, spec.Currency)
	}
	if !equalAmount(remote.UnitAmount, spec.UnitAmount) {
		immutable("unit_amount", fmtAmount(remote.UnitAmount), fmtAmount(spec.UnitAmount))
	}
	if !equalRecurring(remote.Recurring, spec.Recurring) {
		immutable("recurring", fmtRecurring(remote.Recurring), fmtRecurring(spec.Recurring))
	}
	d.Details = append(d.Details, metadataDrift(remote.Metadata, wantMD)...)

	if len(d.Details) > 0 {
		d.Status = DiffDiffers
	}
	return d
}

func metadataDrift(have, want map[string]string) []string {
	var out []string
	for _, k := range slices.Sorted(maps.Keys(want)) {
		if have[k] != want[k] {
			out = append(out, fmt.Sprintf("metadata[%s]: %q -> %q", k, have[k], want[k]))
		}
	}
	return out
}

func equalAmount(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalRecurring(a, b *Recurring) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func fmtAmount(v *int64) string {
	if v == nil {
		return "variable"
	}
	return fmt.Sprint(*v)
}

func fmtRecurring(r *Recurring) string {
	if r == nil {
		return "one-time"
	}
	return fmt.Sprintf("every %d %s (%s)", r.IntervalCount, r.Interval, r.UsageType)
}
