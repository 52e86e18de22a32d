package catalog

import "time"

// RemoteProduct is a provider product normalised by a Provider.
// Tag is filled from Metadata by the catalog components.
type RemoteProduct struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	Active            bool              `json:"active"`
	MarketingFeatures []string          `json:"marketing_features,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Tag               CorrelationTag    `json:"tag"`
	CreatedAt         time.Time         `json:"created_at,omitzero"`
	UpdatedAt         time.Time         `json:"updated_at,omitzero"`
}

// RemotePrice is a provider price normalised by a Provider.
// ProductID is the provider id of the owning product; InternalProductID is
// read from metadata.
type RemotePrice struct {
	ID                string            `json:"id"`
	ProductID         string            `json:"product_id"`
	Currency          string            `json:"currency"`
	UnitAmount        *int64            `json:"unit_amount,omitempty"`
	Recurring         *Recurring        `json:"recurring,omitempty"`
	Nickname          string            `json:"nickname,omitempty"`
	Active            bool              `json:"active"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Tag               CorrelationTag    `json:"tag"`
	InternalProductID string            `json:"internal_product_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at,omitzero"`
}

// Page is one page of a cursor-paginated listing.
type Page[T any] struct {
	Data    []T
	HasMore bool
}

// ListParams selects a page. StartingAfter is the provider id of the last
// item of the previous page.
type ListParams struct {
	Limit         int64
	StartingAfter string
}

// SearchQuery is a conjunction of metadata equalities with optional scoping.
type SearchQuery struct {
	Metadata   map[string]string
	ProductID  string // prices only: provider id of the owning product
	ActiveOnly bool
	Limit      int64
}

// ProductParams creates a remote product.
type ProductParams struct {
	Name              string
	Description       string
	Active            bool
	MarketingFeatures []string
	Metadata          map[string]string
}

// ProductUpdate carries the mutable product fields. Nil fields are left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Active      *bool
	Metadata    map[string]string
}

// PriceParams creates a remote price linked to ProductID.
// InternalID is the declared price id, also present in Metadata under the
// configured key.
type PriceParams struct {
	InternalID string
	ProductID  string
	Currency   string
	UnitAmount *int64
	Recurring  *Recurring
	Nickname   string
	Active     bool
	Metadata   map[string]string
}

// PriceUpdate carries the mutable price fields. Amount, currency and billing
// terms are fixed by the provider and have no place here.
type PriceUpdate struct {
	Active   *bool
	Metadata map[string]string
}

// Snapshot is the remote catalog at one point in time.
type Snapshot struct {
	Products []RemoteProduct `json:"products"`
	Prices   []RemotePrice   `json:"prices"`
}
