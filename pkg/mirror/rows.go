package mirror

import (
	"context"
	"time"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
)

// ProductRow is the local copy of a managed remote product, keyed by its
// internal product id.
type ProductRow struct {
	ID                string            `json:"id" bson:"_id"`
	RemoteID          string            `json:"remote_id" bson:"remote_id"`
	Name              string            `json:"name" bson:"name"`
	Description       string            `json:"description,omitempty" bson:"description"`
	Active            bool              `json:"active" bson:"active"`
	Type              string            `json:"type,omitempty" bson:"type"`
	MarketingFeatures []string          `json:"marketing_features,omitempty" bson:"marketing_features"`
	Features          map[string]any    `json:"features,omitempty" bson:"features"`
	Metadata          map[string]string `json:"metadata,omitempty" bson:"metadata"`
	SyncedAt          time.Time         `json:"synced_at" bson:"synced_at"`
}

// PriceRow is the local copy of a managed remote price, keyed by its
// internal price id. ProductID is the internal id of the owning product.
type PriceRow struct {
	ID              string            `json:"id" bson:"_id"`
	RemoteID        string            `json:"remote_id" bson:"remote_id"`
	ProductID       string            `json:"product_id" bson:"product_id"`
	RemoteProductID string            `json:"remote_product_id" bson:"remote_product_id"`
	Currency        string            `json:"currency" bson:"currency"`
	UnitAmount      *int64            `json:"unit_amount,omitempty" bson:"unit_amount"`
	Interval        string            `json:"interval,omitempty" bson:"interval"`
	IntervalCount   int64             `json:"interval_count,omitempty" bson:"interval_count"`
	UsageType       string            `json:"usage_type,omitempty" bson:"usage_type"`
	Nickname        string            `json:"nickname,omitempty" bson:"nickname"`
	Active          bool              `json:"active" bson:"active"`
	Metadata        map[string]string `json:"metadata,omitempty" bson:"metadata"`
	SyncedAt        time.Time         `json:"synced_at" bson:"synced_at"`
}

// Recurring returns the billing terms of a subscription price, or nil for a
// one-time price.
func (r PriceRow) Recurring() *catalog.Recurring {
	if r.Interval == "" {
		return nil
	}
	return &catalog.Recurring{
		Interval:      catalog.Interval(r.Interval),
		IntervalCount: r.IntervalCount,
		UsageType:     catalog.UsageType(r.UsageType),
	}
}

// ChangeSet is the classified difference for one entity type.
// Delete holds internal ids.
type ChangeSet[T any] struct {
	Insert []T
	Update []T
	Delete []string
}

// Empty reports whether the change set has nothing to apply.
func (c ChangeSet[T]) Empty() bool {
	return len(c.Insert) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

// Store persists mirrored rows.
//
// ApplyProducts and ApplyPrices apply inserts, updates and deletes in one
// transaction. Deleting a product also deletes the prices that reference it.
type Store interface {
	Products(ctx context.Context) ([]ProductRow, error)
	Prices(ctx context.Context) ([]PriceRow, error)
	ApplyProducts(ctx context.Context, cs ChangeSet[ProductRow]) error
	ApplyPrices(ctx context.Context, cs ChangeSet[PriceRow]) error
	ClearProducts(ctx context.Context) error
	ClearPrices(ctx context.Context) error
}
