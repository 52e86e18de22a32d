package catalog

// ProductType classifies what a product sells.
type ProductType string

const (
	ProductTypeService ProductType = "service"
	ProductTypeGood    ProductType = "good"
)

// Interval is the billing period unit of a recurring price.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// UsageType tells the provider how quantity is determined for a recurring price.
type UsageType string

const (
	UsageLicensed UsageType = "licensed"
	UsageMetered  UsageType = "metered"
)

// Recurring holds the billing terms of a subscription price.
// All fields are fixed once the remote price exists.
type Recurring struct {
	Interval      Interval  `json:"interval"`
	IntervalCount int64     `json:"interval_count"`
	UsageType     UsageType `json:"usage_type"`
}

// Plan pairs one product with the prices it is sold at.
type Plan struct {
	ID      string
	Tier    string
	Product ProductSpec
	Prices  []PriceSpec
}

// ProductSpec is the declared shape of a remote product.
// ID is the internal correlation key, not the provider id.
type ProductSpec struct {
	ID                string
	Name              string
	Description       string
	Active            bool
	Type              ProductType
	MarketingFeatures []string
	Features          map[string]any
	Metadata          map[string]string
}

// PriceSpec is the declared shape of a remote price.
// UnitAmount is in minor currency units; nil means the customer picks the amount.
// Currency, UnitAmount and Recurring cannot change after creation.
type PriceSpec struct {
	ID         string
	Currency   string
	UnitAmount *int64
	Recurring  *Recurring
	Nickname   string
	Active     bool
	Metadata   map[string]string
}

// PriceIDs returns the internal ids of every price in the plan.
func (p Plan) PriceIDs() []string {
	ids := make([]string, 0, len(p.Prices))
	for _, pr := range p.Prices {
		ids = append(ids, pr.ID)
	}
	return ids
}

// ProductIDs returns the internal product id of every plan.
func ProductIDs(plans []Plan) []string {
	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.Product.ID)
	}
	return ids
}
