package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/catalogsync/pkg/validator"
)

type plansFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	ID      string       `yaml:"id"`
	Tier    string       `yaml:"tier"`
	Product productEntry `yaml:"product"`
	Prices  []priceEntry `yaml:"prices"`
}

type productEntry struct {
	ID                string            `yaml:"id"`
	Name              string            `yaml:"name"`
	Description       string            `yaml:"description"`
	Active            *bool             `yaml:"active"`
	Type              string            `yaml:"type"`
	MarketingFeatures []string          `yaml:"marketing_features"`
	Features          map[string]any    `yaml:"features"`
	Metadata          map[string]string `yaml:"metadata"`
}

type priceEntry struct {
	ID         string            `yaml:"id"`
	Currency   string            `yaml:"currency"`
	UnitAmount *int64            `yaml:"unit_amount"`
	Recurring  *recurringEntry   `yaml:"recurring"`
	Nickname   string            `yaml:"nickname"`
	Active     *bool             `yaml:"active"`
	Metadata   map[string]string `yaml:"metadata"`
}

type recurringEntry struct {
	Interval      string `yaml:"interval"`
	IntervalCount int64  `yaml:"interval_count"`
	UsageType     string `yaml:"usage_type"`
}

// LoadPlans reads and validates a YAML plans file.
func LoadPlans(path string) ([]Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return ParsePlans(data)
}

// ParsePlans decodes a YAML plans document, applies defaults and validates
// the result. Unknown fields are rejected.
func ParsePlans(data []byte) ([]Plan, error) {
	var f plansFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	plans := make([]Plan, 0, len(f.Plans))
	for _, e := range f.Plans {
		plans = append(plans, e.toPlan())
	}

	if err := ValidatePlans(plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (e planEntry) toPlan() Plan {
	productID := e.Product.ID
	if productID == "" {
		productID = e.ID
	}
	typ := ProductType(strings.ToLower(e.Product.Type))
	if typ == "" {
		typ = ProductTypeService
	}

	p := Plan{
		ID:   e.ID,
		Tier: e.Tier,
		Product: ProductSpec{
			ID:                productID,
			Name:              e.Product.Name,
			Description:       e.Product.Description,
			Active:            boolOr(e.Product.Active, true),
			Type:              typ,
			MarketingFeatures: e.Product.MarketingFeatures,
			Features:          e.Product.Features,
			Metadata:          e.Product.Metadata,
		},
		Prices: make([]PriceSpec, 0, len(e.Prices)),
	}

	for _, pe := range e.Prices {
		ps := PriceSpec{
			ID:         pe.ID,
			Currency:   strings.ToUpper(strings.TrimSpace(pe.Currency)),
			UnitAmount: pe.UnitAmount,
			Nickname:   pe.Nickname,
			Active:     boolOr(pe.Active, true),
			Metadata:   pe.Metadata,
		}
		if pe.Recurring != nil {
			r := &Recurring{
				Interval:      Interval(strings.ToLower(pe.Recurring.Interval)),
				IntervalCount: pe.Recurring.IntervalCount,
				UsageType:     UsageType(strings.ToLower(pe.Recurring.UsageType)),
			}
			if r.IntervalCount == 0 {
				r.IntervalCount = 1
			}
			if r.UsageType == "" {
				r.UsageType = UsageLicensed
			}
			ps.Recurring = r
		}
		p.Prices = append(p.Prices, ps)
	}
	return p
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// ValidatePlans checks every plan and the uniqueness of plan, product and
// price ids across the whole set. All problems are reported together.
func ValidatePlans(plans []Plan) error {
	if len(plans) == 0 {
		return errors.Join(ErrInvalidPlan, errors.New("no plans defined"))
	}

	var (
		rules      []validator.Rule
		planIDs    = make([]string, 0, len(plans))
		productIDs = make([]string, 0, len(plans))
		priceIDs   []string
	)

	for i, p := range plans {
		rules = append(rules, planRules(fmt.Sprintf("plans[%d]", i), p)...)
		planIDs = append(planIDs, p.ID)
		productIDs = append(productIDs, p.Product.ID)
		priceIDs = append(priceIDs, p.PriceIDs()...)
	}

	rules = append(rules,
		validator.Unique("plans.id", planIDs),
		validator.Unique("plans.product.id", productIDs),
		validator.Unique("plans.prices.id", priceIDs),
	)

	if err := validator.Apply(rules...); err != nil {
		ve := validator.ExtractValidationErrors(err)
		if ve.Has("plans.id") || ve.Has("plans.product.id") || ve.Has("plans.prices.id") {
			return errors.Join(ErrInvalidPlan, ErrDuplicateID, err)
		}
		return errors.Join(ErrInvalidPlan, err)
	}
	return nil
}

var (
	productTypes = []ProductType{ProductTypeService, ProductTypeGood}
	intervals    = []Interval{IntervalDay, IntervalWeek, IntervalMonth, IntervalYear}
	usageTypes   = []UsageType{UsageLicensed, UsageMetered}
)

func planRules(path string, p Plan) []validator.Rule {
	rules := []validator.Rule{
		validator.Identifier(path+".id", p.ID),
		validator.Identifier(path+".product.id", p.Product.ID),
		validator.Required(path+".product.name", p.Product.Name),
		validator.MaxLen(path+".product.name", p.Product.Name, 250),
		validator.InList(path+".product.type", p.Product.Type, productTypes),
		validator.RequiredSlice(path+".prices", p.Prices),
	}

	for j, pr := range p.Prices {
		pp := fmt.Sprintf("%s.prices[%d]", path, j)
		rules = append(rules,
			validator.Identifier(pp+".id", pr.ID),
			validator.ValidCurrency(pp+".currency", pr.Currency),
		)
		if pr.UnitAmount != nil {
			rules = append(rules, validator.NonNegativeAmount(pp+".unit_amount", *pr.UnitAmount))
		}
		if r := pr.Recurring; r != nil {
			rules = append(rules,
				validator.InList(pp+".recurring.interval", r.Interval, intervals),
				validator.MinNum(pp+".recurring.interval_count", r.IntervalCount, 1),
				validator.InList(pp+".recurring.usage_type", r.UsageType, usageTypes),
			)
		}
	}
	return rules
}
