// Package validator provides small composable validation rules.
//
// Each rule captures a value and a check; Apply runs a list of rules and
// returns ValidationErrors describing every failed field:
//
//	err := validator.Apply(
//		validator.Required("product.name", p.Name),
//		validator.InList("product.type", p.Type, []string{"service", "good"}),
//		validator.ValidCurrency("prices[0].currency", "USD"),
//	)
//
// Field names are free-form paths so callers can report nested positions.
// Use When to make a group of rules conditional.
package validator
