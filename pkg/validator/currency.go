package validator

import (
	"strings"

	"golang.org/x/text/currency"
)

// ValidCurrency validates an ISO 4217 currency code, case-insensitively.
func ValidCurrency(field, value string) Rule {
	return Rule{
		Check: func() bool {
			v := strings.TrimSpace(value)
			if len(v) != 3 {
				return false
			}
			_, err := currency.ParseISO(strings.ToUpper(v))
			return err == nil
		},
		Error: ValidationError{Field: field, Message: "must be a valid ISO 4217 currency code"},
	}
}
