package validator

import (
	"fmt"
	"regexp"
	"strings"
)

// Required validates that a string is not empty after trimming whitespace.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: ErrFieldRequired.Error()},
	}
}

// MaxLen fails when value is longer than max runes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len([]rune(value)) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", max)},
	}
}

// InList fails when value is not one of allowedValues.
func InList[T comparable](field string, value T, allowedValues []T) Rule {
	return Rule{
		Check: func() bool {
			for _, allowed := range allowedValues {
				if value == allowed {
					return true
				}
			}
			return false
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be one of: %v", allowedValues)},
	}
}

// MinNum fails when value is below min.
func MinNum[T Numeric](field string, value T, min T) Rule {
	return Rule{
		Check: func() bool { return value >= min },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %v", min)},
	}
}

// NonNegativeAmount fails when value is negative.
func NonNegativeAmount[T Numeric](field string, value T) Rule {
	return Rule{
		Check: func() bool { return value >= 0 },
		Error: ValidationError{Field: field, Message: "amount must not be negative"},
	}
}

// RequiredSlice fails when value is empty.
func RequiredSlice[T any](field string, value []T) Rule {
	return Rule{
		Check: func() bool { return len(value) > 0 },
		Error: ValidationError{Field: field, Message: "must contain at least one item"},
	}
}

// MatchesRegex fails when value does not match re. description names the
// expected format in the message.
func MatchesRegex(field, value string, re *regexp.Regexp, description string) Rule {
	return Rule{
		Check: func() bool { return re.MatchString(value) },
		Error: ValidationError{Field: field, Message: "must be " + description},
	}
}

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

// Identifier validates a configuration identifier: letters, digits and _.:- ,
// starting with a letter or digit. Empty values fail.
func Identifier(field, value string) Rule {
	return MatchesRegex(field, value, identifierRe, "a non-empty identifier of letters, digits, '_', '.', ':' or '-'")
}

// Unique fails when values contain a repeated entry, naming the first repeat.
func Unique(field string, values []string) Rule {
	dup := ""
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			dup = v
			break
		}
		seen[v] = struct{}{}
	}
	return Rule{
		Check: func() bool { return dup == "" },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("duplicate value %q", dup)},
	}
}

// Custom wraps an arbitrary predicate.
func Custom(field, message string, check func() bool) Rule {
	return Rule{Check: check, Error: ValidationError{Field: field, Message: message}}
}

// When returns rules only if cond holds.
func When(cond bool, rules ...Rule) []Rule {
	if !cond {
		return nil
	}
	return rules
}
