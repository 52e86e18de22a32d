package validator

import (
	"errors"
	"slices"
	"strings"
)

// Numeric is any integer or float type.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ValidationError is one failed rule. Field is a dotted path such as
// plans[0].prices[1].currency.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is every failed rule of one Apply, in rule order.
type ValidationErrors []ValidationError

// Error lists every failed field after the ErrValidationFailed message.
func (ve ValidationErrors) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidationFailed.Error())
	for i, e := range ve {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		if e.Field != "" {
			b.WriteString(e.Field + ": ")
		}
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is matches ErrValidationFailed.
func (ve ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// Has reports whether field failed at least one rule.
func (ve ValidationErrors) Has(field string) bool {
	return slices.ContainsFunc(ve, func(e ValidationError) bool { return e.Field == field })
}

// Get returns the messages recorded for field.
func (ve ValidationErrors) Get(field string) []string {
	var out []string
	for _, e := range ve {
		if e.Field == field {
			out = append(out, e.Message)
		}
	}
	return out
}

// Fields lists the failed fields once each, in first-failure order.
func (ve ValidationErrors) Fields() []string {
	var out []string
	for _, e := range ve {
		if !slices.Contains(out, e.Field) {
			out = append(out, e.Field)
		}
	}
	return out
}

// Rule pairs a check with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs every rule and returns the failures as ValidationErrors, or nil.
func Apply(rules ...Rule) error {
	var failed ValidationErrors
	for _, r := range rules {
		if !r.Check() {
			failed = append(failed, r.Error)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return failed
}

// Collect merges the results of several Apply calls. Other errors are kept
// under an empty field.
func Collect(errs ...error) error {
	var out ValidationErrors
	for _, err := range errs {
		switch ve := ExtractValidationErrors(err); {
		case err == nil:
		case ve != nil:
			out = append(out, ve...)
		default:
			out = append(out, ValidationError{Message: err.Error()})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ExtractValidationErrors returns the ValidationErrors wrapped in err, or nil.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if err != nil && errors.As(err, &ve) {
		return ve
	}
	return nil
}

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	return ExtractValidationErrors(err) != nil
}
