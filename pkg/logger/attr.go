package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups non-nil errors under "errors". Returns an empty Attr if all are nil.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". Returns an empty Attr for nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// PlanID returns a plan_id attribute.
func PlanID(id string) slog.Attr {
	return slog.String("plan_id", id)
}

// ProductID returns a product_id attribute.
func ProductID(id string) slog.Attr {
	return slog.String("product_id", id)
}

// PriceID returns a price_id attribute.
func PriceID(id string) slog.Attr {
	return slog.String("price_id", id)
}

// RemoteID records a provider-assigned identifier.
func RemoteID(id string) slog.Attr {
	return slog.String("remote_id", id)
}

// Count records a number under the given key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}
