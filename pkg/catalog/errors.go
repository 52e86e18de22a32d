package catalog

import "errors"

var (
	ErrInvalidPlan       = errors.New("invalid subscription plan configuration")
	ErrDuplicateID       = errors.New("duplicate internal id")
	ErrFailedToLoadPlans = errors.New("failed to load subscription plans")

	ErrProviderRequest   = errors.New("billing provider request failed")
	ErrPaginationStalled = errors.New("billing provider reported more pages but returned none")
	ErrUnsupportedPrice  = errors.New("price is not supported by billing provider")
	ErrRemoteNotFound    = errors.New("remote object not found")

	ErrMissingAPIKey              = errors.New("billing provider API key is required")
	ErrInvalidProviderEnvironment = errors.New("invalid billing provider environment")
	ErrUnknownProvider            = errors.New("unknown billing provider")
)
