package catalog

import "log/slog"

// DefaultPageSize is the largest page the supported providers accept.
const DefaultPageSize = 100

type settings struct {
	log                 *slog.Logger
	keys                MetadataKeys
	owner               string
	pageSize            int64
	continueOnItemError bool
}

// Option configures the catalog components.
type Option func(*settings)

func newSettings(continueOnItemError bool, opts []Option) settings {
	s := settings{
		log:                 slog.Default(),
		keys:                DefaultMetadataKeys(),
		owner:               DefaultOwner,
		pageSize:            DefaultPageSize,
		continueOnItemError: continueOnItemError,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetadataKeys overrides the correlation key names. Empty names keep their defaults.
func WithMetadataKeys(k MetadataKeys) Option {
	return func(s *settings) {
		s.keys = k.withDefaults()
	}
}

// WithOwner sets the managed_by value written on create and required on update.
func WithOwner(owner string) Option {
	return func(s *settings) {
		if owner != "" {
			s.owner = owner
		}
	}
}

// WithPageSize sets the listing page size. Values outside 1..100 are ignored.
func WithPageSize(n int64) Option {
	return func(s *settings) {
		if n > 0 && n <= DefaultPageSize {
			s.pageSize = n
		}
	}
}

// WithContinueOnItemError selects between stopping at the first failed item
// and recording the failure and moving on.
func WithContinueOnItemError(v bool) Option {
	return func(s *settings) {
		s.continueOnItemError = v
	}
}
