package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/catalogsync/pkg/logger"
)

// Matcher resolves internal ids to tagged remote objects through provider search.
// Lookups by id only consider active objects. Lookups by declared spec also
// accept an archived object when the spec itself is declared inactive, so a
// plan kept inactive on purpose is not created again on every run.
type Matcher struct {
	provider Provider
	settings
}

// NewMatcher returns a Matcher that searches p using the configured metadata keys.
func NewMatcher(p Provider, opts ...Option) *Matcher {
	return &Matcher{provider: p, settings: newSettings(false, opts)}
}

// FindProduct returns the active remote product tagged with internalID,
// or nil when there is none.
func (m *Matcher) FindProduct(ctx context.Context, internalID string) (*RemoteProduct, error) {
	return m.findProduct(ctx, internalID, true)
}

// MatchProduct returns the remote product that satisfies spec, or nil.
// Inactive specs match tagged products regardless of their active flag.
func (m *Matcher) MatchProduct(ctx context.Context, spec ProductSpec) (*RemoteProduct, error) {
	return m.findProduct(ctx, spec.ID, spec.Active)
}

// FindPrice returns the active remote price tagged with internalPriceID that
// belongs to remoteProductID, or nil when there is none.
func (m *Matcher) FindPrice(ctx context.Context, internalPriceID, remoteProductID string) (*RemotePrice, error) {
	return m.findPrice(ctx, internalPriceID, remoteProductID, true)
}

// MatchPrice returns the remote price under remoteProductID that satisfies
// spec, or nil. Inactive specs match tagged prices regardless of their active flag.
func (m *Matcher) MatchPrice(ctx context.Context, spec PriceSpec, remoteProductID string) (*RemotePrice, error) {
	return m.findPrice(ctx, spec.ID, remoteProductID, spec.Active)
}

func (m *Matcher) findProduct(ctx context.Context, internalID string, activeOnly bool) (*RemoteProduct, error) {
	found, err := m.provider.SearchProducts(ctx, SearchQuery{
		Metadata:   map[string]string{m.keys.ProductID: internalID},
		ActiveOnly: activeOnly,
		Limit:      2,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	if len(found) > 1 {
		m.log.WarnContext(ctx, "several remote products share one internal id, using the first",
			logger.ProductID(internalID),
			slog.Int("matches", len(found)),
			slog.Bool("active_only", activeOnly),
		)
	}

	p := found[0]
	m.keys.annotateProduct(&p)
	return &p, nil
}

func (m *Matcher) findPrice(ctx context.Context, internalPriceID, remoteProductID string, activeOnly bool) (*RemotePrice, error) {
	found, err := m.provider.SearchPrices(ctx, SearchQuery{
		Metadata:   map[string]string{m.keys.PriceID: internalPriceID},
		ProductID:  remoteProductID,
		ActiveOnly: activeOnly,
		Limit:      2,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	if len(found) > 1 {
		m.log.WarnContext(ctx, "several remote prices share one internal id, using the first",
			logger.PriceID(internalPriceID),
			logger.RemoteID(remoteProductID),
			slog.Int("matches", len(found)),
			slog.Bool("active_only", activeOnly),
		)
	}

	p := found[0]
	m.keys.annotatePrice(&p)
	return &p, nil
}
