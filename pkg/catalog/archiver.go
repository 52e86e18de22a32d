package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/catalogsync/pkg/logger"
)

// Archiver deactivates managed products and their prices. It never deletes
// remote objects and never reactivates them.
type Archiver struct {
	provider Provider
	matcher  *Matcher
	fetcher  *Fetcher
	settings
}

// NewArchiver keeps going after a failed item unless WithContinueOnItemError(false) is given.
func NewArchiver(p Provider, opts ...Option) *Archiver {
	return &Archiver{
		provider: p,
		matcher:  NewMatcher(p, opts...),
		fetcher:  NewFetcher(p, opts...),
		settings: newSettings(true, opts),
	}
}

// Archive sets active=false on the products with the given internal ids and
// on every managed active price linked to them.
func (a *Archiver) Archive(ctx context.Context, internalProductIDs []string) (*Report, error) {
	rep := &Report{}
	if len(internalProductIDs) == 0 {
		a.log.InfoContext(ctx, "nothing to archive")
		return rep, nil
	}

	wanted := make(map[string]struct{}, len(internalProductIDs))
	for _, id := range internalProductIDs {
		wanted[id] = struct{}{}
		if err := a.archiveProduct(ctx, id, rep); err != nil && !a.continueOnItemError {
			return rep, err
		}
	}

	prices, err := a.fetcher.FetchManagedPrices(ctx)
	if err != nil {
		return rep, fmt.Errorf("archive prices: %w", err)
	}

	for _, p := range prices {
		if _, ok := wanted[p.InternalProductID]; !ok || !p.Active {
			continue
		}
		if err := a.archivePrice(ctx, p, rep); err != nil && !a.continueOnItemError {
			return rep, err
		}
	}

	a.log.InfoContext(ctx, "archive finished", slog.Any("report", rep))
	return rep, rep.Err()
}

func (a *Archiver) archiveProduct(ctx context.Context, id string, rep *Report) error {
	product, err := a.matcher.FindProduct(ctx, id)
	if err != nil {
		a.log.ErrorContext(ctx, "failed to look up product", logger.ProductID(id), logger.Error(err))
		rep.failed(KindProduct, id, "", err)
		return err
	}
	if product == nil {
		a.log.InfoContext(ctx, "no active product to archive", logger.ProductID(id))
		rep.skipped(KindProduct, id, "")
		return nil
	}
	if !product.Tag.Managed(a.owner) {
		a.log.WarnContext(ctx, "product is not managed by this tool, leaving it alone",
			logger.ProductID(id),
			logger.RemoteID(product.ID),
			slog.String("managed_by", product.Tag.Owner),
		)
		rep.skipped(KindProduct, id, product.ID)
		return nil
	}

	inactive := false
	if _, err := a.provider.UpdateProduct(ctx, product.ID, ProductUpdate{Active: &inactive}); err != nil {
		err = fmt.Errorf("archive product %s: %w", id, err)
		a.log.ErrorContext(ctx, "failed to archive product", logger.ProductID(id), logger.Error(err))
		rep.failed(KindProduct, id, product.ID, err)
		return err
	}

	a.log.InfoContext(ctx, "product archived", logger.ProductID(id), logger.RemoteID(product.ID))
	rep.archived(KindProduct, id, product.ID)
	return nil
}

func (a *Archiver) archivePrice(ctx context.Context, p RemotePrice, rep *Report) error {
	inactive := false
	if _, err := a.provider.UpdatePrice(ctx, p.ID, PriceUpdate{Active: &inactive}); err != nil {
		err = fmt.Errorf("archive price %s: %w", p.Tag.InternalID, err)
		a.log.ErrorContext(ctx, "failed to archive price",
			logger.PriceID(p.Tag.InternalID),
			logger.RemoteID(p.ID),
			logger.Error(err),
		)
		rep.failed(KindPrice, p.Tag.InternalID, p.ID, err)
		return err
	}

	a.log.InfoContext(ctx, "price archived", logger.PriceID(p.Tag.InternalID), logger.RemoteID(p.ID))
	rep.archived(KindPrice, p.Tag.InternalID, p.ID)
	return nil
}
