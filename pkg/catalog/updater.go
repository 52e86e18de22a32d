package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/catalogsync/pkg/logger"
)

// Updater pushes mutable fields of declared plans to existing managed objects.
// It never creates anything and never sends amount, currency or billing terms.
type Updater struct {
	provider Provider
	fetcher  *Fetcher
	settings
}

// NewUpdater stops at the first failed update unless WithContinueOnItemError(true) is given.
func NewUpdater(p Provider, opts ...Option) *Updater {
	return &Updater{
		provider: p,
		fetcher:  NewFetcher(p, opts...),
		settings: newSettings(false, opts),
	}
}

type priceKey struct {
	remoteProductID string
	internalPriceID string
}

// Update fetches one catalog snapshot and reuses it for every plan.
// Objects whose remote state already matches are reported as skipped.
func (u *Updater) Update(ctx context.Context, plans []Plan) (*Report, error) {
	rep := &Report{}

	snap, err := u.fetcher.Snapshot(ctx)
	if err != nil {
		return rep, err
	}

	products := make(map[string]RemoteProduct)
	for _, p := range ManagedProducts(snap.Products, u.owner) {
		if cur, ok := products[p.Tag.InternalID]; ok && preferProduct(cur, p) {
			continue
		}
		products[p.Tag.InternalID] = p
	}

	prices := make(map[priceKey]RemotePrice)
	for _, p := range ManagedPrices(snap.Prices, u.owner) {
		k := priceKey{p.ProductID, p.Tag.InternalID}
		if cur, ok := prices[k]; ok && preferPrice(cur, p) {
			continue
		}
		prices[k] = p
	}

	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := u.updatePlan(ctx, plan, products, prices, rep); err != nil {
			u.log.ErrorContext(ctx, "plan update failed",
				logger.PlanID(plan.ID),
				logger.Error(err),
			)
			if !u.continueOnItemError {
				return rep, fmt.Errorf("plan %s: %w", plan.ID, err)
			}
		}
	}

	u.log.InfoContext(ctx, "update finished", slog.Any("report", rep))
	return rep, rep.Err()
}

func (u *Updater) updatePlan(
	ctx context.Context,
	plan Plan,
	products map[string]RemoteProduct,
	prices map[priceKey]RemotePrice,
	rep *Report,
) error {
	spec := plan.Product
	remote, ok := products[spec.ID]
	if !ok {
		u.log.WarnContext(ctx, "no managed remote product, run create first", logger.ProductID(spec.ID))
		rep.skipped(KindProduct, spec.ID, "")
		return nil
	}

	upd, err := u.productUpdate(spec)
	if err != nil {
		rep.failed(KindProduct, spec.ID, remote.ID, err)
		return err
	}

	if productUpToDate(remote, upd) {
		rep.skipped(KindProduct, spec.ID, remote.ID)
	} else {
		if _, err := u.provider.UpdateProduct(ctx, remote.ID, upd); err != nil {
			err = fmt.Errorf("update product %s: %w", spec.ID, err)
			rep.failed(KindProduct, spec.ID, remote.ID, err)
			return err
		}
		u.log.InfoContext(ctx, "product updated", logger.ProductID(spec.ID), logger.RemoteID(remote.ID))
		rep.updated(KindProduct, spec.ID, remote.ID)
	}

	for _, ps := range plan.Prices {
		rp, ok := prices[priceKey{remote.ID, ps.ID}]
		if !ok {
			u.log.WarnContext(ctx, "no managed remote price, run create first",
				logger.PriceID(ps.ID),
				logger.RemoteID(remote.ID),
			)
			rep.skipped(KindPrice, ps.ID, "")
			continue
		}

		pu := u.priceUpdate(plan, ps)
		if rp.Active == *pu.Active && metadataCovers(rp.Metadata, pu.Metadata) {
			rep.skipped(KindPrice, ps.ID, rp.ID)
			continue
		}

		if _, err := u.provider.UpdatePrice(ctx, rp.ID, pu); err != nil {
			err = fmt.Errorf("update price %s: %w", ps.ID, err)
			rep.failed(KindPrice, ps.ID, rp.ID, err)
			if !u.continueOnItemError {
				return err
			}
			continue
		}
		u.log.InfoContext(ctx, "price updated", logger.PriceID(ps.ID), logger.RemoteID(rp.ID))
		rep.updated(KindPrice, ps.ID, rp.ID)
	}
	return nil
}

func productUpToDate(p RemoteProduct, upd ProductUpdate) bool {
	return p.Name == *upd.Name &&
		p.Description == *upd.Description &&
		p.Active == *upd.Active &&
		metadataCovers(p.Metadata, upd.Metadata)
}

// preferProduct reports whether cur should win over next when both carry the
// same internal id: active beats archived, then the newest wins.
func preferProduct(cur, next RemoteProduct) bool {
	if cur.Active != next.Active {
		return cur.Active
	}
	return !next.CreatedAt.After(cur.CreatedAt)
}

func preferPrice(cur, next RemotePrice) bool {
	if cur.Active != next.Active {
		return cur.Active
	}
	return !next.CreatedAt.After(cur.CreatedAt)
}
