package catalog

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/catalogsync/pkg/logger"
)

// Reconciler creates the remote products and prices a plan set declares
// and leaves existing ones untouched. Running it again is a no-op.
type Reconciler struct {
	provider Provider
	matcher  *Matcher
	settings
}

// NewReconciler stops at the first failing plan unless WithContinueOnItemError(true) is given.
func NewReconciler(p Provider, opts ...Option) *Reconciler {
	return &Reconciler{
		provider: p,
		matcher:  NewMatcher(p, opts...),
		settings: newSettings(false, opts),
	}
}

// Ensure processes plans in order. In fail-fast mode the first error is
// returned together with the partial report; otherwise all failures are
// recorded and joined into the returned error.
func (r *Reconciler) Ensure(ctx context.Context, plans []Plan) (*Report, error) {
	rep := &Report{}
	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := r.ensurePlan(ctx, plan, rep); err != nil {
			r.log.ErrorContext(ctx, "plan reconciliation failed",
				logger.PlanID(plan.ID),
				logger.ProductID(plan.Product.ID),
				logger.Error(err),
			)
			if !r.continueOnItemError {
				return rep, fmt.Errorf("plan %s: %w", plan.ID, err)
			}
		}
	}
	return rep, rep.Err()
}

func (r *Reconciler) ensurePlan(ctx context.Context, plan Plan, rep *Report) error {
	r.log.InfoContext(ctx, "ensuring plan", logger.PlanID(plan.ID))

	product, err := r.ensureProduct(ctx, plan, rep)
	if err != nil {
		return err
	}

	for _, spec := range plan.Prices {
		if err := r.ensurePrice(ctx, plan, spec, product.ID, rep); err != nil {
			if !r.continueOnItemError {
				return err
			}
		}
	}
	return nil
}

func (r *Reconciler) ensureProduct(ctx context.Context, plan Plan, rep *Report) (*RemoteProduct, error) {
	spec := plan.Product

	found, err := r.matcher.MatchProduct(ctx, spec)
	if err != nil {
		rep.failed(KindProduct, spec.ID, "", err)
		return nil, err
	}
	if found != nil {
		r.log.InfoContext(ctx, "product already exists",
			logger.ProductID(spec.ID),
			logger.RemoteID(found.ID),
		)
		rep.skipped(KindProduct, spec.ID, found.ID)
		return found, nil
	}

	params, err := r.productParams(spec)
	if err != nil {
		rep.failed(KindProduct, spec.ID, "", err)
		return nil, err
	}
	created, err := r.provider.CreateProduct(ctx, params)
	if err != nil {
		err = fmt.Errorf("create product %s: %w", spec.ID, err)
		rep.failed(KindProduct, spec.ID, "", err)
		return nil, err
	}

	r.log.InfoContext(ctx, "product created",
		logger.ProductID(spec.ID),
		logger.RemoteID(created.ID),
	)
	rep.created(KindProduct, spec.ID, created.ID)
	return created, nil
}

func (r *Reconciler) ensurePrice(ctx context.Context, plan Plan, spec PriceSpec, remoteProductID string, rep *Report) error {
	found, err := r.matcher.MatchPrice(ctx, spec, remoteProductID)
	if err != nil {
		rep.failed(KindPrice, spec.ID, "", err)
		return err
	}
	if found != nil {
		r.log.InfoContext(ctx, "price already exists",
			logger.PriceID(spec.ID),
			logger.RemoteID(found.ID),
		)
		rep.skipped(KindPrice, spec.ID, found.ID)
		return nil
	}

	created, err := r.provider.CreatePrice(ctx, r.priceParams(plan, spec, remoteProductID))
	if err != nil {
		err = fmt.Errorf("create price %s: %w", spec.ID, err)
		r.log.ErrorContext(ctx, "price creation failed",
			logger.PriceID(spec.ID),
			logger.Error(err),
		)
		rep.failed(KindPrice, spec.ID, "", err)
		return err
	}

	r.log.InfoContext(ctx, "price created",
		logger.PriceID(spec.ID),
		logger.RemoteID(created.ID),
	)
	rep.created(KindPrice, spec.ID, created.ID)
	return nil
}
