package catalogsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
	"github.com/dmitrymomot/catalogsync/pkg/config"
	"github.com/dmitrymomot/catalogsync/pkg/logger"
	"github.com/dmitrymomot/catalogsync/pkg/mirror"
	"github.com/dmitrymomot/catalogsync/pkg/snapshot"
)

// Kinds accepted by List.
const (
	ListProducts = "products"
	ListPrices   = "prices"
)

// Create makes sure every declared plan exists remotely. Existing objects are
// left untouched.
func (a *App) Create(ctx context.Context, opts ...catalog.Option) (*catalog.Report, error) {
	plans, err := a.Plans()
	if err != nil {
		return nil, err
	}
	p, err := a.Provider()
	if err != nil {
		return nil, err
	}

	a.log.InfoContext(ctx, "creating catalog", logger.Count("plans", len(plans)))
	rep, err := catalog.NewReconciler(p, a.cfg.catalogOptions(a.log, opts...)...).Ensure(ctx, plans)
	a.log.InfoContext(ctx, "create finished", slog.Any("report", rep))
	return rep, err
}

// Update pushes the mutable fields of declared plans to their remote objects.
func (a *App) Update(ctx context.Context, opts ...catalog.Option) (*catalog.Report, error) {
	plans, err := a.Plans()
	if err != nil {
		return nil, err
	}
	p, err := a.Provider()
	if err != nil {
		return nil, err
	}

	a.log.InfoContext(ctx, "updating catalog", logger.Count("plans", len(plans)))
	return catalog.NewUpdater(p, a.cfg.catalogOptions(a.log, opts...)...).Update(ctx, plans)
}

// Archive deactivates the given products and their prices.
func (a *App) Archive(ctx context.Context, productIDs []string, opts ...catalog.Option) (*catalog.Report, error) {
	p, err := a.Provider()
	if err != nil {
		return nil, err
	}

	a.log.InfoContext(ctx, "archiving products", slog.Any("product_ids", productIDs))
	return catalog.NewArchiver(p, a.cfg.catalogOptions(a.log, opts...)...).Archive(ctx, productIDs)
}

func (a *App) mirrorOptions() []mirror.Option {
	return []mirror.Option{
		mirror.WithLogger(a.log.With(logger.Component("mirror"))),
		mirror.WithClock(a.now),
	}
}

func (a *App) engine(ctx context.Context) (*mirror.Engine, error) {
	p, err := a.Provider()
	if err != nil {
		return nil, err
	}
	s, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	f := catalog.NewFetcher(p, a.cfg.catalogOptions(a.log)...)
	return mirror.NewEngine(f, s, a.mirrorOptions()...), nil
}

// Sync mirrors the managed remote catalog into the local store.
func (a *App) Sync(ctx context.Context) (*mirror.SyncReport, error) {
	e, err := a.engine(ctx)
	if err != nil {
		return nil, err
	}
	rep, err := e.Sync(ctx)
	if rep != nil {
		a.log.InfoContext(ctx, "sync finished", slog.Any("report", rep))
	}
	return rep, err
}

// Purge deletes every local mirror row. In production it refuses to run
// unless confirmed.
func (a *App) Purge(ctx context.Context, confirmed bool) error {
	if a.env.IsProduction() && !confirmed {
		return ErrConfirmationRequired
	}
	s, err := a.Store(ctx)
	if err != nil {
		return err
	}
	// Purge never reaches the provider.
	e := mirror.NewEngine(nil, s, a.mirrorOptions()...)
	if err := e.Purge(ctx); err != nil {
		return err
	}
	return nil
}

// List prints remote products or prices. Only objects managed by the
// configured owner are shown unless all is set, in which case every tagged
// object is.
func (a *App) List(ctx context.Context, kind string, all bool) error {
	p, err := a.Provider()
	if err != nil {
		return err
	}
	f := catalog.NewFetcher(p, a.cfg.catalogOptions(a.log)...)

	switch kind {
	case ListProducts:
		var items []catalog.RemoteProduct
		if all {
			items, err = f.FetchProducts(ctx)
		} else {
			items, err = f.FetchManagedProducts(ctx)
		}
		if err != nil {
			return err
		}
		return renderProducts(a.out, items)
	case ListPrices:
		var items []catalog.RemotePrice
		if all {
			items, err = f.FetchPrices(ctx)
		} else {
			items, err = f.FetchManagedPrices(ctx)
		}
		if err != nil {
			return err
		}
		return renderPrices(a.out, items)
	default:
		return fmt.Errorf("%w: list %q, want %s or %s", ErrUsage, kind, ListProducts, ListPrices)
	}
}

// Diff prints the drift between declared plans and the remote catalog.
// With failOnDrift set, any drift is returned as ErrDrift.
func (a *App) Diff(ctx context.Context, asJSON, failOnDrift bool) (*catalog.Diff, error) {
	plans, err := a.Plans()
	if err != nil {
		return nil, err
	}
	p, err := a.Provider()
	if err != nil {
		return nil, err
	}

	opts := a.cfg.catalogOptions(a.log)
	snap, err := catalog.NewFetcher(p, opts...).Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	d, err := catalog.Compare(plans, snap, opts...)
	if err != nil {
		return nil, err
	}

	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return d, err
		}
	} else if err := renderDiff(a.out, d); err != nil {
		return d, err
	}

	a.log.InfoContext(ctx, "diff finished",
		logger.Count("total", d.Summary.Total),
		logger.Count("synced", d.Summary.Synced),
		logger.Count("missing", d.Summary.Missing),
		logger.Count("differs", d.Summary.Differs),
	)
	if failOnDrift && d.HasDrift() {
		return d, ErrDrift
	}
	return d, nil
}

// Export writes the managed remote catalog to dest, a local path or an
// s3://bucket/key URL. An empty dest means the configured bucket, or the
// working directory when no bucket is set.
func (a *App) Export(ctx context.Context, dest string) (string, error) {
	var s3cfg snapshot.S3Config
	if err := config.Load(&s3cfg); err != nil {
		return "", err
	}
	if dest == "" && s3cfg.Bucket != "" {
		dest = "s3://" + s3cfg.Bucket + "/"
	}

	now := a.now()
	d, err := snapshot.ParseDestination(dest, a.cfg.Env, now)
	if err != nil {
		return "", err
	}

	p, err := a.Provider()
	if err != nil {
		return "", err
	}
	snap, err := catalog.NewFetcher(p, a.cfg.catalogOptions(a.log)...).Snapshot(ctx)
	if err != nil {
		return "", err
	}

	sink, err := snapshot.NewSink(ctx, d, s3cfg, a.s3opts...)
	if err != nil {
		return "", err
	}
	doc := snapshot.NewDocument(snap, a.cfg.Env, a.cfg.Owner, now)
	if err := snapshot.Export(ctx, sink, doc); err != nil {
		return "", err
	}

	a.log.InfoContext(ctx, "catalog exported",
		slog.String("location", sink.Location()),
		logger.Count("products", len(doc.Products)),
		logger.Count("prices", len(doc.Prices)),
	)
	return sink.Location(), nil
}
