package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
)

func seeded(t *testing.T, plans ...catalog.Plan) *catalog.MemoryProvider {
	t.Helper()
	mp := catalog.NewMemoryProvider()
	_, err := catalog.NewReconciler(mp, quiet()).Ensure(context.Background(), plans)
	require.NoError(t, err)
	return mp
}

func TestArchiver_NonDestructive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mp := seeded(t, proPlan(), basicPlan())

	rep, err := catalog.NewArchiver(mp, quiet()).Archive(ctx, []string{"basic"})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Count(rep.Archived, catalog.KindProduct))
	assert.Equal(t, 2, catalog.Count(rep.Archived, catalog.KindPrice))

	fetch := catalog.NewFetcher(mp, quiet())
	products, err := fetch.FetchManagedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2, "archived products stay listed")
	for _, p := range products {
		assert.Equal(t, p.Tag.InternalID == "pro", p.Active, p.Tag.InternalID)
	}

	prices, err := fetch.FetchManagedPrices(ctx)
	require.NoError(t, err)
	require.Len(t, prices, 3)
	for _, p := range prices {
		assert.Equal(t, p.InternalProductID == "pro", p.Active, p.Tag.InternalID)
	}
}

func TestArchiver_EmptyInputIsNoop(t *testing.T) {
	t.Parallel()

	mp := seeded(t, proPlan())
	calls := func() int {
		return mp.Calls(catalog.OpSearchProducts) + mp.Calls(catalog.OpListPrices) +
			mp.Calls(catalog.OpUpdateProduct) + mp.Calls(catalog.OpUpdatePrice)
	}
	before := calls()

	rep, err := catalog.NewArchiver(mp, quiet()).Archive(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rep.Archived)
	assert.Empty(t, rep.Skipped)
	assert.Equal(t, before, calls(), "empty input must not reach the provider")
}

func TestArchiver_SecondRunArchivesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mp := seeded(t, proPlan())
	arch := catalog.NewArchiver(mp, quiet())

	_, err := arch.Archive(ctx, []string{"pro"})
	require.NoError(t, err)
	updates := mp.Calls(catalog.OpUpdateProduct) + mp.Calls(catalog.OpUpdatePrice)

	rep, err := arch.Archive(ctx, []string{"pro"})
	require.NoError(t, err)
	assert.Empty(t, rep.Archived)
	assert.Len(t, rep.Skipped, 1)
	assert.Equal(t, updates, mp.Calls(catalog.OpUpdateProduct)+mp.Calls(catalog.OpUpdatePrice))
}

func TestArchiver_SkipsForeignOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mp := catalog.NewMemoryProvider()
	_, err := catalog.NewReconciler(mp, quiet(), catalog.WithOwner("other-tool")).Ensure(ctx, []catalog.Plan{proPlan()})
	require.NoError(t, err)

	rep, err := catalog.NewArchiver(mp, quiet()).Archive(ctx, []string{"pro"})
	require.NoError(t, err)
	assert.Empty(t, rep.Archived)
	assert.True(t, mp.Products()[0].Active)
	assert.True(t, mp.Prices()[0].Active)
}

func TestArchiver_BestEffort(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mp := seeded(t, proPlan(), basicPlan())
	proRemote := mp.Products()[0].ID
	boom := errors.New("network reset")
	mp.FailWith(func(op catalog.Op, key string) error {
		if op == catalog.OpUpdateProduct && key == proRemote {
			return boom
		}
		return nil
	})

	rep, err := catalog.NewArchiver(mp, quiet()).Archive(ctx, []string{"pro", "basic", "unknown"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	require.Len(t, rep.Failed, 1)
	assert.Equal(t, "pro", rep.Failed[0].ID)
	assert.Equal(t, 1, catalog.Count(rep.Archived, catalog.KindProduct))
	assert.Equal(t, 3, catalog.Count(rep.Archived, catalog.KindPrice))
	assert.Equal(t, 1, catalog.Count(rep.Skipped, catalog.KindProduct))

	for _, p := range mp.Products() {
		assert.Equal(t, p.ID == proRemote, p.Active)
	}
}

func TestArchiver_FailFastOption(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mp := seeded(t, proPlan(), basicPlan())
	mp.FailWith(func(op catalog.Op, _ string) error {
		if op == catalog.OpUpdateProduct {
			return errors.New("denied")
		}
		return nil
	})

	rep, err := catalog.NewArchiver(mp, quiet(), catalog.WithContinueOnItemError(false)).
		Archive(ctx, []string{"pro", "basic"})
	require.Error(t, err)
	assert.Len(t, rep.Failed, 1)
	assert.Equal(t, 1, mp.Calls(catalog.OpUpdateProduct))
	assert.Zero(t, mp.Calls(catalog.OpUpdatePrice))
}
