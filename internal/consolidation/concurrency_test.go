package consolidation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

func TestConcurrentSetBestLeavesOneFlag(t *testing.T) {
	env := newTestEnv(t)
	entry := env.fx.Catalog("Busy")
	m := env.fx.Manta(entry.ID, nil)

	photos := make([]*entities.Photo, 8)
	for i := range photos {
		photos[i] = env.fx.Photo(m, entities.ViewVentral)
	}

	g, ctx := errgroup.WithContext(t.Context())
	for _, p := range photos {
		g.Go(func() error {
			_, err := env.engine.SetBest(ctx, SetBestRequest{
				EntityKind: EntityCatalog, EntityID: entry.ID, View: entities.ViewVentral, PhotoID: &p.ID,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	flagged := env.catalogFlagged(t, entry.ID, entities.ViewVentral)
	require.Len(t, flagged, 1)
	assert.Equal(t, flagged[0], *env.fx.ReloadCatalog(entry.ID).BestVentralPhotoID)
	assert.Len(t, env.auditEntries(t), len(photos))
}

func TestConcurrentDisjointMerges(t *testing.T) {
	env := newTestEnv(t)

	type pair struct{ a, b int64 }
	var pairs []pair
	for i := range 4 {
		a := env.fx.Catalog("a")
		b := env.fx.Catalog("b")
		for range i + 1 {
			m := env.fx.Manta(b.ID, nil)
			env.fx.Photo(m, entities.ViewDorsal)
		}
		pairs = append(pairs, pair{a.ID, b.ID})
	}

	g, ctx := errgroup.WithContext(t.Context())
	for _, p := range pairs {
		g.Go(func() error {
			_, err := env.engine.Merge(ctx, MergeRequest{IDA: p.b, IDB: p.a, DeleteSecondaryIfDetached: true})
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, p := range pairs {
		mantas, photos := env.countRefs(t, p.a)
		assert.Equal(t, int64(i+1), mantas)
		assert.Equal(t, int64(i+1), photos)

		exists, err := env.engine.Repositories().Catalogs.Exists(t.Context(), p.b)
		require.NoError(t, err)
		assert.False(t, exists)
	}
}

func TestConcurrentOverlappingMerges(t *testing.T) {
	env := newTestEnv(t)
	first := env.fx.Catalog("first")
	second := env.fx.Catalog("second")
	third := env.fx.Catalog("third")
	for _, c := range []*entities.CatalogEntity{second, third} {
		env.fx.Photo(env.fx.Manta(c.ID, nil), entities.ViewVentral)
	}

	g, ctx := errgroup.WithContext(t.Context())
	g.Go(func() error {
		_, err := env.engine.Merge(ctx, MergeRequest{IDA: first.ID, IDB: second.ID})
		return err
	})
	g.Go(func() error {
		_, err := env.engine.Merge(ctx, MergeRequest{IDA: third.ID, IDB: second.ID})
		return err
	})
	require.NoError(t, g.Wait())

	mantas, photos := env.countRefs(t, first.ID, second.ID, third.ID)
	assert.Equal(t, int64(2), mantas)
	assert.Equal(t, int64(2), photos)
	mantas, _ = env.countRefs(t, third.ID)
	assert.Zero(t, mantas)

	report, err := env.engine.Diagnose(t.Context(), DiagnoseRequest{})
	require.NoError(t, err)
	assert.True(t, report.Healthy)
}
