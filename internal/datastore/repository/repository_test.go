package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/testutil"
)

func setup(t *testing.T) (*Repositories, *testutil.Fixture) {
	t.Helper()
	db := testutil.NewSQLiteManager(t).DB()
	return New(db), testutil.NewFixture(t, db)
}

func TestCatalogGetByIDNotFound(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	entry := fx.Catalog("Kalani")
	got, err := repos.Catalogs.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kalani", got.Name)

	_, err = repos.Catalogs.GetByID(ctx, entry.ID+100)
	require.ErrorIs(t, err, ErrCatalogNotFound)

	ok, err := repos.Catalogs.Exists(ctx, entry.ID+100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalogLockForUpdateOrdersAndSkipsMissing(t *testing.T) {
	repos, fx := setup(t)

	fx.CatalogWithID(12, "A")
	fx.CatalogWithID(47, "B")

	rows, err := repos.Catalogs.LockForUpdate(context.Background(), 47, 99, 12)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(12), rows[0].ID)
	assert.Equal(t, int64(47), rows[1].ID)
}

func TestCatalogListAndSearch(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	fx.CatalogWithID(1, "Big Mama")
	fx.CatalogWithID(2, "Little Bear")
	fx.CatalogWithID(3, "Mama Ray")

	page, total, err := repos.Catalogs.List(ctx, ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].ID)

	found, err := repos.Catalogs.Search(ctx, "mama", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, int64(1), found[0].ID)
	assert.Equal(t, int64(3), found[1].ID)

	found, err = repos.Catalogs.Search(ctx, " 2 ", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Little Bear", found[0].Name)
}

func TestCatalogPointersAndAggregates(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	owner := fx.Catalog("Owner")
	other := fx.Catalog("Other")
	m := fx.Manta(owner.ID, nil)
	p := fx.Photo(m, entities.ViewVentral)

	require.NoError(t, repos.Catalogs.SetBestPointer(ctx, owner.ID, entities.ViewVentral, &p.ID))
	require.NoError(t, repos.Catalogs.SetBestPointer(ctx, other.ID, entities.ViewDorsal, &p.ID))
	require.ErrorIs(t, repos.Catalogs.SetBestPointer(ctx, 999, entities.ViewDorsal, nil), ErrCatalogNotFound)

	touched, err := repos.Catalogs.ClearPointersTo(ctx, []int64{p.ID}, owner.ID, entities.ViewVentral)
	require.NoError(t, err)
	assert.Zero(t, touched, "dorsal pointer is outside the requested view")
	assert.Equal(t, p.ID, *fx.ReloadCatalog(other.ID).BestDorsalPhotoID)

	touched, err = repos.Catalogs.ClearPointersTo(ctx, []int64{p.ID}, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), touched)
	assert.Equal(t, p.ID, *fx.ReloadCatalog(owner.ID).BestVentralPhotoID)
	assert.Nil(t, fx.ReloadCatalog(other.ID).BestDorsalPhotoID)

	require.NoError(t, repos.Catalogs.ClearBestPointers(ctx, owner.ID))
	assert.Nil(t, fx.ReloadCatalog(owner.ID).BestVentralPhotoID)

	first := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	last := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Catalogs.UpdateAggregates(ctx, owner.ID, Aggregates{
		FirstSighting: &first, LastSighting: &last, TotalSightings: 4,
	}))
	got := fx.ReloadCatalog(owner.ID)
	assert.Equal(t, 4, got.TotalSightings)
	require.NotNil(t, got.FirstSighting)
	assert.True(t, first.Equal(*got.FirstSighting))
}

func TestCatalogDelete(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	entry := fx.Catalog("Gone")
	require.NoError(t, repos.Catalogs.Delete(ctx, entry.ID))
	require.ErrorIs(t, repos.Catalogs.Delete(ctx, entry.ID), ErrCatalogNotFound)
}

func TestMantaReparentAndSightings(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	from := fx.Catalog("From")
	to := fx.Catalog("To")
	s1 := fx.Sighting(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	s2 := fx.Sighting(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	fx.Manta(from.ID, s1)
	fx.Manta(from.ID, s1)
	fx.Manta(from.ID, nil)
	fx.Manta(to.ID, s2)

	ids, err := repos.Mantas.SightingIDsByCatalog(ctx, from.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{s1.ID}, ids)

	moved, err := repos.Mantas.Reparent(ctx, from.ID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), moved)

	count, err := repos.Mantas.CountByCatalog(ctx, from.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	ids, err = repos.Mantas.SightingIDsByCatalog(ctx, to.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{s1.ID, s2.ID}, ids)

	sightings, err := repos.Sightings.ListByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, sightings, 2)

	_, err = repos.Mantas.GetByID(ctx, 12345)
	require.ErrorIs(t, err, ErrMantaNotFound)
}

func TestPhotoOwnershipScopeIncludesDriftedRows(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	owner := fx.Catalog("Owner")
	elsewhere := fx.Catalog("Elsewhere")
	m := fx.Manta(owner.ID, nil)
	direct := fx.Photo(m, entities.ViewVentral, testutil.WithCatalogBest(entities.ViewVentral))
	drifted := fx.Photo(m, entities.ViewDorsal, testutil.WithCatalogRef(&elsewhere.ID))
	orphanRef := fx.Photo(m, entities.ViewOther, testutil.WithCatalogRef(nil))

	photos, err := repos.Photos.ListByCatalog(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, photos, 3)

	count, err := repos.Photos.CountByCatalog(ctx, elsewhere.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	flagged, err := repos.Photos.FlaggedForCatalog(ctx, owner.ID, entities.ViewVentral)
	require.NoError(t, err)
	assert.Equal(t, []int64{direct.ID}, flagged)

	drift, err := repos.Photos.DriftedInto(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, drift, 2)
	assert.Equal(t, drifted.ID, drift[0].ID)
	assert.Equal(t, orphanRef.ID, drift[1].ID)

	fixed, err := repos.Photos.ReparentViaManta(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fixed)
	assert.Equal(t, owner.ID, *fx.ReloadPhoto(orphanRef.ID).CatalogID)
}

func TestPhotoFlagsClearThenMark(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	owner := fx.Catalog("Owner")
	m := fx.Manta(owner.ID, nil)
	a := fx.Photo(m, entities.ViewVentral,
		testutil.WithCatalogBest(entities.ViewVentral), testutil.WithMantaBest(entities.ViewVentral))
	b := fx.Photo(m, entities.ViewVentral)

	cleared, err := repos.Photos.ClearCatalogBest(ctx, owner.ID, entities.ViewVentral)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
	require.NoError(t, repos.Photos.MarkCatalogBest(ctx, b.ID, entities.ViewVentral))

	cleared, err = repos.Photos.ClearMantaBest(ctx, m.ID, entities.ViewVentral)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
	require.NoError(t, repos.Photos.MarkMantaBest(ctx, b.ID, entities.ViewVentral))

	gotA, gotB := fx.ReloadPhoto(a.ID), fx.ReloadPhoto(b.ID)
	assert.False(t, gotA.IsBestCatalogVentral)
	assert.False(t, gotA.IsBestMantaVentral)
	assert.True(t, gotB.IsBestCatalogVentral)
	assert.True(t, gotB.IsBestMantaVentral)

	// Nothing flagged any more in dorsal, so the clear is a no-op.
	cleared, err = repos.Photos.ClearCatalogBest(ctx, owner.ID, entities.ViewDorsal)
	require.NoError(t, err)
	assert.Zero(t, cleared)

	cleared, err = repos.Photos.ClearCatalogBestByIDs(ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
}

func TestSimilarityRepointConflict(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	a := fx.Catalog("A")
	b := fx.Catalog("B")
	c := fx.Catalog("C")
	fx.Embedding(a.ID, "v1")
	fx.Embedding(b.ID, "v1")

	_, err := repos.Similarity.Repoint(ctx, b.ID, a.ID)
	require.Error(t, err)
	assert.True(t, datastore.IsUniqueViolation(err))

	moved, err := repos.Similarity.Repoint(ctx, b.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)

	ok, err := repos.Similarity.ExistsForCatalog(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err := repos.Similarity.DeleteByCatalog(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repos.Similarity.GetByCatalog(ctx, c.ID)
	require.ErrorIs(t, err, ErrSimilarityRowNotFound)
}

func TestAuditAppendAndFilter(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, repos.Audit.Create(ctx, &entities.AuditEntry{
		OperationID: "op-1", Kind: entities.AuditBestAssetSet, EntityKind: "catalog", EntityID: testutil.Int64(12),
		Summary: []byte(`{"view":"ventral"}`),
	}))
	require.NoError(t, repos.Audit.Create(ctx, &entities.AuditEntry{
		OperationID: "op-2", Kind: entities.AuditMerge, PrimaryID: testutil.Int64(12), SecondaryID: testutil.Int64(47),
		Summary: []byte(`{"mantasMoved":3}`),
	}))

	all, err := repos.Audit.List(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "op-2", all[0].OperationID)

	merges, err := repos.Audit.List(ctx, AuditFilter{Kind: entities.AuditMerge, EntityID: 47})
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.JSONEq(t, `{"mantasMoved":3}`, string(merges[0].Summary))
}

func TestWithTxRollsBack(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()

	from := fx.Catalog("From")
	to := fx.Catalog("To")
	fx.Manta(from.ID, nil)

	err := fx.DB.Transaction(func(tx *gorm.DB) error {
		moved, err := repos.WithTx(tx).Mantas.Reparent(ctx, from.ID, to.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), moved)
		return gorm.ErrInvalidTransaction
	})
	require.ErrorIs(t, err, gorm.ErrInvalidTransaction)

	count, err := repos.Mantas.CountByCatalog(ctx, from.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
