package consolidation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/testutil"
)

func TestAuditFailureIsBestEffort(t *testing.T) {
	env := newTestEnv(t)
	entry := env.fx.Catalog("Owner")
	m := env.fx.Manta(entry.ID, nil)
	photo := env.fx.Photo(m, entities.ViewVentral)
	require.NoError(t, env.db.Migrator().DropTable(&entities.AuditEntry{}))

	res, err := env.engine.SetBest(t.Context(), SetBestRequest{
		EntityKind: EntityCatalog, EntityID: entry.ID, View: entities.ViewVentral, PhotoID: &photo.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, photo.ID, *res.NewPhotoID)

	assert.True(t, env.fx.ReloadPhoto(photo.ID).IsBestCatalogVentral)
	assert.Equal(t, photo.ID, *env.fx.ReloadCatalog(entry.ID).BestVentralPhotoID)
	assert.InDelta(t, 1, env.metricValue(t, "catalogcore_audit_failures_total", nil), 0)
}

func TestStrictAuditRollsBack(t *testing.T) {
	env := newTestEnv(t, WithStrictAudit(true))
	env.fx.CatalogWithID(12, "Twelve")
	env.fx.CatalogWithID(47, "Fortyseven")
	m := env.fx.Manta(47, nil)
	env.fx.Photo(m, entities.ViewVentral, testutil.WithID(1500))
	require.NoError(t, env.db.Migrator().DropTable(&entities.AuditEntry{}))

	_, err := env.engine.Merge(t.Context(), MergeRequest{IDA: 12, IDB: 47})
	require.Error(t, err)
	assert.Equal(t, KindStorageFailure, KindOf(err))
	assert.Equal(t, ReasonAuditUnavailable, ReasonOf(err))

	mantas, photos := env.countRefs(t, 47)
	assert.Equal(t, int64(1), mantas)
	assert.Equal(t, int64(1), photos)
	assert.InDelta(t, 1, env.metricValue(t, "catalogcore_audit_failures_total", nil), 0)
}

func TestAuditEntriesShareOperationID(t *testing.T) {
	env := newTestEnv(t)
	seedPair(t, env)

	first, err := env.engine.SetBest(t.Context(), SetBestRequest{
		EntityKind: EntityCatalog, EntityID: 47, View: entities.ViewDorsal, PhotoID: testutil.Int64(1501),
	})
	require.NoError(t, err)
	second, err := env.engine.Merge(t.Context(), MergeRequest{IDA: 12, IDB: 47})
	require.NoError(t, err)
	assert.NotEqual(t, first.OperationID, second.OperationID)

	rows, err := env.engine.Repositories().Audit.List(t.Context(), repository.AuditFilter{EntityID: 47})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Newest first.
	assert.Equal(t, second.OperationID, rows[0].OperationID)
	assert.Equal(t, first.OperationID, rows[1].OperationID)
}
