package consolidation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/observability/metrics"
	"github.com/mantamatcher/catalogcore/internal/testutil"
)

func TestEngineRecordsMetrics(t *testing.T) {
	env := newTestEnv(t)
	seedPair(t, env)
	env.fx.Embedding(12, "a")
	env.fx.Embedding(47, "b")

	_, err := env.engine.SetBest(t.Context(), SetBestRequest{
		EntityKind: EntityCatalog, EntityID: 12, View: entities.ViewDorsal, PhotoID: testutil.Int64(4242),
	})
	require.Error(t, err)
	_, err = env.engine.Merge(t.Context(), MergeRequest{IDA: 12, IDB: 47})
	require.NoError(t, err)

	ops := "catalogcore_operations_total"
	assert.InDelta(t, 1, env.metricValue(t, ops, map[string]string{"operation": metrics.OpSetBest, "status": metrics.StatusError}), 0)
	assert.InDelta(t, 1, env.metricValue(t, ops, map[string]string{"operation": metrics.OpMerge, "status": metrics.StatusSuccess}), 0)
	assert.InDelta(t, 2, env.metricValue(t, "catalogcore_operation_duration_seconds", nil), 0)

	moved := "catalogcore_rows_moved_total"
	assert.InDelta(t, 3, env.metricValue(t, moved, map[string]string{"kind": metrics.RowsMantas}), 0)
	assert.InDelta(t, 5, env.metricValue(t, moved, map[string]string{"kind": metrics.RowsPhotosDirect}), 0)
	assert.InDelta(t, 1, env.metricValue(t, "catalogcore_conflicts_resolved_total",
		map[string]string{"table": "catalog_embeddings", "action": string(ActionDeleted)}), 0)
}

func TestEngineWithoutMetrics(t *testing.T) {
	db := testutil.NewSQLiteManager(t).DB()
	fx := testutil.NewFixture(t, db)
	engine := New(db, WithDiagnosticsTTL(0))

	a := fx.Catalog("A")
	b := fx.Catalog("B")
	fx.Photo(fx.Manta(b.ID, nil), entities.ViewVentral)

	_, err := engine.Merge(t.Context(), MergeRequest{IDA: a.ID, IDB: b.ID})
	require.NoError(t, err)
	report, err := engine.Diagnose(t.Context(), DiagnoseRequest{})
	require.NoError(t, err)
	assert.True(t, report.Healthy)
}

func TestEngineCanceledContext(t *testing.T) {
	env := newTestEnv(t)
	seedPair(t, env)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := env.engine.Merge(ctx, MergeRequest{IDA: 12, IDB: 47})
	require.Error(t, err)
	assert.Equal(t, KindStorageFailure, KindOf(err))

	mantas, _ := env.countRefs(t, 47)
	assert.Equal(t, int64(3), mantas)
}

func TestEngineUsesOperationIDGenerator(t *testing.T) {
	env := newTestEnv(t)
	env.engine.newOperationID = func() string { return "op-fixed" }
	entry := env.fx.Catalog("Owner")

	res, err := env.engine.SetBest(t.Context(), SetBestRequest{EntityKind: EntityCatalog, EntityID: entry.ID, View: entities.ViewVentral})
	require.NoError(t, err)
	assert.Equal(t, "op-fixed", res.OperationID)
	assert.Equal(t, "op-fixed", env.auditEntries(t)[0].OperationID)
}
