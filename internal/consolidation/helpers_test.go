package consolidation

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/observability/metrics"
	"github.com/mantamatcher/catalogcore/internal/testutil"
)

type testEnv struct {
	engine  *Engine
	fx      *testutil.Fixture
	db      *gorm.DB
	metrics *metrics.ConsolidationMetrics
	reg     *prometheus.Registry
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteManager(t).DB()
	reg := prometheus.NewRegistry()
	m, err := metrics.NewConsolidationMetrics(reg)
	require.NoError(t, err)

	opts = append([]Option{WithMetrics(m)}, opts...)
	return &testEnv{
		engine:  New(db, opts...),
		fx:      testutil.NewFixture(t, db),
		db:      db,
		metrics: m,
		reg:     reg,
	}
}

// countRefs counts mantas owned by, and photos referencing, the given entries.
func (env *testEnv) countRefs(t *testing.T, ids ...int64) (mantas, photos int64) {
	t.Helper()
	require.NoError(t, env.db.Model(&entities.Manta{}).Where("fk_catalog_id IN ?", ids).Count(&mantas).Error)
	require.NoError(t, env.db.Model(&entities.Photo{}).Where("fk_catalog_id IN ?", ids).Count(&photos).Error)
	return mantas, photos
}

func (env *testEnv) catalogFlagged(t *testing.T, catalogID int64, view entities.View) []int64 {
	t.Helper()
	ids, err := env.engine.Repositories().Photos.FlaggedForCatalog(t.Context(), catalogID, view)
	require.NoError(t, err)
	return ids
}

func (env *testEnv) auditEntries(t *testing.T) []entities.AuditEntry {
	t.Helper()
	var rows []entities.AuditEntry
	require.NoError(t, env.db.Order("id ASC").Find(&rows).Error)
	return rows
}

func ptr(v int64) *int64 { return &v }

// metricValue sums the samples of a counter or histogram count whose labels
// include want.
func (env *testEnv) metricValue(t *testing.T, name string, want map[string]string) float64 {
	t.Helper()
	families, err := env.reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if !hasLabels(metric.GetLabel(), want) {
				continue
			}
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				total += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func hasLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for k, v := range want {
		found := false
		for _, p := range pairs {
			if p.GetName() == k && p.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
