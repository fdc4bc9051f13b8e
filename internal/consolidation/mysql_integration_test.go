//go:build integration

package consolidation

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"golang.org/x/sync/errgroup"

	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/datastore"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/observability/metrics"
	"github.com/mantamatcher/catalogcore/internal/testutil"
)

// newMySQLEnv runs the engine against a throwaway MySQL container. MySQL
// has no partial indexes, so only row locks and the lockset keep flags unique.
func newMySQLEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := t.Context()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("catalog"),
		tcmysql.WithUsername("catalog"),
		tcmysql.WithPassword("catalog"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	m, err := datastore.NewManager(&conf.DatabaseSettings{
		Driver: conf.DriverMySQL,
		MySQL: conf.MySQLSettings{
			Host:     host,
			Port:     port.Port(),
			Username: "catalog",
			Password: "catalog",
			Database: "catalog",
		},
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, m.Initialize())
	t.Cleanup(func() { _ = m.Close() })

	reg := prometheus.NewRegistry()
	cm, err := metrics.NewConsolidationMetrics(reg)
	require.NoError(t, err)

	db := m.DB()
	return &testEnv{
		engine:  New(db, WithMetrics(cm)),
		fx:      testutil.NewFixture(t, db),
		db:      db,
		metrics: cm,
		reg:     reg,
	}
}

func TestMySQLMerge(t *testing.T) {
	env := newMySQLEnv(t)
	seedPair(t, env)

	summary, err := env.engine.Merge(t.Context(), MergeRequest{IDA: 47, IDB: 12, DeleteSecondaryIfDetached: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.MantasMoved)
	assert.Equal(t, int64(5), summary.PhotosMoved)
	assert.True(t, summary.SecondaryDeleted)

	assert.Equal(t, []int64{900}, env.catalogFlagged(t, 12, entities.ViewVentral))
	report, err := env.engine.Diagnose(t.Context(), DiagnoseRequest{})
	require.NoError(t, err)
	assert.True(t, report.Healthy)
}

func TestMySQLConcurrentSetBest(t *testing.T) {
	env := newMySQLEnv(t)
	entry := env.fx.Catalog("Busy")
	m := env.fx.Manta(entry.ID, nil)

	photos := make([]*entities.Photo, 6)
	for i := range photos {
		photos[i] = env.fx.Photo(m, entities.ViewDorsal)
	}

	g, ctx := errgroup.WithContext(t.Context())
	for _, p := range photos {
		g.Go(func() error {
			_, err := env.engine.SetBest(ctx, SetBestRequest{
				EntityKind: EntityCatalog, EntityID: entry.ID, View: entities.ViewDorsal, PhotoID: &p.ID,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	flagged := env.catalogFlagged(t, entry.ID, entities.ViewDorsal)
	require.Len(t, flagged, 1)
	assert.Equal(t, flagged[0], *env.fx.ReloadCatalog(entry.ID).BestDorsalPhotoID)
}
