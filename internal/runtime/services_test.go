package runtime

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantamatcher/catalogcore/internal/buildinfo"
	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/consolidation"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Database.Driver = conf.DriverSQLite
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "catalog.db")
	settings.Database.MaxRetries = 2
	return settings
}

func TestOpenWiresEngine(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer

	s, err := Open(testSettings(t), buildinfo.NewContext("1.2.3", "2026-01-01"), WithConsole(&console))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NotNil(t, s.Engine)
	require.NotNil(t, s.Metrics)
	assert.Equal(t, "1.2.3", s.Build.GetVersion())
	assert.Contains(t, console.String(), "services started")

	report, err := s.Engine.Diagnose(t.Context(), consolidation.DiagnoseRequest{})
	require.NoError(t, err)
	assert.True(t, report.Healthy)

	families, err := s.Metrics.Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_sql_open_connections")
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	settings := testSettings(t)
	settings.Database.Driver = "oracle"

	_, err := Open(settings, nil, WithConsole(&bytes.Buffer{}))
	require.Error(t, err)
}

func TestDebugRaisesLogLevel(t *testing.T) {
	t.Parallel()
	settings := testSettings(t)
	settings.Debug = true

	s, err := Open(settings, nil, WithConsole(&bytes.Buffer{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.Equal(t, "debug", settings.Logging.DefaultLevel)
	assert.Equal(t, buildinfo.UnknownValue, s.Build.GetVersion())
}
