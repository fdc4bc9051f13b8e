package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantamatcher/catalogcore/internal/buildinfo"
	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/testutil"
)

// writeConfig points a minimal config at a temp SQLite file with console
// logging off so command output stays parseable.
func writeConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "catalog.db")
	body := strings.Join([]string{
		"database:",
		"  driver: sqlite",
		"  sqlite:",
		"    path: " + dbPath,
		"logging:",
		"  console:",
		"    enabled: false",
		"  fileoutput:",
		"    enabled: true",
		"    path: " + filepath.Join(dir, "catalogcore.log"),
		"metrics:",
		"  enabled: false",
		"",
	}, "\n")
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))
	return configPath, dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := RootCommand(buildinfo.NewContext("1.0.0", "2026-10-01"))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "catalogcore 1.0.0 (built 2026-10-01)\n", out)
}

func TestMergeAndAuditCommands(t *testing.T) {
	configPath, _ := writeConfig(t)

	out, err := run(t, "--config", configPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema up to date")

	seed(t, configPath)

	out, err = run(t, "--config", configPath, "merge", "47", "12", "--delete-detached")
	require.NoError(t, err)
	var summary consolidation.MergeSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
	assert.Equal(t, int64(12), summary.PrimaryID)
	assert.Equal(t, int64(1), summary.MantasMoved)
	assert.True(t, summary.SecondaryDeleted)

	out, err = run(t, "--config", configPath, "audit", "--kind", "merge")
	require.NoError(t, err)
	var entries []entities.AuditEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries), out)
	require.Len(t, entries, 1)
	assert.Equal(t, summary.OperationID, entries[0].OperationID)

	_, err = run(t, "--config", configPath, "audit", "--kind", "split")
	require.Error(t, err)
}

func TestSetBestCommand(t *testing.T) {
	configPath, _ := writeConfig(t)
	seed(t, configPath)

	out, err := run(t, "--config", configPath, "set-best", "--kind", "catalog", "--id", "47", "--view", "ventral", "--photo", "1500")
	require.NoError(t, err)
	var result consolidation.SetBestResult
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	require.NotNil(t, result.NewPhotoID)
	assert.Equal(t, int64(1500), *result.NewPhotoID)

	out, err = run(t, "--config", configPath, "set-best", "--id", "47", "--photo", "none")
	require.NoError(t, err)
	result = consolidation.SetBestResult{}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Nil(t, result.NewPhotoID)

	_, err = run(t, "--config", configPath, "set-best", "--id", "47", "--photo", "900")
	require.Error(t, err)
	assert.Equal(t, consolidation.KindNotFound, consolidation.KindOf(err))

	_, err = run(t, "--config", configPath, "set-best", "--id", "undefined", "--photo", "900")
	require.Error(t, err)
	assert.Equal(t, consolidation.ReasonMissingID, consolidation.ReasonOf(err))
}

func TestDiagnoseCommand(t *testing.T) {
	configPath, _ := writeConfig(t)
	seed(t, configPath)

	out, err := run(t, "--config", configPath, "diagnose", "--fail-on-violation")
	require.NoError(t, err)
	var report consolidation.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.True(t, report.Healthy)
}

func TestConfigCommands(t *testing.T) {
	configPath, dbPath := writeConfig(t)

	out, err := run(t, "--config", configPath, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	out, err = run(t, "--config", configPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, dbPath)

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "config", "validate")
	require.Error(t, err)
}

// seed writes entries 12 and 47 through a separate connection.
func seed(t *testing.T, configPath string) {
	t.Helper()
	_, err := run(t, "--config", configPath, "migrate")
	require.NoError(t, err)

	db := testutil.OpenSQLite(t, filepath.Join(filepath.Dir(configPath), "catalog.db"))
	fx := testutil.NewFixture(t, db)
	fx.CatalogWithID(12, "Mantaray A")
	fx.CatalogWithID(47, "Mantaray B")
	m12 := fx.Manta(12, nil)
	m47 := fx.Manta(47, nil)
	fx.Photo(m12, entities.ViewVentral, testutil.WithID(900))
	fx.Photo(m47, entities.ViewVentral, testutil.WithID(1500))
}
