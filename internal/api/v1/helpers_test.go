package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/testutil"
)

type apiEnv struct {
	e          *echo.Echo
	controller *Controller
	fx         *testutil.Fixture
}

func newAPIEnv(t *testing.T, opts ...Option) *apiEnv {
	t.Helper()
	db := testutil.NewSQLiteManager(t).DB()
	engine := consolidation.New(db, consolidation.WithDiagnosticsTTL(0))

	e := echo.New()
	settings := &conf.Settings{}
	return &apiEnv{
		e:          e,
		controller: New(e, engine, settings, opts...),
		fx:         testutil.NewFixture(t, db),
	}
}

func (env *apiEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seedCatalogs creates entries 12 and 47, each with one manta. Entry 12 has
// a ventral photo 900 and entry 47 has ventral 1500 and dorsal 1501.
func (env *apiEnv) seedCatalogs(t *testing.T) {
	t.Helper()
	env.fx.CatalogWithID(12, "Mantaray A")
	env.fx.CatalogWithID(47, "Mantaray B")
	m12 := env.fx.Manta(12, nil)
	m47 := env.fx.Manta(47, nil)
	env.fx.Photo(m12, entities.ViewVentral, testutil.WithID(900))
	env.fx.Photo(m47, entities.ViewVentral, testutil.WithID(1500))
	env.fx.Photo(m47, entities.ViewDorsal, testutil.WithID(1501))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
