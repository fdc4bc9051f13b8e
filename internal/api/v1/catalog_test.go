package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
)

func TestGetCatalog(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	env.seedCatalogs(t)

	rec := env.do(t, http.MethodGet, "/api/v1/catalog/47", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	detail := decode[CatalogDetail](t, rec)
	assert.Equal(t, int64(47), detail.ID)
	assert.Equal(t, "Mantaray B", detail.Name)
	assert.Equal(t, int64(1), detail.MantaCount)
	assert.Equal(t, int64(2), detail.PhotoCount)

	rec = env.do(t, http.MethodGet, "/api/v1/catalog/404", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, consolidation.ReasonEntityMissing, decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodGet, "/api/v1/catalog/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogPhotosFollowMerge(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	env.seedCatalogs(t)

	rec := env.do(t, http.MethodGet, "/api/v1/catalog/12/photos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[PhotoList](t, rec).Photos, 1)

	rec = env.do(t, http.MethodPost, "/api/v1/catalog/merge", `{"idA": 12, "idB": 47}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/catalog/12/photos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[PhotoList](t, rec)
	assert.Equal(t, int64(12), list.OwnerID)
	assert.Len(t, list.Photos, 3)

	rec = env.do(t, http.MethodGet, "/api/v1/catalog/47/photos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[PhotoList](t, rec).Photos)

	rec = env.do(t, http.MethodGet, "/api/v1/catalog/777/photos", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMantaPhotos(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	env.seedCatalogs(t)
	mantaID := env.fx.ReloadPhoto(1500).MantaID

	rec := env.do(t, http.MethodGet, "/api/v1/manta/"+itoa(mantaID)+"/photos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[PhotoList](t, rec)
	require.Len(t, list.Photos, 2)
	views := []entities.View{list.Photos[0].View, list.Photos[1].View}
	assert.ElementsMatch(t, []entities.View{entities.ViewVentral, entities.ViewDorsal}, views)

	rec = env.do(t, http.MethodGet, "/api/v1/manta/9999/photos", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCatalog(t *testing.T) {
	t.Parallel()
	env := newAPIEnv(t)
	env.seedCatalogs(t)
	env.fx.CatalogWithID(80, "Another Ray")

	rec := env.do(t, http.MethodGet, "/api/v1/catalog?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[CatalogPage](t, rec)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, int64(12), page.Entries[0].ID)

	rec = env.do(t, http.MethodGet, "/api/v1/catalog?limit=2&offset=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[CatalogPage](t, rec)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, int64(80), page.Entries[0].ID)

	rec = env.do(t, http.MethodGet, "/api/v1/catalog?search=mantaray", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[CatalogPage](t, rec)
	assert.Len(t, page.Entries, 2)

	rec = env.do(t, http.MethodGet, "/api/v1/catalog?search=80", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[CatalogPage](t, rec)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "Another Ray", page.Entries[0].Name)

	rec = env.do(t, http.MethodGet, "/api/v1/catalog?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	env := newAPIEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, rec)["status"])

	degraded := newAPIEnv(t, WithHealthCheck(func(context.Context) error {
		return errors.New("connection refused")
	}))
	rec = degraded.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[map[string]any](t, rec)["status"])
}
