package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// CatalogDetail is a catalog entry with its ownership counts.
type CatalogDetail struct {
	entities.CatalogEntity
	MantaCount int64 `json:"mantaCount"`
	PhotoCount int64 `json:"photoCount"`
}

// CatalogPage is one page of catalog entries.
type CatalogPage struct {
	Entries []entities.CatalogEntity `json:"entries"`
	Total   int64                    `json:"total"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
}

// PhotoList is the photo set of one owner.
type PhotoList struct {
	OwnerID int64            `json:"ownerId"`
	Photos  []entities.Photo `json:"photos"`
}

// GetCatalog handles GET /api/v1/catalog/:id
func (c *Controller) GetCatalog(ctx echo.Context) error {
	id, err := consolidation.ParseID("id", ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err)
	}

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	entry, err := c.repos.Catalogs.GetByID(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, lookupFailure("get catalog", "catalog entry", id, err, repository.ErrCatalogNotFound))
	}
	mantas, err := c.repos.Mantas.CountByCatalog(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, readFailure("count mantas", err))
	}
	photos, err := c.repos.Photos.CountByCatalog(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, readFailure("count photos", err))
	}

	return ctx.JSON(http.StatusOK, CatalogDetail{CatalogEntity: *entry, MantaCount: mantas, PhotoCount: photos})
}

// GetCatalogPhotos handles GET /api/v1/catalog/:id/photos
func (c *Controller) GetCatalogPhotos(ctx echo.Context) error {
	id, err := consolidation.ParseID("id", ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err)
	}

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	exists, err := c.repos.Catalogs.Exists(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, readFailure("get catalog", err))
	}
	if !exists {
		return c.HandleError(ctx, lookupFailure("get catalog", "catalog entry", id, repository.ErrCatalogNotFound, repository.ErrCatalogNotFound))
	}

	photos, err := c.repos.Photos.ListByCatalog(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, readFailure("list catalog photos", err))
	}
	return ctx.JSON(http.StatusOK, PhotoList{OwnerID: id, Photos: nonNil(photos)})
}

// GetMantaPhotos handles GET /api/v1/manta/:id/photos
func (c *Controller) GetMantaPhotos(ctx echo.Context) error {
	id, err := consolidation.ParseID("id", ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err)
	}

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	if _, err := c.repos.Mantas.GetByID(reqCtx, id); err != nil {
		return c.HandleError(ctx, lookupFailure("get manta", "manta", id, err, repository.ErrMantaNotFound))
	}
	photos, err := c.repos.Photos.ListByManta(reqCtx, id)
	if err != nil {
		return c.HandleError(ctx, readFailure("list manta photos", err))
	}
	return ctx.JSON(http.StatusOK, PhotoList{OwnerID: id, Photos: nonNil(photos)})
}

// ListCatalog handles GET /api/v1/catalog
//
// With search set, entries match by exact id or name substring and offset
// is ignored.
func (c *Controller) ListCatalog(ctx echo.Context) error {
	limit, err := queryInt(ctx, "limit", defaultPageSize)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	offset, err := queryInt(ctx, "offset", 0)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	limit = max(1, min(limit, maxPageSize))

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	page := CatalogPage{Limit: limit, Offset: offset}
	if term := strings.TrimSpace(ctx.QueryParam("search")); term != "" {
		entries, err := c.repos.Catalogs.Search(reqCtx, term, limit)
		if err != nil {
			return c.HandleError(ctx, readFailure("search catalog", err))
		}
		page.Entries, page.Total, page.Offset = entries, int64(len(entries)), 0
	} else {
		entries, total, err := c.repos.Catalogs.List(reqCtx, repository.ListOptions{Limit: limit, Offset: offset})
		if err != nil {
			return c.HandleError(ctx, readFailure("list catalog", err))
		}
		page.Entries, page.Total = entries, total
	}
	page.Entries = nonNil(page.Entries)

	return ctx.JSON(http.StatusOK, page)
}

// lookupFailure maps a repository sentinel onto NotFound.
func lookupFailure(operation, what string, id int64, err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return errors.Newf("%s %d not found", what, id).
			Component("api").
			Category(errors.CategoryNotFound).
			Context("reason", consolidation.ReasonEntityMissing).
			Build()
	}
	return readFailure(operation, err)
}

// queryInt reads a non-negative integer query parameter.
func queryInt(ctx echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Newf("%s must be a non-negative integer, got %q", name, raw).
			Component("api").
			Category(errors.CategoryValidation).
			Context("reason", consolidation.ReasonInvalidID).
			Build()
	}
	return n, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
