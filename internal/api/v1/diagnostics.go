package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

// GetDiagnostics handles GET /api/v1/diagnostics
//
// The optional catalogId query parameter scopes the report to one entry.
func (c *Controller) GetDiagnostics(ctx echo.Context) error {
	var req consolidation.DiagnoseRequest
	if raw := ctx.QueryParam("catalogId"); strings.TrimSpace(raw) != "" {
		id, err := consolidation.ParseID("catalogId", raw)
		if err != nil {
			return c.HandleError(ctx, err)
		}
		req.CatalogID = id
	}

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	report, err := c.Engine.Diagnose(reqCtx, req)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, report)
}

// ListAudit handles GET /api/v1/audit
func (c *Controller) ListAudit(ctx echo.Context) error {
	var filter repository.AuditFilter

	switch kind := entities.AuditKind(strings.ToLower(strings.TrimSpace(ctx.QueryParam("kind")))); kind {
	case "":
	case entities.AuditMerge, entities.AuditBestAssetSet:
		filter.Kind = kind
	default:
		return c.HandleError(ctx, errors.Newf("unknown audit kind %q", ctx.QueryParam("kind")).
			Component("api").
			Category(errors.CategoryValidation).
			Context("reason", reasonBadKind).
			Build())
	}

	if raw := ctx.QueryParam("entityId"); strings.TrimSpace(raw) != "" {
		id, err := consolidation.ParseID("entityId", raw)
		if err != nil {
			return c.HandleError(ctx, err)
		}
		filter.EntityID = id
	}

	limit, err := queryInt(ctx, "limit", defaultPageSize)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	filter.Limit = max(1, min(limit, maxPageSize))

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	entries, err := c.repos.Audit.List(reqCtx, filter)
	if err != nil {
		return c.HandleError(ctx, readFailure("list audit", err))
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"entries": nonNil(entries),
		"count":   len(entries),
	})
}
