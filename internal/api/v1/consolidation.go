package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

// MergeBody is the body of POST /catalog/merge.
type MergeBody struct {
	IDA                       FlexibleID `json:"idA"`
	IDB                       FlexibleID `json:"idB"`
	DeleteSecondaryIfDetached bool       `json:"deleteSecondaryIfDetached"`
}

func (b *MergeBody) request() (consolidation.MergeRequest, error) {
	a, err := b.IDA.Int64("idA")
	if err != nil {
		return consolidation.MergeRequest{}, err
	}
	bID, err := b.IDB.Int64("idB")
	if err != nil {
		return consolidation.MergeRequest{}, err
	}
	return consolidation.MergeRequest{IDA: a, IDB: bID, DeleteSecondaryIfDetached: b.DeleteSecondaryIfDetached}, nil
}

// SetBestBody is the body of POST /best-photo.
type SetBestBody struct {
	EntityKind string     `json:"entityKind"`
	EntityID   FlexibleID `json:"entityId"`
	View       string     `json:"view"`
	PhotoID    FlexibleID `json:"photoId"`
}

func (b *SetBestBody) request() (consolidation.SetBestRequest, error) {
	kind, err := consolidation.ParseEntityKind(b.EntityKind)
	if err != nil {
		return consolidation.SetBestRequest{}, err
	}
	id, err := b.EntityID.Int64("entityId")
	if err != nil {
		return consolidation.SetBestRequest{}, err
	}
	view, err := consolidation.ParseView(b.View)
	if err != nil {
		return consolidation.SetBestRequest{}, err
	}
	photo, err := b.PhotoID.OptionalInt64("photoId")
	if err != nil {
		return consolidation.SetBestRequest{}, err
	}
	return consolidation.SetBestRequest{EntityKind: kind, EntityID: id, View: view, PhotoID: photo}, nil
}

// MergeCatalogs handles POST /api/v1/catalog/merge
func (c *Controller) MergeCatalogs(ctx echo.Context) error {
	var body MergeBody
	if err := ctx.Bind(&body); err != nil {
		return c.HandleError(ctx, badBody(err))
	}
	req, err := body.request()
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return c.merge(ctx, req)
}

// SetBestPhoto handles POST /api/v1/best-photo
func (c *Controller) SetBestPhoto(ctx echo.Context) error {
	var body SetBestBody
	if err := ctx.Bind(&body); err != nil {
		return c.HandleError(ctx, badBody(err))
	}
	req, err := body.request()
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return c.setBest(ctx, req)
}

func (c *Controller) merge(ctx echo.Context, req consolidation.MergeRequest) error {
	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	summary, err := c.Engine.Merge(reqCtx, req)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (c *Controller) setBest(ctx echo.Context, req consolidation.SetBestRequest) error {
	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	result, err := c.Engine.SetBest(reqCtx, req)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, result)
}

// Actions accepted by POST /merge-catalogs.
const (
	ActionMerge                 = "merge"
	ActionSetBestCatalogVentral = "set_best_catalog_ventral"
	ActionSetBestCatalogDorsal  = "set_best_catalog_dorsal"
	ActionSetBestCatalogPhoto   = "set_best_catalog_photo"
	ActionSetBestMantaPhoto     = "set_best_manta_photo"
)

// ActionBody is the single entry point body used by older admin tools.
type ActionBody struct {
	Action string `json:"action"`

	PrimaryID                 FlexibleID `json:"primary_pk_catalog_id"`
	SecondaryID               FlexibleID `json:"secondary_pk_catalog_id"`
	DeleteSecondaryIfDetached bool       `json:"delete_secondary_if_detached"`

	CatalogID FlexibleID `json:"pk_catalog_id"`
	MantaID   FlexibleID `json:"pk_manta_id"`
	PhotoID   FlexibleID `json:"pk_photo_id"`
	View      string     `json:"view"`
}

// DispatchAction handles POST /api/v1/merge-catalogs
func (c *Controller) DispatchAction(ctx echo.Context) error {
	var body ActionBody
	if err := ctx.Bind(&body); err != nil {
		return c.HandleError(ctx, badBody(err))
	}

	switch action := strings.ToLower(strings.TrimSpace(body.Action)); action {
	case ActionMerge:
		merge := MergeBody{IDA: body.PrimaryID, IDB: body.SecondaryID, DeleteSecondaryIfDetached: body.DeleteSecondaryIfDetached}
		req, err := merge.request()
		if err != nil {
			return c.HandleError(ctx, err)
		}
		return c.merge(ctx, req)

	case ActionSetBestCatalogVentral, ActionSetBestCatalogDorsal, ActionSetBestCatalogPhoto, ActionSetBestMantaPhoto:
		set := SetBestBody{EntityKind: string(consolidation.EntityCatalog), EntityID: body.CatalogID, View: body.View, PhotoID: body.PhotoID}
		switch action {
		case ActionSetBestCatalogVentral:
			set.View = string(entities.ViewVentral)
		case ActionSetBestCatalogDorsal:
			set.View = string(entities.ViewDorsal)
		case ActionSetBestMantaPhoto:
			set.EntityKind = string(consolidation.EntityManta)
			set.EntityID = body.MantaID
		}
		req, err := set.request()
		if err != nil {
			return c.HandleError(ctx, err)
		}
		return c.setBest(ctx, req)

	default:
		return c.HandleError(ctx, errors.Newf("unknown action %q", body.Action).
			Component("api").
			Category(errors.CategoryValidation).
			Context("reason", reasonBadAction).
			Build())
	}
}
