package consolidation

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/observability/metrics"
)

// DiagnoseRequest scopes a report. A zero CatalogID scans everything.
type DiagnoseRequest struct {
	CatalogID int64 `json:"catalogId,omitempty"`
}

// Pointer problems.
const (
	PointerDangling  = "dangling"
	PointerForeign   = "foreign"
	PointerUnflagged = "unflagged"
)

// FlagViolation is an owner with more than one photo flagged best in a view.
type FlagViolation struct {
	OwnerID  int64         `json:"ownerId"`
	View     entities.View `json:"view"`
	PhotoIDs []int64       `json:"photoIds"`
}

// PointerViolation is a catalog pointer that does not resolve to a flagged
// photo of its own entry.
type PointerViolation struct {
	CatalogID int64         `json:"catalogId"`
	View      entities.View `json:"view"`
	PhotoID   int64         `json:"photoId"`
	Problem   string        `json:"problem"`
}

// DriftViolation is a photo whose denormalized reference disagrees with its manta.
type DriftViolation struct {
	PhotoID        int64  `json:"photoId"`
	MantaID        int64  `json:"mantaId"`
	PhotoCatalogID *int64 `json:"photoCatalogId"`
	MantaCatalogID int64  `json:"mantaCatalogId"`
}

// SimilarityViolation is a catalog entry owning several similarity rows.
type SimilarityViolation struct {
	CatalogID int64 `json:"catalogId"`
	Rows      int64 `json:"rows"`
}

// Coverage counts best selection per view.
type Coverage struct {
	CatalogsWithPhotos  int64 `json:"catalogsWithPhotos"`
	CatalogsWithBest    int64 `json:"catalogsWithBest"`
	CatalogsMissingBest int64 `json:"catalogsMissingBest"`
}

// Report is a read-only consistency report.
type Report struct {
	GeneratedAt             time.Time                  `json:"generatedAt"`
	CatalogID               int64                      `json:"catalogId,omitempty"`
	Healthy                 bool                       `json:"healthy"`
	DuplicateCatalogBest    []FlagViolation            `json:"duplicateCatalogBest"`
	DuplicateMantaBest      []FlagViolation            `json:"duplicateMantaBest"`
	PointerViolations       []PointerViolation         `json:"pointerViolations"`
	DriftedPhotos           []DriftViolation           `json:"driftedPhotos"`
	DuplicateSimilarityRows []SimilarityViolation      `json:"duplicateSimilarityRows"`
	Coverage                map[entities.View]Coverage `json:"coverage"`
}

// Diagnose scans the catalog, or one entry, for best-state inconsistencies.
// Reports are cached until the next successful mutation or the TTL.
func (e *Engine) Diagnose(ctx context.Context, req DiagnoseRequest) (*Report, error) {
	start := time.Now()
	report, err := e.diagnose(ctx, req)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	e.metrics.RecordOperation(metrics.OpDiagnose, status, time.Since(start))
	return report, err
}

func (e *Engine) diagnose(ctx context.Context, req DiagnoseRequest) (*Report, error) {
	if req.CatalogID < 0 {
		return nil, invalidArgument(ReasonInvalidID, "catalogId must be a positive integer, got %d", req.CatalogID)
	}

	key := fmt.Sprintf("report:%d", req.CatalogID)
	if e.reports != nil {
		if cached, ok := e.reports.Get(key); ok {
			return cached.(*Report), nil
		}
	}

	if req.CatalogID > 0 {
		ok, err := e.repos.Catalogs.Exists(ctx, req.CatalogID)
		if err != nil {
			return nil, storageFailure("diagnose", err)
		}
		if !ok {
			return nil, notFound(ReasonEntityMissing, "catalog entry %d not found", req.CatalogID)
		}
	}

	report, err := buildReport(ctx, e.repos.Diagnostics, req.CatalogID)
	if err != nil {
		return nil, storageFailure("diagnose", err)
	}
	if e.reports != nil {
		e.reports.Set(key, report, gocache.DefaultExpiration)
	}
	return report, nil
}

func buildReport(ctx context.Context, diag repository.DiagnosticsRepository, catalogID int64) (*Report, error) {
	report := &Report{
		GeneratedAt:             time.Now().UTC(),
		CatalogID:               catalogID,
		DuplicateCatalogBest:    []FlagViolation{},
		DuplicateMantaBest:      []FlagViolation{},
		PointerViolations:       []PointerViolation{},
		DriftedPhotos:           []DriftViolation{},
		DuplicateSimilarityRows: []SimilarityViolation{},
		Coverage:                make(map[entities.View]Coverage, len(entities.CanonicalViews)),
	}

	for _, view := range entities.CanonicalViews {
		flags, err := diag.CatalogFlags(ctx, view, catalogID)
		if err != nil {
			return nil, err
		}
		report.DuplicateCatalogBest = append(report.DuplicateCatalogBest, duplicates(flags, view)...)

		flags, err = diag.MantaFlags(ctx, view, catalogID)
		if err != nil {
			return nil, err
		}
		report.DuplicateMantaBest = append(report.DuplicateMantaBest, duplicates(flags, view)...)

		targets, err := diag.PointerTargets(ctx, view, catalogID)
		if err != nil {
			return nil, err
		}
		for i := range targets {
			if problem := pointerProblem(&targets[i]); problem != "" {
				report.PointerViolations = append(report.PointerViolations, PointerViolation{
					CatalogID: targets[i].CatalogID,
					View:      view,
					PhotoID:   targets[i].PhotoID,
					Problem:   problem,
				})
			}
		}

		cov, err := diag.Coverage(ctx, view, catalogID)
		if err != nil {
			return nil, err
		}
		report.Coverage[view] = Coverage(cov)
	}

	drifted, err := diag.DriftedPhotos(ctx, catalogID)
	if err != nil {
		return nil, err
	}
	for _, d := range drifted {
		report.DriftedPhotos = append(report.DriftedPhotos, DriftViolation(d))
	}

	dups, err := diag.DuplicateSimilarityRows(ctx, catalogID)
	if err != nil {
		return nil, err
	}
	for _, d := range dups {
		report.DuplicateSimilarityRows = append(report.DuplicateSimilarityRows,
			SimilarityViolation{CatalogID: d.CatalogID, Rows: d.Count})
	}

	report.Healthy = len(report.DuplicateCatalogBest) == 0 &&
		len(report.DuplicateMantaBest) == 0 &&
		len(report.PointerViolations) == 0 &&
		len(report.DriftedPhotos) == 0 &&
		len(report.DuplicateSimilarityRows) == 0
	return report, nil
}

// duplicates groups flags, which arrive ordered by owner, and keeps owners
// with more than one photo.
func duplicates(flags []repository.FlaggedPhoto, view entities.View) []FlagViolation {
	var out []FlagViolation
	for i := 0; i < len(flags); {
		j := i
		for j < len(flags) && flags[j].OwnerID == flags[i].OwnerID {
			j++
		}
		if j-i > 1 {
			ids := make([]int64, 0, j-i)
			for _, f := range flags[i:j] {
				ids = append(ids, f.PhotoID)
			}
			out = append(out, FlagViolation{OwnerID: flags[i].OwnerID, View: view, PhotoIDs: ids})
		}
		i = j
	}
	return out
}

func pointerProblem(t *repository.PointerTarget) string {
	if t.FoundID == nil {
		return PointerDangling
	}
	ownsDirect := t.PhotoCatalogID != nil && *t.PhotoCatalogID == t.CatalogID
	ownsViaManta := t.MantaCatalogID != nil && *t.MantaCatalogID == t.CatalogID
	if !ownsDirect && !ownsViaManta {
		return PointerForeign
	}
	if t.Flagged == nil || !*t.Flagged {
		return PointerUnflagged
	}
	return ""
}
