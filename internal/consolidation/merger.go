package consolidation

import (
	"context"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
)

// MergeRequest names two catalog entries believed to be the same individual.
// Argument order does not matter: the smaller id always survives.
type MergeRequest struct {
	IDA                       int64 `json:"idA"`
	IDB                       int64 `json:"idB"`
	DeleteSecondaryIfDetached bool  `json:"deleteSecondaryIfDetached"`
}

// Validate checks the request shape without touching the store.
func (r MergeRequest) Validate() error {
	if r.IDA <= 0 || r.IDB <= 0 {
		return invalidArgument(ReasonInvalidID, "catalog ids must be positive integers, got %d and %d", r.IDA, r.IDB)
	}
	if r.IDA == r.IDB {
		return invalidArgument(ReasonSameID, "cannot merge catalog entry %d into itself", r.IDA)
	}
	return nil
}

// Normalize returns (primary, secondary) = (min, max).
func (r MergeRequest) Normalize() (primary, secondary int64) {
	return min(r.IDA, r.IDB), max(r.IDA, r.IDB)
}

// AuxOutcome records what happened to one auxiliary table.
type AuxOutcome struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	Rows   int64  `json:"rows"`
	Reason string `json:"reason,omitempty"`
}

// Auxiliary outcome actions besides the ConflictResolver's.
const (
	AuxMoved  = "moved"
	AuxAbsent = "absent"
)

// AggregateSummary is the recomputed sighting summary of the primary.
type AggregateSummary struct {
	FirstSighting  *time.Time `json:"firstSighting"`
	LastSighting   *time.Time `json:"lastSighting"`
	TotalSightings int        `json:"totalSightings"`
}

// MergeSummary reports a completed merge.
type MergeSummary struct {
	OperationID            string           `json:"operationId"`
	PrimaryID              int64            `json:"primaryId"`
	SecondaryID            int64            `json:"secondaryId"`
	MantasMoved            int64            `json:"mantasMoved"`
	PhotosMoved            int64            `json:"photosMoved"`
	PhotosMovedDirect      int64            `json:"photosMovedDirect"`
	PhotosMovedViaManta    int64            `json:"photosMovedViaManta"`
	FlagsCleared           int64            `json:"flagsCleared"`
	ForeignPointersCleared int64            `json:"foreignPointersCleared"`
	AuxRowsResolved        int64            `json:"auxRowsResolved"`
	AuxOutcomes            []AuxOutcome     `json:"auxOutcomes"`
	Aggregates             AggregateSummary `json:"aggregates"`
	SecondaryDeleted       bool             `json:"secondaryDeleted"`
}

// IdentityMerger folds a secondary catalog entry into a primary one.
type IdentityMerger struct {
	resolver ConflictResolver
	aux      []AuxTable
	audit    *AuditLog
}

// NewIdentityMerger creates a merger. With no aux tables the similarity
// table is used.
func NewIdentityMerger(resolver ConflictResolver, audit *AuditLog, aux ...AuxTable) *IdentityMerger {
	if len(aux) == 0 {
		aux = []AuxTable{SimilarityTable()}
	}
	if resolver == nil {
		resolver = NewDiscardLoser(aux...)
	}
	return &IdentityMerger{resolver: resolver, aux: aux, audit: audit}
}

// Merge runs the full merge within tx. req must already be valid.
func (m *IdentityMerger) Merge(ctx context.Context, tx *gorm.DB, operationID string, req MergeRequest) (MergeSummary, error) {
	repos := repository.New(tx)
	primary, secondary := req.Normalize()
	summary := MergeSummary{
		OperationID: operationID,
		PrimaryID:   primary,
		SecondaryID: secondary,
		AuxOutcomes: []AuxOutcome{},
	}

	// Lock both rows, smaller id first, and confirm they exist.
	locked, err := repos.Catalogs.LockForUpdate(ctx, primary, secondary)
	if err != nil {
		return summary, err
	}
	if err := requireBoth(locked, primary, secondary); err != nil {
		return summary, err
	}
	keep := pointerIDs(&locked[0])

	// Clear the secondary's best state before anything moves into the
	// primary's namespace.
	if err := repos.Catalogs.ClearBestPointers(ctx, secondary); err != nil {
		return summary, err
	}
	clearedIDs, cleared, err := clearCatalogFlags(ctx, repos, secondary, keep)
	if err != nil {
		return summary, err
	}
	// A cleared photo may sit on a third entry's manta and be its best.
	thirdParty, err := repos.Catalogs.ClearPointersTo(ctx, clearedIDs, primary)
	if err != nil {
		return summary, err
	}
	summary.ForeignPointersCleared = thirdParty
	summary.FlagsCleared += cleared

	if summary.MantasMoved, err = repos.Mantas.Reparent(ctx, secondary, primary); err != nil {
		return summary, err
	}

	if summary.PhotosMovedDirect, err = repos.Photos.ReparentDirect(ctx, secondary, primary); err != nil {
		return summary, err
	}

	// Photos now owned through a manta whose reference names a third entry
	// leave that entry's best state first.
	drifted, err := repos.Photos.DriftedInto(ctx, primary)
	if err != nil {
		return summary, err
	}
	if len(drifted) > 0 {
		ids := make([]int64, 0, len(drifted))
		for i := range drifted {
			ids = append(ids, drifted[i].ID)
		}
		candidates := slices.DeleteFunc(slices.Clone(ids), func(id int64) bool { return slices.Contains(keep, id) })
		n, err := repos.Photos.ClearCatalogBestByIDs(ctx, candidates)
		if err != nil {
			return summary, err
		}
		summary.FlagsCleared += n
		n, err = repos.Catalogs.ClearPointersTo(ctx, ids, primary)
		if err != nil {
			return summary, err
		}
		summary.ForeignPointersCleared += n
	}
	if summary.PhotosMovedViaManta, err = repos.Photos.ReparentViaManta(ctx, primary); err != nil {
		return summary, err
	}
	summary.PhotosMoved = summary.PhotosMovedDirect + summary.PhotosMovedViaManta

	for _, t := range m.aux {
		outcome, err := m.mergeAux(ctx, tx, t, primary, secondary)
		if err != nil {
			return summary, err
		}
		if outcome.Action == AuxMoved || outcome.Action == string(ActionDeleted) {
			summary.AuxRowsResolved += outcome.Rows
		}
		summary.AuxOutcomes = append(summary.AuxOutcomes, outcome)
	}

	if summary.Aggregates, err = recomputeAggregates(ctx, repos, primary); err != nil {
		return summary, err
	}

	mantasLeft, err := repos.Mantas.CountByCatalog(ctx, secondary)
	if err != nil {
		return summary, err
	}
	photosLeft, err := repos.Photos.CountByCatalog(ctx, secondary)
	if err != nil {
		return summary, err
	}
	if req.DeleteSecondaryIfDetached && mantasLeft == 0 && photosLeft == 0 {
		if err := repos.Catalogs.Delete(ctx, secondary); err != nil {
			return summary, err
		}
		summary.SecondaryDeleted = true
	}

	err = m.audit.Append(ctx, tx, AuditRecord{
		OperationID: operationID,
		Kind:        entities.AuditMerge,
		EntityKind:  EntityCatalog,
		EntityID:    &primary,
		PrimaryID:   &primary,
		SecondaryID: &secondary,
		Payload:     summary,
	})
	if err != nil {
		return summary, err
	}
	return summary, nil
}

// mergeAux repoints the secondary's row inside a savepoint and hands a
// unique violation to the resolver.
func (m *IdentityMerger) mergeAux(ctx context.Context, tx *gorm.DB, t AuxTable, primary, secondary int64) (AuxOutcome, error) {
	outcome := AuxOutcome{Table: t.Name()}

	var moved int64
	err := tx.Transaction(func(sp *gorm.DB) error {
		var err error
		moved, err = t.Repoint(ctx, sp, secondary, primary)
		return err
	})
	switch {
	case err == nil && moved > 0:
		outcome.Action, outcome.Rows = AuxMoved, moved
		return outcome, nil
	case err == nil:
		outcome.Action = AuxAbsent
		return outcome, nil
	case !datastore.IsUniqueViolation(err):
		return outcome, err
	}

	res, err := m.resolver.Resolve(ctx, tx, t.Name(), primary, primary, secondary)
	if err != nil {
		return outcome, err
	}
	outcome.Action, outcome.Reason = string(res.Action), res.Reason
	if res.Action == ActionDeleted {
		outcome.Rows = 1
	}
	return outcome, nil
}

func requireBoth(locked []entities.CatalogEntity, primary, secondary int64) error {
	found := make(map[int64]bool, len(locked))
	for i := range locked {
		found[locked[i].ID] = true
	}
	for _, id := range []int64{primary, secondary} {
		if !found[id] {
			return notFound(ReasonEntityMissing, "catalog entry %d not found", id)
		}
	}
	return nil
}

func pointerIDs(entry *entities.CatalogEntity) []int64 {
	var ids []int64
	for _, view := range entities.CanonicalViews {
		if id := entry.BestPhotoID(view); id != nil {
			ids = append(ids, *id)
		}
	}
	return ids
}

// clearCatalogFlags clears catalog best flags on photos belonging to
// catalogID, sparing the photos in keep.
func clearCatalogFlags(ctx context.Context, repos *repository.Repositories, catalogID int64, keep []int64) ([]int64, int64, error) {
	var ids []int64
	for _, view := range entities.CanonicalViews {
		flagged, err := repos.Photos.FlaggedForCatalog(ctx, catalogID, view)
		if err != nil {
			return nil, 0, err
		}
		for _, id := range flagged {
			if !slices.Contains(keep, id) && !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	n, err := repos.Photos.ClearCatalogBestByIDs(ctx, ids)
	return ids, n, err
}

// recomputeAggregates derives the sighting summary from the mantas the
// entry owns and stores it.
func recomputeAggregates(ctx context.Context, repos *repository.Repositories, catalogID int64) (AggregateSummary, error) {
	ids, err := repos.Mantas.SightingIDsByCatalog(ctx, catalogID)
	if err != nil {
		return AggregateSummary{}, err
	}
	sightings, err := repos.Sightings.ListByIDs(ctx, ids)
	if err != nil {
		return AggregateSummary{}, err
	}

	agg := AggregateSummary{TotalSightings: len(ids)}
	for i := range sightings {
		d := sightings[i].SightingDate
		if d == nil {
			continue
		}
		if agg.FirstSighting == nil || d.Before(*agg.FirstSighting) {
			agg.FirstSighting = d
		}
		if agg.LastSighting == nil || d.After(*agg.LastSighting) {
			agg.LastSighting = d
		}
	}

	err = repos.Catalogs.UpdateAggregates(ctx, catalogID, repository.Aggregates{
		FirstSighting:  agg.FirstSighting,
		LastSighting:   agg.LastSighting,
		TotalSightings: agg.TotalSightings,
	})
	return agg, err
}
