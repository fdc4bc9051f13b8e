package consolidation

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

// SetBestRequest selects (or clears, with a nil PhotoID) the best photo of an
// entity for one view.
type SetBestRequest struct {
	EntityKind EntityKind    `json:"entityKind"`
	EntityID   int64         `json:"entityId"`
	View       entities.View `json:"view"`
	PhotoID    *int64        `json:"photoId"`
}

// Validate checks the request shape without touching the store.
func (r SetBestRequest) Validate() error {
	switch r.EntityKind {
	case EntityManta, EntityCatalog:
	default:
		return invalidArgument(ReasonBadEntityKind, "invalid entity kind %q: must be manta or catalog", r.EntityKind)
	}
	if r.EntityID <= 0 {
		return invalidArgument(ReasonInvalidID, "entityId must be a positive integer, got %d", r.EntityID)
	}
	if r.View != entities.ViewVentral && r.View != entities.ViewDorsal {
		return invalidArgument(ReasonBadView, "invalid view %q: must be ventral or dorsal", r.View)
	}
	if r.PhotoID != nil && *r.PhotoID <= 0 {
		return invalidArgument(ReasonInvalidID, "photoId must be a positive integer or null, got %d", *r.PhotoID)
	}
	return nil
}

func (r SetBestRequest) lockKey() string {
	if r.EntityKind == EntityManta {
		return mantaKey(r.EntityID)
	}
	return catalogKey(r.EntityID)
}

// SetBestResult reports the transition.
type SetBestResult struct {
	OperationID     string        `json:"operationId"`
	EntityKind      EntityKind    `json:"entityKind"`
	EntityID        int64         `json:"entityId"`
	View            entities.View `json:"view"`
	PreviousPhotoID *int64        `json:"previousPhotoId"`
	NewPhotoID      *int64        `json:"newPhotoId"`
}

// BestAssetSelector assigns the single best photo for an (entity, view) pair
// with clear-then-set inside the caller's transaction.
type BestAssetSelector struct {
	audit *AuditLog
}

// NewBestAssetSelector creates a selector appending to audit.
func NewBestAssetSelector(audit *AuditLog) *BestAssetSelector {
	return &BestAssetSelector{audit: audit}
}

// SetBest runs one selection within tx. req must already be valid.
func (s *BestAssetSelector) SetBest(ctx context.Context, tx *gorm.DB, operationID string, req SetBestRequest) (SetBestResult, error) {
	repos := repository.New(tx)
	result := SetBestResult{
		OperationID: operationID,
		EntityKind:  req.EntityKind,
		EntityID:    req.EntityID,
		View:        req.View,
		NewPhotoID:  req.PhotoID,
	}

	var err error
	if req.EntityKind == EntityCatalog {
		result.PreviousPhotoID, err = s.setCatalogBest(ctx, repos, req)
	} else {
		result.PreviousPhotoID, err = s.setMantaBest(ctx, repos, req)
	}
	if err != nil {
		return SetBestResult{}, err
	}

	err = s.audit.Append(ctx, tx, AuditRecord{
		OperationID: operationID,
		Kind:        entities.AuditBestAssetSet,
		EntityKind:  req.EntityKind,
		EntityID:    &req.EntityID,
		Payload:     result,
	})
	if err != nil {
		return SetBestResult{}, err
	}
	return result, nil
}

func (s *BestAssetSelector) setCatalogBest(ctx context.Context, repos *repository.Repositories, req SetBestRequest) (*int64, error) {
	locked, err := repos.Catalogs.LockForUpdate(ctx, req.EntityID)
	if err != nil {
		return nil, err
	}
	if len(locked) == 0 {
		return nil, notFound(ReasonEntityMissing, "catalog entry %d not found", req.EntityID)
	}
	previous := locked[0].BestPhotoID(req.View)

	var repairRef bool
	if req.PhotoID != nil {
		photo, err := s.lockPhoto(ctx, repos, *req.PhotoID)
		if err != nil {
			return nil, err
		}
		owned, viaMantaOnly, err := catalogOwns(ctx, repos, req.EntityID, photo)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, notFound(ReasonPhotoNotOwned,
				"photo %d does not belong to catalog entry %d", photo.ID, req.EntityID)
		}
		repairRef = viaMantaOnly
	}

	// Photos owned here only through a manta may still be another entry's
	// pointer target; that pointer goes with the flag.
	flagged, err := repos.Photos.FlaggedForCatalog(ctx, req.EntityID, req.View)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Photos.ClearCatalogBest(ctx, req.EntityID, req.View); err != nil {
		return nil, err
	}
	if _, err := repos.Catalogs.ClearPointersTo(ctx, flagged, req.EntityID, req.View); err != nil {
		return nil, err
	}
	if req.PhotoID != nil {
		if repairRef {
			if err := repos.Photos.SetCatalogRef(ctx, *req.PhotoID, req.EntityID); err != nil {
				return nil, err
			}
		}
		if err := repos.Photos.MarkCatalogBest(ctx, *req.PhotoID, req.View); err != nil {
			return nil, err
		}
		// The photo now belongs here only; pointers elsewhere would dangle.
		if _, err := repos.Catalogs.ClearPointersTo(ctx, []int64{*req.PhotoID}, req.EntityID); err != nil {
			return nil, err
		}
	}
	if err := repos.Catalogs.SetBestPointer(ctx, req.EntityID, req.View, req.PhotoID); err != nil {
		return nil, err
	}
	return previous, nil
}

func (s *BestAssetSelector) setMantaBest(ctx context.Context, repos *repository.Repositories, req SetBestRequest) (*int64, error) {
	if _, err := repos.Mantas.LockForUpdate(ctx, req.EntityID); err != nil {
		if errors.Is(err, repository.ErrMantaNotFound) {
			return nil, notFound(ReasonEntityMissing, "manta %d not found", req.EntityID)
		}
		return nil, err
	}

	if req.PhotoID != nil {
		photo, err := s.lockPhoto(ctx, repos, *req.PhotoID)
		if err != nil {
			return nil, err
		}
		if photo.MantaID != req.EntityID {
			return nil, notFound(ReasonPhotoNotOwned,
				"photo %d does not belong to manta %d", photo.ID, req.EntityID)
		}
	}

	flagged, err := repos.Photos.FlaggedForManta(ctx, req.EntityID, req.View)
	if err != nil {
		return nil, err
	}
	var previous *int64
	if len(flagged) > 0 {
		previous = &flagged[0]
	}

	if _, err := repos.Photos.ClearMantaBest(ctx, req.EntityID, req.View); err != nil {
		return nil, err
	}
	if req.PhotoID != nil {
		if err := repos.Photos.MarkMantaBest(ctx, *req.PhotoID, req.View); err != nil {
			return nil, err
		}
	}
	return previous, nil
}

func (s *BestAssetSelector) lockPhoto(ctx context.Context, repos *repository.Repositories, id int64) (*entities.Photo, error) {
	photo, err := repos.Photos.LockForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return nil, notFound(ReasonPhotoMissing, "photo %d not found", id)
		}
		return nil, err
	}
	return photo, nil
}

// catalogOwns reports whether photo belongs to catalogID directly or through
// its manta. viaMantaOnly is set when the denormalized reference disagrees.
func catalogOwns(ctx context.Context, repos *repository.Repositories, catalogID int64, photo *entities.Photo) (owned, viaMantaOnly bool, err error) {
	if photo.CatalogID != nil && *photo.CatalogID == catalogID {
		return true, false, nil
	}
	manta, err := repos.Mantas.GetByID(ctx, photo.MantaID)
	if err != nil {
		if errors.Is(err, repository.ErrMantaNotFound) {
			return false, false, nil
		}
		return false, false, err
	}
	if manta.CatalogID == catalogID {
		return true, true, nil
	}
	return false, false, nil
}
