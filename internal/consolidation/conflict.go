package consolidation

import (
	"context"

	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

// ConflictAction is the outcome of resolving an auxiliary row conflict.
type ConflictAction string

const (
	ActionDeleted    ConflictAction = "deleted"
	ActionNoConflict ConflictAction = "no_conflict"
	ActionSkipped    ConflictAction = "skipped"
)

// Resolution is what a ConflictResolver did.
type Resolution struct {
	Action ConflictAction `json:"action"`
	Reason string         `json:"reason,omitempty"`
}

// ConflictResolver decides what happens when moving the loser's auxiliary
// row to the winner would violate the table's per-entity uniqueness.
// Expected conflicts are reported through the Resolution, never as errors.
type ConflictResolver interface {
	Resolve(ctx context.Context, tx *gorm.DB, table string, key, winner, loser int64) (Resolution, error)
}

// AuxTable is an auxiliary table holding at most one row per catalog entry.
type AuxTable interface {
	Name() string
	Repoint(ctx context.Context, tx *gorm.DB, from, to int64) (int64, error)
	Exists(ctx context.Context, tx *gorm.DB, owner int64) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, owner int64) (int64, error)
}

// similarityTable adapts the similarity repository to AuxTable.
type similarityTable struct{}

// SimilarityTable is the AuxTable for catalog_embeddings.
func SimilarityTable() AuxTable { return similarityTable{} }

func (similarityTable) Name() string { return repository.TableEmbeddings }

func (similarityTable) Repoint(ctx context.Context, tx *gorm.DB, from, to int64) (int64, error) {
	return repository.NewSimilarityRepository(tx).Repoint(ctx, from, to)
}

func (similarityTable) Exists(ctx context.Context, tx *gorm.DB, owner int64) (bool, error) {
	return repository.NewSimilarityRepository(tx).ExistsForCatalog(ctx, owner)
}

func (similarityTable) Delete(ctx context.Context, tx *gorm.DB, owner int64) (int64, error) {
	return repository.NewSimilarityRepository(tx).DeleteByCatalog(ctx, owner)
}

// DiscardLoser keeps the winner's row and deletes the loser's.
type DiscardLoser struct {
	tables map[string]AuxTable
}

// NewDiscardLoser creates the resolver for the given tables.
func NewDiscardLoser(tables ...AuxTable) *DiscardLoser {
	d := &DiscardLoser{tables: make(map[string]AuxTable, len(tables))}
	for _, t := range tables {
		d.tables[t.Name()] = t
	}
	return d
}

// Resolve deletes the loser's row when both sides own one.
func (d *DiscardLoser) Resolve(ctx context.Context, tx *gorm.DB, table string, key, winner, loser int64) (Resolution, error) {
	t, ok := d.tables[table]
	if !ok {
		return Resolution{}, errors.Newf("no conflict policy registered for table %q", table).
			Component(component).
			Category(errors.CategoryConflict).
			Context("key", key).
			Build()
	}

	winnerHas, err := t.Exists(ctx, tx, winner)
	if err != nil {
		return Resolution{}, err
	}
	if !winnerHas {
		return Resolution{Action: ActionNoConflict, Reason: "winner owns no row"}, nil
	}

	loserHas, err := t.Exists(ctx, tx, loser)
	if err != nil {
		return Resolution{}, err
	}
	if !loserHas {
		return Resolution{Action: ActionSkipped, Reason: "loser owns no row"}, nil
	}

	if _, err := t.Delete(ctx, tx, loser); err != nil {
		return Resolution{}, err
	}
	return Resolution{Action: ActionDeleted, Reason: "winner row kept"}, nil
}
