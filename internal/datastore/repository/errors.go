package repository

import "github.com/mantamatcher/catalogcore/internal/errors"

// Sentinel errors for repository operations.
var (
	// ErrCatalogNotFound indicates the requested catalog entry does not exist.
	ErrCatalogNotFound = errors.NewStd("catalog entry not found")

	// ErrMantaNotFound indicates the requested manta does not exist.
	ErrMantaNotFound = errors.NewStd("manta not found")

	// ErrPhotoNotFound indicates the requested photo does not exist.
	ErrPhotoNotFound = errors.NewStd("photo not found")

	// ErrSimilarityRowNotFound indicates no similarity row exists for the catalog entry.
	ErrSimilarityRowNotFound = errors.NewStd("similarity row not found")
)
