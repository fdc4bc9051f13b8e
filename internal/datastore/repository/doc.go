// Package repository provides data access for the manta catalog.
//
// # Architecture
//
// Each aggregate has an interface (catalog.go, manta.go, photo.go, ...) and
// an unexported GORM implementation (*_impl.go). Repositories never open
// transactions themselves. Callers that need atomicity open one and rebind:
//
//	err := db.Transaction(func(tx *gorm.DB) error {
//	    repos := repos.WithTx(tx)
//	    if _, err := repos.Mantas.Reparent(ctx, secondary, primary); err != nil {
//	        return err
//	    }
//	    ...
//	})
//
// # Ownership scope
//
// A photo "belongs" to a catalog entry when its denormalized fk_catalog_id
// names the entry or when its manta is owned by the entry. Flag clearing and
// listing use this wider scope so a drifted denormalized reference can never
// hide a flagged photo.
//
// # Errors
//
// Lookups return the sentinel errors in errors.go instead of
// gorm.ErrRecordNotFound. Everything else is returned as-is for the caller to
// classify.
package repository
