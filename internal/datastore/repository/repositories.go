package repository

import "gorm.io/gorm"

// Repositories bundles every repository over one database handle.
type Repositories struct {
	Catalogs    CatalogRepository
	Mantas      MantaRepository
	Photos      PhotoRepository
	Sightings   SightingRepository
	Similarity  SimilarityRepository
	Audit       AuditRepository
	Diagnostics DiagnosticsRepository
}

// New creates the repository set over db.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Catalogs:    NewCatalogRepository(db),
		Mantas:      NewMantaRepository(db),
		Photos:      NewPhotoRepository(db),
		Sightings:   NewSightingRepository(db),
		Similarity:  NewSimilarityRepository(db),
		Audit:       NewAuditRepository(db),
		Diagnostics: NewDiagnosticsRepository(db),
	}
}

// WithTx returns a repository set bound to tx.
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return New(tx)
}
