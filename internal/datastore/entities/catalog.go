package entities

import "time"

// CatalogEntity is one individually identified animal.
// FirstSighting, LastSighting and TotalSightings are derived from the owned
// mantas and are only written by aggregate recomputation.
type CatalogEntity struct {
	ID   int64  `gorm:"column:pk_catalog_id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;type:varchar(255)" json:"name"`

	FirstSighting  *time.Time `gorm:"column:first_sighting" json:"firstSighting"`
	LastSighting   *time.Time `gorm:"column:last_sighting" json:"lastSighting"`
	TotalSightings int        `gorm:"column:total_sightings;not null;default:0" json:"totalSightings"`

	// Best pointers, one per canonical view. No FK constraint: the engine
	// keeps them consistent with the photo flags.
	BestVentralPhotoID *int64 `gorm:"column:best_cat_ventral_id;index" json:"bestVentralPhotoId"`
	BestDorsalPhotoID  *int64 `gorm:"column:best_cat_dorsal_id;index" json:"bestDorsalPhotoId"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for GORM.
func (CatalogEntity) TableName() string {
	return "catalog"
}

// BestPhotoID returns the pointer for view.
func (c *CatalogEntity) BestPhotoID(view View) *int64 {
	switch view {
	case ViewVentral:
		return c.BestVentralPhotoID
	case ViewDorsal:
		return c.BestDorsalPhotoID
	default:
		return nil
	}
}
