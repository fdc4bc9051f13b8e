package entities

import "time"

// Manta is one observed individual within one sighting, owned by exactly one
// catalog entry at a time.
type Manta struct {
	ID         int64  `gorm:"column:pk_manta_id;primaryKey;autoIncrement" json:"id"`
	CatalogID  int64  `gorm:"column:fk_catalog_id;not null;index:idx_mantas_catalog" json:"catalogId"`
	SightingID *int64 `gorm:"column:fk_sighting_id;index:idx_mantas_sighting" json:"sightingId"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Catalog  *CatalogEntity `gorm:"foreignKey:CatalogID;references:ID" json:"-"`
	Sighting *Sighting      `gorm:"foreignKey:SightingID;references:ID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName returns the table name for GORM.
func (Manta) TableName() string {
	return "mantas"
}
