package entities

import "time"

// Sighting is one observation event. Mantas observed during it reference it.
type Sighting struct {
	ID           int64      `gorm:"column:pk_sighting_id;primaryKey;autoIncrement" json:"id"`
	SightingDate *time.Time `gorm:"column:sighting_date;index" json:"sightingDate"`
	Location     string     `gorm:"column:location;type:varchar(255)" json:"location,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for GORM.
func (Sighting) TableName() string {
	return "sightings"
}
