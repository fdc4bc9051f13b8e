package entities

import (
	"fmt"
	"strings"
	"time"
)

// View is a photographic angle category.
type View string

const (
	ViewVentral View = "ventral"
	ViewDorsal  View = "dorsal"
	ViewOther   View = "other"
)

// CanonicalViews are the views that carry best-photo selections.
var CanonicalViews = []View{ViewVentral, ViewDorsal}

// ParseView accepts "ventral" or "dorsal", case-insensitively.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewVentral:
		return ViewVentral, nil
	case ViewDorsal:
		return ViewDorsal, nil
	default:
		return "", fmt.Errorf("invalid view %q: must be ventral or dorsal", s)
	}
}

// Photo is an image of one manta. CatalogID is denormalized from the manta.
type Photo struct {
	ID          int64  `gorm:"column:pk_photo_id;primaryKey;autoIncrement" json:"id"`
	MantaID     int64  `gorm:"column:fk_manta_id;not null;index:idx_photos_manta" json:"mantaId"`
	CatalogID   *int64 `gorm:"column:fk_catalog_id;index:idx_photos_catalog" json:"catalogId"`
	View        View   `gorm:"column:photo_view;type:varchar(16);not null;default:other" json:"view"`
	StoragePath string `gorm:"column:storage_path;type:varchar(1024)" json:"storagePath,omitempty"`

	IsBestCatalogVentral bool `gorm:"column:is_best_catalog_ventral_photo;not null;default:false" json:"isBestCatalogVentral"`
	IsBestCatalogDorsal  bool `gorm:"column:is_best_catalog_dorsal_photo;not null;default:false" json:"isBestCatalogDorsal"`
	IsBestMantaVentral   bool `gorm:"column:is_best_manta_ventral_photo;not null;default:false" json:"isBestMantaVentral"`
	IsBestMantaDorsal    bool `gorm:"column:is_best_manta_dorsal_photo;not null;default:false" json:"isBestMantaDorsal"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Manta *Manta `gorm:"foreignKey:MantaID;references:ID" json:"-"`
}

// TableName returns the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}

// Best flag column names. The engine updates flags by column so one code path
// serves both views.
const (
	ColBestCatalogVentral = "is_best_catalog_ventral_photo"
	ColBestCatalogDorsal  = "is_best_catalog_dorsal_photo"
	ColBestMantaVentral   = "is_best_manta_ventral_photo"
	ColBestMantaDorsal    = "is_best_manta_dorsal_photo"
)

// CatalogBestColumn returns the "best for catalog" flag column for view.
func CatalogBestColumn(view View) string {
	if view == ViewDorsal {
		return ColBestCatalogDorsal
	}
	return ColBestCatalogVentral
}

// MantaBestColumn returns the "best for manta" flag column for view.
func MantaBestColumn(view View) string {
	if view == ViewDorsal {
		return ColBestMantaDorsal
	}
	return ColBestMantaVentral
}

// CatalogPointerColumn returns the catalog best-pointer column for view.
func CatalogPointerColumn(view View) string {
	if view == ViewDorsal {
		return "best_cat_dorsal_id"
	}
	return "best_cat_ventral_id"
}
