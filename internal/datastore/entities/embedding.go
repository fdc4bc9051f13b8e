package entities

import "time"

// SimilarityIndexRow holds the feature vector used for visual matching of one
// catalog entry. The vector is owned by the similarity service and treated as
// opaque bytes here.
type SimilarityIndexRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CatalogID int64     `gorm:"column:pk_catalog_id;not null;uniqueIndex:uq_catalog_embeddings_catalog" json:"catalogId"`
	Embedding []byte    `gorm:"column:embedding" json:"-"`
	Model     string    `gorm:"column:model;type:varchar(100)" json:"model,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for GORM.
func (SimilarityIndexRow) TableName() string {
	return "catalog_embeddings"
}
