package repository

// Table name constants.
const (
	tableCatalog    = "catalog"
	tableMantas     = "mantas"
	tablePhotos     = "photos"
	tableSightings  = "sightings"
	tableEmbeddings = "catalog_embeddings"
	tableAuditLog   = "catalog_audit_log"
)

// TableEmbeddings is the auxiliary per-entity table moved during merges.
const TableEmbeddings = tableEmbeddings
