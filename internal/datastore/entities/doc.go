// Package entities defines the GORM models of the manta catalog.
//
// Table and column names follow the catalog's established schema
// (catalog, mantas, photos, sightings, catalog_embeddings) so the engine can
// run against an existing database as well as a fresh AutoMigrate'd one.
//
// Ownership chain: a Photo belongs to one Manta, a Manta to one catalog
// entry. Photo.CatalogID is a denormalized copy of its Manta's CatalogID kept
// for query speed; it can drift and the merge engine repairs it.
package entities
