// Package metrics provides the prometheus collectors for catalogcore.
package metrics

import "time"

// Operation label values.
const (
	OpSetBest  = "set_best"
	OpMerge    = "merge"
	OpDiagnose = "diagnose"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Row kinds moved by a merge.
const (
	RowsMantas            = "mantas"
	RowsPhotosDirect      = "photos_direct"
	RowsPhotosViaManta    = "photos_via_manta"
	RowsPhotoFlagsCleared = "photo_flags_cleared"
	RowsForeignPointers   = "foreign_pointers_cleared"
)

// Default histogram buckets for operation duration: 1ms to ~16s.
const (
	BucketStart1ms = 0.001
	BucketFactor2  = 2
	BucketCount15  = 15
)

// durationSeconds converts d for histogram observation.
func durationSeconds(d time.Duration) float64 {
	return d.Seconds()
}
