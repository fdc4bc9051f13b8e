// Package consolidation keeps the catalog's best-photo selection consistent
// and merges duplicate catalog entries.
//
// The Engine is the entry point. It validates requests, serializes
// conflicting callers with an in-process lock set plus database row locks,
// and runs every operation in one transaction that is retried as a whole on
// busy or deadlock errors:
//
//	engine := consolidation.New(db,
//	    consolidation.WithLogger(log.Module("consolidation")),
//	    consolidation.WithMetrics(m.Consolidation),
//	)
//	summary, err := engine.Merge(ctx, consolidation.MergeRequest{IDA: 47, IDB: 12})
//
// Errors carry a Kind (see KindOf) that callers map to their own taxonomy.
// A merge that collides on an auxiliary per-entity table is not an error; the
// ConflictResolver's decision is reported in the MergeSummary.
package consolidation
