package consolidation

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/logger"
	"github.com/mantamatcher/catalogcore/internal/observability/metrics"
)

const defaultDiagnosticsTTL = 30 * time.Second

// Engine runs best-photo selection and merges against one database.
type Engine struct {
	db    *gorm.DB
	repos *repository.Repositories

	selector *BestAssetSelector
	merger   *IdentityMerger
	audit    *AuditLog

	locks   *lockset
	retry   retryPolicy
	metrics *metrics.ConsolidationMetrics
	log     logger.Logger

	auditLog    logger.Logger
	strictAudit bool
	resolver    ConflictResolver
	auxTables   []AuxTable

	diagnosticsTTL time.Duration
	reports        *gocache.Cache

	newOperationID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithAuditLogger sets the logger that receives failed audit appends.
// Defaults to the engine logger's "audit" submodule.
func WithAuditLogger(l logger.Logger) Option {
	return func(e *Engine) { e.auditLog = l }
}

// WithMetrics records operation metrics.
func WithMetrics(m *metrics.ConsolidationMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithStrictAudit makes a failed audit append fail the operation.
func WithStrictAudit(strict bool) Option {
	return func(e *Engine) { e.strictAudit = strict }
}

// WithRetry overrides how often a transaction is retried after busy or
// deadlock errors and the base backoff between attempts.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(e *Engine) {
		if maxRetries >= 0 {
			e.retry.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			e.retry.baseDelay = baseDelay
		}
	}
}

// WithDiagnosticsTTL sets how long diagnostics reports are cached. Zero
// disables caching.
func WithDiagnosticsTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.diagnosticsTTL = ttl }
}

// WithConflictResolver replaces the DiscardLoser policy.
func WithConflictResolver(r ConflictResolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithAuxTables replaces the auxiliary tables moved during merges.
func WithAuxTables(tables ...AuxTable) Option {
	return func(e *Engine) { e.auxTables = tables }
}

// New creates an Engine over db.
func New(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		db:             db,
		repos:          repository.New(db),
		locks:          newLockset(),
		retry:          defaultRetryPolicy(),
		log:            logger.NewDiscardLogger(),
		diagnosticsTTL: defaultDiagnosticsTTL,
		newOperationID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.auditLog == nil {
		e.auditLog = e.log.Module("audit")
	}
	e.audit = NewAuditLog(e.strictAudit, e.auditLog, e.metrics)
	e.selector = NewBestAssetSelector(e.audit)
	e.merger = NewIdentityMerger(e.resolver, e.audit, e.auxTables...)
	if e.diagnosticsTTL > 0 {
		// No janitor goroutine; expired reports are dropped on read.
		e.reports = gocache.New(e.diagnosticsTTL, 0)
	}
	return e
}

// SetBest assigns or clears the best photo of an entity for one view.
func (e *Engine) SetBest(ctx context.Context, req SetBestRequest) (SetBestResult, error) {
	start := time.Now()
	result, err := e.setBest(ctx, req)
	e.finish(metrics.OpSetBest, start, err)
	if err != nil {
		e.log.WithContext(ctx).Debug("set best failed",
			logger.String("entity_kind", string(req.EntityKind)),
			logger.Int64("entity_id", req.EntityID),
			logger.String("view", string(req.View)),
			logger.String("kind", string(KindOf(err))),
			logger.Error(err))
		return SetBestResult{}, err
	}

	e.log.WithContext(ctx).Info("best photo set",
		logger.String("operation_id", result.OperationID),
		logger.String("entity_kind", string(result.EntityKind)),
		logger.Int64("entity_id", result.EntityID),
		logger.String("view", string(result.View)),
		logger.OptionalInt64("previous_photo_id", result.PreviousPhotoID),
		logger.OptionalInt64("new_photo_id", result.NewPhotoID))
	return result, nil
}

func (e *Engine) setBest(ctx context.Context, req SetBestRequest) (SetBestResult, error) {
	if err := req.Validate(); err != nil {
		return SetBestResult{}, err
	}

	release, err := e.locks.Acquire(ctx, req.lockKey())
	if err != nil {
		return SetBestResult{}, storageFailure("set best", err)
	}
	defer release()

	operationID := e.newOperationID()
	var result SetBestResult
	err = e.inTx(ctx, metrics.OpSetBest, func(tx *gorm.DB) error {
		r, err := e.selector.SetBest(ctx, tx, operationID, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return SetBestResult{}, storageFailure("set best", err)
	}
	return result, nil
}

// Merge folds the larger of the two ids into the smaller.
func (e *Engine) Merge(ctx context.Context, req MergeRequest) (MergeSummary, error) {
	start := time.Now()
	summary, err := e.merge(ctx, req)
	e.finish(metrics.OpMerge, start, err)
	if err != nil {
		e.log.WithContext(ctx).Debug("merge failed",
			logger.Int64("id_a", req.IDA),
			logger.Int64("id_b", req.IDB),
			logger.String("kind", string(KindOf(err))),
			logger.Error(err))
		return MergeSummary{}, err
	}

	e.metrics.RecordRowsMoved(metrics.RowsMantas, summary.MantasMoved)
	e.metrics.RecordRowsMoved(metrics.RowsPhotosDirect, summary.PhotosMovedDirect)
	e.metrics.RecordRowsMoved(metrics.RowsPhotosViaManta, summary.PhotosMovedViaManta)
	e.metrics.RecordRowsMoved(metrics.RowsPhotoFlagsCleared, summary.FlagsCleared)
	e.metrics.RecordRowsMoved(metrics.RowsForeignPointers, summary.ForeignPointersCleared)
	for _, o := range summary.AuxOutcomes {
		switch o.Action {
		case string(ActionDeleted), string(ActionNoConflict), string(ActionSkipped):
			e.metrics.RecordConflict(o.Table, o.Action)
		}
	}

	e.log.WithContext(ctx).Info("catalog entries merged",
		logger.String("operation_id", summary.OperationID),
		logger.Int64("primary_id", summary.PrimaryID),
		logger.Int64("secondary_id", summary.SecondaryID),
		logger.Int64("mantas_moved", summary.MantasMoved),
		logger.Int64("photos_moved", summary.PhotosMoved),
		logger.Int64("aux_rows_resolved", summary.AuxRowsResolved),
		logger.Bool("secondary_deleted", summary.SecondaryDeleted))
	return summary, nil
}

func (e *Engine) merge(ctx context.Context, req MergeRequest) (MergeSummary, error) {
	if err := req.Validate(); err != nil {
		return MergeSummary{}, err
	}
	primary, secondary := req.Normalize()

	release, err := e.locks.Acquire(ctx, catalogKey(primary), catalogKey(secondary))
	if err != nil {
		return MergeSummary{}, storageFailure("merge", err)
	}
	defer release()

	operationID := e.newOperationID()
	var summary MergeSummary
	err = e.inTx(ctx, metrics.OpMerge, func(tx *gorm.DB) error {
		s, err := e.merger.Merge(ctx, tx, operationID, req)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		return MergeSummary{}, storageFailure("merge", err)
	}
	return summary, nil
}

// inTx runs fn in a transaction, retrying the whole transaction on busy or
// deadlock errors. A context cancelled while fn runs rolls back.
func (e *Engine) inTx(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	return e.retry.run(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := fn(tx); err != nil {
				return err
			}
			return ctx.Err()
		})
	}, func(attempt int, err error) {
		e.metrics.RecordRetry(operation)
		e.log.WithContext(ctx).Warn("retrying transaction",
			logger.String("operation", operation),
			logger.Int("attempt", attempt),
			logger.Error(err))
	})
}

// finish records metrics and invalidates cached reports after a mutation.
func (e *Engine) finish(operation string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	e.metrics.RecordOperation(operation, status, time.Since(start))
	if err == nil && e.reports != nil {
		e.reports.Flush()
	}
}

// Repositories exposes the read side for callers that re-fetch after a call.
func (e *Engine) Repositories() *repository.Repositories {
	return e.repos
}
