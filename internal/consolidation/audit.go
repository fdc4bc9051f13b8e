package consolidation

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/errors"
	"github.com/mantamatcher/catalogcore/internal/logger"
	"github.com/mantamatcher/catalogcore/internal/observability/metrics"
)

// AuditRecord is one audit log append.
type AuditRecord struct {
	OperationID string
	Kind        entities.AuditKind
	EntityKind  EntityKind
	EntityID    *int64
	PrimaryID   *int64
	SecondaryID *int64
	Payload     any
}

// AuditLog appends records inside the caller's transaction. Appends run in a
// savepoint so a failed insert leaves the surrounding transaction usable.
// Unless strict, a failed append is logged and counted but does not fail the
// operation.
type AuditLog struct {
	strict  bool
	log     logger.Logger
	metrics *metrics.ConsolidationMetrics
}

// NewAuditLog creates an AuditLog. log may be nil.
func NewAuditLog(strict bool, log logger.Logger, m *metrics.ConsolidationMetrics) *AuditLog {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &AuditLog{strict: strict, log: log, metrics: m}
}

// Append writes rec within tx.
func (a *AuditLog) Append(ctx context.Context, tx *gorm.DB, rec AuditRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return a.fail(ctx, rec, nil, err)
	}

	row := &entities.AuditEntry{
		OperationID: rec.OperationID,
		Kind:        rec.Kind,
		EntityKind:  string(rec.EntityKind),
		EntityID:    rec.EntityID,
		PrimaryID:   rec.PrimaryID,
		SecondaryID: rec.SecondaryID,
		Summary:     datatypes.JSON(payload),
	}

	err = tx.Transaction(func(sp *gorm.DB) error {
		return repository.NewAuditRepository(sp).Create(ctx, row)
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return a.fail(ctx, rec, payload, err)
}

func (a *AuditLog) fail(ctx context.Context, rec AuditRecord, payload []byte, cause error) error {
	a.metrics.RecordAuditFailure()
	a.log.WithContext(ctx).Warn("audit append failed",
		logger.String("operation_id", rec.OperationID),
		logger.String("kind", string(rec.Kind)),
		logger.String("entity_kind", string(rec.EntityKind)),
		logger.OptionalInt64("entity_id", rec.EntityID),
		logger.OptionalInt64("primary_id", rec.PrimaryID),
		logger.OptionalInt64("secondary_id", rec.SecondaryID),
		logger.String("payload", string(payload)),
		logger.Bool("strict", a.strict),
		logger.Error(cause))

	if !a.strict {
		return nil
	}
	return errors.New(cause).
		Component(component).
		Category(errors.CategoryAudit).
		Context("operation_id", rec.OperationID).
		Context("reason", ReasonAuditUnavailable).
		Build()
}
