package consolidation

import (
	"context"
	"fmt"
	"strings"

	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/errors"
)

const component = "consolidation"

// EntityKind selects which owner a best flag belongs to.
type EntityKind string

const (
	EntityManta   EntityKind = "manta"
	EntityCatalog EntityKind = "catalog"
)

// ParseEntityKind accepts "manta" and "catalog" (also "catalog_entity"),
// case-insensitively.
func ParseEntityKind(s string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manta":
		return EntityManta, nil
	case "catalog", "catalog_entity", "catalogentity":
		return EntityCatalog, nil
	default:
		return "", invalidArgument(ReasonBadEntityKind, "invalid entity kind %q: must be manta or catalog", s)
	}
}

// ParseView accepts the canonical views only.
func ParseView(s string) (entities.View, error) {
	v, err := entities.ParseView(s)
	if err != nil {
		return "", invalidArgument(ReasonBadView, "%s", err.Error())
	}
	return v, nil
}

// Kind is the caller-facing error taxonomy.
type Kind string

const (
	KindInvalidArgument Kind = "InvalidArgument"
	KindNotFound        Kind = "NotFound"
	KindConflict        Kind = "Conflict"
	KindStorageFailure  Kind = "StorageFailure"
	KindInternal        Kind = "Internal"
)

// Reasons attached to errors as the "reason" context key.
const (
	ReasonMissingID        = "missing_id"
	ReasonInvalidID        = "invalid_id"
	ReasonSameID           = "same_id"
	ReasonBadEntityKind    = "bad_entity_kind"
	ReasonBadView          = "bad_view"
	ReasonEntityMissing    = "entity_missing"
	ReasonPhotoMissing     = "photo_missing"
	ReasonPhotoNotOwned    = "photo_not_owned"
	ReasonStorage          = "storage"
	ReasonCanceled         = "canceled"
	ReasonAuditUnavailable = "audit_unavailable"
)

// KindOf classifies err. A nil error has an empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		switch ee.Category {
		case errors.CategoryValidation:
			return KindInvalidArgument
		case errors.CategoryNotFound:
			return KindNotFound
		case errors.CategoryConflict:
			return KindConflict
		case errors.CategoryDatabase, errors.CategoryTimeout, errors.CategoryCancellation,
			errors.CategoryRetry, errors.CategoryAudit:
			return KindStorageFailure
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindStorageFailure
	}
	return KindInternal
}

// ReasonOf returns the reason recorded on err, or "".
func ReasonOf(err error) string {
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return ""
	}
	if reason, ok := ee.GetContext()["reason"].(string); ok {
		return reason
	}
	return ""
}

func invalidArgument(reason, format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(component).
		Category(errors.CategoryValidation).
		Context("reason", reason).
		Build()
}

func notFound(reason, format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(component).
		Category(errors.CategoryNotFound).
		Context("reason", reason).
		Build()
}

// storageFailure wraps an infrastructure error. Errors that already carry a
// caller-facing kind pass through unchanged.
func storageFailure(operation string, err error) error {
	if err == nil {
		return nil
	}
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		switch KindOf(err) {
		case KindInvalidArgument, KindNotFound, KindStorageFailure:
			return err
		}
	}

	category := errors.CategoryDatabase
	reason := ReasonStorage
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		category = errors.CategoryCancellation
		reason = ReasonCanceled
	}
	return errors.New(fmt.Errorf("%s failed: %w", operation, err)).
		Component(component).
		Category(category).
		Context("operation", operation).
		Context("reason", reason).
		Build()
}
