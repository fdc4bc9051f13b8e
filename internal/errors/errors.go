// Package errors provides categorized errors with optional telemetry
// reporting. Every catalogcore package builds its errors here so callers can
// classify failures without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"strings"
	"sync/atomic"
	"time"
)

// ErrorCategory groups errors by what went wrong.
type ErrorCategory string

// CategorizedError is implemented by errors that know their own category.
type CategorizedError interface {
	error
	ErrorCategory() ErrorCategory
}

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryDatabase      ErrorCategory = "database"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryNetwork       ErrorCategory = "network"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryCancellation  ErrorCategory = "cancellation"
	CategoryRetry         ErrorCategory = "retry" // retry budget exhausted
	CategoryAudit         ErrorCategory = "audit"
	CategoryGeneric       ErrorCategory = "generic"
)

// Priority levels
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ComponentUnknown is reported when the builder was given no component.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with a category, component and context.
// Context is read-only after Build.
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	Priority  string
	Context   map[string]any
	Timestamp time.Time

	component string
	reported  atomic.Bool
}

func (ee *EnhancedError) Error() string { return ee.Err.Error() }

func (ee *EnhancedError) Unwrap() error { return ee.Err }

// Is matches another EnhancedError by category, otherwise defers to the
// wrapped chain.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return stderrors.Is(ee.Err, target)
}

// ErrorCategory implements CategorizedError.
func (ee *EnhancedError) ErrorCategory() ErrorCategory { return ee.Category }

// GetComponent returns the component that built the error.
func (ee *EnhancedError) GetComponent() string { return ee.component }

// GetContext returns a copy of the context map, or nil.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	return maps.Clone(ee.Context)
}

// GetMessage returns the wrapped error's message.
func (ee *EnhancedError) GetMessage() string {
	if ee.Err == nil {
		return ""
	}
	return ee.Err.Error()
}

// MarkReported records that telemetry has seen this error.
func (ee *EnhancedError) MarkReported() { ee.reported.Store(true) }

// IsReported reports whether MarkReported was called.
func (ee *EnhancedError) IsReported() bool { return ee.reported.Load() }

// ErrorBuilder assembles an EnhancedError.
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	priority  string
	context   map[string]any
}

// New starts an error around err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts an error from a format string.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Priority overrides the priority. Unknown values become medium.
func (eb *ErrorBuilder) Priority(priority string) *ErrorBuilder {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		eb.priority = priority
	case "":
	default:
		eb.priority = PriorityMedium
	}
	return eb
}

func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the error and hands it to the telemetry reporter, if any.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Category:  eb.category,
		Priority:  eb.priority,
		Context:   eb.context,
		Timestamp: time.Now(),
		component: eb.component,
	}
	if ee.component == "" {
		ee.component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = detectCategory(eb.err, ee.component)
	}

	if hasActiveReporting.Load() {
		reportToTelemetry(ee)
	}
	return ee
}

// detectCategory inherits a category from the wrapped chain, then falls back
// to message and component heuristics.
func detectCategory(err error, component string) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}

	var catErr CategorizedError
	if stderrors.As(err, &catErr) && catErr.ErrorCategory() != "" {
		return catErr.ErrorCategory()
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return CategoryNotFound
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "validation"):
		return CategoryValidation
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return CategoryTimeout
	case strings.Contains(msg, "context canceled"):
		return CategoryCancellation
	}

	if component == "datastore" {
		return CategoryDatabase
	}
	return CategoryGeneric
}

// IsCategory reports whether any EnhancedError in err's chain has category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	for err != nil {
		if !stderrors.As(err, &ee) {
			return false
		}
		if ee.Category == category {
			return true
		}
		err = ee.Err
	}
	return false
}

func IsNotFound(err error) bool { return IsCategory(err, CategoryNotFound) }

func IsValidation(err error) bool { return IsCategory(err, CategoryValidation) }

// NewValidation is shorthand for a validation error with a fixed message.
func NewValidation(component, message string) *EnhancedError {
	return New(NewStd(message)).
		Component(component).
		Category(CategoryValidation).
		Build()
}

// Standard library passthroughs so callers need a single errors import.

func NewStd(text string) error { return stderrors.New(text) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Join(errs ...error) error { return stderrors.Join(errs...) }
