// Package errors - telemetry integration (optional)
package errors

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

// hasActiveReporting short-circuits Build when nothing listens
var hasActiveReporting atomic.Bool

var (
	reporterMu              sync.RWMutex
	globalTelemetryReporter TelemetryReporter
)

// SetTelemetryReporter sets the global telemetry reporter. Passing nil
// disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	globalTelemetryReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// GetTelemetryReporter returns the current telemetry reporter
func GetTelemetryReporter() TelemetryReporter {
	reporterMu.RLock()
	defer reporterMu.RUnlock()
	return globalTelemetryReporter
}

func reportToTelemetry(ee *EnhancedError) {
	reporter := GetTelemetryReporter()
	if reporter == nil || !reporter.IsEnabled() {
		return
	}
	// Caller mistakes are not operational faults.
	switch ee.Category {
	case CategoryValidation, CategoryNotFound:
		return
	}
	reporter.ReportError(ee)
}

// SentryReporter implements TelemetryReporter for Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter creates a new Sentry telemetry reporter
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError reports an enhanced error to Sentry with the message scrubbed
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	message := scrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.GetMessage()))
	component := ee.GetComponent()
	title := fmt.Sprintf("%s %s error", component, ee.Category)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetTag("category", string(ee.Category))
		scope.SetTag("error_type", fmt.Sprintf("%T", ee.Err))
		for key, value := range ee.GetContext() {
			scope.SetContext(key, map[string]any{"value": value})
		}
		scope.SetLevel(levelFor(ee.Category))
		scope.SetFingerprint([]string{title, component, string(ee.Category)})

		event := sentry.NewEvent()
		event.Message = message
		event.Level = levelFor(ee.Category)
		event.Exception = []sentry.Exception{{Type: title, Value: message}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

func levelFor(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryNetwork, CategoryTimeout, CategoryRetry:
		return sentry.LevelWarning
	case CategoryAudit:
		return sentry.LevelWarning
	default:
		return sentry.LevelError
	}
}

var (
	urlCredentials = regexp.MustCompile(`://[^/@\s]+@`)
	dsnPassword    = regexp.MustCompile(`(?i)(password=)\S+`)
	mysqlDSN       = regexp.MustCompile(`[^\s/@]+:[^\s/@]*@tcp\(`)
)

// scrubMessage removes credentials that can leak through driver errors
func scrubMessage(message string) string {
	message = urlCredentials.ReplaceAllString(message, "://***@")
	message = mysqlDSN.ReplaceAllString(message, "***@tcp(")
	return dsnPassword.ReplaceAllString(message, "${1}***")
}
