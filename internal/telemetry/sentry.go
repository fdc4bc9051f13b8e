// Package telemetry wires opt-in Sentry error reporting.
package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/mantamatcher/catalogcore/internal/buildinfo"
	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/errors"
	"github.com/mantamatcher/catalogcore/internal/logger"
)

const flushTimeout = 2 * time.Second

var initialized atomic.Bool

// InitSentry initializes the Sentry SDK and registers the error reporter.
// It is a no-op unless telemetry is enabled with a DSN.
func InitSentry(settings *conf.SentrySettings, build buildinfo.BuildInfo, log logger.Logger) error {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	if !settings.Enabled {
		log.Debug("sentry telemetry disabled")
		return nil
	}
	if settings.DSN == "" {
		log.Warn("sentry telemetry enabled without a dsn, skipping")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.DSN,
		Environment:      settings.Environment,
		SampleRate:       settings.SampleRate,
		Release:          fmt.Sprintf("catalogcore@%s", build.GetVersion()),
		AttachStacktrace: false,
		ServerName:       "",
		BeforeSend:       scrubEvent,
	})
	if err != nil {
		return errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	initialized.Store(true)

	log.Info("sentry telemetry initialized",
		logger.String("environment", settings.Environment),
		logger.Float64("sample_rate", settings.SampleRate))
	return nil
}

// Flush delivers buffered events before shutdown.
func Flush() {
	if !initialized.Load() {
		return
	}
	sentry.Flush(flushTimeout)
}

// Enabled reports whether InitSentry registered a reporter.
func Enabled() bool {
	return initialized.Load()
}

// scrubEvent strips host and user identity from outgoing events.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	if event.Request != nil {
		event.Request.Cookies = ""
		delete(event.Request.Headers, "Authorization")
		delete(event.Request.Headers, "Cookie")
	}
	return event
}
