package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantamatcher/catalogcore/internal/buildinfo"
	"github.com/mantamatcher/catalogcore/internal/conf"
)

func TestInitSentryDisabled(t *testing.T) {
	err := InitSentry(&conf.SentrySettings{Enabled: false}, &buildinfo.Context{}, nil)
	require.NoError(t, err)
	assert.False(t, Enabled())
	Flush()
}

func TestInitSentryWithoutDSN(t *testing.T) {
	err := InitSentry(&conf.SentrySettings{Enabled: true}, &buildinfo.Context{}, nil)
	require.NoError(t, err)
	assert.False(t, Enabled())
}

func TestScrubEvent(t *testing.T) {
	event := sentry.NewEvent()
	event.User = sentry.User{ID: "42", IPAddress: "10.0.0.1"}
	event.ServerName = "catalog-host"
	event.Contexts["os"] = sentry.Context{"name": "linux"}
	event.Contexts["trace"] = sentry.Context{"id": "abc"}
	event.Tags["hostname"] = "catalog-host"
	event.Tags["component"] = "consolidation"
	event.Request = &sentry.Request{
		URL:     "http://localhost/api/v1/catalog/12/merge",
		Cookies: "session=secret",
		Headers: map[string]string{"Authorization": "Bearer x", "Accept": "application/json"},
	}

	got := scrubEvent(event, nil)
	assert.True(t, got.User.IsEmpty())
	assert.Empty(t, got.ServerName)
	assert.NotContains(t, got.Contexts, "os")
	assert.Contains(t, got.Contexts, "trace")
	assert.NotContains(t, got.Tags, "hostname")
	assert.Equal(t, "consolidation", got.Tags["component"])
	assert.Empty(t, got.Request.Cookies)
	assert.NotContains(t, got.Request.Headers, "Authorization")
	assert.Equal(t, "application/json", got.Request.Headers["Accept"])
}
