package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) { r.reported = append(r.reported, ee) }
func (r *recordingReporter) IsEnabled() bool               { return true }

func TestBuildFastPathDefaults(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("boom")).Build()

	assert.Equal(t, "boom", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuildKeepsExplicitFields(t *testing.T) {
	ee := New(NewStd("catalog 12 missing")).
		Component("consolidation").
		Category(CategoryNotFound).
		Priority(PriorityHigh).
		Context("catalog_id", int64(12)).
		Build()

	assert.Equal(t, "consolidation", ee.GetComponent())
	assert.Equal(t, CategoryNotFound, ee.Category)
	assert.Equal(t, PriorityHigh, ee.Priority)
	assert.Equal(t, map[string]any{"catalog_id": int64(12)}, ee.GetContext())
}

func TestPriorityFallsBackToMedium(t *testing.T) {
	ee := New(NewStd("x")).Priority("urgent").Build()
	assert.Equal(t, PriorityMedium, ee.Priority)
}

func TestCategoryInheritedFromWrappedError(t *testing.T) {
	inner := New(NewStd("photo missing")).Category(CategoryNotFound).Build()
	outer := New(fmt.Errorf("set best: %w", inner)).Build()

	assert.Equal(t, CategoryNotFound, outer.Category)
	assert.True(t, IsNotFound(outer))
	assert.True(t, Is(outer, inner))
}

func TestIsCategoryWalksChain(t *testing.T) {
	inner := New(NewStd("duplicate")).Category(CategoryConflict).Build()
	outer := New(inner).Category(CategoryDatabase).Build()

	assert.True(t, IsCategory(outer, CategoryDatabase))
	assert.True(t, IsCategory(outer, CategoryConflict))
	assert.False(t, IsCategory(outer, CategoryValidation))
	assert.False(t, IsCategory(NewStd("plain"), CategoryConflict))
}

func TestNewValidation(t *testing.T) {
	err := NewValidation("api", "idA is required")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "api", err.GetComponent())
}

func TestReporterSkipsCallerMistakes(t *testing.T) {
	rec := &recordingReporter{}
	SetTelemetryReporter(rec)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	New(NewStd("bad id")).Category(CategoryValidation).Build()
	New(NewStd("gone")).Category(CategoryNotFound).Build()
	storage := New(NewStd("disk I/O error")).Component("datastore").Category(CategoryDatabase).Build()

	require.Len(t, rec.reported, 1)
	assert.Same(t, storage, rec.reported[0])
}

func TestScrubMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url credentials", "dial postgres://admin:hunter2@db:5432/catalog failed", "dial postgres://***@db:5432/catalog failed"},
		{"mysql dsn", "open root:secret@tcp(localhost:3306)/catalog", "open ***@tcp(localhost:3306)/catalog"},
		{"password parameter", "connect host=db password=hunter2 dbname=x", "connect host=db password=*** dbname=x"},
		{"nothing to scrub", "database is locked", "database is locked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scrubMessage(tt.in))
		})
	}
}
