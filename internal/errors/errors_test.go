package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) ReportError(err *EnhancedError) { m.Called(err) }
func (m *mockReporter) IsEnabled() bool                { return m.Called().Bool(0) }

func TestBuilder(t *testing.T) {
	ee := New(NewStd("frequency above nyquist")).
		Component("annotation").
		Category(CategoryValidation).
		Context(ContextField, "end_frequency").
		Build()

	assert.Equal(t, "frequency above nyquist", ee.Error())
	assert.Equal(t, "annotation", ee.Component)
	assert.Equal(t, "end_frequency", ee.Field())
	assert.True(t, IsValidation(ee))
	assert.False(t, IsNotFound(ee))
}

func TestBuilder_Defaults(t *testing.T) {
	ee := New(NewStd("boom")).Build()
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.Equal(t, ComponentUnknown, ee.Component)
}

func TestBuilder_InheritsWrappedCategory(t *testing.T) {
	inner := NotFoundError("dataset", "ds1")
	outer := New(fmt.Errorf("import row 3: %w", inner)).Component("annotation").Build()

	assert.Equal(t, CategoryNotFound, outer.Category)
	assert.True(t, IsNotFound(outer))
	assert.Equal(t, CategoryNotFound, CategoryOf(fmt.Errorf("wrapped: %w", outer)))
	assert.Equal(t, CategoryGeneric, CategoryOf(NewStd("plain")))
}

func TestEnhancedError_Is(t *testing.T) {
	sentinel := NewStd("label not found")
	ee := New(sentinel).Category(CategoryNotFound).Build()

	assert.ErrorIs(t, ee, sentinel)
	assert.ErrorIs(t, ee, &EnhancedError{Category: CategoryNotFound})
	assert.NotErrorIs(t, ee, &EnhancedError{Category: CategoryConflict})
}

func TestGetContextReturnsCopy(t *testing.T) {
	ee := New(NewStd("x")).Context("k", "v").Build()
	ctx := ee.GetContext()
	ctx["k"] = "changed"
	assert.Equal(t, "v", ee.GetContext()["k"])
}

func TestReporter_OnlyServerSideCategories(t *testing.T) {
	r := &mockReporter{}
	r.On("IsEnabled").Return(true)
	r.On("ReportError", mock.MatchedBy(func(ee *EnhancedError) bool {
		return ee.Category == CategoryDatabase
	})).Once()

	SetReporter(r)
	t.Cleanup(func() { SetReporter(nil) })

	dbErr := New(NewStd("disk I/O error")).Category(CategoryDatabase).Build()
	_ = ValidationError("start_time", "start time is required")
	_ = NotFoundError("result", 9)

	require.True(t, dbErr.IsReported())
	r.AssertExpectations(t)
	r.AssertNumberOfCalls(t, "ReportError", 1)
}

func TestSetReporterNilDisables(t *testing.T) {
	SetReporter(nil)
	assert.False(t, hasActiveReporting.Load())
	ee := New(NewStd("x")).Category(CategoryDatabase).Build()
	assert.False(t, ee.IsReported())
}

func TestReporter_WrappedErrorReportedOnce(t *testing.T) {
	r := &mockReporter{}
	r.On("IsEnabled").Return(true)
	r.On("ReportError", mock.Anything).Once()

	SetReporter(r)
	t.Cleanup(func() { SetReporter(nil) })

	inner := New(NewStd("database is locked")).Category(CategoryDatabase).Build()
	outer := New(inner).Context("row", 3).Build()

	assert.True(t, outer.IsReported())
	r.AssertNumberOfCalls(t, "ReportError", 1)
}
