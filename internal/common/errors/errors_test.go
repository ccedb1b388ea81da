// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []map[string]interface{}
	warns  []map[string]interface{}
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.errors = append(l.errors, fields)
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.warns = append(l.warns, fields)
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want Category
	}{
		{ErrCodeInputInvalid, CategoryInput},
		{ErrCodeCompetitorCount, CategoryInput},
		{ErrCodeProjectIncomplete, CategoryInput},
		{ErrCodeAuthRequired, CategoryAuth},
		{ErrCodeForbidden, CategoryAuth},
		{ErrCodeNotFound, CategoryAuth},
		{ErrCodeAuxFetchFailed, CategoryAuxiliary},
		{ErrCodeGenerationValidationFailed, CategoryGenerationValidation},
		{ErrCodeUnexpected, CategoryUnexpected},
		{"SOMETHING_ELSE", CategoryUnexpected},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.code))
		})
	}
}

func TestHTTPStatus_ForbiddenDistinctFromNotFound(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrCodeForbidden))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrCodeAuthRequired))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeCompetitorCount))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(ErrCodeGenerationValidationFailed))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeUnexpected))
}

func TestToRunFailure_CompetitorCount(t *testing.T) {
	result := ToRunFailure(NewCompetitorCountError(2, 3, 10))

	assert.False(t, result.OK)
	require.NotNil(t, result.Details)
	assert.Equal(t, "COMPETITOR_COUNT", result.Details.Code)
	require.NotNil(t, result.Details.CompetitorCount)
	assert.Equal(t, 2, *result.Details.CompetitorCount)
	assert.Contains(t, result.Message, "At least 3")
}

func TestToRunFailure_GenerationValidation(t *testing.T) {
	err := fmt.Errorf("run aborted: %w", NewGenerationValidationError("snapshot_validation", "comp-2", "summary is required"))

	result := ToRunFailure(err)

	assert.False(t, result.OK)
	assert.Equal(t, "GENERATION_VALIDATION_FAILED", result.Details.Code)
	assert.Equal(t, "snapshot_validation", result.Details.Stage)
	assert.Equal(t, "comp-2", result.Details.CompetitorID)
	assert.Equal(t, "summary is required", result.Details.ValidationError)
	assert.Nil(t, result.Details.CompetitorCount)
}

func TestToRunFailure_UnknownErrorIsUnexpected(t *testing.T) {
	result := ToRunFailure(fmt.Errorf("boom"))

	assert.False(t, result.OK)
	assert.Equal(t, "UNEXPECTED_ERROR", result.Details.Code)
	assert.Contains(t, result.Message, "boom")
}

func TestErrorHandler_HandleRunError_Logs(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	result := h.HandleRunError(NewForbiddenError("owner mismatch"), map[string]interface{}{"projectId": "p1"})

	assert.Equal(t, "FORBIDDEN", result.Details.Code)
	require.Len(t, log.errors, 1)
	assert.Equal(t, "p1", log.errors[0]["projectId"])
	assert.Equal(t, "AUTH", log.errors[0]["errorCategory"])
}

func TestErrorHandler_HandleAuxError_WarnsOnly(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	h.HandleAuxError("competitors", fmt.Errorf("connection reset"), nil)

	assert.Empty(t, log.errors)
	require.Len(t, log.warns, 1)
	assert.Equal(t, "competitors", log.warns[0]["source"])
	assert.Equal(t, "AUX_FETCH_FAILED", log.warns[0]["errorCode"])
}
