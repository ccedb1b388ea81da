// Package errors provides the standardized error taxonomy shared by the
// evidence pipeline, the generation orchestrator and the HTTP layer.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"competitor-intel/internal/models"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input errors are rejected before any external call.
const (
	ErrCodeInputInvalid      ErrorCode = "INPUT_INVALID"
	ErrCodeProjectIncomplete ErrorCode = "PROJECT_INCOMPLETE"
	ErrCodeCompetitorCount   ErrorCode = "COMPETITOR_COUNT"
)

// Auth errors. Not-found is reported separately from forbidden.
const (
	ErrCodeAuthRequired ErrorCode = "AUTH_REQUIRED"
	ErrCodeTokenInvalid ErrorCode = "TOKEN_INVALID"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
)

// Run and infrastructure errors.
const (
	ErrCodeAuxFetchFailed             ErrorCode = "AUX_FETCH_FAILED"
	ErrCodeGenerationValidationFailed ErrorCode = "GENERATION_VALIDATION_FAILED"
	ErrCodeUnexpected                 ErrorCode = "UNEXPECTED_ERROR"

	ErrCodeSearchTimeout          ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeGeneratorTimeout       ErrorCode = "GENERATOR_TIMEOUT"
	ErrCodeDatabaseInsertFailed   ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed   ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeSearchIndexFailed      ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// Metadata keys understood by ToRunFailure.
const (
	MetaStage           = "stage"
	MetaCompetitorID    = "competitorId"
	MetaValidationError = "validationError"
	MetaCompetitorCount = "competitorCount"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMeta returns e after setting a metadata key.
func (e *StandardError) WithMeta(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

func NewInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputInvalid,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProjectIncompleteError reports required project fields that are empty.
func NewProjectIncompleteError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectIncomplete,
		Message:   "Project is missing required fields",
		Details:   "missing: " + strings.Join(missing, ", "),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompetitorCountError rejects a run whose competitor count is out of bounds.
func NewCompetitorCountError(count, min, max int) *StandardError {
	msg := fmt.Sprintf("At least %d competitors are required", min)
	if count > max {
		msg = fmt.Sprintf("At most %d competitors are allowed", max)
	}
	return (&StandardError{
		Code:      ErrCodeCompetitorCount,
		Message:   msg,
		Details:   fmt.Sprintf("competitorCount: %d, min: %d, max: %d", count, min, max),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}).WithMeta(MetaCompetitorCount, count)
}

func NewAuthRequiredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthRequired,
		Message:   "Authentication required",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewTokenInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenInvalid,
		Message:   "Token is not active",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewForbiddenError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "Not allowed to access this project",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuxFetchError describes a display-only fetch that failed. These are
// logged and never returned to callers as a run failure.
func NewAuxFetchError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuxFetchFailed,
		Message:   fmt.Sprintf("Auxiliary fetch '%s' failed", source),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewGenerationValidationError is raised after the repair attempt also
// fails validation.
func NewGenerationValidationError(stage, competitorID, validationError string) *StandardError {
	e := &StandardError{
		Code:      ErrCodeGenerationValidationFailed,
		Message:   "Generated output failed schema validation after repair",
		Details:   validationError,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
	e.WithMeta(MetaStage, stage)
	e.WithMeta(MetaValidationError, validationError)
	if competitorID != "" {
		e.WithMeta(MetaCompetitorID, competitorID)
	}
	return e
}

// NewUnexpectedError wraps anything outside the taxonomy.
func NewUnexpectedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnexpected,
		Message:   fmt.Sprintf("%T: %s", err, err.Error()),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSearchTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Search provider timeout",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewGeneratorTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGeneratorTimeout,
		Message:   "Generator call timeout",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Taxonomy
// ==========================

// Category names the error family a code belongs to.
type Category string

const (
	CategoryInput                Category = "INPUT"
	CategoryAuth                 Category = "AUTH"
	CategoryAuxiliary            Category = "AUXILIARY"
	CategoryGenerationValidation Category = "GENERATION_VALIDATION"
	CategoryUnexpected           Category = "UNEXPECTED"
)

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) Category {
	switch code {
	case ErrCodeInputInvalid, ErrCodeProjectIncomplete, ErrCodeCompetitorCount:
		return CategoryInput
	case ErrCodeAuthRequired, ErrCodeTokenInvalid, ErrCodeForbidden, ErrCodeNotFound:
		return CategoryAuth
	case ErrCodeAuxFetchFailed:
		return CategoryAuxiliary
	case ErrCodeGenerationValidationFailed:
		return CategoryGenerationValidation
	default:
		return CategoryUnexpected
	}
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInputInvalid, ErrCodeProjectIncomplete, ErrCodeCompetitorCount:
		return http.StatusBadRequest
	case ErrCodeAuthRequired, ErrCodeTokenInvalid:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeGenerationValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeSearchTimeout, ErrCodeGeneratorTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// AsStandardError unwraps err to a StandardError, wrapping unknown errors
// as UNEXPECTED_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if As(err, &stdErr) {
		return stdErr
	}
	return NewUnexpectedError(err)
}

// ToRunFailure converts an error into the structured failure result.
func ToRunFailure(err error) *models.RunResult {
	stdErr := AsStandardError(err)

	details := models.FailureDetails{Code: string(stdErr.Code)}
	if v, ok := stdErr.Metadata[MetaStage].(string); ok {
		details.Stage = v
	}
	if v, ok := stdErr.Metadata[MetaCompetitorID].(string); ok {
		details.CompetitorID = v
	}
	if v, ok := stdErr.Metadata[MetaValidationError].(string); ok {
		details.ValidationError = v
	}
	if v, ok := stdErr.Metadata[MetaCompetitorCount].(int); ok {
		n := v
		details.CompetitorCount = &n
	}

	return models.FailureResult(stdErr.Message, details)
}
