// internal/common/errors/handler.go
package errors

import (
	"competitor-intel/internal/models"
)

// ErrorHandler turns any error raised on the core path into a structured
// run failure, logging it first.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRunError normalizes err, logs it with the supplied context fields
// and returns the failure result the caller should surface.
func (h *ErrorHandler) HandleRunError(err error, fields map[string]interface{}) *models.RunResult {
	stdErr := h.normalizeError(err)
	h.logError(stdErr, fields)
	return ToRunFailure(stdErr)
}

// HandleAuxError logs an auxiliary failure. Auxiliary failures never change
// the outcome of a request, so nothing is returned.
func (h *ErrorHandler) HandleAuxError(source string, err error, fields map[string]interface{}) {
	stdErr := NewAuxFetchError(source, err)
	logFields := map[string]interface{}{
		"source":        source,
		"errorCode":     string(stdErr.Code),
		"details":       stdErr.Details,
		"errorCategory": string(GetErrorCategory(stdErr.Code)),
	}
	for k, v := range fields {
		logFields[k] = v
	}
	h.logger.Warn("auxiliary fetch failed, using default", logFields)
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	return AsStandardError(err)
}

func (h *ErrorHandler) logError(stdErr *StandardError, fields map[string]interface{}) {
	logFields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": string(GetErrorCategory(stdErr.Code)),
	}
	for k, v := range stdErr.Metadata {
		logFields[k] = v
	}
	for k, v := range fields {
		logFields[k] = v
	}
	h.logger.Error("run failed", logFields)
}
