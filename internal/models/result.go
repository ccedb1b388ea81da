// internal/models/result.go
package models

// FailureDetails is the machine-readable part of a failed run.
type FailureDetails struct {
	Code            string `json:"code"`
	Stage           string `json:"stage,omitempty"`
	CompetitorID    string `json:"competitorId,omitempty"`
	ValidationError string `json:"validationError,omitempty"`
	CompetitorCount *int   `json:"competitorCount,omitempty"`
}

// RunResult is the only shape a generation run reports to callers.
type RunResult struct {
	OK          bool            `json:"ok"`
	RunID       string          `json:"runId,omitempty"`
	ArtifactIDs []string        `json:"artifactIds,omitempty"`
	Usage       *Usage          `json:"usage,omitempty"`
	Message     string          `json:"message,omitempty"`
	Details     *FailureDetails `json:"details,omitempty"`
}

func SuccessResult(runID string, artifactIDs []string, usage Usage) *RunResult {
	return &RunResult{
		OK:          true,
		RunID:       runID,
		ArtifactIDs: artifactIDs,
		Usage:       &usage,
	}
}

func FailureResult(message string, details FailureDetails) *RunResult {
	return &RunResult{
		OK:      false,
		Message: message,
		Details: &details,
	}
}

// Result holds the outcome of one auxiliary fetch. A failed fetch still
// carries a usable Value: the default supplied by the caller.
type Result[T any] struct {
	Value T     `json:"value"`
	Err   error `json:"-"`
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Err[T any](err error, def T) Result[T] {
	return Result[T]{Value: def, Err: err}
}

func (r Result[T]) Failed() bool {
	return r.Err != nil
}
