// internal/workers/evidence/analyze-coverage/handler.go
package analyzecoverage

import (
	"context"
	"errors"
	"time"

	"competitor-intel/internal/common/logger"
)

const (
	TaskType = "analyze-coverage"
)

var (
	ErrNilInput = errors.New("input cannot be nil")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config.Now == nil {
		config.Now = time.Now
	}
	if len(config.ExpectedTypes) == 0 {
		config.ExpectedTypes = DefaultExpectedTypes()
	}
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute recomputes the report. Safe to call on every read.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	mvc := h.config.MVC
	if input.MVC != nil {
		mvc = *input.MVC
	}

	report := Analyze(input.Competitors, mvc, h.config.ExpectedTypes, h.config.Now())

	h.logger.Debug("coverage analyzed", map[string]interface{}{
		"competitors":             report.TotalCompetitors,
		"competitorsWithEvidence": report.CompetitorsWithEvidence,
		"typesCovered":            report.TypesCovered,
		"confidence":              report.Confidence,
	})
	return &Output{Report: report}, nil
}
