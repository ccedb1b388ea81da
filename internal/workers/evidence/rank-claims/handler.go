// internal/workers/evidence/rank-claims/handler.go
package rankclaims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"competitor-intel/internal/common/logger"
)

const (
	TaskType = "rank-claims"
)

var (
	ErrNilInput     = errors.New("input cannot be nil")
	ErrUnclassified = errors.New("INPUT_INVALID")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	for i, it := range input.Items {
		if !it.Type.Valid() {
			return nil, fmt.Errorf("%w: item %d has no evidence type (%q)", ErrUnclassified, i, it.Type)
		}
	}

	start := time.Now()
	ranked, breakdowns := Rank(input.Items, input.FirstPartyDomains, h.config.Weights, h.config.Now())

	duration := time.Since(start).Milliseconds()
	h.logger.Info("ranking completed", map[string]interface{}{
		"inputCount":  len(input.Items),
		"outputCount": len(ranked),
		"durationMs":  duration,
	})
	if duration > 500 {
		h.logger.Warn("ranking exceeded 500ms", map[string]interface{}{
			"durationMs": duration,
		})
	}

	return &Output{Items: ranked, Breakdowns: breakdowns}, nil
}
