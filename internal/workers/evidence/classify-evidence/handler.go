// internal/workers/evidence/classify-evidence/handler.go
package classifyevidence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"
)

const (
	TaskType = "classify-evidence"
)

var (
	ErrNilInput     = errors.New("input cannot be nil")
	ErrInvalidRules = errors.New("INVALID_CLASSIFIER_RULES")
)

type Handler struct {
	config *Config
	table  *RuleTable
	logger logger.Logger
}

// NewHandler compiles the configured rule table once.
func NewHandler(config *Config, log logger.Logger) (*Handler, error) {
	table, err := NewRuleTable(config.Rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return &Handler{
		config: config,
		table:  table,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

func (h *Handler) Table() *RuleTable {
	return h.table
}

// Execute classifies each item. When the rules say other and the item came
// from a typed query, the query type is used instead.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	start := time.Now()

	out := &Output{
		Items:        make([]models.EvidenceItem, 0, len(input.Items)),
		CountsByType: make(map[models.EvidenceType]int),
		CountsByTier: make(map[Tier]int),
	}

	for _, item := range input.Items {
		m := h.table.Classify(item)
		item.Type = m.Type
		if m.Type == models.EvidenceOther && item.QueryType.Valid() && item.QueryType != models.EvidenceOther {
			item.Type = item.QueryType
			out.TagFallbacks++
		}
		out.CountsByType[item.Type]++
		out.CountsByTier[m.Tier]++
		out.Items = append(out.Items, item)
	}

	h.logger.Info("classification completed", map[string]interface{}{
		"inputCount":   len(input.Items),
		"tagFallbacks": out.TagFallbacks,
		"durationMs":   time.Since(start).Milliseconds(),
	})
	return out, nil
}
