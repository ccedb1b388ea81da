// internal/workers/evidence/canonicalize-dedupe/handler.go
package canonicalizededupe

import (
	"context"
	"errors"
	"strings"
	"time"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"
)

const (
	TaskType = "canonicalize-dedupe"
)

var (
	ErrNilInput = errors.New("input cannot be nil")
)

type Handler struct {
	config        *Config
	canonicalizer *Canonicalizer
	logger        logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config:        config,
		canonicalizer: NewCanonicalizer(config.TrackingParams),
		logger:        log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute turns tagged hits into evidence items with canonical URL, domain
// and fingerprint set, then drops keyless items and duplicates.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	start := time.Now()

	out := &Output{Items: make([]models.EvidenceItem, 0, len(input.Hits))}
	keyed := make([]models.EvidenceItem, 0, len(input.Hits))

	for _, hit := range input.Hits {
		key := h.canonicalizer.Canonicalize(hit.EvidenceHit)
		if key == "" {
			out.DroppedEmpty++
			continue
		}

		item := models.EvidenceItem{
			EvidenceHit:  hit.EvidenceHit,
			QueryType:    hit.QueryType,
			Fingerprint:  Fingerprint(key),
			CompetitorID: input.CompetitorID,
		}
		if !strings.HasPrefix(key, titleKeyPrefix) {
			item.CanonicalURL = key
			_, item.Domain = h.canonicalizer.canonicalURL(key)
		}
		keyed = append(keyed, item)
	}

	out.Items = Dedupe(keyed, func(it models.EvidenceItem) string { return it.Fingerprint })
	out.DroppedDuplicate = len(keyed) - len(out.Items)

	h.logger.Info("canonicalization completed", map[string]interface{}{
		"inputCount":       len(input.Hits),
		"outputCount":      len(out.Items),
		"droppedEmpty":     out.DroppedEmpty,
		"droppedDuplicate": out.DroppedDuplicate,
		"durationMs":       time.Since(start).Milliseconds(),
	})
	return out, nil
}
