// internal/workers/evidence/harvest-evidence/handler.go
package harvestevidence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/common/metrics"
	"competitor-intel/internal/common/search"
	"competitor-intel/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	TaskType = "harvest-evidence"
)

var (
	ErrNilInput = errors.New("input cannot be nil")
)

type Handler struct {
	config   *Config
	provider search.Provider
	logger   logger.Logger
}

func NewHandler(config *Config, provider search.Provider, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		provider: provider,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute runs every planned query. A failed query contributes zero hits;
// it never aborts its type or cancels sibling queries.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	start := time.Now()

	// slots[plan][query] keeps results in plan and query order regardless of
	// completion order.
	slots := make([][][]models.EvidenceHit, len(input.Plans))
	for i, p := range input.Plans {
		slots[i] = make([][]models.EvidenceHit, len(p.Queries))
	}

	var (
		mu     sync.Mutex
		failed int
	)

	eg := new(errgroup.Group)
	if h.config.MaxConcurrentQueries > 0 {
		eg.SetLimit(h.config.MaxConcurrentQueries)
	}

	for i, plan := range input.Plans {
		for j, query := range plan.Queries {
			evType := plan.Type
			eg.Go(func() error {
				hits, err := h.runQuery(ctx, query)
				if err != nil {
					h.logger.Warn("search query failed, counting as zero hits", map[string]interface{}{
						"type":  evType,
						"query": query,
						"error": err.Error(),
					})
					mu.Lock()
					failed++
					mu.Unlock()
					return nil
				}
				slots[i][j] = hits
				return nil
			})
		}
	}
	_ = eg.Wait()

	out := &Output{Results: make([]TypeResult, 0, len(input.Plans)), FailedQueries: failed}
	for i, plan := range input.Plans {
		res := TypeResult{Type: plan.Type, Hits: []models.TaggedHit{}}
		for _, hits := range slots[i] {
			for _, hit := range hits {
				res.Hits = append(res.Hits, models.TaggedHit{EvidenceHit: hit, QueryType: plan.Type})
			}
		}
		metrics.EvidenceHits.WithLabelValues(string(plan.Type)).Add(float64(len(res.Hits)))
		out.TotalHits += len(res.Hits)
		out.Results = append(out.Results, res)
	}

	duration := time.Since(start)
	metrics.StageDuration.WithLabelValues(TaskType).Observe(duration.Seconds())
	h.logger.Info("harvest completed", map[string]interface{}{
		"planCount":     len(input.Plans),
		"totalHits":     out.TotalHits,
		"failedQueries": failed,
		"durationMs":    duration.Milliseconds(),
	})
	return out, nil
}

func (h *Handler) runQuery(ctx context.Context, query string) (hits []models.EvidenceHit, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search provider panic: %v", r)
		}
	}()

	if h.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.QueryTimeout)
		defer cancel()
	}
	return h.provider.Search(ctx, query)
}
