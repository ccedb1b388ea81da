// internal/workers/evidence/collect-evidence/handler.go
package collectevidence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"competitor-intel/internal/common/fanout"
	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/common/metrics"
	"competitor-intel/internal/models"
	evidenceindex "competitor-intel/internal/workers/data-access/evidence-index"
	analyzecoverage "competitor-intel/internal/workers/evidence/analyze-coverage"
	canonicalizededupe "competitor-intel/internal/workers/evidence/canonicalize-dedupe"
	classifyevidence "competitor-intel/internal/workers/evidence/classify-evidence"
	harvestevidence "competitor-intel/internal/workers/evidence/harvest-evidence"
	planqueries "competitor-intel/internal/workers/evidence/plan-queries"
	rankclaims "competitor-intel/internal/workers/evidence/rank-claims"
)

const (
	TaskType = "collect-evidence"
)

var (
	ErrInvalidInput = errors.New("INPUT_INVALID")
)

// FeedSource fetches RSS/Atom items from a competitor's site.
type FeedSource interface {
	Fetch(ctx context.Context, siteURL string) ([]models.TaggedHit, error)
}

// Indexer stores ranked items for later reads.
type Indexer interface {
	IndexItems(ctx context.Context, projectID string, items []models.EvidenceItem) (*evidenceindex.IndexResult, error)
}

// Stages are the pipeline steps collect-evidence composes. Feeds and Index
// are optional.
type Stages struct {
	Planner   *planqueries.Handler
	Harvester *harvestevidence.Handler
	Canonical *canonicalizededupe.Handler
	Classify  *classifyevidence.Handler
	Rank      *rankclaims.Handler
	Coverage  *analyzecoverage.Handler
	Feeds     FeedSource
	Index     Indexer
}

type Handler struct {
	config *Config
	stages Stages
	logger logger.Logger
}

func NewHandler(config *Config, stages Stages, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		stages: stages,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute runs plan, harvest, canonicalize, classify and rank for every
// competitor concurrently, indexes the results and reports coverage.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.ProjectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidInput)
	}
	start := time.Now()

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	g := fanout.NewGroup(ctx, h.config.MaxConcurrentCompetitors, h.logger)
	slots := make([]*models.Result[CompetitorResult], len(input.Competitors))
	for i, c := range input.Competitors {
		def := CompetitorResult{CompetitorID: c.ID, Name: c.Name, Items: []models.EvidenceItem{}}
		slots[i] = fanout.Go(g, "competitor:"+c.ID, def, func(ctx context.Context) (CompetitorResult, error) {
			return h.collectOne(ctx, c, input.IncludeTypes)
		})
	}
	g.Wait()

	out := &Output{Competitors: make([]CompetitorResult, 0, len(slots))}
	coverageInput := &analyzecoverage.Input{}
	for i, slot := range slots {
		res := slot.Value
		if slot.Failed() {
			res.Error = slot.Err.Error()
		}
		out.Competitors = append(out.Competitors, res)

		coverageInput.Competitors = append(coverageInput.Competitors, analyzecoverage.CompetitorEvidence{
			CompetitorID:      res.CompetitorID,
			Name:              res.Name,
			FirstPartyDomains: firstPartyDomains(input.Competitors[i]),
			Items:             res.Items,
		})
	}

	out.Indexed = h.index(ctx, input.ProjectID, out.Competitors)

	cov, err := h.stages.Coverage.Execute(ctx, coverageInput)
	if err != nil {
		return nil, err
	}
	out.Coverage = cov.Report

	duration := time.Since(start)
	metrics.StageDuration.WithLabelValues(TaskType).Observe(duration.Seconds())
	h.logger.Info("evidence collection completed", map[string]interface{}{
		"projectId":   input.ProjectID,
		"competitors": len(input.Competitors),
		"indexed":     out.Indexed,
		"confidence":  out.Coverage.Confidence,
		"durationMs":  duration.Milliseconds(),
	})
	return out, nil
}

func (h *Handler) collectOne(ctx context.Context, c models.Competitor, includeTypes []string) (CompetitorResult, error) {
	res := CompetitorResult{CompetitorID: c.ID, Name: c.Name}

	plan, err := h.stages.Planner.Execute(ctx, &planqueries.Input{
		CompanyName:  c.Name,
		URL:          c.URL,
		IncludeTypes: includeTypes,
	})
	if err != nil {
		return res, fmt.Errorf("plan queries: %w", err)
	}

	harvest, err := h.stages.Harvester.Execute(ctx, &harvestevidence.Input{Plans: plan.Plans})
	if err != nil {
		return res, fmt.Errorf("harvest: %w", err)
	}
	hits := harvest.Flatten()
	res.Stats.SearchHits = len(hits)
	res.Stats.FailedQueries = harvest.FailedQueries

	if h.config.UseFeeds && h.stages.Feeds != nil && c.URL != "" {
		feedHits, err := h.stages.Feeds.Fetch(ctx, c.URL)
		if err != nil {
			h.logger.Warn("feed fetch failed, counting as zero hits", map[string]interface{}{
				"competitorId": c.ID,
				"error":        err.Error(),
			})
		}
		res.Stats.FeedHits = len(feedHits)
		hits = append(hits, feedHits...)
	}

	canon, err := h.stages.Canonical.Execute(ctx, &canonicalizededupe.Input{Hits: hits, CompetitorID: c.ID})
	if err != nil {
		return res, fmt.Errorf("canonicalize: %w", err)
	}
	res.Stats.DroppedEmpty = canon.DroppedEmpty
	res.Stats.DroppedDuplicate = canon.DroppedDuplicate

	classified, err := h.stages.Classify.Execute(ctx, &classifyevidence.Input{Items: canon.Items})
	if err != nil {
		return res, fmt.Errorf("classify: %w", err)
	}

	ranked, err := h.stages.Rank.Execute(ctx, &rankclaims.Input{
		Items:             classified.Items,
		FirstPartyDomains: firstPartyDomains(c),
	})
	if err != nil {
		return res, fmt.Errorf("rank: %w", err)
	}
	res.Items = ranked.Items
	return res, nil
}

// index stores every competitor's items. Failures are logged and never
// change the outcome.
func (h *Handler) index(ctx context.Context, projectID string, results []CompetitorResult) int {
	if h.stages.Index == nil {
		return 0
	}
	var all []models.EvidenceItem
	for _, r := range results {
		all = append(all, r.Items...)
	}
	if len(all) == 0 {
		return 0
	}
	res, err := h.stages.Index.IndexItems(ctx, projectID, all)
	if err != nil {
		h.logger.Warn("evidence indexing failed", map[string]interface{}{
			"projectId": projectID,
			"error":     err.Error(),
		})
		return 0
	}
	return res.Indexed
}

func firstPartyDomains(c models.Competitor) []string {
	if d := planqueries.DomainOf(c.URL); d != "" {
		return []string{d}
	}
	return nil
}
