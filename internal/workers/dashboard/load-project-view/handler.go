// internal/workers/dashboard/load-project-view/handler.go
package loadprojectview

import (
	"context"
	"strings"
	"time"

	"competitor-intel/internal/common/errors"
	"competitor-intel/internal/common/fanout"
	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/common/runstatus"
	"competitor-intel/internal/models"
	artifactstore "competitor-intel/internal/workers/data-access/artifact-store"
	evidenceindex "competitor-intel/internal/workers/data-access/evidence-index"
	projectstore "competitor-intel/internal/workers/data-access/project-store"
	analyzecoverage "competitor-intel/internal/workers/evidence/analyze-coverage"
	planqueries "competitor-intel/internal/workers/evidence/plan-queries"
)

const (
	TaskType = "load-project-view"

	taskCompetitors    = "competitors"
	taskArtifacts      = "artifacts"
	taskRunStatus      = "run_status"
	taskEvidenceBundle = "evidence_bundle"
	taskEvidence       = "evidence"
)

type Handler struct {
	config    *Config
	projects  ProjectStore
	artifacts ArtifactReader
	runs      RunStatusReader
	evidence  EvidenceSearcher
	logger    logger.Logger
}

func NewHandler(config *Config, projects ProjectStore, artifacts ArtifactReader, runs RunStatusReader, evidence EvidenceSearcher, log logger.Logger) *Handler {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Handler{
		config:    config,
		projects:  projects,
		artifacts: artifacts,
		runs:      runs,
		evidence:  evidence,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute checks ownership, then fetches the display data concurrently.
// A failed fetch is logged and replaced by its default; it never fails the
// request.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	if input == nil || strings.TrimSpace(input.ProjectID) == "" {
		return nil, errors.NewInputError("projectId is required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, errors.NewAuthRequiredError()
	}

	project, err := h.projects.GetOwnedProject(ctx, input.ProjectID, input.UserID)
	switch {
	case err == nil:
	case errors.Is(err, projectstore.ErrProjectNotFound):
		return nil, errors.NewNotFoundError("project", input.ProjectID)
	case errors.Is(err, projectstore.ErrNotProjectOwner):
		return nil, errors.NewForbiddenError("project belongs to another user")
	default:
		return nil, errors.NewQueryExecutionFailedError("get_project", err)
	}

	fetchCtx := ctx
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	g := fanout.NewGroup(fetchCtx, 0, h.logger.WithFields(map[string]interface{}{"projectId": project.ID}))

	competitors := fanout.Go(g, taskCompetitors, []models.Competitor{}, func(ctx context.Context) ([]models.Competitor, error) {
		return h.projects.ListCompetitors(ctx, project.ID)
	})
	artifacts := fanout.Go(g, taskArtifacts, []models.Artifact{}, func(ctx context.Context) ([]models.Artifact, error) {
		return h.artifacts.ListArtifacts(ctx, project.ID, h.config.ArtifactLimit)
	})
	run := fanout.Go(g, taskRunStatus, (*models.RunStatus)(nil), func(ctx context.Context) (*models.RunStatus, error) {
		status, err := h.runs.Get(ctx, project.ID)
		if errors.Is(err, runstatus.ErrNoRun) {
			return nil, nil
		}
		return status, err
	})
	bundle := fanout.Go(g, taskEvidenceBundle, (*models.Artifact)(nil), func(ctx context.Context) (*models.Artifact, error) {
		a, err := h.artifacts.LatestArtifact(ctx, project.ID, models.ArtifactEvidenceBundle)
		if errors.Is(err, artifactstore.ErrArtifactNotFound) {
			return nil, nil
		}
		return a, err
	})
	evidence := fanout.Go(g, taskEvidence, []models.EvidenceItem{}, func(ctx context.Context) ([]models.EvidenceItem, error) {
		out, err := h.evidence.Execute(ctx, &evidenceindex.Input{ProjectID: project.ID, Size: h.config.EvidenceSize})
		if err != nil {
			return nil, err
		}
		return out.Items, nil
	})

	g.Wait()

	out := &Output{
		Project:        project,
		Competitors:    nonNil(competitors.Value),
		Artifacts:      nonNil(artifacts.Value),
		RunStatus:      run.Value,
		EvidenceBundle: bundle.Value,
		Degraded:       []string{},
	}
	for _, t := range []struct {
		name   string
		failed bool
	}{
		{taskCompetitors, competitors.Failed()},
		{taskArtifacts, artifacts.Failed()},
		{taskRunStatus, run.Failed()},
		{taskEvidenceBundle, bundle.Failed()},
		{taskEvidence, evidence.Failed()},
	} {
		if t.failed {
			out.Degraded = append(out.Degraded, t.name)
		}
	}

	if !competitors.Failed() && !evidence.Failed() {
		report := h.coverage(out.Competitors, evidence.Value)
		out.Coverage = &report
	}

	h.logger.Info("project view loaded", map[string]interface{}{
		"projectId":  project.ID,
		"degraded":   len(out.Degraded),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return out, nil
}

// coverage groups indexed items by competitor and runs the analyzer.
func (h *Handler) coverage(competitors []models.Competitor, items []models.EvidenceItem) models.CoverageReport {
	byCompetitor := make(map[string][]models.EvidenceItem, len(competitors))
	for _, it := range items {
		byCompetitor[it.CompetitorID] = append(byCompetitor[it.CompetitorID], it)
	}

	in := make([]analyzecoverage.CompetitorEvidence, 0, len(competitors))
	for _, c := range competitors {
		ce := analyzecoverage.CompetitorEvidence{
			CompetitorID: c.ID,
			Name:         c.Name,
			Items:        byCompetitor[c.ID],
		}
		if d := planqueries.DomainOf(c.URL); d != "" {
			ce.FirstPartyDomains = []string{d}
		}
		in = append(in, ce)
	}
	return analyzecoverage.Analyze(in, h.config.MVC, analyzecoverage.DefaultExpectedTypes(), h.config.Now())
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
