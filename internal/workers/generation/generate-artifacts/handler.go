// internal/workers/generation/generate-artifacts/handler.go
package generateartifacts

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"competitor-intel/internal/common/errors"
	"competitor-intel/internal/common/llm"
	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/common/metrics"
	"competitor-intel/internal/common/observability"
	"competitor-intel/internal/common/validation"
	"competitor-intel/internal/models"
	projectstore "competitor-intel/internal/workers/data-access/project-store"
	notifyrun "competitor-intel/internal/workers/generation/notify-run"
	"competitor-intel/pkg/registry"

	"github.com/google/uuid"
)

const (
	TaskType = "generate-artifacts"
)

// RunPanicError carries a value recovered from a panic during a run.
type RunPanicError struct {
	Value interface{}
}

func (e *RunPanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Dependencies wires the orchestrator. Evidence, RunStatus and Notifier are
// optional.
type Dependencies struct {
	Projects      ProjectStore
	Artifacts     ArtifactStore
	Evidence      EvidenceSource
	RunStatus     RunStatusStore
	Notifier      Notifier
	Generator     llm.Generator
	Registry      *registry.Registry
	Observability *observability.Observability
}

type Handler struct {
	config     *Config
	projects   ProjectStore
	artifacts  ArtifactStore
	evidence   EvidenceSource
	status     RunStatusStore
	notifier   Notifier
	generator  llm.Generator
	registry   *registry.Registry
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	if config.Now == nil {
		config.Now = time.Now
	}
	reg := deps.Registry
	if reg == nil {
		reg = registry.MustDefault()
	}
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:     config,
		projects:   deps.Projects,
		artifacts:  deps.Artifacts,
		evidence:   deps.Evidence,
		status:     deps.RunStatus,
		notifier:   deps.Notifier,
		generator:  deps.Generator,
		registry:   reg,
		obs:        obs,
		errHandler: errors.NewErrorHandler(scoped),
		logger:     scoped,
	}
}

// run is the state of one generation run.
type run struct {
	id      string
	input   *Input
	project *models.Project
	usage   llm.UsageAccumulator
	logger  logger.Logger
	began   time.Time
	// statusSet is true once the run has been recorded as running.
	statusSet bool
}

func (h *Handler) newRun(input *Input) *run {
	r := &run{id: uuid.New().String(), input: input, began: h.config.Now()}
	fields := map[string]interface{}{"runId": r.id}
	if input != nil {
		fields["projectId"] = input.ProjectID
	}
	r.logger = h.logger.WithFields(fields)
	return r
}

// Run executes a full generation run and always returns a structured
// result. Run status, metrics, spans and the notification are recorded on
// the way out; none of them can change the outcome.
func (h *Handler) Run(ctx context.Context, input *Input) *models.RunResult {
	r := h.newRun(input)
	start := time.Now()

	metrics.RunsActive.Inc()
	defer metrics.RunsActive.Dec()

	spanCtx, span := h.obs.StartSpan(ctx, "generation.run", map[string]string{
		"runId":     r.id,
		"projectId": projectIDOf(input),
	})
	out, err := h.execute(spanCtx, r)
	observability.EndSpan(span, err)

	var result *models.RunResult
	outcome := "ok"
	if err != nil {
		result = h.errHandler.HandleRunError(err, map[string]interface{}{
			"runId":     r.id,
			"projectId": projectIDOf(input),
		})
		result.RunID = r.id
		outcome = result.Details.Code
	} else {
		result = models.SuccessResult(r.id, out.ArtifactIDs, out.Usage)
	}

	duration := time.Since(start)
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	h.obs.RecordRunProcessed(ctx, outcome)
	h.obs.RecordRunDuration(ctx, duration, outcome)

	h.finishStatus(ctx, r, result)
	h.notify(ctx, r, result, duration)

	if result.OK {
		r.logger.Info("generation run completed", map[string]interface{}{
			"artifactCount": len(result.ArtifactIDs),
			"totalTokens":   result.Usage.TotalTokens,
			"calls":         r.usage.Calls(),
			"durationMs":    duration.Milliseconds(),
		})
	}
	return result
}

// Execute runs the core pipeline only and returns its raw error. Callers
// that need the structured result use Run.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, h.newRun(input))
}

func (h *Handler) execute(ctx context.Context, r *run) (out *Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("generation run panicked", map[string]interface{}{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			out, err = nil, errors.NewUnexpectedError(&RunPanicError{Value: rec})
		}
	}()

	input := r.input
	if input == nil || strings.TrimSpace(input.ProjectID) == "" {
		return nil, errors.NewInputError("projectId is required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, errors.NewAuthRequiredError()
	}

	stages, err := h.resolveStages(input.Stages)
	if err != nil {
		return nil, err
	}

	project, err := h.loadProject(ctx, input)
	if err != nil {
		return nil, err
	}
	r.project = project

	competitors, err := h.projects.ListCompetitors(ctx, project.ID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_competitors", err)
	}
	if n := len(competitors); n < h.config.MinCompetitors || n > h.config.MaxCompetitors {
		return nil, errors.NewCompetitorCountError(n, h.config.MinCompetitors, h.config.MaxCompetitors)
	}

	h.setStatus(ctx, r, models.RunStateRunning, "")
	r.statusSet = true

	contexts := h.resolveEvidence(ctx, r, competitors)

	var artifacts []models.Artifact

	snapshots := make([]namedDocument, 0, len(contexts))
	for _, cc := range contexts {
		res, err := h.runStep(ctx, r, step{
			artifact:     models.ArtifactSnapshot,
			competitorID: cc.competitor.ID,
			prepare: func(schema string) []llm.Message {
				h.truncateEvidence(r, cc)
				return snapshotMessages(project, cc, schema)
			},
		})
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, h.newArtifact(r, models.ArtifactSnapshot, cc.competitor.ID, res))
		snapshots = append(snapshots, namedDocument{Competitor: cc.competitor.Name, Snapshot: res.Content})
	}

	synthesis, err := h.runStep(ctx, r, step{
		artifact: models.ArtifactSynthesis,
		prepare: func(schema string) []llm.Message {
			return synthesisMessages(project, snapshots, schema)
		},
	})
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, h.newArtifact(r, models.ArtifactSynthesis, "", synthesis))

	var prior []priorStage
	for _, stage := range stages {
		done := prior
		res, err := h.runStep(ctx, r, step{
			artifact: stage,
			prepare: func(schema string) []llm.Message {
				return stageMessages(project, stage, synthesis.Content, done, schema)
			},
		})
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, h.newArtifact(r, stage, "", res))
		prior = append(prior, priorStage{Stage: stage, Content: res.Content})
	}

	bundle, err := h.evidenceBundle(r, contexts)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, bundle)

	ids, err := h.artifacts.SaveArtifacts(ctx, artifacts)
	if err != nil {
		var stdErr *errors.StandardError
		if errors.As(err, &stdErr) {
			return nil, stdErr
		}
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	for i := range artifacts {
		if i < len(ids) {
			artifacts[i].ID = ids[i]
		}
	}

	return &Output{
		RunID:       r.id,
		ArtifactIDs: ids,
		Artifacts:   artifacts,
		Usage:       r.usage.Snapshot(),
	}, nil
}

func (h *Handler) loadProject(ctx context.Context, input *Input) (*models.Project, error) {
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

	if missing := project.MissingFields(); len(missing) > 0 {
		return nil, errors.NewProjectIncompleteError(missing)
	}
	return project, nil
}

// resolveStages returns the requested extended stages in pipeline order.
func (h *Handler) resolveStages(requested []string) ([]models.ArtifactType, error) {
	want := make(map[models.ArtifactType]bool)
	if len(requested) == 0 {
		for _, t := range h.config.DefaultStages {
			want[t] = true
		}
	}
	for _, s := range requested {
		t, err := models.ParseArtifactType(s)
		if err != nil {
			return nil, errors.NewInputError(err.Error())
		}
		if !t.Generated() || t == models.ArtifactSnapshot || t == models.ArtifactSynthesis {
			return nil, errors.NewInputError(fmt.Sprintf("%q is not an extended stage", s))
		}
		want[t] = true
	}

	stages := make([]models.ArtifactType, 0, len(want))
	for _, t := range models.ExtendedStages() {
		if want[t] {
			stages = append(stages, t)
		}
	}
	return stages, nil
}

// resolveEvidence picks each competitor's stored evidence text, falling back
// to the evidence index. Index failures leave the evidence empty.
func (h *Handler) resolveEvidence(ctx context.Context, r *run, competitors []models.Competitor) []*competitorContext {
	out := make([]*competitorContext, 0, len(competitors))
	for _, c := range competitors {
		cc := &competitorContext{competitor: c, evidence: c.EvidenceText, itemCount: -1}

		if strings.TrimSpace(cc.evidence) == "" && h.evidence != nil {
			text, n, err := h.evidence.EvidenceText(ctx, r.project.ID, c.ID)
			if err != nil {
				h.errHandler.HandleAuxError("evidence_index", err, map[string]interface{}{
					"runId":        r.id,
					"competitorId": c.ID,
				})
			} else {
				cc.evidence = text
				cc.itemCount = n
			}
		}
		cc.chars = utf8.RuneCountInString(cc.evidence)
		out = append(out, cc)
	}
	return out
}

func (h *Handler) truncateEvidence(r *run, cc *competitorContext) {
	text, truncated := validation.Truncate(cc.evidence, h.config.EvidenceCharCap)
	if !truncated {
		return
	}
	cc.evidence = text
	cc.truncated = true
	r.logger.Info("evidence truncated", map[string]interface{}{
		"competitorId":  cc.competitor.ID,
		"originalChars": cc.chars,
		"cap":           h.config.EvidenceCharCap,
	})
}

func (h *Handler) evidenceBundle(r *run, contexts []*competitorContext) (models.Artifact, error) {
	competitors := make([]interface{}, 0, len(contexts))
	for _, cc := range contexts {
		entry := map[string]interface{}{
			"competitor_id":  cc.competitor.ID,
			"name":           cc.competitor.Name,
			"evidence_chars": cc.chars,
			"truncated":      cc.truncated,
		}
		if cc.itemCount >= 0 {
			entry["item_count"] = cc.itemCount
		}
		competitors = append(competitors, entry)
	}
	content := map[string]interface{}{
		"evidence_char_cap": h.config.EvidenceCharCap,
		"competitors":       competitors,
	}

	if outcome := h.registry.Validate(models.ArtifactEvidenceBundle, content); !outcome.OK {
		summary, _ := validation.Truncate(outcome.Error, h.config.ValidationErrorCap)
		return models.Artifact{}, errors.NewGenerationValidationError(models.ArtifactEvidenceBundle.ValidationStage(), "", summary)
	}

	return models.Artifact{
		ProjectID:     r.project.ID,
		RunID:         r.id,
		Type:          models.ArtifactEvidenceBundle,
		SchemaVersion: h.registry.MustLookup(models.ArtifactEvidenceBundle).SchemaVersion,
		Meta: models.ArtifactMeta{
			GeneratedAt: h.config.Now().UTC(),
			RunID:       r.id,
		},
		Content: content,
	}, nil
}

func (h *Handler) newArtifact(r *run, t models.ArtifactType, competitorID string, res *stepResult) models.Artifact {
	usage := res.Usage
	return models.Artifact{
		ProjectID:     r.project.ID,
		RunID:         r.id,
		Type:          t,
		SchemaVersion: h.registry.MustLookup(t).SchemaVersion,
		CompetitorID:  competitorID,
		Meta: models.ArtifactMeta{
			GeneratedAt: h.config.Now().UTC(),
			RunID:       r.id,
			Provider:    res.Provider,
			Model:       res.Model,
			Usage:       &usage,
		},
		Content: res.Content,
	}
}

func (h *Handler) setStatus(ctx context.Context, r *run, state, stage string) {
	if h.status == nil || r.project == nil {
		return
	}
	now := h.config.Now().UTC()
	err := h.status.Set(ctx, models.RunStatus{
		RunID:     r.id,
		ProjectID: r.project.ID,
		State:     state,
		StartedAt: r.began.UTC(),
		UpdatedAt: now,
		Stage:     stage,
	})
	if err != nil {
		h.errHandler.HandleAuxError("run_status", err, map[string]interface{}{
			"runId": r.id,
			"state": state,
		})
	}
}

func (h *Handler) finishStatus(ctx context.Context, r *run, result *models.RunResult) {
	if !r.statusSet {
		return
	}
	if result.OK {
		h.setStatus(ctx, r, models.RunStateSucceeded, "")
		return
	}
	h.setStatus(ctx, r, models.RunStateFailed, result.Details.Stage)
}

func (h *Handler) notify(ctx context.Context, r *run, result *models.RunResult, duration time.Duration) {
	if h.notifier == nil || r.project == nil {
		return
	}
	_, err := h.notifier.Execute(ctx, &notifyrun.Input{
		ProjectID:   r.project.ID,
		ProjectName: r.project.Name,
		Recipient:   r.project.NotifyEmail,
		RunID:       r.id,
		Result:      result,
		DurationMs:  duration.Milliseconds(),
	})
	if err != nil {
		h.errHandler.HandleAuxError("notify_run", err, map[string]interface{}{"runId": r.id})
	}
}

func projectIDOf(input *Input) string {
	if input == nil {
		return ""
	}
	return input.ProjectID
}
