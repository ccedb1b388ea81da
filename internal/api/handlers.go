// internal/api/handlers.go
package api

import (
	"context"
	"io"
	"net/http"

	"competitor-intel/internal/common/errors"
	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"
	commitments "competitor-intel/internal/workers/dashboard/commitments"
	loadprojectview "competitor-intel/internal/workers/dashboard/load-project-view"
	projectstore "competitor-intel/internal/workers/data-access/project-store"
	collectevidence "competitor-intel/internal/workers/evidence/collect-evidence"
	planqueries "competitor-intel/internal/workers/evidence/plan-queries"
	generateartifacts "competitor-intel/internal/workers/generation/generate-artifacts"

	"github.com/gin-gonic/gin"
)

type ProjectAccess interface {
	GetOwnedProject(ctx context.Context, projectID, userID string) (*models.Project, error)
	ListCompetitors(ctx context.Context, projectID string) ([]models.Competitor, error)
}

type RunExecutor interface {
	Run(ctx context.Context, input *generateartifacts.Input) *models.RunResult
}

type EvidenceCollector interface {
	Execute(ctx context.Context, input *collectevidence.Input) (*collectevidence.Output, error)
}

type ProjectViewer interface {
	Execute(ctx context.Context, input *loadprojectview.Input) (*loadprojectview.Output, error)
}

type QueryPlanner interface {
	Execute(ctx context.Context, input *planqueries.Input) (*planqueries.Output, error)
}

type CommitmentService interface {
	List(ctx context.Context, projectID string) ([]commitments.Entry, error)
	Put(ctx context.Context, projectID, key string, input commitments.PutInput) (*commitments.Entry, error)
}

type Dependencies struct {
	Projects    ProjectAccess
	Runs        RunExecutor
	Evidence    EvidenceCollector
	Views       ProjectViewer
	Planner     QueryPlanner
	Commitments CommitmentService
}

// Handler serves the /api/v1 routes. Every failure is written as a
// models.RunResult with ok=false.
type Handler struct {
	deps   Dependencies
	logger logger.Logger
}

func NewHandler(deps Dependencies, log logger.Logger) *Handler {
	return &Handler{
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

type runRequest struct {
	Stages []string `json:"stages"`
}

type evidenceRequest struct {
	IncludeTypes []string `json:"includeTypes"`
}

// StartRun executes a generation run synchronously and returns its result.
func (h *Handler) StartRun(c *gin.Context) {
	var req runRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result := h.deps.Runs.Run(c.Request.Context(), &generateartifacts.Input{
		ProjectID: c.Param("projectId"),
		UserID:    c.GetString(userIDKey),
		Stages:    req.Stages,
	})
	if result.OK {
		c.JSON(http.StatusCreated, result)
		return
	}
	status := http.StatusInternalServerError
	if result.Details != nil {
		status = errors.HTTPStatus(errors.ErrorCode(result.Details.Code))
	}
	c.JSON(status, result)
}

// CollectEvidence runs the evidence pipeline over the project's competitors.
func (h *Handler) CollectEvidence(c *gin.Context) {
	var req evidenceRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	competitors, err := h.deps.Projects.ListCompetitors(ctx, project.ID)
	if err != nil {
		abortWithError(c, errors.NewQueryExecutionFailedError("list_competitors", err))
		return
	}

	out, err := h.deps.Evidence.Execute(ctx, &collectevidence.Input{
		ProjectID:    project.ID,
		Competitors:  competitors,
		IncludeTypes: req.IncludeTypes,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetOverview(c *gin.Context) {
	out, ok := h.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetCoverage derives the coverage report from the indexed evidence.
func (h *Handler) GetCoverage(c *gin.Context) {
	out, ok := h.view(c)
	if !ok {
		return
	}
	if out.Coverage == nil {
		abortWithError(c, errors.NewAuxFetchError("coverage", errors.New("evidence unavailable")))
		return
	}
	c.JSON(http.StatusOK, out.Coverage)
}

func (h *Handler) PlanQueries(c *gin.Context) {
	var in planqueries.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, errors.NewInputError(err.Error()))
		return
	}
	out, err := h.deps.Planner.Execute(c.Request.Context(), &in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ListCommitments(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	entries, err := h.deps.Commitments.List(c.Request.Context(), project.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if entries == nil {
		entries = []commitments.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"commitments": entries})
}

func (h *Handler) PutCommitment(c *gin.Context) {
	var in commitments.PutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, errors.NewInputError(err.Error()))
		return
	}
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	entry, err := h.deps.Commitments.Put(c.Request.Context(), project.ID, c.Param("key"), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) view(c *gin.Context) (*loadprojectview.Output, bool) {
	out, err := h.deps.Views.Execute(c.Request.Context(), &loadprojectview.Input{
		ProjectID: c.Param("projectId"),
		UserID:    c.GetString(userIDKey),
	})
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return out, true
}

func (h *Handler) ownedProject(c *gin.Context) (*models.Project, bool) {
	projectID := c.Param("projectId")
	project, err := h.deps.Projects.GetOwnedProject(c.Request.Context(), projectID, c.GetString(userIDKey))
	if errors.Is(err, projectstore.ErrProjectNotFound) {
		abortWithError(c, errors.NewNotFoundError("project", projectID))
		return nil, false
	}
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return project, true
}

// bindOptionalJSON accepts an empty body as the zero request.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, errors.NewInputError(err.Error()))
		return false
	}
	return true
}

// abortWithError writes the structured failure with the status its code maps to.
func abortWithError(c *gin.Context, err error) {
	stdErr := toStandardError(err)
	_ = c.Error(err)
	result := errors.ToRunFailure(stdErr)
	c.AbortWithStatusJSON(errors.HTTPStatus(stdErr.Code), result)
}

// toStandardError maps the workers' sentinel errors onto error codes.
func toStandardError(err error) *errors.StandardError {
	var stdErr *errors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	switch {
	case errors.Is(err, projectstore.ErrProjectNotFound):
		return errors.NewNotFoundError("project", "")
	case errors.Is(err, projectstore.ErrNotProjectOwner):
		return errors.NewForbiddenError("project belongs to another user")
	case errors.Is(err, projectstore.ErrQueryTimeout),
		errors.Is(err, projectstore.ErrQueryExecutionFailed):
		return errors.NewQueryExecutionFailedError("project", err)
	case errors.Is(err, planqueries.ErrInvalidInput),
		errors.Is(err, collectevidence.ErrInvalidInput),
		errors.Is(err, commitments.ErrInvalidKey):
		return errors.NewInputError(err.Error())
	case errors.Is(err, commitments.ErrNotFound):
		return errors.NewNotFoundError("commitment", "")
	default:
		return errors.NewUnexpectedError(err)
	}
}
