// internal/workers/data-access/project-store/handler.go
package projectstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"
)

const (
	TaskType = "project-store"
)

var (
	ErrProjectNotFound      = errors.New("NOT_FOUND")
	ErrNotProjectOwner      = errors.New("FORBIDDEN")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

const selectProject = `
	SELECT id, owner_id, name, COALESCE(market, ''), COALESCE(product, ''),
	       COALESCE(constraints, ''), COALESCE(risk_posture, ''),
	       COALESCE(notify_email, ''), created_at
	FROM projects
	WHERE id = $1`

const selectCompetitors = `
	SELECT id, project_id, name, COALESCE(url, ''), COALESCE(evidence_text, '')
	FROM competitors
	WHERE project_id = $1
	ORDER BY created_at ASC, id ASC`

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute loads a project the user owns together with its competitors.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}
	project, err := h.GetOwnedProject(ctx, input.ProjectID, input.UserID)
	if err != nil {
		return nil, err
	}
	competitors, err := h.ListCompetitors(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	return &Output{Project: project, Competitors: competitors}, nil
}

func (h *Handler) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var p models.Project
	err := h.db.QueryRowContext(ctx, selectProject, projectID).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Market, &p.Product,
		&p.Constraints, &p.RiskPosture, &p.NotifyEmail, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return nil, h.wrapQueryErr(ctx, err)
	}
	return &p, nil
}

// GetOwnedProject distinguishes a missing project from one owned by
// someone else.
func (h *Handler) GetOwnedProject(ctx context.Context, projectID, userID string) (*models.Project, error) {
	p, err := h.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != userID {
		h.logger.Warn("project access denied", map[string]interface{}{
			"projectId": projectID,
			"userId":    userID,
		})
		return nil, fmt.Errorf("%w: project %s", ErrNotProjectOwner, projectID)
	}
	return p, nil
}

func (h *Handler) ListCompetitors(ctx context.Context, projectID string) ([]models.Competitor, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	rows, err := h.db.QueryContext(ctx, selectCompetitors, projectID)
	if err != nil {
		return nil, h.wrapQueryErr(ctx, err)
	}
	defer rows.Close()

	competitors := []models.Competitor{}
	for rows.Next() {
		var c models.Competitor
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.URL, &c.EvidenceText); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
		}
		competitors = append(competitors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, h.wrapQueryErr(ctx, err)
	}
	return competitors, nil
}

func (h *Handler) wrapQueryErr(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrQueryTimeout
	}
	return fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
}
