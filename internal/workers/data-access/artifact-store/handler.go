// internal/workers/data-access/artifact-store/handler.go
package artifactstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"competitor-intel/internal/common/database"
	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"

	"github.com/google/uuid"
)

const (
	TaskType = "artifact-store"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrArtifactNotFound     = errors.New("NOT_FOUND")
	ErrInvalidArtifact      = errors.New("INPUT_INVALID")
)

const insertArtifact = `
	INSERT INTO artifacts (
		id, project_id, run_id, type, schema_version, competitor_id, meta, content, created_at
	) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)`

const selectArtifacts = `
	SELECT id, project_id, run_id, type, schema_version, COALESCE(competitor_id, ''), meta, content, created_at
	FROM artifacts`

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidArtifact)
	}
	ids, err := h.SaveArtifacts(ctx, input.Artifacts)
	if err != nil {
		return nil, err
	}
	return &Output{ArtifactIDs: ids}, nil
}

// SaveArtifacts writes all artifacts in one transaction: either every row
// is stored or none is. Missing ids are assigned. Rows are never updated.
func (h *Handler) SaveArtifacts(ctx context.Context, artifacts []models.Artifact) ([]string, error) {
	if len(artifacts) == 0 {
		return []string{}, nil
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	type row struct {
		artifact models.Artifact
		meta     []byte
		content  []byte
	}
	rows := make([]row, 0, len(artifacts))
	for i, a := range artifacts {
		if !a.Type.Valid() || a.ProjectID == "" || a.RunID == "" {
			return nil, fmt.Errorf("%w: artifact %d needs a valid type, project and run", ErrInvalidArtifact, i)
		}
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = h.now().UTC()
		}
		meta, err := json.Marshal(a.Meta)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal meta: %v", ErrInvalidArtifact, err)
		}
		content, err := json.Marshal(a.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal content: %v", ErrInvalidArtifact, err)
		}
		rows = append(rows, row{artifact: a, meta: meta, content: content})
	}

	err := database.WithTx(ctx, h.db, func(tx *sql.Tx) error {
		for _, r := range rows {
			a := r.artifact
			if _, err := tx.ExecContext(ctx, insertArtifact,
				a.ID, a.ProjectID, a.RunID, string(a.Type), a.SchemaVersion, a.CompetitorID,
				r.meta, r.content, a.CreatedAt,
			); err != nil {
				return fmt.Errorf("insert %s artifact: %w", a.Type, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.artifact.ID
	}

	h.writeAudit(ctx, rows[0].artifact, ids)

	h.logger.Info("artifacts persisted", map[string]interface{}{
		"projectId":  rows[0].artifact.ProjectID,
		"runId":      rows[0].artifact.RunID,
		"count":      len(ids),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return ids, nil
}

// writeAudit records the run in audit_log. Failures are logged only.
func (h *Handler) writeAudit(ctx context.Context, first models.Artifact, ids []string) {
	details, err := json.Marshal(map[string]interface{}{
		"projectId":   first.ProjectID,
		"artifactIds": ids,
	})
	if err != nil {
		h.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err.Error(),
		})
		details = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"artifacts_created",
		"generation_run",
		first.RunID,
		details,
		h.now().UTC(),
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"runId": first.RunID,
			"error": err.Error(),
		})
	}
}

// ListArtifacts returns the newest artifacts of a project first.
func (h *Handler) ListArtifacts(ctx context.Context, projectID string, limit int) ([]models.Artifact, error) {
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	rows, err := h.db.QueryContext(ctx, selectArtifacts+`
	WHERE project_id = $1
	ORDER BY created_at DESC
	LIMIT $2`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	artifacts := []models.Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	return artifacts, nil
}

// LatestArtifact returns the newest artifact of type t.
func (h *Handler) LatestArtifact(ctx context.Context, projectID string, t models.ArtifactType) (*models.Artifact, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	row := h.db.QueryRowContext(ctx, selectArtifacts+`
	WHERE project_id = $1 AND type = $2
	ORDER BY created_at DESC
	LIMIT 1`, projectID, string(t))

	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no %s artifact for project %s", ErrArtifactNotFound, t, projectID)
	}
	return a, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArtifact(s scanner) (*models.Artifact, error) {
	var (
		a       models.Artifact
		typ     string
		meta    []byte
		content []byte
	)
	if err := s.Scan(&a.ID, &a.ProjectID, &a.RunID, &typ, &a.SchemaVersion, &a.CompetitorID, &meta, &content, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	a.Type = models.ArtifactType(typ)
	if err := json.Unmarshal(meta, &a.Meta); err != nil {
		return nil, fmt.Errorf("%w: decode meta of %s: %v", ErrQueryExecutionFailed, a.ID, err)
	}
	if err := json.Unmarshal(content, &a.Content); err != nil {
		return nil, fmt.Errorf("%w: decode content of %s: %v", ErrQueryExecutionFailed, a.ID, err)
	}
	return &a, nil
}
