// internal/workers/dashboard/load-project-view/models.go
package loadprojectview

import (
	"context"

	"competitor-intel/internal/models"
	evidenceindex "competitor-intel/internal/workers/data-access/evidence-index"
)

type Input struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}

// Output is the project overview. Every field except Project may hold its
// default when the matching fetch failed; Degraded names those fetches.
type Output struct {
	Project        *models.Project        `json:"project"`
	Competitors    []models.Competitor    `json:"competitors"`
	Artifacts      []models.Artifact      `json:"artifacts"`
	RunStatus      *models.RunStatus      `json:"runStatus"`
	EvidenceBundle *models.Artifact       `json:"evidenceBundle"`
	Coverage       *models.CoverageReport `json:"coverage"`
	Degraded       []string               `json:"degraded"`
}

type ProjectStore interface {
	GetOwnedProject(ctx context.Context, projectID, userID string) (*models.Project, error)
	ListCompetitors(ctx context.Context, projectID string) ([]models.Competitor, error)
}

type ArtifactReader interface {
	ListArtifacts(ctx context.Context, projectID string, limit int) ([]models.Artifact, error)
	LatestArtifact(ctx context.Context, projectID string, t models.ArtifactType) (*models.Artifact, error)
}

type RunStatusReader interface {
	Get(ctx context.Context, projectID string) (*models.RunStatus, error)
}

type EvidenceSearcher interface {
	Execute(ctx context.Context, input *evidenceindex.Input) (*evidenceindex.Output, error)
}
