// internal/workers/generation/generate-artifacts/models.go
package generateartifacts

import (
	"context"

	"competitor-intel/internal/models"
	notifyrun "competitor-intel/internal/workers/generation/notify-run"
)

type Input struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	// Stages lists extended stages to run after synthesis. Empty means the
	// configured defaults.
	Stages []string `json:"stages,omitempty"`
}

type Output struct {
	RunID       string            `json:"runId"`
	ArtifactIDs []string          `json:"artifactIds"`
	Artifacts   []models.Artifact `json:"artifacts"`
	Usage       models.Usage      `json:"usage"`
}

type ProjectStore interface {
	GetOwnedProject(ctx context.Context, projectID, userID string) (*models.Project, error)
	ListCompetitors(ctx context.Context, projectID string) ([]models.Competitor, error)
}

type ArtifactStore interface {
	SaveArtifacts(ctx context.Context, artifacts []models.Artifact) ([]string, error)
}

// EvidenceSource supplies evidence text for competitors that have none
// stored on their record.
type EvidenceSource interface {
	EvidenceText(ctx context.Context, projectID, competitorID string) (string, int, error)
}

type RunStatusStore interface {
	Set(ctx context.Context, status models.RunStatus) error
}

type Notifier interface {
	Execute(ctx context.Context, input *notifyrun.Input) (*notifyrun.Output, error)
}

// competitorContext is one competitor as seen by the snapshot step.
type competitorContext struct {
	competitor models.Competitor
	evidence   string
	itemCount  int
	truncated  bool
	chars      int
}
