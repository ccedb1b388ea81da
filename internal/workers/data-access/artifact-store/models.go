// internal/workers/data-access/artifact-store/models.go
package artifactstore

import "competitor-intel/internal/models"

type Input struct {
	Artifacts []models.Artifact `json:"artifacts"`
}

type Output struct {
	ArtifactIDs []string `json:"artifactIds"`
}
