// internal/workers/data-access/project-store/models.go
package projectstore

import "competitor-intel/internal/models"

type Input struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}

type Output struct {
	Project     *models.Project     `json:"project"`
	Competitors []models.Competitor `json:"competitors"`
}
