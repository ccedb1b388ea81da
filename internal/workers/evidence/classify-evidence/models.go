// internal/workers/evidence/classify-evidence/models.go
package classifyevidence

import "competitor-intel/internal/models"

type Input struct {
	Items []models.EvidenceItem `json:"items"`
}

type Output struct {
	Items        []models.EvidenceItem       `json:"items"`
	CountsByType map[models.EvidenceType]int `json:"countsByType"`
	CountsByTier map[Tier]int                `json:"countsByTier"`
	TagFallbacks int                         `json:"tagFallbacks"`
}
