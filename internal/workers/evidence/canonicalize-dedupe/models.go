// internal/workers/evidence/canonicalize-dedupe/models.go
package canonicalizededupe

import "competitor-intel/internal/models"

type Input struct {
	Hits         []models.TaggedHit `json:"hits"`
	CompetitorID string             `json:"competitorId,omitempty"`
}

type Output struct {
	Items            []models.EvidenceItem `json:"items"`
	DroppedEmpty     int                   `json:"droppedEmpty"`
	DroppedDuplicate int                   `json:"droppedDuplicate"`
}
