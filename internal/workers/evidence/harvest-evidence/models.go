// internal/workers/evidence/harvest-evidence/models.go
package harvestevidence

import (
	"competitor-intel/internal/models"
	planqueries "competitor-intel/internal/workers/evidence/plan-queries"
)

type Input struct {
	Plans []planqueries.QueryPlan `json:"plans"`
}

type Output struct {
	Results       []TypeResult `json:"results"`
	TotalHits     int          `json:"totalHits"`
	FailedQueries int          `json:"failedQueries"`
}

// TypeResult holds the hits for one plan entry, in query order.
type TypeResult struct {
	Type models.EvidenceType `json:"type"`
	Hits []models.TaggedHit  `json:"hits"`
}

// Flatten returns every hit across results, preserving plan order.
func (o *Output) Flatten() []models.TaggedHit {
	var all []models.TaggedHit
	for _, r := range o.Results {
		all = append(all, r.Hits...)
	}
	return all
}
