// internal/workers/evidence/collect-evidence/models.go
package collectevidence

import "competitor-intel/internal/models"

type Input struct {
	ProjectID    string              `json:"projectId"`
	Competitors  []models.Competitor `json:"competitors"`
	IncludeTypes []string            `json:"includeTypes,omitempty"`
}

type Output struct {
	Competitors []CompetitorResult    `json:"competitors"`
	Coverage    models.CoverageReport `json:"coverage"`
	Indexed     int                   `json:"indexed"`
}

// CompetitorResult is one competitor's ranked evidence. Error is set when
// that competitor's pipeline failed; the other competitors are unaffected.
type CompetitorResult struct {
	CompetitorID string                `json:"competitorId"`
	Name         string                `json:"name"`
	Items        []models.EvidenceItem `json:"items"`
	Stats        Stats                 `json:"stats"`
	Error        string                `json:"error,omitempty"`
}

type Stats struct {
	SearchHits       int `json:"searchHits"`
	FeedHits         int `json:"feedHits"`
	FailedQueries    int `json:"failedQueries"`
	DroppedEmpty     int `json:"droppedEmpty"`
	DroppedDuplicate int `json:"droppedDuplicate"`
}
