// internal/workers/evidence/analyze-coverage/models.go
package analyzecoverage

import "competitor-intel/internal/models"

type Input struct {
	Competitors []CompetitorEvidence `json:"competitors"`
	// MVC overrides the configured thresholds when set.
	MVC *models.MVCThresholds `json:"mvc,omitempty"`
}

// CompetitorEvidence is one competitor's ranked items.
type CompetitorEvidence struct {
	CompetitorID      string                `json:"competitorId"`
	Name              string                `json:"name"`
	FirstPartyDomains []string              `json:"firstPartyDomains,omitempty"`
	Items             []models.EvidenceItem `json:"items"`
}

type Output struct {
	Report models.CoverageReport `json:"report"`
}
