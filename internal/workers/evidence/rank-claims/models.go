// internal/workers/evidence/rank-claims/models.go
package rankclaims

import "competitor-intel/internal/models"

type Input struct {
	Items             []models.EvidenceItem `json:"items"`
	FirstPartyDomains []string              `json:"firstPartyDomains,omitempty"`
}

type Output struct {
	Items      []models.EvidenceItem `json:"items"`
	Breakdowns []ScoreBreakdown      `json:"breakdowns"`
}

// ScoreBreakdown holds the 0-100 component scores behind a RankScore.
// Breakdowns[i] belongs to Items[i].
type ScoreBreakdown struct {
	Fingerprint string       `json:"fingerprint"`
	Recency     float64      `json:"recency"`
	Party       float64      `json:"party"`
	PartyKind   models.Party `json:"partyKind"`
	TypeValue   float64      `json:"typeValue"`
	Confidence  float64      `json:"confidence"`
	Total       float64      `json:"total"`
}
