// internal/workers/evidence/plan-queries/models.go
package planqueries

import "competitor-intel/internal/models"

type Input struct {
	CompanyName  string   `json:"companyName"`
	URL          string   `json:"url,omitempty"`
	IncludeTypes []string `json:"includeTypes,omitempty"`
}

type Output struct {
	Plans []QueryPlan `json:"plans"`
}

// QueryPlan is the search query list for one evidence type. Queries[0] is
// always the plain company-name query.
type QueryPlan struct {
	Type             models.EvidenceType `json:"type"`
	Queries          []string            `json:"queries"`
	PreferredDomains []string            `json:"preferredDomains,omitempty"`
}
