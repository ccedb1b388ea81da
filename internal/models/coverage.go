// internal/models/coverage.go
package models

import "time"

// CoverageLabel is the overall confidence in the evidence set.
type CoverageLabel string

const (
	CoverageInsufficient CoverageLabel = "Insufficient"
	CoverageLow          CoverageLabel = "Low"
	CoverageMedium       CoverageLabel = "Medium"
	CoverageHigh         CoverageLabel = "High"
)

// Gap is an expected evidence type with no items and what to do about it.
type Gap struct {
	Type       EvidenceType `json:"type"`
	Suggestion string       `json:"suggestion"`
}

type CompetitorCoverage struct {
	CompetitorID    string               `json:"competitorId"`
	Name            string               `json:"name"`
	Total           int                  `json:"total"`
	CountsByType    map[EvidenceType]int `json:"countsByType"`
	TypesCovered    int                  `json:"typesCovered"`
	MissingTypes    []EvidenceType       `json:"missingTypes"`
	FirstPartyRatio *float64             `json:"firstPartyRatio"`
	RecencyScore    float64              `json:"recencyScore"`
	MostRecentAt    *time.Time           `json:"mostRecentAt,omitempty"`
}

// CoverageReport is derived on every read and never stored as a record.
type CoverageReport struct {
	CountsByType            map[EvidenceType]int `json:"countsByType"`
	CompetitorsWithEvidence int                  `json:"competitorsWithEvidence"`
	TotalCompetitors        int                  `json:"totalCompetitors"`
	TypesCovered            int                  `json:"typesCovered"`
	ExpectedTypes           int                  `json:"expectedTypes"`
	FirstPartyRatio         *float64             `json:"firstPartyRatio"`
	RecencyScore            float64              `json:"recencyScore"`
	MostRecentDaysAgo       *int                 `json:"mostRecentDaysAgo,omitempty"`
	RecencySummary          string               `json:"recencySummary"`
	Confidence              CoverageLabel        `json:"confidence"`
	Gaps                    []Gap                `json:"gaps"`
	Competitors             []CompetitorCoverage `json:"competitors"`
	GeneratedAt             time.Time            `json:"generatedAt"`
}

// MVCThresholds is the minimum viable coverage needed before generation.
type MVCThresholds struct {
	MinCompetitorsWithEvidence int `json:"minCompetitorsWithEvidence" mapstructure:"min_competitors_with_evidence"`
	MinTypesCovered            int `json:"minTypesCovered" mapstructure:"min_types_covered"`
}
