// internal/models/evidence.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// EvidenceType is the closed set of evidence categories. Values are ordered
// canonically; AllEvidenceTypes returns that order.
type EvidenceType string

const (
	EvidencePricing     EvidenceType = "pricing"
	EvidenceDocs        EvidenceType = "docs"
	EvidenceReviews     EvidenceType = "reviews"
	EvidenceJobs        EvidenceType = "jobs"
	EvidenceChangelog   EvidenceType = "changelog"
	EvidenceBlog        EvidenceType = "blog"
	EvidenceCommunity   EvidenceType = "community"
	EvidenceSecurity    EvidenceType = "security"
	EvidenceCaseStudies EvidenceType = "case_studies"
	EvidenceOther       EvidenceType = "other"
)

var evidenceTypeOrder = []EvidenceType{
	EvidencePricing,
	EvidenceDocs,
	EvidenceReviews,
	EvidenceJobs,
	EvidenceChangelog,
	EvidenceBlog,
	EvidenceCommunity,
	EvidenceSecurity,
	EvidenceCaseStudies,
	EvidenceOther,
}

// AllEvidenceTypes returns every evidence type in canonical order.
func AllEvidenceTypes() []EvidenceType {
	out := make([]EvidenceType, len(evidenceTypeOrder))
	copy(out, evidenceTypeOrder)
	return out
}

// Index returns the canonical position of t, or -1 for unknown values.
func (t EvidenceType) Index() int {
	switch t {
	case EvidencePricing:
		return 0
	case EvidenceDocs:
		return 1
	case EvidenceReviews:
		return 2
	case EvidenceJobs:
		return 3
	case EvidenceChangelog:
		return 4
	case EvidenceBlog:
		return 5
	case EvidenceCommunity:
		return 6
	case EvidenceSecurity:
		return 7
	case EvidenceCaseStudies:
		return 8
	case EvidenceOther:
		return 9
	default:
		return -1
	}
}

func (t EvidenceType) Valid() bool {
	return t.Index() >= 0
}

func (t EvidenceType) String() string {
	return string(t)
}

// ParseEvidenceType accepts the canonical value in any case.
func ParseEvidenceType(s string) (EvidenceType, error) {
	t := EvidenceType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown evidence type %q", s)
	}
	return t, nil
}

// SortEvidenceTypes returns the distinct valid types of in, in canonical order.
func SortEvidenceTypes(in []EvidenceType) []EvidenceType {
	present := make(map[EvidenceType]bool, len(in))
	for _, t := range in {
		present[t] = true
	}
	out := make([]EvidenceType, 0, len(present))
	for _, t := range evidenceTypeOrder {
		if present[t] {
			out = append(out, t)
		}
	}
	return out
}

// ConfidenceLevel is the stated confidence attached to a piece of evidence.
type ConfidenceLevel string

const (
	ConfidenceUnspecified ConfidenceLevel = ""
	ConfidenceLow         ConfidenceLevel = "low"
	ConfidenceMedium      ConfidenceLevel = "medium"
	ConfidenceHigh        ConfidenceLevel = "high"
)

// Party describes who hosts a piece of evidence relative to the competitor.
type Party string

const (
	PartyUnknown Party = "unknown"
	PartyThird   Party = "third"
	PartyFirst   Party = "first"
)

// EvidenceHit is a raw search or feed result before any processing.
type EvidenceHit struct {
	URL         string     `json:"url"`
	Title       string     `json:"title,omitempty"`
	Snippet     string     `json:"snippet,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	RetrievedAt *time.Time `json:"retrievedAt,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// TaggedHit is a hit annotated with the evidence type whose query produced it.
type TaggedHit struct {
	EvidenceHit
	QueryType EvidenceType `json:"queryType"`
}

// EvidenceItem is a canonicalized, classified hit. Items are not modified
// after classification; ranking returns copies with RankScore set.
type EvidenceItem struct {
	EvidenceHit
	CanonicalURL string          `json:"canonicalUrl,omitempty"`
	Domain       string          `json:"domain,omitempty"`
	Type         EvidenceType    `json:"type"`
	Fingerprint  string          `json:"fingerprint"`
	QueryType    EvidenceType    `json:"queryType,omitempty"`
	Confidence   ConfidenceLevel `json:"confidence,omitempty"`
	CompetitorID string          `json:"competitorId,omitempty"`
	RankScore    float64         `json:"rankScore"`
}
