// internal/workers/evidence/plan-queries/config.go
package planqueries

import "competitor-intel/internal/models"

type Config struct {
	// Terms are the type-specific words combined with the company name.
	Terms map[models.EvidenceType][]string
}

func LoadConfig() *Config {
	return &Config{
		Terms: DefaultTerms(),
	}
}

// DefaultTerms returns a fresh copy of the built-in term sets.
func DefaultTerms() map[models.EvidenceType][]string {
	return map[models.EvidenceType][]string{
		models.EvidencePricing:     {"pricing", "plans"},
		models.EvidenceDocs:        {"documentation", "api"},
		models.EvidenceReviews:     {"reviews", "ratings"},
		models.EvidenceJobs:        {"careers", "jobs"},
		models.EvidenceChangelog:   {"changelog", "release notes"},
		models.EvidenceBlog:        {"blog", "announcement"},
		models.EvidenceCommunity:   {"community", "forum"},
		models.EvidenceSecurity:    {"security", "compliance"},
		models.EvidenceCaseStudies: {"case study", "customers"},
		models.EvidenceOther:       {"company", "overview"},
	}
}
