// internal/workers/evidence/analyze-coverage/config.go
package analyzecoverage

import (
	"time"

	"competitor-intel/internal/models"
)

type Config struct {
	MVC           models.MVCThresholds
	ExpectedTypes []models.EvidenceType
	Now           func() time.Time
}

func LoadConfig() *Config {
	return &Config{
		MVC:           models.MVCThresholds{MinCompetitorsWithEvidence: 2, MinTypesCovered: 3},
		ExpectedTypes: DefaultExpectedTypes(),
		Now:           time.Now,
	}
}

// DefaultExpectedTypes is every evidence type except other.
func DefaultExpectedTypes() []models.EvidenceType {
	all := models.AllEvidenceTypes()
	out := make([]models.EvidenceType, 0, len(all)-1)
	for _, t := range all {
		if t != models.EvidenceOther {
			out = append(out, t)
		}
	}
	return out
}
