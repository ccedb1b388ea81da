// internal/workers/dashboard/load-project-view/config.go
package loadprojectview

import (
	"time"

	"competitor-intel/internal/models"
)

type Config struct {
	ArtifactLimit int
	EvidenceSize  int
	// Timeout bounds the whole fan-out; slow fetches fall back to defaults.
	Timeout time.Duration
	MVC     models.MVCThresholds
	Now     func() time.Time
}

func LoadConfig() *Config {
	return &Config{
		ArtifactLimit: 50,
		EvidenceSize:  500,
		Timeout:       5 * time.Second,
		MVC:           models.MVCThresholds{MinCompetitorsWithEvidence: 2, MinTypesCovered: 3},
		Now:           time.Now,
	}
}
