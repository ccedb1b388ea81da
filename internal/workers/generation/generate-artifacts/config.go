// internal/workers/generation/generate-artifacts/config.go
package generateartifacts

import (
	"time"

	"competitor-intel/internal/models"
)

type Config struct {
	MinCompetitors     int
	MaxCompetitors     int
	EvidenceCharCap    int
	ValidationErrorCap int
	Temperature        float64
	MaxTokens          int
	// StepTimeout bounds each generator call, repair calls included.
	StepTimeout   time.Duration
	DefaultStages []models.ArtifactType
	// Now is the run clock. Tests pin it.
	Now func() time.Time
}

func LoadConfig() *Config {
	return &Config{
		MinCompetitors:     3,
		MaxCompetitors:     10,
		EvidenceCharCap:    12000,
		ValidationErrorCap: 1000,
		Temperature:        0.2,
		MaxTokens:          4096,
		StepTimeout:        60 * time.Second,
		Now:                time.Now,
	}
}
