// internal/workers/evidence/rank-claims/config.go
package rankclaims

import (
	"time"

	"competitor-intel/internal/common/config"
)

type Config struct {
	Weights config.RankingWeights
	// Now is the ranking clock. Tests pin it.
	Now func() time.Time
}

func LoadConfig() *Config {
	return &Config{
		Weights: DefaultWeights(),
		Now:     time.Now,
	}
}

func DefaultWeights() config.RankingWeights {
	return config.RankingWeights{Recency: 0.35, Party: 0.30, Type: 0.20, Confidence: 0.15}
}
