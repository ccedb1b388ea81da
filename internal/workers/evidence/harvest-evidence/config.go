// internal/workers/evidence/harvest-evidence/config.go
package harvestevidence

import "time"

type Config struct {
	MaxConcurrentQueries int
	QueryTimeout         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxConcurrentQueries: 4,
		QueryTimeout:         10 * time.Second,
	}
}
