// internal/workers/evidence/collect-evidence/config.go
package collectevidence

import "time"

type Config struct {
	MaxConcurrentCompetitors int
	// UseFeeds adds RSS/Atom items from the competitor's site to the harvest.
	UseFeeds bool
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxConcurrentCompetitors: 3,
		UseFeeds:                 true,
		Timeout:                  2 * time.Minute,
	}
}
