// internal/workers/data-access/artifact-store/config.go
package artifactstore

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		DefaultLimit: 50,
	}
}
