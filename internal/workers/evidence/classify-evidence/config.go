// internal/workers/evidence/classify-evidence/config.go
package classifyevidence

type Config struct {
	Rules []Rule
}

func LoadConfig() *Config {
	return &Config{
		Rules: DefaultRules(),
	}
}
