// internal/common/config/config.go
package config

import (
	"fmt"

	"competitor-intel/internal/models"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Auth          AuthConfig         `mapstructure:"auth"`
	APIs          APIsConfig         `mapstructure:"apis"`
	Pipeline      PipelineConfig     `mapstructure:"pipeline"`
	Generation    GenerationConfig   `mapstructure:"generation"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	ReadTimeout     int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"` // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	RequestTimeout  int      `mapstructure:"request_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	URL           string   `mapstructure:"url"`
	EvidenceIndex string   `mapstructure:"evidence_index"`
}

// GetAddresses returns Addresses, or URL when only the single form is set.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

// RedisConfig backs run status, commitments and the search cache.
type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	RunStatusTTL int    `mapstructure:"run_status_ttl"` // seconds
}

// AuthConfig holds the Keycloak client used for token introspection.
type AuthConfig struct {
	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
	} `mapstructure:"keycloak"`
}

// GenAIConfig selects and tunes the structured-output generator.
type GenAIConfig struct {
	Provider    string  `mapstructure:"provider"` // http | gemini
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type WebSearchConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	EngineID   string `mapstructure:"engine_id"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxResults int    `mapstructure:"max_results"`
	CacheTTL   int    `mapstructure:"cache_ttl"` // seconds, 0 disables the cache
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI     GenAIConfig     `mapstructure:"genai"`
	WebSearch WebSearchConfig `mapstructure:"web_search"`
}

type RankingWeights struct {
	Recency    float64 `mapstructure:"recency"`
	Party      float64 `mapstructure:"party"`
	Type       float64 `mapstructure:"type"`
	Confidence float64 `mapstructure:"confidence"`
}

// ClassifierOverride extends the built-in rules for one evidence type.
type ClassifierOverride struct {
	Paths    []string `mapstructure:"paths"`
	Hosts    []string `mapstructure:"hosts"`
	Keywords []string `mapstructure:"keywords"`
}

type PipelineConfig struct {
	MinCompetitors       int                           `mapstructure:"min_competitors"`
	MaxCompetitors       int                           `mapstructure:"max_competitors"`
	EvidenceCharCap      int                           `mapstructure:"evidence_char_cap"`
	ValidationErrorCap   int                           `mapstructure:"validation_error_cap"`
	MaxConcurrentQueries int                           `mapstructure:"max_concurrent_queries"`
	FeedPaths            []string                      `mapstructure:"feed_paths"`
	MVC                  models.MVCThresholds          `mapstructure:"mvc"`
	Ranking              RankingWeights                `mapstructure:"ranking"`
	Classifier           map[string]ClassifierOverride `mapstructure:"classifier"`
}

type GenerationConfig struct {
	DefaultStages []string `mapstructure:"default_stages"`
	StepTimeout   int      `mapstructure:"step_timeout"` // milliseconds
}

// NotificationConfig holds settings for the notify-run worker.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
