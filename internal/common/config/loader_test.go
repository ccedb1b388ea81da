// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"competitor-intel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
database:
  postgres:
    host: localhost
    database: intel
    user: intel
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Pipeline.MinCompetitors)
	assert.Equal(t, 10, cfg.Pipeline.MaxCompetitors)
	assert.Equal(t, 12000, cfg.Pipeline.EvidenceCharCap)
	assert.Equal(t, 1000, cfg.Pipeline.ValidationErrorCap)
	assert.Equal(t, models.MVCThresholds{MinCompetitorsWithEvidence: 2, MinTypesCovered: 3}, cfg.Pipeline.MVC)
	assert.InDelta(t, 0.35, cfg.Pipeline.Ranking.Recency, 1e-9)
	assert.Equal(t, "http", cfg.APIs.GenAI.Provider)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.GetAddresses())
	assert.Equal(t, "intel-evidence", cfg.Database.Elasticsearch.EvidenceIndex)
	assert.Equal(t, 10, cfg.Database.Redis.PoolSize)
	assert.Equal(t, 86400, cfg.Database.Redis.RunStatusTTL)
	assert.Empty(t, cfg.Generation.DefaultStages)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("INTEL_TEST_SEARCH_KEY", "secret-key")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML+`
apis:
  web_search:
    api_key: ${INTEL_TEST_SEARCH_KEY}
`))
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.APIs.WebSearch.APIKey)
}

func TestLoadFromFile_ClassifierAndStages(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML+`
pipeline:
  classifier:
    pricing:
      paths: ["tarifs"]
generation:
  default_stages: ["opportunities", "strategic_bets"]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"tarifs"}, cfg.Pipeline.Classifier["pricing"].Paths)
	assert.Equal(t, []string{"opportunities", "strategic_bets"}, cfg.Generation.DefaultStages)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing postgres host",
			body:    "database:\n  redis:\n    address: x\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "unknown provider",
			body:    minimalYAML + "apis:\n  genai:\n    provider: carrier-pigeon\n",
			wantErr: "apis.genai.provider",
		},
		{
			name:    "unknown classifier type",
			body:    minimalYAML + "pipeline:\n  classifier:\n    press:\n      keywords: [press]\n",
			wantErr: "unknown evidence type",
		},
		{
			name:    "snapshot is not an extended stage",
			body:    minimalYAML + "generation:\n  default_stages: [snapshot]\n",
			wantErr: "not an extended stage",
		},
		{
			name:    "inverted competitor bounds",
			body:    minimalYAML + "pipeline:\n  min_competitors: 5\n  max_competitors: 4\n",
			wantErr: "competitor bounds invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
