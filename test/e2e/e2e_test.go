//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"competitor-intel/internal/common/config"
	"competitor-intel/internal/common/database"
	"competitor-intel/internal/common/llm"
	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/common/runstatus"
	"competitor-intel/internal/models"
	"competitor-intel/pkg/registry"

	commitments "competitor-intel/internal/workers/dashboard/commitments"
	loadprojectview "competitor-intel/internal/workers/dashboard/load-project-view"
	artifactstore "competitor-intel/internal/workers/data-access/artifact-store"
	evidenceindex "competitor-intel/internal/workers/data-access/evidence-index"
	projectstore "competitor-intel/internal/workers/data-access/project-store"
	generateartifacts "competitor-intel/internal/workers/generation/generate-artifacts"
	notifyrun "competitor-intel/internal/workers/generation/notify-run"
)

var zapLog *zap.Logger

func TestMain(m *testing.M) {
	zapLog, _ = zap.NewProduction()
	code := m.Run()
	_ = zapLog.Sync()
	os.Exit(code)
}

type services struct {
	cfg *config.Config
	pg  *database.PostgresClient
	es  *database.ElasticsearchClient
	rdb *database.RedisClient
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	t.Log("Starting E2E run against real Postgres, Redis and Elasticsearch")

	svc := connect(t, ctx, cfg)
	projectID := seedProject(t, ctx, svc.pg.DB)
	log := logger.NewZapAdapter(zapLog)

	indexCfg := evidenceindex.LoadConfig()
	indexCfg.Index = cfg.Database.Elasticsearch.EvidenceIndex
	indexCfg.Refresh = "wait_for"
	index := evidenceindex.NewHandler(indexCfg, svc.es.Client, log)

	projects := projectstore.NewHandler(projectstore.LoadConfig(), svc.pg.DB, log)
	artifacts := artifactstore.NewHandler(artifactstore.LoadConfig(), svc.pg.DB, log)
	runs := runstatus.NewStore(svc.rdb.Client, time.Hour)

	// 1. Index evidence for the competitor that has no stored text.
	published := time.Now().AddDate(0, 0, -5).UTC()
	res, err := index.IndexItems(ctx, projectID, []models.EvidenceItem{{
		EvidenceHit: models.EvidenceHit{
			URL:         "https://globex.example/pricing",
			Title:       "Globex pricing",
			Snippet:     "Team plan at $20 per seat.",
			PublishedAt: &published,
		},
		CanonicalURL: "https://globex.example/pricing",
		Domain:       "globex.example",
		Type:         models.EvidencePricing,
		Fingerprint:  "fp-globex-pricing",
		CompetitorID: projectID + "-c3",
		RankScore:    72,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Indexed)
	t.Log("Evidence indexed")

	// 2. Generation run with a gateway that returns one document valid for every stage.
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"text":  universalDocument,
			"model": "e2e-gateway",
			"usage": map[string]int{"input_tokens": 100, "output_tokens": 50, "total_tokens": 150},
		})
	}))
	defer gateway.Close()

	genCfg := generateartifacts.LoadConfig()
	genCfg.StepTimeout = 10 * time.Second
	genCfg.DefaultStages = []models.ArtifactType{models.ArtifactOpportunities}

	orchestrator := generateartifacts.NewHandler(genCfg, generateartifacts.Dependencies{
		Projects:  projects,
		Artifacts: artifacts,
		Evidence:  index,
		RunStatus: runs,
		Notifier:  notifyrun.NewService(notifyrun.ServiceDependencies{Logger: log}, notifyrun.DefaultConfig()),
		Generator: llm.NewHTTPGenerator(gateway.URL, "", "e2e", 10*time.Second),
		Registry:  registry.MustDefault(),
	}, log)

	result := orchestrator.Run(ctx, &generateartifacts.Input{ProjectID: projectID, UserID: "e2e-user"})
	require.True(t, result.OK, "run failed: %+v", result.Details)
	// 3 snapshots, synthesis, opportunities and the evidence bundle.
	assert.Len(t, result.ArtifactIDs, 6)
	// The bundle is built locally, so only five generator calls are billed.
	assert.Equal(t, int64(5*150), result.Usage.TotalTokens)
	t.Log("Generation run succeeded")

	bundle, err := artifacts.LatestArtifact(ctx, projectID, models.ArtifactEvidenceBundle)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, bundle.RunID)

	// 3. Dashboard reads.
	views := loadprojectview.NewHandler(loadprojectview.LoadConfig(), projects, artifacts, runs, index, log)
	view, err := views.Execute(ctx, &loadprojectview.Input{ProjectID: projectID, UserID: "e2e-user"})
	require.NoError(t, err)
	assert.Empty(t, view.Degraded)
	assert.Len(t, view.Competitors, 3)
	assert.Len(t, view.Artifacts, 6)
	require.NotNil(t, view.RunStatus)
	assert.Equal(t, models.RunStateSucceeded, view.RunStatus.State)
	require.NotNil(t, view.Coverage)
	assert.Equal(t, 1, view.Coverage.CompetitorsWithEvidence)

	_, err = views.Execute(ctx, &loadprojectview.Input{ProjectID: projectID, UserID: "someone-else"})
	assert.Error(t, err)

	store := commitments.NewHandler(commitments.NewRedisStore(svc.rdb.Client), log)
	key := commitments.Key(projectID, result.ArtifactIDs[4], "opportunities.0")
	_, err = store.Put(ctx, projectID, key, commitments.PutInput{Committed: true, Note: "e2e"})
	require.NoError(t, err)
	entries, err := store.List(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key, entries[0].Key)

	t.Log("E2E workflow passed")
}

func connect(t *testing.T, ctx context.Context, cfg *config.Config) *services {
	t.Helper()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	t.Cleanup(func() { _ = pg.Close() })
	require.NoError(t, database.EnsureSchema(ctx, pg.DB))

	rdb := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, rdb.Ping(ctx), "Redis ping failed")
	t.Cleanup(func() { _ = rdb.Close() })

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err, "Elasticsearch client creation failed")
	require.NoError(t, es.Ping(ctx), "Elasticsearch ping failed")
	require.NoError(t, es.EnsureIndex(ctx, cfg.Database.Elasticsearch.EvidenceIndex, evidenceindex.Mapping))

	t.Log("All services connected")
	return &services{cfg: cfg, pg: pg, es: es, rdb: rdb}
}

// seedProject inserts a fresh project with three competitors and removes it
// when the test ends.
func seedProject(t *testing.T, ctx context.Context, db *sql.DB) string {
	t.Helper()
	projectID := "e2e-" + uuid.NewString()

	_, err := db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, name, market, product, risk_posture)
		VALUES ($1, 'e2e-user', 'E2E Launch', 'B2B invoicing', 'Invoice automation', 'balanced')`, projectID)
	require.NoError(t, err)

	competitors := []struct{ suffix, name, url, evidence string }{
		{"c1", "Acme", "https://acme.example", "Acme charges per invoice and targets freelancers."},
		{"c2", "Initech", "https://initech.example", "Initech sells annual enterprise contracts."},
		{"c3", "Globex", "https://globex.example", ""},
	}
	for i, c := range competitors {
		_, err := db.ExecContext(ctx, `
			INSERT INTO competitors (id, project_id, name, url, evidence_text, created_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW() + $6 * INTERVAL '1 second')`,
			projectID+"-"+c.suffix, projectID, c.name, c.url, c.evidence, i)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM projects WHERE id = $1`, projectID)
	})
	return projectID
}

const universalDocument = `{
  "competitor_name": "Acme",
  "positioning": "Invoicing for freelancers",
  "target_customers": ["freelancers"],
  "pricing": {"model": "per invoice"},
  "strengths": ["simple onboarding"],
  "weaknesses": ["no approvals"],
  "citations": [{"claim": "per invoice pricing", "url": "https://acme.example/pricing"}],
  "market_summary": "Fragmented market moving to usage pricing.",
  "themes": [{"title": "Usage pricing", "description": "Seat pricing is declining."}],
  "white_space": ["approval workflows"],
  "competitor_comparison": [{"competitor_name": "Acme", "differentiator": "price"}],
  "opportunities": [{"title": "Approval workflows", "rationale": "Nobody ships them", "impact": "high", "effort": "medium"}]
}`
