// cmd/intel-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"competitor-intel/internal/api"
	"competitor-intel/internal/common/auth"
	"competitor-intel/internal/common/aws"
	"competitor-intel/internal/common/config"
	"competitor-intel/internal/common/database"
	"competitor-intel/internal/common/llm"
	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/common/observability"
	"competitor-intel/internal/common/runstatus"
	"competitor-intel/internal/common/search"
	"competitor-intel/internal/models"
	"competitor-intel/pkg/registry"

	// Dashboard
	cm "competitor-intel/internal/workers/dashboard/commitments"
	lpv "competitor-intel/internal/workers/dashboard/load-project-view"

	// Data access
	as "competitor-intel/internal/workers/data-access/artifact-store"
	ei "competitor-intel/internal/workers/data-access/evidence-index"
	ps "competitor-intel/internal/workers/data-access/project-store"

	// Evidence pipeline
	ac "competitor-intel/internal/workers/evidence/analyze-coverage"
	cd "competitor-intel/internal/workers/evidence/canonicalize-dedupe"
	ce "competitor-intel/internal/workers/evidence/classify-evidence"
	col "competitor-intel/internal/workers/evidence/collect-evidence"
	he "competitor-intel/internal/workers/evidence/harvest-evidence"
	pq "competitor-intel/internal/workers/evidence/plan-queries"
	rc "competitor-intel/internal/workers/evidence/rank-claims"

	// Generation
	ga "competitor-intel/internal/workers/generation/generate-artifacts"
	nr "competitor-intel/internal/workers/generation/notify-run"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intel server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	reg, err := registry.Default()
	if err != nil {
		zapLog.Fatal("artifact registry invalid", zap.Error(err))
	}
	zapLog.Info("Artifact registry loaded", zap.String("version", reg.Version()), zap.Int("types", len(reg.Types())))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := database.EnsureSchema(ctx, pg.DB); err != nil {
		zapLog.Fatal("postgres schema setup failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := esClient.Ping(ctx); err != nil {
			return err
		}
		return esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.EvidenceIndex, ei.Mapping)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)

	generator, err := newGenerator(ctx, cfg.APIs.GenAI)
	if err != nil {
		zapLog.Fatal("generator init failed", zap.Error(err))
	}

	var provider search.Provider = search.NewHTTPProvider(
		cfg.APIs.WebSearch.BaseURL,
		cfg.APIs.WebSearch.APIKey,
		cfg.APIs.WebSearch.EngineID,
		cfg.APIs.WebSearch.MaxResults,
		config.GetDuration(cfg.APIs.WebSearch.Timeout),
	)
	if cfg.APIs.WebSearch.CacheTTL > 0 {
		provider = search.NewCachedProvider(provider, redis.Client, time.Duration(cfg.APIs.WebSearch.CacheTTL)*time.Second, log)
	}
	feeds := search.NewFeedProvider(cfg.Pipeline.FeedPaths, config.GetDuration(cfg.APIs.WebSearch.Timeout))

	notifyDeps := nr.ServiceDependencies{Logger: log}
	if cfg.Notifications.Email.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		notifyDeps.Email = ses
	}
	if cfg.Notifications.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		notifyDeps.Topic = sns
	}

	zapLog.Info("All external service clients initialized")

	// --- Data access ---
	projects := ps.NewHandler(ps.LoadConfig(), pg.DB, log)
	artifacts := as.NewHandler(as.LoadConfig(), pg.DB, log)

	indexCfg := ei.LoadConfig()
	indexCfg.Index = cfg.Database.Elasticsearch.EvidenceIndex
	evidenceIndex := ei.NewHandler(indexCfg, esClient.Client, log)

	runs := runstatus.NewStore(redis.Client, time.Duration(cfg.Database.Redis.RunStatusTTL)*time.Second)

	// --- Evidence pipeline ---
	classifyCfg := ce.LoadConfig()
	if classifyCfg.Rules, err = ce.MergeOverrides(classifyCfg.Rules, cfg.Pipeline.Classifier); err != nil {
		zapLog.Fatal("classifier rules invalid", zap.Error(err))
	}
	classifier, err := ce.NewHandler(classifyCfg, log)
	if err != nil {
		zapLog.Fatal("failed to create classify-evidence handler", zap.Error(err))
	}

	coverageCfg := ac.LoadConfig()
	coverageCfg.MVC = cfg.Pipeline.MVC

	planner := pq.NewHandler(pq.LoadConfig(), log)
	collector := col.NewHandler(col.LoadConfig(), col.Stages{
		Planner: planner,
		Harvester: he.NewHandler(&he.Config{
			MaxConcurrentQueries: cfg.Pipeline.MaxConcurrentQueries,
			QueryTimeout:         config.GetDuration(cfg.APIs.WebSearch.Timeout),
		}, provider, log),
		Canonical: cd.NewHandler(cd.LoadConfig(), log),
		Classify:  classifier,
		Rank:      rc.NewHandler(&rc.Config{Weights: cfg.Pipeline.Ranking, Now: time.Now}, log),
		Coverage:  ac.NewHandler(coverageCfg, log),
		Feeds:     feeds,
		Index:     evidenceIndex,
	}, log)

	// --- Generation ---
	notifyCfg := nr.DefaultConfig()
	notifyCfg.EmailEnabled = cfg.Notifications.Email.Enabled
	notifyCfg.FromEmail = cfg.Notifications.Email.FromEmail
	notifyCfg.SNSEnabled = cfg.Notifications.SNS.Enabled
	notifyCfg.TopicARN = cfg.Notifications.SNS.TopicARN
	if err := notifyCfg.Validate(); err != nil {
		zapLog.Fatal("notification config invalid", zap.Error(err))
	}

	genCfg := ga.LoadConfig()
	genCfg.MinCompetitors = cfg.Pipeline.MinCompetitors
	genCfg.MaxCompetitors = cfg.Pipeline.MaxCompetitors
	genCfg.EvidenceCharCap = cfg.Pipeline.EvidenceCharCap
	genCfg.ValidationErrorCap = cfg.Pipeline.ValidationErrorCap
	genCfg.Temperature = cfg.APIs.GenAI.Temperature
	genCfg.MaxTokens = cfg.APIs.GenAI.MaxTokens
	genCfg.StepTimeout = config.GetDuration(cfg.Generation.StepTimeout)
	for _, s := range cfg.Generation.DefaultStages {
		t, _ := models.ParseArtifactType(s) // validated by config.Load
		genCfg.DefaultStages = append(genCfg.DefaultStages, t)
	}

	orchestrator := ga.NewHandler(genCfg, ga.Dependencies{
		Projects:      projects,
		Artifacts:     artifacts,
		Evidence:      evidenceIndex,
		RunStatus:     runs,
		Notifier:      nr.NewService(notifyDeps, notifyCfg),
		Generator:     generator,
		Registry:      reg,
		Observability: obs,
	}, log)

	// --- Dashboard ---
	viewCfg := lpv.LoadConfig()
	viewCfg.MVC = cfg.Pipeline.MVC
	views := lpv.NewHandler(viewCfg, projects, artifacts, runs, evidenceIndex, log)
	commitments := cm.NewHandler(cm.NewRedisStore(redis.Client), log)

	zapLog.Info("All handlers registered successfully")

	// --- HTTP Server ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewServer(
		api.NewHandler(api.Dependencies{
			Projects:    projects,
			Runs:        orchestrator,
			Evidence:    collector,
			Views:       views,
			Planner:     planner,
			Commitments: commitments,
		}, log),
		keycloak,
		api.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
			Readiness: map[string]api.Check{
				"postgres":      pg.Ping,
				"redis":         redis.Ping,
				"elasticsearch": esClient.Ping,
			},
		},
		log,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Intel server stopped gracefully")
}

func newGenerator(ctx context.Context, cfg config.GenAIConfig) (llm.Generator, error) {
	switch cfg.Provider {
	case "gemini":
		g, err := llm.NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return llm.NewHTTPGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model, config.GetDuration(cfg.Timeout)), nil
	}
}
