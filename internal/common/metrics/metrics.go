// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intel_runs_total",
			Help: "Generation runs by outcome (ok or the failure code)",
		},
		[]string{"outcome"},
	)

	GenerationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intel_generation_calls_total",
			Help: "Generator calls by stage and phase (initial or repair)",
		},
		[]string{"stage", "phase"},
	)

	GenerationRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intel_generation_repairs_total",
			Help: "Steps that needed a repair call",
		},
		[]string{"stage"},
	)

	GenerationTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intel_generation_tokens_total",
			Help: "Tokens consumed by generator calls",
		},
		[]string{"direction"},
	)

	EvidenceHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intel_evidence_hits_total",
			Help: "Raw hits harvested per evidence type",
		},
		[]string{"type"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intel_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		},
		[]string{"stage"},
	)

	RunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intel_runs_active",
			Help: "Generation runs currently in progress",
		},
	)
)
