// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"competitor-intel/internal/common/auth"
	"competitor-intel/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check reports whether one backing service is usable.
type Check func(ctx context.Context) error

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Readiness      map[string]Check
}

// NewServer creates the gin engine with every route configured.
func NewServer(handler *Handler, validator auth.TokenValidator, opts Options, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(cors(opts.AllowedOrigins))

	r.GET("/health", health)
	r.GET("/ready", ready(opts.Readiness))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(requireUser(validator))
	if opts.RequestTimeout > 0 {
		v1.Use(timeout(opts.RequestTimeout))
	}
	{
		v1.POST("/plan", handler.PlanQueries)

		p := v1.Group("/projects/:projectId")
		p.POST("/runs", handler.StartRun)
		p.POST("/evidence", handler.CollectEvidence)
		p.GET("/coverage", handler.GetCoverage)
		p.GET("/overview", handler.GetOverview)
		p.GET("/commitments", handler.ListCommitments)
		p.PUT("/commitments/:key", handler.PutCommitment)
	}

	return r
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func ready(checks map[string]Check) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		c.JSON(status, gin.H{
			"status": state,
			"checks": results,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
