// internal/workers/evidence/plan-queries/handler.go
package planqueries

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"
)

const (
	TaskType = "plan-queries"
)

var (
	ErrInvalidInput = errors.New("INPUT_INVALID")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute plans queries for one competitor. It performs no I/O.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	plans, err := Plan(input.CompanyName, input.URL, input.IncludeTypes, h.config.Terms)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("queries planned", map[string]interface{}{
		"companyName": input.CompanyName,
		"planCount":   len(plans),
	})
	return &Output{Plans: plans}, nil
}

// Plan is the pure planner. Requested types are de-duplicated and put in
// canonical order; an empty request means every type.
func Plan(companyName, siteURL string, includeTypes []string, terms map[models.EvidenceType][]string) ([]QueryPlan, error) {
	name := strings.Join(strings.Fields(companyName), " ")
	if name == "" {
		return nil, fmt.Errorf("%w: companyName is required", ErrInvalidInput)
	}

	types, err := resolveTypes(includeTypes)
	if err != nil {
		return nil, err
	}

	domain := DomainOf(siteURL)

	plans := make([]QueryPlan, 0, len(types))
	for _, t := range types {
		typeTerms := termsFor(t, terms)

		plan := QueryPlan{Type: t}
		plan.Queries = append(plan.Queries, strings.TrimSpace(name+" "+strings.Join(typeTerms, " ")))

		if domain != "" {
			for _, term := range typeTerms {
				plan.Queries = append(plan.Queries, fmt.Sprintf("site:%s %s", domain, term))
			}
			if t == models.EvidenceOther {
				plan.Queries = append(plan.Queries, "site:"+domain)
			}
			plan.PreferredDomains = []string{domain}
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func resolveTypes(include []string) ([]models.EvidenceType, error) {
	if len(include) == 0 {
		return models.AllEvidenceTypes(), nil
	}
	parsed := make([]models.EvidenceType, 0, len(include))
	for _, s := range include {
		t, err := models.ParseEvidenceType(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		parsed = append(parsed, t)
	}
	return models.SortEvidenceTypes(parsed), nil
}

func termsFor(t models.EvidenceType, terms map[models.EvidenceType][]string) []string {
	if ts, ok := terms[t]; ok && len(ts) > 0 {
		return ts
	}
	return DefaultTerms()[t]
}

// DomainOf returns the lowercased host of siteURL without a leading www.
// A scheme-less value such as "acme.io/pricing" is accepted.
func DomainOf(siteURL string) string {
	s := strings.TrimSpace(siteURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
