// internal/workers/evidence/classify-evidence/rules.go
package classifyevidence

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"competitor-intel/internal/common/config"
	"competitor-intel/internal/models"
)

// Rule lists the patterns that put an item in Type. Rules are evaluated in
// table order within each tier.
type Rule struct {
	Type         models.EvidenceType `json:"type"`
	PathPatterns []string            `json:"paths,omitempty"`
	Hosts        []string            `json:"hosts,omitempty"`
	Keywords     []string            `json:"keywords,omitempty"`
}

// Tier is the rule family that produced a classification.
type Tier string

const (
	TierPath    Tier = "path"
	TierHost    Tier = "host"
	TierKeyword Tier = "keyword"
	TierDefault Tier = "default"
)

// Match explains a classification.
type Match struct {
	Type    models.EvidenceType `json:"type"`
	Tier    Tier                `json:"tier"`
	Pattern string              `json:"pattern,omitempty"`
}

// DefaultRules returns the built-in table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Type:         models.EvidencePricing,
			PathPatterns: []string{"pricing", "plans", "price", "prices"},
			Keywords:     []string{"pricing", "plans", "price", "per seat", "per user", "free tier"},
		},
		{
			Type:         models.EvidenceDocs,
			PathPatterns: []string{"docs", "documentation", "api", "reference", "developers", "guides"},
			Hosts:        []string{"readthedocs.io", "gitbook.io"},
			Keywords:     []string{"documentation", "docs", "api reference", "developer guide", "sdk"},
		},
		{
			Type:         models.EvidenceChangelog,
			PathPatterns: []string{"changelog", "release-notes", "releases", "whats-new", "updates"},
			Keywords:     []string{"changelog", "release notes", "what's new", "now available"},
		},
		{
			Type:         models.EvidenceSecurity,
			PathPatterns: []string{"security", "soc-2", "soc2", "compliance", "trust", "gdpr"},
			Keywords:     []string{"security", "soc 2", "soc2", "compliance", "gdpr", "iso 27001", "hipaa"},
		},
		{
			Type:         models.EvidenceJobs,
			PathPatterns: []string{"careers", "jobs", "join-us"},
			Hosts:        []string{"greenhouse.io", "lever.co", "workable.com", "ashbyhq.com", "wellfound.com"},
			Keywords:     []string{"careers", "hiring", "job opening", "we're hiring"},
		},
		{
			Type:         models.EvidenceCaseStudies,
			PathPatterns: []string{"case-study", "case-studies", "customers", "customer-stories"},
			Keywords:     []string{"case study", "customer story", "success story"},
		},
		{
			Type:         models.EvidenceReviews,
			PathPatterns: []string{"reviews"},
			Hosts: []string{
				"g2.com", "capterra.com", "trustradius.com", "trustpilot.com",
				"getapp.com", "softwareadvice.com", "gartner.com", "producthunt.com",
			},
			Keywords: []string{"review", "reviews", "rating", "ratings", "alternatives"},
		},
		{
			Type:         models.EvidenceCommunity,
			PathPatterns: []string{"community", "forum", "forums", "discuss"},
			Hosts: []string{
				"reddit.com", "news.ycombinator.com", "stackoverflow.com",
				"discord.com", "discourse.org", "github.com",
			},
			Keywords: []string{"community", "forum", "discussion", "thread"},
		},
		{
			Type:         models.EvidenceBlog,
			PathPatterns: []string{"blog", "news", "posts", "articles"},
			Hosts:        []string{"medium.com", "substack.com", "dev.to"},
			Keywords:     []string{"blog", "announcing", "announcement", "introducing"},
		},
	}
}

// MergeOverrides appends configured patterns to the matching rules. A type
// with no built-in rule gets a new rule at the end of the table.
func MergeOverrides(base []Rule, overrides map[string]config.ClassifierOverride) ([]Rule, error) {
	rules := make([]Rule, len(base))
	for i, r := range base {
		rules[i] = Rule{
			Type:         r.Type,
			PathPatterns: append([]string(nil), r.PathPatterns...),
			Hosts:        append([]string(nil), r.Hosts...),
			Keywords:     append([]string(nil), r.Keywords...),
		}
	}

	// canonical order keeps the merge deterministic
	types := make([]models.EvidenceType, 0, len(overrides))
	byType := make(map[models.EvidenceType]config.ClassifierOverride, len(overrides))
	for name, ov := range overrides {
		t, err := models.ParseEvidenceType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
		byType[t] = ov
	}

	for _, t := range models.SortEvidenceTypes(types) {
		ov := byType[t]
		idx := -1
		for i := range rules {
			if rules[i].Type == t {
				idx = i
				break
			}
		}
		if idx < 0 {
			rules = append(rules, Rule{Type: t})
			idx = len(rules) - 1
		}
		rules[idx].PathPatterns = append(rules[idx].PathPatterns, ov.Paths...)
		rules[idx].Hosts = append(rules[idx].Hosts, ov.Hosts...)
		rules[idx].Keywords = append(rules[idx].Keywords, ov.Keywords...)
	}
	return rules, nil
}

type compiledPattern struct {
	raw string
	re  *regexp.Regexp
}

type compiledRule struct {
	typ      models.EvidenceType
	paths    []compiledPattern
	hosts    []string
	keywords []compiledPattern
}

// RuleTable is the validated, compiled form of a rule list. It is read-only
// after construction.
type RuleTable struct {
	rules []compiledRule
}

// NewRuleTable validates and compiles rules.
func NewRuleTable(rules []Rule) (*RuleTable, error) {
	table := &RuleTable{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if !r.Type.Valid() {
			return nil, fmt.Errorf("rule %d: unknown evidence type %q", i, r.Type)
		}
		cr := compiledRule{typ: r.Type}

		var err error
		if cr.paths, err = compileAll(r.PathPatterns); err != nil {
			return nil, fmt.Errorf("rule %d (%s) paths: %w", i, r.Type, err)
		}
		if cr.keywords, err = compileAll(r.Keywords); err != nil {
			return nil, fmt.Errorf("rule %d (%s) keywords: %w", i, r.Type, err)
		}
		for _, h := range r.Hosts {
			h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "www.")
			if h == "" {
				return nil, fmt.Errorf("rule %d (%s) hosts: empty host", i, r.Type)
			}
			cr.hosts = append(cr.hosts, h)
		}
		table.rules = append(table.rules, cr)
	}
	return table, nil
}

// MustDefaultRuleTable compiles DefaultRules and panics on error.
func MustDefaultRuleTable() *RuleTable {
	t, err := NewRuleTable(DefaultRules())
	if err != nil {
		panic(err)
	}
	return t
}

// compileAll builds case-insensitive token-boundary matchers: "api" matches
// "/docs/api/v2" but not "/capital".
func compileAll(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return nil, fmt.Errorf("empty pattern")
		}
		re, err := regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(p) + `(?:[^\p{L}\p{N}]|$)`)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, compiledPattern{raw: p, re: re})
	}
	return out, nil
}

// Classify evaluates path patterns, then host allowlists, then title and
// snippet keywords. The first match wins; nothing matching gives other.
func (t *RuleTable) Classify(item models.EvidenceItem) Match {
	path, host := urlParts(item)

	if path != "" {
		for _, r := range t.rules {
			for _, p := range r.paths {
				if p.re.MatchString(path) {
					return Match{Type: r.typ, Tier: TierPath, Pattern: p.raw}
				}
			}
		}
	}

	if host != "" {
		for _, r := range t.rules {
			for _, h := range r.hosts {
				if host == h || strings.HasSuffix(host, "."+h) {
					return Match{Type: r.typ, Tier: TierHost, Pattern: h}
				}
			}
		}
	}

	text := strings.TrimSpace(item.Title + " " + item.Snippet)
	if text != "" {
		for _, r := range t.rules {
			for _, k := range r.keywords {
				if k.re.MatchString(text) {
					return Match{Type: r.typ, Tier: TierKeyword, Pattern: k.raw}
				}
			}
		}
	}

	return Match{Type: models.EvidenceOther, Tier: TierDefault}
}

func urlParts(item models.EvidenceItem) (path, host string) {
	raw := item.CanonicalURL
	if raw == "" {
		raw = item.URL
	}
	host = item.Domain
	if raw == "" {
		return "", host
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", host
	}
	if host == "" {
		host = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}
	return u.Path, host
}
