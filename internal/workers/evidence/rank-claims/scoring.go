// internal/workers/evidence/rank-claims/scoring.go
package rankclaims

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"competitor-intel/internal/common/config"
	"competitor-intel/internal/models"
)

// TypeValue is the fixed editorial value of an evidence type.
func TypeValue(t models.EvidenceType) float64 {
	switch t {
	case models.EvidencePricing:
		return 100
	case models.EvidenceDocs:
		return 90
	case models.EvidenceReviews:
		return 85
	case models.EvidenceCaseStudies:
		return 75
	case models.EvidenceSecurity:
		return 70
	case models.EvidenceChangelog:
		return 65
	case models.EvidenceJobs:
		return 55
	case models.EvidenceCommunity:
		return 45
	case models.EvidenceBlog:
		return 35
	case models.EvidenceOther:
		return 10
	default:
		panic(fmt.Sprintf("unhandled evidence type %q", string(t)))
	}
}

func ConfidenceScore(c models.ConfidenceLevel) float64 {
	switch c {
	case models.ConfidenceHigh:
		return 100
	case models.ConfidenceMedium:
		return 66
	case models.ConfidenceLow:
		return 33
	default:
		return 0
	}
}

func PartyScore(p models.Party) float64 {
	switch p {
	case models.PartyFirst:
		return 100
	case models.PartyThird:
		return 50
	default:
		return 0
	}
}

// NormalizeDomains lowercases, strips www. and drops empty entries.
func NormalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// ClassifyParty reports first when the item's domain equals, or is a
// subdomain of, one of firstParty. Items without a domain are unknown.
// firstParty must already be normalized.
func ClassifyParty(item models.EvidenceItem, firstParty []string) models.Party {
	domain := itemDomain(item)
	if domain == "" {
		return models.PartyUnknown
	}
	for _, fp := range firstParty {
		if domain == fp || strings.HasSuffix(domain, "."+fp) {
			return models.PartyFirst
		}
	}
	return models.PartyThird
}

func itemDomain(item models.EvidenceItem) string {
	if item.Domain != "" {
		return strings.ToLower(item.Domain)
	}
	if item.URL == "" {
		return ""
	}
	u, err := url.Parse(item.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Score computes the composite score of one item.
func Score(item models.EvidenceItem, firstParty []string, w config.RankingWeights, now time.Time) ScoreBreakdown {
	party := ClassifyParty(item, firstParty)
	b := ScoreBreakdown{
		Fingerprint: item.Fingerprint,
		Recency:     models.RecencyScore(item.PublishedAt, now),
		Party:       PartyScore(party),
		PartyKind:   party,
		TypeValue:   TypeValue(item.Type),
		Confidence:  ConfidenceScore(item.Confidence),
	}
	b.Total = w.Recency*b.Recency + w.Party*b.Party + w.Type*b.TypeValue + w.Confidence*b.Confidence
	return b
}

// Rank returns copies of items with RankScore set, sorted by score
// descending. Ties go to first-party items, then higher type value, then the
// later publish date (dated before undated), then input order.
func Rank(items []models.EvidenceItem, firstPartyDomains []string, w config.RankingWeights, now time.Time) ([]models.EvidenceItem, []ScoreBreakdown) {
	fp := NormalizeDomains(firstPartyDomains)

	type scored struct {
		item      models.EvidenceItem
		breakdown ScoreBreakdown
	}
	all := make([]scored, len(items))
	for i, it := range items {
		b := Score(it, fp, w, now)
		it.RankScore = b.Total
		all[i] = scored{item: it, breakdown: b}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].breakdown, all[j].breakdown
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Party != b.Party {
			return a.Party > b.Party
		}
		if a.TypeValue != b.TypeValue {
			return a.TypeValue > b.TypeValue
		}
		return publishedAfter(all[i].item.PublishedAt, all[j].item.PublishedAt)
	})

	ranked := make([]models.EvidenceItem, len(all))
	breakdowns := make([]ScoreBreakdown, len(all))
	for i, s := range all {
		ranked[i] = s.item
		breakdowns[i] = s.breakdown
	}
	return ranked, breakdowns
}

// publishedAfter reports whether a is strictly newer than b. Undated items
// sort after dated ones.
func publishedAfter(a, b *time.Time) bool {
	switch {
	case a == nil || a.IsZero():
		return false
	case b == nil || b.IsZero():
		return true
	default:
		return a.After(*b)
	}
}
