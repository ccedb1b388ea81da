// internal/workers/evidence/analyze-coverage/analyzer.go
package analyzecoverage

import (
	"fmt"
	"time"

	"competitor-intel/internal/models"
	rankclaims "competitor-intel/internal/workers/evidence/rank-claims"
)

const (
	highBreadth   = 0.7
	highRecency   = 80.0
	mediumBreadth = 0.4
	mediumRecency = 60.0
)

// GapSuggestion is the fixed remediation text for a missing type.
func GapSuggestion(t models.EvidenceType) string {
	switch t {
	case models.EvidencePricing:
		return "Add the pricing page or a recent pricing announcement"
	case models.EvidenceDocs:
		return "Link product documentation or API reference pages"
	case models.EvidenceReviews:
		return "Collect third-party reviews from sites such as G2 or Capterra"
	case models.EvidenceJobs:
		return "Check careers pages and job boards for hiring signals"
	case models.EvidenceChangelog:
		return "Track changelogs or release notes to gauge shipping cadence"
	case models.EvidenceBlog:
		return "Add recent blog posts or product announcements"
	case models.EvidenceCommunity:
		return "Look for forum, Reddit or Hacker News discussions"
	case models.EvidenceSecurity:
		return "Find security, compliance or trust-center pages"
	case models.EvidenceCaseStudies:
		return "Add customer case studies or success stories"
	case models.EvidenceOther:
		return "Add any other public source about the competitor"
	default:
		panic(fmt.Sprintf("unhandled evidence type %q", string(t)))
	}
}

type partyCounts struct {
	first, third int
}

func (p partyCounts) ratio() *float64 {
	if p.first+p.third == 0 {
		return nil
	}
	r := float64(p.first) / float64(p.first+p.third)
	return &r
}

// Analyze builds the coverage report. It has no side effects.
func Analyze(competitors []CompetitorEvidence, mvc models.MVCThresholds, expected []models.EvidenceType, now time.Time) models.CoverageReport {
	expected = models.SortEvidenceTypes(expected)

	report := models.CoverageReport{
		CountsByType:     make(map[models.EvidenceType]int),
		TotalCompetitors: len(competitors),
		ExpectedTypes:    len(expected),
		Gaps:             []models.Gap{},
		Competitors:      make([]models.CompetitorCoverage, 0, len(competitors)),
		GeneratedAt:      now,
	}

	var (
		market     partyCounts
		mostRecent *time.Time
	)

	for _, c := range competitors {
		fp := rankclaims.NormalizeDomains(c.FirstPartyDomains)
		cc := models.CompetitorCoverage{
			CompetitorID: c.CompetitorID,
			Name:         c.Name,
			CountsByType: make(map[models.EvidenceType]int),
		}
		var parties partyCounts

		for _, it := range c.Items {
			cc.Total++
			cc.CountsByType[it.Type]++
			report.CountsByType[it.Type]++

			switch rankclaims.ClassifyParty(it, fp) {
			case models.PartyFirst:
				parties.first++
			case models.PartyThird:
				parties.third++
			case models.PartyUnknown:
			default:
				panic("unhandled party")
			}

			if it.PublishedAt != nil && !it.PublishedAt.IsZero() {
				if cc.MostRecentAt == nil || it.PublishedAt.After(*cc.MostRecentAt) {
					ts := *it.PublishedAt
					cc.MostRecentAt = &ts
				}
			}
		}

		for _, t := range expected {
			if cc.CountsByType[t] > 0 {
				cc.TypesCovered++
			} else {
				cc.MissingTypes = append(cc.MissingTypes, t)
			}
		}
		if cc.MissingTypes == nil {
			cc.MissingTypes = []models.EvidenceType{}
		}
		cc.FirstPartyRatio = parties.ratio()
		cc.RecencyScore = recencyOf(cc.MostRecentAt, now)

		if cc.Total > 0 {
			report.CompetitorsWithEvidence++
		}
		market.first += parties.first
		market.third += parties.third
		if cc.MostRecentAt != nil && (mostRecent == nil || cc.MostRecentAt.After(*mostRecent)) {
			mostRecent = cc.MostRecentAt
		}
		report.Competitors = append(report.Competitors, cc)
	}

	for _, t := range expected {
		if report.CountsByType[t] > 0 {
			report.TypesCovered++
			continue
		}
		report.Gaps = append(report.Gaps, models.Gap{Type: t, Suggestion: GapSuggestion(t)})
	}

	report.FirstPartyRatio = market.ratio()
	report.RecencyScore = recencyOf(mostRecent, now)
	if mostRecent != nil {
		days := models.AgeInDays(*mostRecent, now)
		report.MostRecentDaysAgo = &days
	}
	report.RecencySummary = models.RecencySummary(mostRecent, now)
	report.Confidence = label(report, mvc)
	return report
}

// recencyOf scores the most recent dated item. No dated item scores zero.
func recencyOf(mostRecent *time.Time, now time.Time) float64 {
	if mostRecent == nil {
		return 0
	}
	return models.RecencyScore(mostRecent, now)
}

func label(r models.CoverageReport, mvc models.MVCThresholds) models.CoverageLabel {
	if r.CompetitorsWithEvidence < mvc.MinCompetitorsWithEvidence || r.TypesCovered < mvc.MinTypesCovered {
		return models.CoverageInsufficient
	}

	breadth := 0.0
	if r.ExpectedTypes > 0 {
		breadth = float64(r.TypesCovered) / float64(r.ExpectedTypes)
	}

	switch {
	case breadth >= highBreadth && r.RecencyScore >= highRecency && r.CompetitorsWithEvidence == r.TotalCompetitors:
		return models.CoverageHigh
	case breadth >= mediumBreadth && r.RecencyScore >= mediumRecency:
		return models.CoverageMedium
	default:
		return models.CoverageLow
	}
}
