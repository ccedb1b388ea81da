// internal/models/recency.go
package models

import (
	"fmt"
	"math"
	"time"
)

// RecencyBucket maps an age ceiling in days to a score.
type RecencyBucket struct {
	MaxDays int
	Score   float64
	Label   string
}

// RecencyBuckets is shared by ranking and coverage messaging so that
// "recent" means the same thing in both places.
var RecencyBuckets = []RecencyBucket{
	{MaxDays: 30, Score: 100, Label: "last 30 days"},
	{MaxDays: 90, Score: 80, Label: "last 3 months"},
	{MaxDays: 180, Score: 60, Label: "last 6 months"},
	{MaxDays: 365, Score: 40, Label: "last 12 months"},
}

// StaleRecencyScore is the score for anything older than the last bucket.
// Undated evidence gets the same score.
const StaleRecencyScore = 20.0

// AgeInDays rounds to the nearest whole day. Future dates count as zero.
func AgeInDays(t, now time.Time) int {
	days := math.Round(now.Sub(t).Hours() / 24.0)
	if days < 0 {
		return 0
	}
	return int(days)
}

// RecencyScore buckets the age of publishedAt relative to now.
func RecencyScore(publishedAt *time.Time, now time.Time) float64 {
	if publishedAt == nil || publishedAt.IsZero() {
		return StaleRecencyScore
	}
	days := AgeInDays(*publishedAt, now)
	for _, b := range RecencyBuckets {
		if days <= b.MaxDays {
			return b.Score
		}
	}
	return StaleRecencyScore
}

// RecencySummary renders the human-readable freshness message.
func RecencySummary(mostRecent *time.Time, now time.Time) string {
	if mostRecent == nil || mostRecent.IsZero() {
		return "No dated evidence found"
	}
	days := AgeInDays(*mostRecent, now)
	for _, b := range RecencyBuckets {
		if days <= b.MaxDays {
			return fmt.Sprintf("Most recent evidence is from %d days ago (%s)", days, b.Label)
		}
	}
	return fmt.Sprintf("Most recent evidence is from %d days ago (over a year old)", days)
}
