// internal/common/search/feed.go
package search

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	httpclient "competitor-intel/internal/common/http"
	"competitor-intel/internal/models"

	"github.com/mmcdole/gofeed"
)

const (
	SourceFeed   = "feed"
	maxFeedBytes = 4 << 20
)

// FeedProvider reads RSS/Atom feeds published on a competitor's own site.
type FeedProvider struct {
	paths  []string
	client *httpclient.Client
	parser *gofeed.Parser
	now    func() time.Time
}

func NewFeedProvider(paths []string, timeout time.Duration) *FeedProvider {
	return &FeedProvider{
		paths:  paths,
		client: httpclient.NewClient(timeout),
		parser: gofeed.NewParser(),
		now:    time.Now,
	}
}

// Fetch tries every configured feed path under siteURL's origin. Hits from
// paths that mention changelog or release are tagged changelog, the rest
// blog. Paths that fail are reported together in the returned error; hits
// from the paths that worked are still returned.
func (f *FeedProvider) Fetch(ctx context.Context, siteURL string) ([]models.TaggedHit, error) {
	origin, err := originOf(siteURL)
	if err != nil {
		return nil, err
	}

	var (
		hits []models.TaggedHit
		errs []error
	)
	for _, path := range f.paths {
		items, err := f.fetchOne(ctx, origin+path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		tag := feedTag(path)
		for _, h := range items {
			hits = append(hits, models.TaggedHit{EvidenceHit: h, QueryType: tag})
		}
	}
	return hits, errors.Join(errs...)
}

func (f *FeedProvider) fetchOne(ctx context.Context, feedURL string) ([]models.EvidenceHit, error) {
	data, err := f.client.GetBytes(ctx, feedURL, maxFeedBytes)
	if err != nil {
		return nil, err
	}
	feed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	retrieved := f.now().UTC()
	hits := make([]models.EvidenceHit, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		hit := models.EvidenceHit{
			URL:         item.Link,
			Title:       strings.TrimSpace(item.Title),
			Snippet:     snippet(cmp.Or(item.Description, item.Content)),
			RetrievedAt: &retrieved,
			Source:      SourceFeed,
		}
		if p := cmp.Or(item.PublishedParsed, item.UpdatedParsed); p != nil {
			t := p.UTC()
			hit.PublishedAt = &t
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func feedTag(path string) models.EvidenceType {
	p := strings.ToLower(path)
	if strings.Contains(p, "changelog") || strings.Contains(p, "release") {
		return models.EvidenceChangelog
	}
	return models.EvidenceBlog
}

func originOf(siteURL string) (string, error) {
	raw := strings.TrimSpace(siteURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid site url %q", siteURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// snippet strips tags and caps the text at 300 runes.
func snippet(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if runes := []rune(out); len(runes) > 300 {
		out = string(runes[:300])
	}
	return out
}
