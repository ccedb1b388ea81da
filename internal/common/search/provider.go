// internal/common/search/provider.go
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	httpclient "competitor-intel/internal/common/http"
	"competitor-intel/internal/models"
)

var (
	ErrSearchTimeout = errors.New("SEARCH_TIMEOUT")
	ErrSearchFailed  = errors.New("SEARCH_FAILED")
)

const SourceSearch = "search"

// Provider is an external web search API.
type Provider interface {
	Search(ctx context.Context, query string) ([]models.EvidenceHit, error)
}

// HTTPProvider talks to a Custom-Search-shaped JSON API: key, cx, q and num
// query parameters; items[].link/title/snippet in the response.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	engineID   string
	maxResults int
	client     *httpclient.Client
	now        func() time.Time
}

func NewHTTPProvider(baseURL, apiKey, engineID string, maxResults int, timeout time.Duration) *HTTPProvider {
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}
	return &HTTPProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		engineID:   engineID,
		maxResults: maxResults,
		client:     httpclient.NewClient(timeout),
		now:        time.Now,
	}
}

type cseResponse struct {
	Items []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Pagemap struct {
			Metatags []map[string]string `json:"metatags"`
		} `json:"pagemap"`
	} `json:"items"`
}

func (p *HTTPProvider) Search(ctx context.Context, query string) ([]models.EvidenceHit, error) {
	searchURL, err := p.buildSearchURL(query)
	if err != nil {
		return nil, err
	}

	var resp cseResponse
	if err := p.client.GetJSON(ctx, searchURL, &resp); err != nil {
		if errors.Is(err, httpclient.ErrTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	retrieved := p.now().UTC()
	hits := make([]models.EvidenceHit, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" && item.Title == "" {
			continue
		}
		hit := models.EvidenceHit{
			URL:         item.Link,
			Title:       strings.TrimSpace(item.Title),
			Snippet:     strings.TrimSpace(item.Snippet),
			RetrievedAt: &retrieved,
			Source:      SourceSearch,
		}
		hit.PublishedAt = publishedFromMetatags(item.Pagemap.Metatags)
		hits = append(hits, hit)
	}
	return hits, nil
}

func (p *HTTPProvider) buildSearchURL(query string) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: bad base url: %v", ErrSearchFailed, err)
	}
	params := url.Values{}
	params.Add("key", p.apiKey)
	params.Add("cx", p.engineID)
	params.Add("q", query)
	params.Add("num", strconv.Itoa(p.maxResults))
	u.RawQuery = params.Encode()
	return u.String(), nil
}

var publishedKeys = []string{"article:published_time", "og:updated_time", "article:modified_time", "date"}

func publishedFromMetatags(tags []map[string]string) *time.Time {
	for _, tag := range tags {
		for _, key := range publishedKeys {
			raw, ok := tag[key]
			if !ok || raw == "" {
				continue
			}
			for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"} {
				if t, err := time.Parse(layout, raw); err == nil {
					t = t.UTC()
					return &t
				}
			}
		}
	}
	return nil
}
