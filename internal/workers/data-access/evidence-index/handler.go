// internal/workers/data-access/evidence-index/handler.go
package evidenceindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "evidence-index"
)

var (
	ErrSearchIndexFailed = errors.New("SEARCH_INDEX_FAILED")
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
	ErrMissingProject    = errors.New("projectId is required")
)

type Handler struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

// DocumentID makes writes idempotent: re-indexing the same item for the
// same competitor overwrites the previous document. A page found for two
// competitors of one project is stored once per competitor.
func DocumentID(projectID, competitorID, fingerprint string) string {
	return projectID + ":" + competitorID + ":" + fingerprint
}

// IndexItems bulk-indexes ranked items. Per-document failures are counted
// and logged; only a failed request is an error.
func (h *Handler) IndexItems(ctx context.Context, projectID string, items []models.EvidenceItem) (*IndexResult, error) {
	if projectID == "" {
		return nil, ErrMissingProject
	}
	if len(items) == 0 {
		return &IndexResult{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	indexedAt := h.now().UTC()
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, it := range items {
		action := map[string]map[string]string{
			"index": {"_index": h.config.Index, "_id": DocumentID(projectID, it.CompetitorID, it.Fingerprint)},
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSearchIndexFailed, err)
		}
		if err := enc.Encode(Document{EvidenceItem: it, ProjectID: projectID, IndexedAt: indexedAt}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSearchIndexFailed, err)
		}
	}

	req := esapi.BulkRequest{
		Index:   h.config.Index,
		Body:    &body,
		Refresh: h.config.Refresh,
	}
	res, err := req.Do(ctx, h.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return nil, fmt.Errorf("%w: %s: %s", ErrSearchIndexFailed, res.Status(), raw)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode bulk response: %v", ErrSearchIndexFailed, err)
	}

	result := &IndexResult{}
	for _, entry := range parsed.Items {
		for _, item := range entry {
			if item.Error != nil || item.Status >= 300 {
				result.Failed++
				reason := ""
				if item.Error != nil {
					reason = item.Error.Type + ": " + item.Error.Reason
				}
				h.logger.Warn("evidence document rejected", map[string]interface{}{
					"documentId": item.ID,
					"status":     item.Status,
					"reason":     reason,
				})
				continue
			}
			result.Indexed++
		}
	}

	h.logger.Info("evidence indexed", map[string]interface{}{
		"projectId": projectID,
		"indexed":   result.Indexed,
		"failed":    result.Failed,
	})
	return result, nil
}

// Execute searches stored evidence, highest rank score first.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.ProjectID == "" {
		return nil, ErrMissingProject
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	size := input.Size
	if size <= 0 {
		size = 100
	}

	body, err := json.Marshal(buildSearchQuery(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{h.config.Index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, h.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		// index not created yet
		return &Output{Items: []models.EvidenceItem{}}, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrSearchQueryFailed, err)
	}

	out := &Output{
		Items:     make([]models.EvidenceItem, 0, len(parsed.Hits.Hits)),
		TotalHits: parsed.Hits.Total.Value,
		Took:      parsed.Took,
	}
	for _, hit := range parsed.Hits.Hits {
		out.Items = append(out.Items, hit.Source.EvidenceItem)
	}
	return out, nil
}

func buildSearchQuery(input *Input) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"projectId": input.ProjectID}},
	}
	if input.CompetitorID != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"competitorId": input.CompetitorID},
		})
	}
	if len(input.Types) > 0 {
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{"type": input.Types},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"sort": []interface{}{
			map[string]interface{}{"rankScore": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"fingerprint": map[string]interface{}{"order": "asc"}},
		},
	}
}

// EvidenceText renders a competitor's top-ranked stored items as the plain
// text block the generator reads.
func (h *Handler) EvidenceText(ctx context.Context, projectID, competitorID string) (string, int, error) {
	out, err := h.Execute(ctx, &Input{ProjectID: projectID, CompetitorID: competitorID, Size: h.config.TextItems})
	if err != nil {
		return "", 0, err
	}
	return FormatEvidenceText(out.Items), len(out.Items), nil
}

// FormatEvidenceText writes one block per item: type, title and URL, then
// the snippet and publication date when present.
func FormatEvidenceText(items []models.EvidenceItem) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		url := it.CanonicalURL
		if url == "" {
			url = it.URL
		}
		title := it.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "[%s] %s", it.Type, title)
		if url != "" {
			fmt.Fprintf(&b, " <%s>", url)
		}
		b.WriteString("\n")
		if it.Snippet != "" {
			b.WriteString(strings.TrimSpace(it.Snippet))
			b.WriteString("\n")
		}
		if it.PublishedAt != nil && !it.PublishedAt.IsZero() {
			fmt.Fprintf(&b, "Published: %s\n", it.PublishedAt.UTC().Format("2006-01-02"))
		}
	}
	return b.String()
}
