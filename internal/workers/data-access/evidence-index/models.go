// internal/workers/data-access/evidence-index/models.go
package evidenceindex

import (
	"time"

	"competitor-intel/internal/models"
)

// Document is the stored form of a ranked evidence item.
type Document struct {
	models.EvidenceItem
	ProjectID string    `json:"projectId"`
	IndexedAt time.Time `json:"indexedAt"`
}

type Input struct {
	ProjectID    string   `json:"projectId"`
	CompetitorID string   `json:"competitorId,omitempty"`
	Types        []string `json:"types,omitempty"`
	Size         int      `json:"size,omitempty"`
}

type Output struct {
	Items     []models.EvidenceItem `json:"items"`
	TotalHits int                   `json:"totalHits"`
	Took      int                   `json:"took"`
}

type IndexResult struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string   `json:"_id"`
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
