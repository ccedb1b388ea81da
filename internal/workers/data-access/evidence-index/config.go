// internal/workers/data-access/evidence-index/config.go
package evidenceindex

import "time"

type Config struct {
	Index   string
	Timeout time.Duration
	// Refresh is passed to bulk writes ("", "true", "wait_for").
	Refresh string
	// TextItems caps how many ranked items feed one competitor's evidence text.
	TextItems int
}

func LoadConfig() *Config {
	return &Config{
		Index:     "intel-evidence",
		Timeout:   10 * time.Second,
		TextItems: 40,
	}
}

// Mapping is the index mapping created at startup.
const Mapping = `{
  "mappings": {
    "properties": {
      "projectId":    {"type": "keyword"},
      "competitorId": {"type": "keyword"},
      "fingerprint":  {"type": "keyword"},
      "type":         {"type": "keyword"},
      "queryType":    {"type": "keyword"},
      "domain":       {"type": "keyword"},
      "url":          {"type": "keyword", "index": false},
      "canonicalUrl": {"type": "keyword"},
      "title":        {"type": "text"},
      "snippet":      {"type": "text"},
      "source":       {"type": "keyword"},
      "confidence":   {"type": "keyword"},
      "rankScore":    {"type": "float"},
      "publishedAt":  {"type": "date"},
      "retrievedAt":  {"type": "date"},
      "indexedAt":    {"type": "date"}
    }
  }
}`
