// internal/common/search/cache.go
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "intel:search:"

// CachedProvider is a Redis read-through cache in front of a Provider.
// Cache errors are logged and never fail the search.
type CachedProvider struct {
	next   Provider
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProvider(next Provider, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "search-cache"}),
	}
}

// CacheKey normalizes whitespace and case before hashing so trivially
// different spellings of a query share an entry.
func CacheKey(query string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(norm))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedProvider) Search(ctx context.Context, query string) ([]models.EvidenceHit, error) {
	key := CacheKey(query)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var hits []models.EvidenceHit
		if jerr := json.Unmarshal(raw, &hits); jerr == nil {
			return hits, nil
		}
		c.logger.Warn("discarding corrupt cache entry", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("search cache read failed", map[string]interface{}{"error": err.Error()})
	}

	hits, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(hits)
	if err == nil {
		err = c.rdb.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("search cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return hits, nil
}
