// internal/workers/dashboard/commitments/store.go
package commitments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound   = errors.New("NOT_FOUND")
	ErrInvalidKey = errors.New("INPUT_INVALID")
)

// Store is a keyed commitment store. Keys are composite ids built by Key.
type Store interface {
	Get(ctx context.Context, key string) (*Commitment, error)
	Set(ctx context.Context, key string, c Commitment) error
	// ListByPrefix returns entries whose key starts with prefix, sorted by key.
	ListByPrefix(ctx context.Context, prefix string) ([]Entry, error)
}

// ==========================
// Redis
// ==========================

const redisPrefix = "intel:commit:"

type RedisStore struct {
	rdb       redis.Cmdable
	scanCount int64
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb, scanCount: 100}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Commitment, error) {
	val, err := s.rdb.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get commitment: %w", err)
	}
	var c Commitment
	if err := json.Unmarshal(val, &c); err != nil {
		return nil, fmt.Errorf("decode commitment %s: %w", key, err)
	}
	return &c, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, c Commitment) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("set commitment: %w", err)
	}
	return nil
}

func (s *RedisStore) ListByPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	match := redisPrefix + escapeGlob(prefix) + "*"

	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, match, s.scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scan commitments: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return []Entry{}, nil
	}
	sort.Strings(keys)
	keys = dedupeSorted(keys)

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load commitments: %w", err)
	}

	entries := make([]Entry, 0, len(keys))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// deleted between SCAN and MGET
			continue
		}
		var c Commitment
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("decode commitment %s: %w", keys[i], err)
		}
		entries = append(entries, Entry{Key: strings.TrimPrefix(keys[i], redisPrefix), Commitment: c})
	}
	return entries, nil
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SCAN may return a key more than once.
func dedupeSorted(keys []string) []string {
	out := keys[:0]
	for i, k := range keys {
		if i == 0 || k != keys[i-1] {
			out = append(out, k)
		}
	}
	return out
}

// ==========================
// Memory
// ==========================

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Commitment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Commitment)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, c Commitment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = c
	return nil
}

func (s *MemoryStore) ListByPrefix(_ context.Context, prefix string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0)
	for k, c := range s.items {
		if strings.HasPrefix(k, prefix) {
			entries = append(entries, Entry{Key: k, Commitment: c})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}
