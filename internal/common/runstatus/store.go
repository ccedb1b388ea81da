// internal/common/runstatus/store.go
package runstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"competitor-intel/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrNoRun = errors.New("no run recorded")

const DefaultTTL = 24 * time.Hour

// Key is the Redis key holding the latest run of a project.
func Key(projectID string) string {
	return fmt.Sprintf("intel:run:%s", projectID)
}

// Store keeps the last known run status per project in Redis.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Set(ctx context.Context, status models.RunStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, Key(status.ProjectID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record run status: %w", err)
	}
	return nil
}

// Get returns ErrNoRun when the project has no recorded run.
func (s *Store) Get(ctx context.Context, projectID string) (*models.RunStatus, error) {
	val, err := s.rdb.Get(ctx, Key(projectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run status: %w", err)
	}

	var status models.RunStatus
	if err := json.Unmarshal(val, &status); err != nil {
		return nil, fmt.Errorf("corrupt run status: %w", err)
	}
	return &status, nil
}
