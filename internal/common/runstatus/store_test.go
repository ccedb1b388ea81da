// internal/common/runstatus/store_test.go
package runstatus

import (
	"context"
	"testing"
	"time"

	"competitor-intel/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Hour), mr
}

func TestStore_SetThenGet(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(ctx, models.RunStatus{
		RunID:     "r1",
		ProjectID: "p1",
		State:     models.RunStateRunning,
		StartedAt: started,
		UpdatedAt: started,
	}))

	assert.True(t, mr.Exists("intel:run:p1"))
	assert.Equal(t, time.Hour, mr.TTL("intel:run:p1"))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RunID)
	assert.Equal(t, models.RunStateRunning, got.State)
	assert.True(t, started.Equal(got.StartedAt))
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestStore_CorruptValue(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set(Key("p1"), "{not json"))

	_, err := store.Get(context.Background(), "p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRun)
}

func TestStore_RedisDown(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	assert.Error(t, store.Set(context.Background(), models.RunStatus{ProjectID: "p1"}))
}
