// internal/workers/dashboard/commitments/store_test.go
package commitments

import (
	"context"
	"errors"
	"testing"
	"time"

	"competitor-intel/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var updated = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb)
	store.scanCount = 2
	return store, mr
}

// storeContract runs the same behavior checks against every Store.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "p1:a1:opportunities[0]")
	assert.ErrorIs(t, err, ErrNotFound)

	keys := []string{
		Key("p1", "a1", "opportunities[1]"),
		Key("p1", "a1", "opportunities[0]"),
		Key("p1", "a2", "bets[0]"),
		Key("p10", "a9", "bets[0]"),
		Key("p2", "a3", "bets[0]"),
	}
	for i, k := range keys {
		require.NoError(t, store.Set(ctx, k, Commitment{Committed: i%2 == 0, Note: "n", UpdatedAt: updated}))
	}

	got, err := store.Get(ctx, "p1:a2:bets[0]")
	require.NoError(t, err)
	assert.True(t, got.Committed)
	assert.True(t, updated.Equal(got.UpdatedAt))

	entries, err := store.ListByPrefix(ctx, "p1:")
	require.NoError(t, err)
	var listed []string
	for _, e := range entries {
		listed = append(listed, e.Key)
	}
	assert.Equal(t, []string{"p1:a1:opportunities[0]", "p1:a1:opportunities[1]", "p1:a2:bets[0]"}, listed)

	entries, err = store.ListByPrefix(ctx, "p1:a1:opportunities[")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = store.ListByPrefix(ctx, "nobody:")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	require.NoError(t, store.Set(ctx, keys[0], Commitment{Committed: false, UpdatedAt: updated}))
	got, err = store.Get(ctx, keys[0])
	require.NoError(t, err)
	assert.False(t, got.Committed)
	assert.Empty(t, got.Note)
}

// ==========================
// Stores
// ==========================

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	store, mr := newRedisStore(t)
	storeContract(t, store)

	assert.True(t, mr.Exists("intel:commit:p1:a2:bets[0]"))
}

func TestRedisStore_CorruptValue(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("intel:commit:p1:a1:x", "{oops"))

	_, err := store.Get(context.Background(), "p1:a1:x")
	assert.Error(t, err)
	_, err = store.ListByPrefix(context.Background(), "p1:")
	assert.Error(t, err)
}

func TestRedisStore_ScanError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)

	mock.ExpectScan(0, "intel:commit:p1:*", 100).SetErr(errors.New("connection reset"))

	_, err := store.ListByPrefix(context.Background(), "p1:")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan commitments")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SkipsKeysDeletedDuringScan(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)

	mock.ExpectScan(0, "intel:commit:p1:*", 100).SetVal([]string{"intel:commit:p1:a:x", "intel:commit:p1:a:y"}, 0)
	mock.ExpectMGet("intel:commit:p1:a:x", "intel:commit:p1:a:y").
		SetVal([]interface{}{`{"committed":true,"updatedAt":"2025-06-01T10:00:00Z"}`, nil})

	entries, err := store.ListByPrefix(context.Background(), "p1:")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p1:a:x", entries[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SetError(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.SetError("READONLY You can't write against a read only replica.")

	err := store.Set(context.Background(), "p1:a:x", Commitment{Committed: true})
	assert.Error(t, err)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `p1:a1:bets\[0\]`, escapeGlob("p1:a1:bets[0]"))
	assert.Equal(t, `a\*b\?`, escapeGlob("a*b?"))
}

// ==========================
// Keys and Handler
// ==========================

func TestParseKey(t *testing.T) {
	p, a, item, err := ParseKey("p1:a1:scores[0]:values:price")
	require.NoError(t, err)
	assert.Equal(t, "p1", p)
	assert.Equal(t, "a1", a)
	assert.Equal(t, "scores[0]:values:price", item)

	for _, bad := range []string{"", "p1", "p1:a1", "p1::x", ":a:x"} {
		_, _, _, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestHandler_PutAndList(t *testing.T) {
	h := NewHandler(NewMemoryStore(), logger.NewTestLogger(t))
	h.now = func() time.Time { return updated }
	ctx := context.Background()

	entry, err := h.Put(ctx, "p1", "p1:a1:bets[0]", PutInput{Committed: true, Note: "  go  "})
	require.NoError(t, err)
	assert.Equal(t, "go", entry.Commitment.Note)
	assert.Equal(t, updated, entry.Commitment.UpdatedAt)

	_, err = h.Put(ctx, "p1", "p2:a1:bets[0]", PutInput{Committed: true})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = h.Put(ctx, "p1", "p1:a1", PutInput{})
	assert.ErrorIs(t, err, ErrInvalidKey)

	entries, err := h.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p1:a1:bets[0]", entries[0].Key)

	_, err = h.List(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
