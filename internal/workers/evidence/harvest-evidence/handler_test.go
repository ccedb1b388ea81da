// internal/workers/evidence/harvest-evidence/handler_test.go
package harvestevidence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/common/search"
	"competitor-intel/internal/models"
	planqueries "competitor-intel/internal/workers/evidence/plan-queries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		MaxConcurrentQueries: 2,
		QueryTimeout:         time.Second,
	}
}

// fakeProvider answers from a fixed table. Queries listed in fail return an
// error; delay staggers responses so completion order differs from input.
type fakeProvider struct {
	hits  map[string][]models.EvidenceHit
	fail  map[string]bool
	delay map[string]time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	seen     []string
}

func (f *fakeProvider) Search(ctx context.Context, query string) ([]models.EvidenceHit, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.seen = append(f.seen, query)
	f.mu.Unlock()

	if d := f.delay[query]; d > 0 {
		time.Sleep(d)
	}
	if f.fail[query] {
		return nil, search.ErrSearchTimeout
	}
	return f.hits[query], nil
}

var _ search.Provider = (*fakeProvider)(nil)

func hit(u string) models.EvidenceHit {
	return models.EvidenceHit{URL: u, Source: search.SourceSearch}
}

// ==========================
// Harvesting
// ==========================

func TestExecute_PreservesPlanAndQueryOrder(t *testing.T) {
	provider := &fakeProvider{
		hits: map[string][]models.EvidenceHit{
			"acme pricing":       {hit("https://acme.io/pricing")},
			"site:acme.io plans": {hit("https://acme.io/plans"), hit("https://acme.io/plans/team")},
			"acme docs":          {hit("https://docs.acme.io")},
		},
		delay: map[string]time.Duration{"acme pricing": 20 * time.Millisecond},
	}
	h := NewHandler(createTestConfig(), provider, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Plans: []planqueries.QueryPlan{
		{Type: models.EvidencePricing, Queries: []string{"acme pricing", "site:acme.io plans"}},
		{Type: models.EvidenceDocs, Queries: []string{"acme docs"}},
	}})
	require.NoError(t, err)

	require.Len(t, out.Results, 2)
	assert.Equal(t, models.EvidencePricing, out.Results[0].Type)
	var urls []string
	for _, h := range out.Results[0].Hits {
		urls = append(urls, h.URL)
		assert.Equal(t, models.EvidencePricing, h.QueryType)
	}
	assert.Equal(t, []string{"https://acme.io/pricing", "https://acme.io/plans", "https://acme.io/plans/team"}, urls)
	assert.Equal(t, models.EvidenceDocs, out.Results[1].Hits[0].QueryType)
	assert.Equal(t, 4, out.TotalHits)
	assert.Len(t, out.Flatten(), 4)
}

func TestExecute_FailedQueryCountsAsZeroHits(t *testing.T) {
	provider := &fakeProvider{
		hits: map[string][]models.EvidenceHit{
			"ok": {hit("https://acme.io/pricing")},
		},
		fail: map[string]bool{"broken": true},
	}
	h := NewHandler(createTestConfig(), provider, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Plans: []planqueries.QueryPlan{
		{Type: models.EvidencePricing, Queries: []string{"broken", "ok"}},
		{Type: models.EvidenceBlog, Queries: []string{"broken"}},
	}})
	require.NoError(t, err)

	assert.Equal(t, 2, out.FailedQueries)
	assert.Len(t, out.Results[0].Hits, 1)
	assert.NotNil(t, out.Results[1].Hits)
	assert.Empty(t, out.Results[1].Hits)
}

func TestExecute_RespectsConcurrencyLimit(t *testing.T) {
	provider := &fakeProvider{delay: map[string]time.Duration{}}
	queries := []string{"q1", "q2", "q3", "q4", "q5", "q6"}
	for _, q := range queries {
		provider.delay[q] = 10 * time.Millisecond
	}
	h := NewHandler(createTestConfig(), provider, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{Plans: []planqueries.QueryPlan{
		{Type: models.EvidenceOther, Queries: queries},
	}})
	require.NoError(t, err)

	assert.LessOrEqual(t, provider.peak.Load(), int32(2))
	assert.Len(t, provider.seen, len(queries))
}

type panickingProvider struct{}

func (panickingProvider) Search(context.Context, string) ([]models.EvidenceHit, error) {
	panic("provider bug")
}

func TestExecute_ProviderPanicIsIsolated(t *testing.T) {
	h := NewHandler(createTestConfig(), panickingProvider{}, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Plans: []planqueries.QueryPlan{
		{Type: models.EvidenceDocs, Queries: []string{"a", "b"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.FailedQueries)
}

func TestExecute_NilInput(t *testing.T) {
	h := NewHandler(createTestConfig(), &fakeProvider{}, logger.NewNoOpLogger())
	_, err := h.Execute(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNilInput))
}
