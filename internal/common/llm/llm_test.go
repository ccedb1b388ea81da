// internal/common/llm/llm_test.go
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"competitor-intel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// UsageAccumulator
// ==========================

func TestUsageAccumulator_ConcurrentAdds(t *testing.T) {
	var acc UsageAccumulator
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Add(&models.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15})
		}()
	}
	wg.Wait()

	assert.Equal(t, models.Usage{InputTokens: 500, OutputTokens: 250, TotalTokens: 750}, acc.Snapshot())
	assert.EqualValues(t, 50, acc.Calls())
}

func TestUsageAccumulator_DerivesMissingTotalAndCountsNil(t *testing.T) {
	var acc UsageAccumulator
	acc.Add(&models.Usage{InputTokens: 7, OutputTokens: 3})
	acc.Add(nil)

	assert.EqualValues(t, 10, acc.Snapshot().TotalTokens)
	assert.EqualValues(t, 2, acc.Calls())
}

// ==========================
// HTTPGenerator
// ==========================

func TestHTTPGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/generate", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		var body httpGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.JSONMode)
		assert.Equal(t, "intel-large", body.Model)
		assert.Len(t, body.Messages, 2)

		_, _ = w.Write([]byte(`{"text":"{\"ok\":true}","model":"intel-large-2025","usage":{"input_tokens":12,"output_tokens":4,"total_tokens":16}}`))
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL+"/", "key-1", "intel-large", time.Second)
	resp, err := gen.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleSystem, Content: "json only"}, {Role: RoleUser, Content: "go"}},
		JSONMode: true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Text)
	assert.Equal(t, "http", resp.Provider)
	assert.Equal(t, "intel-large-2025", resp.Model)
	assert.Equal(t, &models.Usage{InputTokens: 12, OutputTokens: 4, TotalTokens: 16}, resp.Usage)
}

func TestHTTPGenerator_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewHTTPGenerator(srv.URL, "", "m", time.Second).Generate(context.Background(), Request{})
		assert.ErrorIs(t, err, ErrGenerationFailed)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		_, err := NewHTTPGenerator(srv.URL, "", "m", 20*time.Millisecond).Generate(context.Background(), Request{})
		assert.ErrorIs(t, err, ErrGeneratorTimeout)
	})
}

// ==========================
// GeminiGenerator
// ==========================

func TestGeminiGenerator_Generate(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"role":"model","parts":[{"text":"{\"a\":1}"}]}}],
			"usageMetadata":{"promptTokenCount":20,"candidatesTokenCount":6,"totalTokenCount":26}
		}`))
	}))
	defer srv.Close()

	gen, err := NewGeminiGenerator(context.Background(), "test-key", "gemini-test", srv.URL)
	require.NoError(t, err)

	resp, err := gen.Generate(context.Background(), Request{
		Messages:    []Message{{Role: RoleSystem, Content: "be terse"}, {Role: RoleUser, Content: "hello"}},
		JSONMode:    true,
		Temperature: 0.2,
		MaxTokens:   256,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp.Text)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, &models.Usage{InputTokens: 20, OutputTokens: 6, TotalTokens: 26}, resp.Usage)

	genCfg, _ := captured["generationConfig"].(map[string]interface{})
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
	assert.NotNil(t, captured["systemInstruction"])
}

func TestGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "", "")
	assert.Error(t, err)
}
