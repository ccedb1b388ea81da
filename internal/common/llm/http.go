// internal/common/llm/http.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	httpclient "competitor-intel/internal/common/http"
	"competitor-intel/internal/models"
)

const providerHTTP = "http"

// HTTPGenerator calls a JSON generation gateway at <baseURL>/api/ai/generate.
type HTTPGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *httpclient.Client
}

func NewHTTPGenerator(baseURL, apiKey, model string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  httpclient.NewClient(timeout),
	}
}

type httpGenerateRequest struct {
	Messages    []Message `json:"messages"`
	JSONMode    bool      `json:"json_mode"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Model       string    `json:"model,omitempty"`
}

type httpGenerateResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage *struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
		TotalTokens  int64 `json:"total_tokens"`
	} `json:"usage"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	headers := map[string]string{}
	if g.apiKey != "" {
		headers["Authorization"] = "Bearer " + g.apiKey
	}

	var out httpGenerateResponse
	err := g.client.PostJSON(ctx, g.baseURL+"/api/ai/generate", headers, httpGenerateRequest{
		Messages:    req.Messages,
		JSONMode:    req.JSONMode,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Model:       g.model,
	}, &out)
	if err != nil {
		if errors.Is(err, httpclient.ErrTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrGeneratorTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	resp := &Response{
		Text:     out.Text,
		Provider: providerHTTP,
		Model:    out.Model,
	}
	if resp.Model == "" {
		resp.Model = g.model
	}
	if out.Usage != nil {
		resp.Usage = &models.Usage{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
			TotalTokens:  out.Usage.TotalTokens,
		}
	}
	return resp, nil
}
