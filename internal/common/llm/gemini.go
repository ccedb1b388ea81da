// internal/common/llm/gemini.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"competitor-intel/internal/models"

	"google.golang.org/genai"
)

const providerGemini = "gemini"

// GeminiGenerator calls the Gemini API through google.golang.org/genai.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a client for apiKey. baseURL is optional and
// only set when routing through a proxy or a test server.
func NewGeminiGenerator(ctx context.Context, apiKey, model, baseURL string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		default:
			return nil, fmt.Errorf("%w: unknown message role %q", ErrGenerationFailed, m.Role)
		}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrGeneratorTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	out := &Response{
		Text:     resp.Text(),
		Provider: providerGemini,
		Model:    g.model,
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if um := resp.UsageMetadata; um != nil {
		out.Usage = &models.Usage{
			InputTokens:  int64(um.PromptTokenCount),
			OutputTokens: int64(um.CandidatesTokenCount),
			TotalTokens:  int64(um.TotalTokenCount),
		}
	}
	return out, nil
}
