// internal/common/llm/generator.go
package llm

import (
	"context"
	"errors"
	"sync/atomic"

	"competitor-intel/internal/models"
)

var (
	ErrGeneratorTimeout = errors.New("GENERATOR_TIMEOUT")
	ErrGenerationFailed = errors.New("GENERATION_FAILED")
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one structured-output call. JSONMode asks the provider for a
// JSON response body.
type Request struct {
	Messages    []Message `json:"messages"`
	JSONMode    bool      `json:"json_mode"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type Response struct {
	Text     string
	Provider string
	Model    string
	Usage    *models.Usage
}

// Generator is an external text-generation provider.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// UsageAccumulator sums token usage across the calls of one run. It is
// safe for concurrent use.
type UsageAccumulator struct {
	input  atomic.Int64
	output atomic.Int64
	total  atomic.Int64
	calls  atomic.Int64
}

func (u *UsageAccumulator) Add(usage *models.Usage) {
	u.calls.Add(1)
	if usage == nil {
		return
	}
	u.input.Add(usage.InputTokens)
	u.output.Add(usage.OutputTokens)
	total := usage.TotalTokens
	if total == 0 {
		total = usage.InputTokens + usage.OutputTokens
	}
	u.total.Add(total)
}

func (u *UsageAccumulator) Snapshot() models.Usage {
	return models.Usage{
		InputTokens:  u.input.Load(),
		OutputTokens: u.output.Load(),
		TotalTokens:  u.total.Load(),
	}
}

// Calls counts every Add, including calls that reported no usage.
func (u *UsageAccumulator) Calls() int64 {
	return u.calls.Load()
}
