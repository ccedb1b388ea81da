// internal/workers/generation/notify-run/models.go
package notifyrun

import (
	"context"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"
)

type Input struct {
	ProjectID   string            `json:"projectId"`
	ProjectName string            `json:"projectName"`
	Recipient   string            `json:"recipient,omitempty"`
	RunID       string            `json:"runId"`
	Result      *models.RunResult `json:"result"`
	DurationMs  int64             `json:"durationMs"`
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type ChannelResult struct {
	Status    string `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Output struct {
	Email ChannelResult `json:"email"`
	SNS   ChannelResult `json:"sns"`
}

// RunEvent is the JSON document published to the run topic.
type RunEvent struct {
	Event       string        `json:"event"`
	ProjectID   string        `json:"projectId"`
	RunID       string        `json:"runId"`
	OK          bool          `json:"ok"`
	Code        string        `json:"code,omitempty"`
	Stage       string        `json:"stage,omitempty"`
	ArtifactIDs []string      `json:"artifactIds,omitempty"`
	Usage       *models.Usage `json:"usage,omitempty"`
	DurationMs  int64         `json:"durationMs"`
}

type EmailSender interface {
	SendText(ctx context.Context, from, to, subject, body string) (string, error)
}

type TopicPublisher interface {
	PublishJSON(ctx context.Context, topicARN, subject string, payload interface{}) (string, error)
}

// ServiceDependencies are optional; a nil sender disables its channel.
type ServiceDependencies struct {
	Logger logger.Logger
	Email  EmailSender
	Topic  TopicPublisher
}
