// internal/workers/generation/notify-run/service.go
package notifyrun

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"competitor-intel/internal/common/logger"
)

const (
	TaskType = "notify-run"

	eventRunCompleted = "generation.run.completed"
)

var ErrInvalidInput = errors.New("INPUT_INVALID")

// Service sends the run summary. Delivery is best-effort: channel failures
// are reported in Output and never returned as errors.
type Service struct {
	config *Config
	email  EmailSender
	topic  TopicPublisher
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		email:  deps.Email,
		topic:  deps.Topic,
		logger: deps.Logger.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Result == nil {
		return nil, fmt.Errorf("%w: run result is required", ErrInvalidInput)
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	out := &Output{
		Email: s.sendEmail(ctx, input),
		SNS:   s.publish(ctx, input),
	}

	s.logger.Info("run notification processed", map[string]interface{}{
		"projectId":   input.ProjectID,
		"runId":       input.RunID,
		"emailStatus": out.Email.Status,
		"snsStatus":   out.SNS.Status,
	})
	return out, nil
}

func (s *Service) sendEmail(ctx context.Context, input *Input) ChannelResult {
	if !s.config.EmailEnabled || s.email == nil || input.Recipient == "" {
		return ChannelResult{Status: StatusDisabled}
	}
	if !isValidEmail(input.Recipient) {
		return s.failed("email", input, fmt.Errorf("invalid recipient %q", input.Recipient))
	}

	id, err := s.email.SendText(ctx, s.config.FromEmail, input.Recipient, Subject(input), Body(input))
	if err != nil {
		return s.failed("email", input, err)
	}
	return ChannelResult{Status: StatusSent, MessageID: id}
}

func (s *Service) publish(ctx context.Context, input *Input) ChannelResult {
	if !s.config.SNSEnabled || s.topic == nil {
		return ChannelResult{Status: StatusDisabled}
	}

	id, err := s.topic.PublishJSON(ctx, s.config.TopicARN, Subject(input), Event(input))
	if err != nil {
		return s.failed("sns", input, err)
	}
	return ChannelResult{Status: StatusSent, MessageID: id}
}

func (s *Service) failed(channel string, input *Input, err error) ChannelResult {
	s.logger.Warn("run notification failed", map[string]interface{}{
		"channel":   channel,
		"projectId": input.ProjectID,
		"runId":     input.RunID,
		"error":     err.Error(),
	})
	return ChannelResult{Status: StatusFailed, Error: err.Error()}
}

func Event(input *Input) RunEvent {
	r := input.Result
	ev := RunEvent{
		Event:       eventRunCompleted,
		ProjectID:   input.ProjectID,
		RunID:       input.RunID,
		OK:          r.OK,
		ArtifactIDs: r.ArtifactIDs,
		Usage:       r.Usage,
		DurationMs:  input.DurationMs,
	}
	if r.Details != nil {
		ev.Code = r.Details.Code
		ev.Stage = r.Details.Stage
	}
	return ev
}

func Subject(input *Input) string {
	name := input.ProjectName
	if name == "" {
		name = input.ProjectID
	}
	if input.Result.OK {
		return fmt.Sprintf("Competitive analysis ready: %s", name)
	}
	return fmt.Sprintf("Competitive analysis failed: %s", name)
}

func Body(input *Input) string {
	r := input.Result
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", input.ProjectName)
	fmt.Fprintf(&b, "Run: %s\n", input.RunID)
	fmt.Fprintf(&b, "Duration: %s\n", (time.Duration(input.DurationMs) * time.Millisecond).String())

	if r.OK {
		fmt.Fprintf(&b, "Status: succeeded\nArtifacts: %d\n", len(r.ArtifactIDs))
		if r.Usage != nil {
			fmt.Fprintf(&b, "Tokens: %d (input %d, output %d)\n", r.Usage.TotalTokens, r.Usage.InputTokens, r.Usage.OutputTokens)
		}
		return b.String()
	}

	b.WriteString("Status: failed\n")
	if r.Message != "" {
		fmt.Fprintf(&b, "Reason: %s\n", r.Message)
	}
	if d := r.Details; d != nil {
		fmt.Fprintf(&b, "Code: %s\n", d.Code)
		if d.Stage != "" {
			fmt.Fprintf(&b, "Stage: %s\n", d.Stage)
		}
		if d.CompetitorID != "" {
			fmt.Fprintf(&b, "Competitor: %s\n", d.CompetitorID)
		}
	}
	return b.String()
}
