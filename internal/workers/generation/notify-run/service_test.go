// internal/workers/generation/notify-run/service_test.go
package notifyrun

import (
	"context"
	"errors"
	"testing"
	"time"

	"competitor-intel/internal/common/logger"
	"competitor-intel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Senders
// ==========================

type MockEmail struct {
	mock.Mock
}

func (m *MockEmail) SendText(ctx context.Context, from, to, subject, body string) (string, error) {
	args := m.Called(ctx, from, to, subject, body)
	return args.String(0), args.Error(1)
}

type MockTopic struct {
	mock.Mock
}

func (m *MockTopic) PublishJSON(ctx context.Context, topicARN, subject string, payload interface{}) (string, error) {
	args := m.Called(ctx, topicARN, subject, payload)
	return args.String(0), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		FromEmail:    "intel@example.com",
		SNSEnabled:   true,
		TopicARN:     "arn:aws:sns:us-east-1:123456789012:intel-runs",
		Timeout:      time.Second,
	}
}

func successInput() *Input {
	return &Input{
		ProjectID:   "p1",
		ProjectName: "Acme Rivals",
		Recipient:   "owner@example.com",
		RunID:       "r1",
		Result:      models.SuccessResult("r1", []string{"a1", "a2"}, models.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}),
		DurationMs:  1500,
	}
}

// ==========================
// Delivery
// ==========================

func TestExecute_SendsBothChannels(t *testing.T) {
	email := &MockEmail{}
	topic := &MockTopic{}
	email.On("SendText", mock.Anything, "intel@example.com", "owner@example.com",
		"Competitive analysis ready: Acme Rivals", mock.AnythingOfType("string")).Return("msg-1", nil)
	topic.On("PublishJSON", mock.Anything, createTestConfig().TopicARN, mock.Anything,
		mock.MatchedBy(func(ev RunEvent) bool {
			return ev.OK && ev.RunID == "r1" && len(ev.ArtifactIDs) == 2 && ev.Event == eventRunCompleted
		})).Return("sns-1", nil)

	s := NewService(ServiceDependencies{Logger: logger.NewTestLogger(t), Email: email, Topic: topic}, createTestConfig())
	out, err := s.Execute(context.Background(), successInput())
	require.NoError(t, err)

	assert.Equal(t, ChannelResult{Status: StatusSent, MessageID: "msg-1"}, out.Email)
	assert.Equal(t, ChannelResult{Status: StatusSent, MessageID: "sns-1"}, out.SNS)
	email.AssertExpectations(t)
	topic.AssertExpectations(t)
}

func TestExecute_FailuresAreReportedNotReturned(t *testing.T) {
	email := &MockEmail{}
	topic := &MockTopic{}
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("throttled"))
	topic.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("topic missing"))

	s := NewService(ServiceDependencies{Logger: logger.NewNoOpLogger(), Email: email, Topic: topic}, createTestConfig())
	out, err := s.Execute(context.Background(), successInput())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Email.Status)
	assert.Equal(t, "throttled", out.Email.Error)
	assert.Equal(t, StatusFailed, out.SNS.Status)
}

func TestExecute_DisabledChannels(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config, *Input)
		deps   func() ServiceDependencies
	}{
		{
			name:   "disabled in config",
			mutate: func(c *Config, _ *Input) { c.EmailEnabled = false; c.SNSEnabled = false },
			deps:   func() ServiceDependencies { return ServiceDependencies{Email: &MockEmail{}, Topic: &MockTopic{}} },
		},
		{
			name:   "no senders wired",
			mutate: func(*Config, *Input) {},
			deps:   func() ServiceDependencies { return ServiceDependencies{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			input := successInput()
			tt.mutate(cfg, input)
			deps := tt.deps()
			deps.Logger = logger.NewNoOpLogger()

			out, err := NewService(deps, cfg).Execute(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, StatusDisabled, out.Email.Status)
			assert.Equal(t, StatusDisabled, out.SNS.Status)
		})
	}
}

func TestExecute_NoRecipientSkipsEmail(t *testing.T) {
	topic := &MockTopic{}
	topic.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("sns-1", nil)

	input := successInput()
	input.Recipient = ""
	s := NewService(ServiceDependencies{Logger: logger.NewNoOpLogger(), Email: &MockEmail{}, Topic: topic}, createTestConfig())

	out, err := s.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Email.Status)
	assert.Equal(t, StatusSent, out.SNS.Status)
}

func TestExecute_InvalidRecipient(t *testing.T) {
	input := successInput()
	input.Recipient = "not-an-email"
	s := NewService(ServiceDependencies{Logger: logger.NewNoOpLogger(), Email: &MockEmail{}}, createTestConfig())

	out, err := s.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Email.Status)
}

func TestExecute_RequiresResult(t *testing.T) {
	s := NewService(ServiceDependencies{Logger: logger.NewNoOpLogger()}, createTestConfig())

	_, err := s.Execute(context.Background(), &Input{ProjectID: "p1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// ==========================
// Message Content
// ==========================

func TestBody_Failure(t *testing.T) {
	n := 2
	input := &Input{
		ProjectName: "Acme Rivals",
		RunID:       "r1",
		Result: models.FailureResult("Generated output failed schema validation after repair", models.FailureDetails{
			Code:            "GENERATION_VALIDATION_FAILED",
			Stage:           "snapshot_validation",
			CompetitorID:    "c2",
			CompetitorCount: &n,
		}),
	}

	body := Body(input)
	assert.Contains(t, body, "Status: failed")
	assert.Contains(t, body, "Stage: snapshot_validation")
	assert.Contains(t, body, "Competitor: c2")
	assert.Equal(t, "Competitive analysis failed: Acme Rivals", Subject(input))

	ev := Event(input)
	assert.False(t, ev.OK)
	assert.Equal(t, "GENERATION_VALIDATION_FAILED", ev.Code)
}

func TestConfig_Validate(t *testing.T) {
	cfg := createTestConfig()
	assert.NoError(t, cfg.Validate())

	cfg.FromEmail = ""
	assert.Error(t, cfg.Validate())

	cfg = createTestConfig()
	cfg.TopicARN = ""
	assert.Error(t, cfg.Validate())
}
