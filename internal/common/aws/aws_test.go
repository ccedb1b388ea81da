// internal/common/aws/aws_test.go
package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	return &sns.PublishOutput{MessageId: aws.String("evt-1")}, nil
}

func TestSESClient_SendText(t *testing.T) {
	fake := &fakeSES{}
	id, err := NewSESClientWithAPI(fake).SendText(context.Background(), "from@x.io", "to@x.io", "Run finished", "3 artifacts")

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, []string{"to@x.io"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "Run finished", aws.ToString(fake.input.Message.Subject.Data))
}

func TestSESClient_SendText_Error(t *testing.T) {
	_, err := NewSESClientWithAPI(&fakeSES{err: errors.New("throttled")}).SendText(context.Background(), "a", "b", "c", "d")
	assert.EqualError(t, err, "throttled")
}

func TestSNSClient_PublishJSON(t *testing.T) {
	fake := &fakeSNS{}
	id, err := NewSNSClientWithAPI(fake).PublishJSON(context.Background(), "arn:topic", "run", map[string]string{"runId": "r1"})

	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(fake.input.Message)), &decoded))
	assert.Equal(t, "r1", decoded["runId"])
}
