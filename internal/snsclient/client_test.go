package snsclient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
)

// mockPublisher — мок SNS Publish.
type mockPublisher struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockPublisher) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

const topic = "arn:aws:sns:eu-central-1:123456789012:leads"

func TestClient_Notify(t *testing.T) {
	var got *sns.PublishInput
	pub := &mockPublisher{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			got = params
			return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
		},
	}
	c := NewWithPublisher(pub, topic, slog.Default())

	carID := int64(5)
	lead := &model.Lead{
		ID:         "lead-1",
		Name:       "Анна",
		Phone:      "89001234567",
		CarID:      &carID,
		Source:     "catalog",
		ReceivedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.Notify(context.Background(), lead))

	require.NotNil(t, got)
	assert.Equal(t, topic, aws.ToString(got.TopicArn))
	assert.Equal(t, subject, aws.ToString(got.Subject))
	assert.Equal(t, "lead.created", aws.ToString(got.MessageAttributes["event"].StringValue))
	assert.Equal(t, "catalog", aws.ToString(got.MessageAttributes["source"].StringValue))

	var decoded model.Lead
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(got.Message)), &decoded))
	assert.Equal(t, "lead-1", decoded.ID)
	assert.Equal(t, "Анна", decoded.Name)
	require.NotNil(t, decoded.CarID)
	assert.Equal(t, int64(5), *decoded.CarID)
}

func TestClient_Notify_NoSourceAttribute(t *testing.T) {
	var got *sns.PublishInput
	pub := &mockPublisher{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			got = params
			return &sns.PublishOutput{}, nil
		},
	}
	c := NewWithPublisher(pub, topic, slog.Default())

	require.NoError(t, c.Notify(context.Background(), &model.Lead{ID: "x", Name: "A", Phone: "1"}))
	_, ok := got.MessageAttributes["source"]
	assert.False(t, ok)
}

func TestClient_Notify_Error(t *testing.T) {
	apiErr := errors.New("AuthorizationError")
	pub := &mockPublisher{
		PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, apiErr
		},
	}
	c := NewWithPublisher(pub, topic, slog.Default())

	err := c.Notify(context.Background(), &model.Lead{ID: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
	assert.Equal(t, "sns", c.Name())
}
