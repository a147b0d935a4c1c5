// Пакет snsclient — публикация заявок в топик AWS SNS.
// Подписчики топика (почта, CRM, очереди) получают заявку в виде JSON.
package snsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
)

// subject — тема сообщения для email-подписчиков.
const subject = "Новая заявка с сайта"

// Publisher — подмножество *sns.Client, используемое клиентом.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Client — публикатор заявок в SNS.
type Client struct {
	publisher Publisher
	topicARN  string
	logger    *slog.Logger
}

// New создаёт клиент с учётными данными из стандартной цепочки AWS
// (переменные окружения, shared config, IAM-роль).
func New(ctx context.Context, region, topicARN string, logger *slog.Logger) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("загрузка конфигурации AWS: %w", err)
	}
	return NewWithPublisher(sns.NewFromConfig(cfg), topicARN, logger), nil
}

// NewWithPublisher создаёт клиент поверх готового Publisher.
func NewWithPublisher(publisher Publisher, topicARN string, logger *slog.Logger) *Client {
	return &Client{
		publisher: publisher,
		topicARN:  topicARN,
		logger:    logger.With(slog.String("component", "sns_client")),
	}
}

// Name — имя канала доставки.
func (c *Client) Name() string {
	return "sns"
}

// Notify публикует заявку в топик.
func (c *Client) Notify(ctx context.Context, lead *model.Lead) error {
	payload, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("сериализация заявки: %w", err)
	}

	attrs := map[string]types.MessageAttributeValue{
		"event": {DataType: aws.String("String"), StringValue: aws.String("lead.created")},
	}
	if lead.Source != "" {
		attrs["source"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(lead.Source),
		}
	}

	out, err := c.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(c.topicARN),
		Subject:           aws.String(subject),
		Message:           aws.String(string(payload)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("публикация в SNS: %w", err)
	}

	c.logger.Debug("Заявка опубликована в SNS",
		slog.String("lead_id", lead.ID),
		slog.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}
