package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/flaboy/aira-checkout/pkg/config"
	"github.com/flaboy/aira-checkout/pkg/types"
)

// SQSNotifier 支付完成事件的SQS桥接器
// 持久化成功后把事件投递到业务系统消费的队列
type SQSNotifier struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSNotifier 根据配置创建SQS桥接器
func NewSQSNotifier() (*SQSNotifier, error) {
	cfg := config.Config.Notify
	if cfg.SQSQueueURL == "" {
		return nil, fmt.Errorf("sqs notifier requires a queue URL")
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion(cfg.AWSRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecret, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SQSNotifier{
		client:   sqs.NewFromConfig(awsCfg),
		queueURL: cfg.SQSQueueURL,
	}, nil
}

// OnPaymentCompleted 把支付完成事件投递到队列
func (n *SQSNotifier) OnPaymentCompleted(event *types.PaymentCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	_, err = n.client.SendMessage(context.Background(), &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send payment event: %w", err)
	}

	log.Printf("Payment completed event sent for %s", event.PaymentHashID)
	return nil
}
