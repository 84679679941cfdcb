// Package sqspub publishes generation records to an AWS SQS queue.
package sqspub

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/KamdynS/designrelay/publish"
)

// sendAPI is the subset of the SQS client used here.
type sendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher implements publish.Publisher backed by AWS SQS.
type Publisher struct {
	client sendAPI
	cfg    Config
}

var _ publish.Publisher = (*Publisher)(nil)

// New constructs the publisher using the default AWS config chain.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("QueueURL is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awscfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewFromClient(sqs.NewFromConfig(awscfg), cfg), nil
}

// NewFromClient constructs the publisher from an existing SQS client.
func NewFromClient(client sendAPI, cfg Config) *Publisher {
	if cfg.MessageGroupID == "" {
		cfg.MessageGroupID = DefaultConfig().MessageGroupID
	}
	return &Publisher{client: client, cfg: cfg}
}

// Publish sends rec as one message. The SDK's own retryer handles throttling.
func (p *Publisher) Publish(ctx context.Context, rec publish.Record) error {
	body, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.cfg.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"RunID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(rec.RunID),
			},
			"RecordType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("image_generated"),
			},
		},
	}
	if p.cfg.FIFO {
		input.MessageGroupId = aws.String(p.cfg.MessageGroupID)
		// One record per run, so the run id is a natural dedup key.
		input.MessageDeduplicationId = aws.String(rec.RunID)
	} else if p.cfg.DelaySeconds > 0 {
		input.DelaySeconds = p.cfg.DelaySeconds
	}
	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("sqs SendMessage: %w", err)
	}
	return nil
}

// Close is a no-op; the SQS client holds no resources.
func (p *Publisher) Close() error { return nil }
