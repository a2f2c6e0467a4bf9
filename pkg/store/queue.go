package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// JobQueue publishes job-info messages for the downstream overlay stage.
type JobQueue struct {
	client *sqs.Client
	url    string
}

// NewJobQueue builds a queue handle from an AWS configuration.
func NewJobQueue(cfg aws.Config, url string) *JobQueue {
	return &JobQueue{client: sqs.NewFromConfig(cfg), url: url}
}

// Send marshals v to JSON and enqueues it.
func (q *JobQueue) Send(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode queue message: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", q.url, err)
	}
	return nil
}
