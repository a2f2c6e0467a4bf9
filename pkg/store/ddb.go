package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Timestamp format stamped on every stage entry. The offset is literal: the
// pipeline runs on UTC clocks.
const stageTimeFormat = "2006-01-02T15:04:05"

// ProcessingTable logs pipeline stages per document in DynamoDB. The table
// must be keyed by document_id (HASH, string) and document_name (RANGE,
// string); items are upserted by that pair.
type ProcessingTable struct {
	client *dynamodb.Client
	name   string
}

// NewProcessingTable builds a processing log handle from an AWS
// configuration. Validate can be used to check the table's key schema.
func NewProcessingTable(cfg aws.Config, name string) *ProcessingTable {
	return &ProcessingTable{client: dynamodb.NewFromConfig(cfg), name: name}
}

// Name returns the DynamoDB table name.
func (t *ProcessingTable) Name() string {
	return t.name
}

// Validate checks that the table carries the (document_id, document_name)
// string key schema the pipeline writes.
func (t *ProcessingTable) Validate(ctx context.Context) error {
	out, err := t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(t.name),
	})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", t.name, err)
	}

	atts := out.Table.AttributeDefinitions
	if len(atts) != 2 ||
		aws.ToString(atts[0].AttributeName) != "document_id" ||
		atts[0].AttributeType != types.ScalarAttributeTypeS ||
		aws.ToString(atts[1].AttributeName) != "document_name" ||
		atts[1].AttributeType != types.ScalarAttributeTypeS {
		return fmt.Errorf("table %s is not keyed by (document_id, document_name) strings", t.name)
	}
	return nil
}

// UpsertStage sets a stage attribute on the document's item, stamping it
// with the current time. Extra attributes are merged into the stage entry.
func (t *ProcessingTable) UpsertStage(ctx context.Context, docID, docName, stage string, attrs map[string]string) error {
	values := map[string]string{
		"datetime": time.Now().UTC().Format(stageTimeFormat) + "+00:00",
	}
	for k, v := range attrs {
		values[k] = v
	}

	entry, err := attributevalue.MarshalMap(values)
	if err != nil {
		return fmt.Errorf("failed to marshal stage entry: %w", err)
	}

	_, err = t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(t.name),
		Key: map[string]types.AttributeValue{
			"document_id":   &types.AttributeValueMemberS{Value: docID},
			"document_name": &types.AttributeValueMemberS{Value: docName},
		},
		UpdateExpression:         aws.String("SET #stage = :entry"),
		ExpressionAttributeNames: map[string]string{"#stage": stage},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":entry": &types.AttributeValueMemberM{Value: entry},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update item in table %s: %w", t.name, err)
	}
	return nil
}

// Item fetches the raw stage map of one document.
func (t *ProcessingTable) Item(ctx context.Context, docID, docName string) (map[string]any, error) {
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key: map[string]types.AttributeValue{
			"document_id":   &types.AttributeValueMemberS{Value: docID},
			"document_name": &types.AttributeValueMemberS{Value: docName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table %s: %w", t.name, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item map[string]any
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return item, nil
}
