package textract

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstextract "github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/textlift/textlift/pkg/geometry"
)

// Client wraps the AWS Textract API for asynchronous document analysis.
type Client struct {
	api *awstextract.Client
}

// NewClient builds a client from an AWS configuration.
func NewClient(cfg aws.Config) *Client {
	return &Client{api: awstextract.NewFromConfig(cfg)}
}

// StartAnalysisInput names the source object and the optional completion
// notification channel for an analysis job.
type StartAnalysisInput struct {
	Bucket      string
	Key         string
	JobTag      string // becomes the document id downstream
	SNSTopicARN string
	RoleARN     string
}

// StartAnalysis starts an asynchronous TABLES+FORMS analysis job and returns
// the job id. The job publishes its completion on the notification topic if
// one is configured.
func (c *Client) StartAnalysis(ctx context.Context, in StartAnalysisInput) (string, error) {
	req := &awstextract.StartDocumentAnalysisInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(in.Bucket),
				Name:   aws.String(in.Key),
			},
		},
		FeatureTypes: []types.FeatureType{
			types.FeatureTypeTables,
			types.FeatureTypeForms,
		},
	}
	if in.JobTag != "" {
		req.JobTag = aws.String(in.JobTag)
	}
	if in.SNSTopicARN != "" && in.RoleARN != "" {
		req.NotificationChannel = &types.NotificationChannel{
			SNSTopicArn: aws.String(in.SNSTopicARN),
			RoleArn:     aws.String(in.RoleARN),
		}
	}

	out, err := c.api.StartDocumentAnalysis(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to start document analysis for s3://%s/%s: %w", in.Bucket, in.Key, err)
	}
	return aws.ToString(out.JobId), nil
}

// FetchBlocks retrieves the complete block list of a finished analysis job,
// following NextToken pagination. The job status must be SUCCEEDED.
func (c *Client) FetchBlocks(ctx context.Context, jobID string) ([]Block, error) {
	var blocks []Block
	var next *string

	for {
		out, err := c.api.GetDocumentAnalysis(ctx, &awstextract.GetDocumentAnalysisInput{
			JobId:     aws.String(jobID),
			NextToken: next,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get document analysis for job %s: %w", jobID, err)
		}
		if out.JobStatus != types.JobStatusSucceeded {
			return nil, fmt.Errorf("textract job %s is not finished: status %s", jobID, out.JobStatus)
		}

		for _, blk := range out.Blocks {
			blocks = append(blocks, blockFromSDK(blk))
		}

		if out.NextToken == nil {
			break
		}
		next = out.NextToken
	}

	return blocks, nil
}

// blockFromSDK flattens the SDK's pointer-heavy block into the local model.
func blockFromSDK(b types.Block) Block {
	blk := Block{
		ID:              BlockID(aws.ToString(b.Id)),
		BlockType:       BlockType(b.BlockType),
		Text:            aws.ToString(b.Text),
		Page:            int(aws.ToInt32(b.Page)),
		RowIndex:        int(aws.ToInt32(b.RowIndex)),
		ColumnIndex:     int(aws.ToInt32(b.ColumnIndex)),
		SelectionStatus: SelectionStatus(b.SelectionStatus),
	}

	if b.Confidence != nil {
		confidence := float64(*b.Confidence)
		blk.Confidence = &confidence
	}

	if b.Geometry != nil && b.Geometry.BoundingBox != nil {
		box := b.Geometry.BoundingBox
		blk.Geometry = &Geometry{
			BoundingBox: geometry.NormalizedBox{
				Left:   float64(box.Left),
				Top:    float64(box.Top),
				Width:  float64(box.Width),
				Height: float64(box.Height),
			},
		}
	}

	for _, rel := range b.Relationships {
		relationship := Relationship{Type: RelationshipType(rel.Type)}
		for _, id := range rel.Ids {
			relationship.IDs = append(relationship.IDs, BlockID(id))
		}
		blk.Relationships = append(blk.Relationships, relationship)
	}

	return blk
}
