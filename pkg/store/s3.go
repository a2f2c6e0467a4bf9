// Package store holds the thin AWS glue around the core: the object store
// the documents live in, the DynamoDB processing log and the job queue that
// hands work between pipeline stages.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore reads and writes documents on S3.
type ObjectStore struct {
	client *s3.Client
}

// NewObjectStore builds an object store from an AWS configuration.
func NewObjectStore(cfg aws.Config) *ObjectStore {
	return &ObjectStore{client: s3.NewFromConfig(cfg)}
}

// Load fetches an object's bytes.
func (o *ObjectStore) Load(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Save writes an object with the given content type.
func (o *ObjectStore) Save(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := o.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// LoadJSON fetches an object and decodes it into v.
func (o *ObjectStore) LoadJSON(ctx context.Context, bucket, key string, v any) error {
	data, err := o.Load(ctx, bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// SaveJSON encodes v and writes it as a JSON object.
func (o *ObjectStore) SaveJSON(ctx context.Context, bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode s3://%s/%s: %w", bucket, key, err)
	}
	return o.Save(ctx, bucket, key, data, "application/json")
}

// SplitURL extracts the bucket and key from an s3://bucket/some/key URL.
func SplitURL(url string) (bucket, key string, err error) {
	trimmed, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %s", url)
	}
	bucket, key, ok = strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 url: %s", url)
	}
	return bucket, key, nil
}
