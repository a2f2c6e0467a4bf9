package pipeline

import (
	"encoding/json"
	"fmt"
)

// S3Location points at one stored object.
type S3Location struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// JobInfo is the hand-off record between the fetch stage and the overlay
// stage, carried on the job queue.
type JobInfo struct {
	DocumentID       string     `json:"document_id"`
	DocumentName     string     `json:"document_name"`
	OriginalDocument S3Location `json:"original_document_s3"`
	TextractOutput   S3Location `json:"textract_output_s3"`
}

// JobNotification is the completion notification Textract publishes on its
// SNS topic when an analysis job finishes.
type JobNotification struct {
	JobID            string `json:"JobId"`
	JobTag           string `json:"JobTag"`
	Status           string `json:"Status"`
	API              string `json:"API"`
	Timestamp        int64  `json:"Timestamp"`
	DocumentLocation struct {
		S3ObjectName string `json:"S3ObjectName"`
		S3Bucket     string `json:"S3Bucket"`
	} `json:"DocumentLocation"`
}

// ParseJobNotification decodes and validates a Textract completion
// notification.
func ParseJobNotification(data []byte) (*JobNotification, error) {
	var n JobNotification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode job notification: %w", err)
	}
	if n.JobID == "" {
		return nil, fmt.Errorf("job notification has no JobId")
	}
	if n.DocumentLocation.S3Bucket == "" || n.DocumentLocation.S3ObjectName == "" {
		return nil, fmt.Errorf("job notification for job %s has no document location", n.JobID)
	}
	return &n, nil
}

// ParseJobInfo decodes and validates a queued job-info record.
func ParseJobInfo(data []byte) (*JobInfo, error) {
	var info JobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode job info: %w", err)
	}
	if info.DocumentID == "" || info.DocumentName == "" {
		return nil, fmt.Errorf("job info is missing the document identity")
	}
	if info.TextractOutput.Bucket == "" || info.TextractOutput.Key == "" {
		return nil, fmt.Errorf("job info for document %s has no textract output location", info.DocumentID)
	}
	return &info, nil
}
