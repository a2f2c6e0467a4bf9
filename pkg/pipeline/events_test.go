package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJobNotification(t *testing.T) {
	data := []byte(`{
		"JobId": "job-123",
		"JobTag": "doc-1",
		"Status": "SUCCEEDED",
		"API": "StartDocumentAnalysis",
		"Timestamp": 1700000000000,
		"DocumentLocation": {
			"S3ObjectName": "uploads/report.pdf",
			"S3Bucket": "input-bucket"
		}
	}`)

	n, err := ParseJobNotification(data)
	require.NoError(t, err)
	require.Equal(t, "job-123", n.JobID)
	require.Equal(t, "doc-1", n.JobTag)
	require.Equal(t, "SUCCEEDED", n.Status)
	require.Equal(t, "input-bucket", n.DocumentLocation.S3Bucket)
	require.Equal(t, "uploads/report.pdf", n.DocumentLocation.S3ObjectName)
}

func TestParseJobNotificationRejectsIncomplete(t *testing.T) {
	_, err := ParseJobNotification([]byte(`{}`))
	require.Error(t, err)

	_, err = ParseJobNotification([]byte(`{"JobId":"job-1"}`))
	require.Error(t, err)

	_, err = ParseJobNotification([]byte(`not json`))
	require.Error(t, err)
}

func TestParseJobInfo(t *testing.T) {
	data := []byte(`{
		"document_id": "doc-1",
		"document_name": "report.pdf",
		"original_document_s3": {"bucket": "input-bucket", "key": "uploads/report.pdf"},
		"textract_output_s3": {"bucket": "textract-bucket", "key": "doc-1/textract_output_blocks.json"}
	}`)

	info, err := ParseJobInfo(data)
	require.NoError(t, err)
	require.Equal(t, "doc-1", info.DocumentID)
	require.Equal(t, "report.pdf", info.DocumentName)
	require.Equal(t, "textract-bucket", info.TextractOutput.Bucket)
}

func TestParseJobInfoRejectsIncomplete(t *testing.T) {
	_, err := ParseJobInfo([]byte(`{"document_id":"doc-1"}`))
	require.Error(t, err)

	_, err = ParseJobInfo([]byte(`{"document_id":"doc-1","document_name":"a.pdf"}`))
	require.Error(t, err)
}
