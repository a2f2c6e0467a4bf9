// textlift-worker drives the AWS-backed document pipeline stages.
//
// It connects the Textract, S3, DynamoDB and SQS collaborators and runs one
// pipeline stage per invocation: collecting a finished Textract job, building
// the selectable PDF from page images, or exporting the detected tables.
//
// Configuration:
//
// The worker requires a YAML configuration file naming the deployment:
//
//	region: "eu-west-1"
//	textract_bucket: "my-textract-output"
//	output_bucket: "my-selectable-pdfs"
//	documents_table: "document-processing-log"
//	job_queue_url: "https://sqs.eu-west-1.amazonaws.com/123456789012/jobs"
//	sns_topic_arn: "arn:aws:sns:eu-west-1:123456789012:textract-jobs"
//	textract_role_arn: "arn:aws:iam::123456789012:role/textract-sns"
//	dpi: 200
//
// Usage:
//
//	textlift-worker -config config.yml [stage flags]
//
// Stage flags (exactly one stage):
//
//	-start string         S3 URL of a document to submit for analysis
//	-notification string  Path to a Textract completion notification JSON;
//	                      fetches the block graph and persists it
//	-job-info string      Path to a job info JSON from a previous stage
//	-image-dir string     With -job-info: build the selectable PDF from the
//	                      page images in this directory
//	-tables               With -job-info: export the detected tables as CSV
//
// Authentication uses the default AWS credential chain.
//
// Examples:
//
//	textlift-worker -config config.yml -start s3://uploads/report.pdf
//	textlift-worker -config config.yml -notification sns_message.json
//	textlift-worker -config config.yml -job-info job.json -image-dir ./pages
//	textlift-worker -config config.yml -job-info job.json -tables
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/textlift/textlift/pkg/overlay"
	"github.com/textlift/textlift/pkg/pipeline"
	"github.com/textlift/textlift/pkg/store"
	"github.com/textlift/textlift/pkg/textract"
)

type yamlConfig struct {
	Region          string `yaml:"region"`
	TextractBucket  string `yaml:"textract_bucket"`
	OutputBucket    string `yaml:"output_bucket"`
	DocumentsTable  string `yaml:"documents_table"`
	JobQueueURL     string `yaml:"job_queue_url"`
	SNSTopicARN     string `yaml:"sns_topic_arn"`
	TextractRoleARN string `yaml:"textract_role_arn"`
	CSVSeparator    string `yaml:"csv_separator"`
	DPI             int    `yaml:"dpi"`
	Debug           bool   `yaml:"debug"`
}

// loadConfig reads the YAML deployment description.
func loadConfig(file string) (*yamlConfig, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, err
	}
	if yc.TextractBucket == "" || yc.OutputBucket == "" || yc.DocumentsTable == "" {
		return nil, fmt.Errorf("config %s: textract_bucket, output_bucket and documents_table are required", file)
	}
	return &yc, nil
}

func main() {
	configPath := flag.String("config", "", "Path to the config YAML file (required)")
	startURL := flag.String("start", "", "S3 URL of a document to submit for analysis")
	notificationPath := flag.String("notification", "", "Path to a Textract completion notification JSON")
	jobInfoPath := flag.String("job-info", "", "Path to a job info JSON from a previous stage")
	imageDirPath := flag.String("image-dir", "", "Directory containing the page images (with -job-info)")
	exportTables := flag.Bool("tables", false, "Export the detected tables as CSV (with -job-info)")
	verbose := flag.Bool("verbose", false, "Log at debug level")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config flag is required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	stages := 0
	for _, set := range []bool{*startURL != "", *notificationPath != "", *jobInfoPath != ""} {
		if set {
			stages++
		}
	}
	if stages != 1 {
		fmt.Fprintln(os.Stderr, "Error: Exactly one of -start, -notification or -job-info must be provided")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *jobInfoPath != "" && *imageDirPath == "" && !*exportTables {
		fmt.Fprintln(os.Stderr, "Error: -job-info requires -image-dir or -tables")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	yc, err := loadConfig(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(yc.Region))
	if err != nil {
		log.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	overlayCfg := overlay.DefaultConfig()
	overlayCfg.Debug = yc.Debug
	if yc.DPI > 0 {
		overlayCfg.DPI = yc.DPI
	}

	var queue *store.JobQueue
	if yc.JobQueueURL != "" {
		queue = store.NewJobQueue(awsCfg, yc.JobQueueURL)
	}
	logTable := store.NewProcessingTable(awsCfg, yc.DocumentsTable)
	if err := logTable.Validate(ctx); err != nil {
		log.Error("processing table validation failed", "table", yc.DocumentsTable, "error", err)
		os.Exit(1)
	}

	ocr := textract.NewClient(awsCfg)
	pipe := pipeline.New(
		log,
		ocr,
		store.NewObjectStore(awsCfg),
		logTable,
		queue,
		pipeline.Config{
			TextractBucket: yc.TextractBucket,
			OutputBucket:   yc.OutputBucket,
			CSVSeparator:   yc.CSVSeparator,
			Overlay:        overlayCfg,
		},
	)

	if *startURL != "" {
		if err := runStartStage(ctx, log, ocr, logTable, yc, *startURL); err != nil {
			log.Error("start stage failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if *notificationPath != "" {
		if err := runNotificationStage(ctx, pipe, *notificationPath); err != nil {
			log.Error("notification stage failed", "error", err)
			os.Exit(1)
		}
		return
	}

	data, err := os.ReadFile(*jobInfoPath)
	if err != nil {
		log.Error("failed to read job info", "path", *jobInfoPath, "error", err)
		os.Exit(1)
	}
	info, err := pipeline.ParseJobInfo(data)
	if err != nil {
		log.Error("failed to parse job info", "path", *jobInfoPath, "error", err)
		os.Exit(1)
	}

	if *imageDirPath != "" {
		rasters, err := loadRasters(*imageDirPath, overlayCfg.DPI)
		if err != nil {
			log.Error("failed to load page images", "dir", *imageDirPath, "error", err)
			os.Exit(1)
		}
		if err := pipe.MakeSelectable(ctx, info, rasters); err != nil {
			log.Error("selectable stage failed", "error", err)
			os.Exit(1)
		}
	}
	if *exportTables {
		if err := pipe.ExportTables(ctx, info); err != nil {
			log.Error("table export stage failed", "error", err)
			os.Exit(1)
		}
	}
}

// runStartStage submits a stored document for analysis and records the new
// document in the processing log. The job tag carries the document id so the
// completion handler can pick it up again.
func runStartStage(ctx context.Context, log *slog.Logger, ocr *textract.Client, logTable *store.ProcessingTable, yc *yamlConfig, url string) error {
	bucket, key, err := store.SplitURL(url)
	if err != nil {
		return err
	}
	docID := uuid.NewString()
	docName := path.Base(key)

	jobID, err := ocr.StartAnalysis(ctx, textract.StartAnalysisInput{
		Bucket:      bucket,
		Key:         key,
		JobTag:      docID,
		SNSTopicARN: yc.SNSTopicARN,
		RoleARN:     yc.TextractRoleARN,
	})
	if err != nil {
		return err
	}
	log.Info("started analysis job",
		"document_id", docID, "document_name", docName, "job_id", jobID)

	return logTable.UpsertStage(ctx, docID, docName, "textract_async_start", map[string]string{
		"textract_job_id":      jobID,
		"original_document_s3": url,
	})
}

func runNotificationStage(ctx context.Context, pipe *pipeline.Pipeline, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	n, err := pipeline.ParseJobNotification(data)
	if err != nil {
		return err
	}
	info, err := pipe.ProcessJobResult(ctx, n)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// loadRasters reads every image in dir in name order.
func loadRasters(dir string, dpi int) ([]overlay.PageRaster, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var rasters []overlay.PageRaster
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		raster, err := overlay.RasterFromImage(data, dpi)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		rasters = append(rasters, raster)
	}
	if len(rasters) == 0 {
		return nil, fmt.Errorf("no readable page images in %s", dir)
	}
	return rasters, nil
}
