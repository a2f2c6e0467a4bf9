// Package pipeline wires the block parser and the overlay compositor to
// their AWS collaborators. It implements the three stages the processing
// flow consists of: collecting finished analysis jobs, overlaying the
// recognized words onto the page rasters, and exporting the reconstructed
// tables for human review.
//
// All state lives in the collaborators (object store, log table, queue);
// the pipeline itself is stateless across invocations and every stage is a
// pure function of its inputs plus those collaborators.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/textlift/textlift/pkg/overlay"
	"github.com/textlift/textlift/pkg/store"
	"github.com/textlift/textlift/pkg/textract"
)

// The object key the block graph is stored under, relative to the document
// id prefix.
const blocksObjectName = "textract_output_blocks.json"

// Config names the buckets and knobs of one pipeline deployment.
type Config struct {
	TextractBucket string // bucket the block graphs are persisted in
	OutputBucket   string // bucket the selectable PDFs are written to
	CSVSeparator   string // separator for table CSV exports, "," if empty
	Overlay        overlay.Config
}

// Pipeline runs the processing stages against the AWS collaborators. The
// logger is injected explicitly; the core packages stay log-free.
type Pipeline struct {
	log      *slog.Logger
	ocr      *textract.Client
	objects  *store.ObjectStore
	logTable *store.ProcessingTable
	queue    *store.JobQueue
	cfg      Config
}

// New assembles a pipeline. The queue may be nil when no downstream stage
// listens; the log table and object store are required.
func New(
	log *slog.Logger,
	ocr *textract.Client,
	objects *store.ObjectStore,
	logTable *store.ProcessingTable,
	queue *store.JobQueue,
	cfg Config,
) *Pipeline {
	return &Pipeline{
		log:      log,
		ocr:      ocr,
		objects:  objects,
		logTable: logTable,
		queue:    queue,
		cfg:      cfg,
	}
}

// ProcessJobResult handles a Textract completion notification: it fetches
// the block graph, persists it next to the document, records the stage and
// hands the job to the overlay stage via the queue.
func (p *Pipeline) ProcessJobResult(ctx context.Context, n *JobNotification) (*JobInfo, error) {
	if n.Status != "" && n.Status != "SUCCEEDED" {
		return nil, fmt.Errorf("textract job %s did not succeed: %s", n.JobID, n.Status)
	}

	documentID := n.JobTag
	if documentID == "" {
		documentID = uuid.NewString()
	}
	documentName := path.Base(n.DocumentLocation.S3ObjectName)

	log := p.log.With("document_id", documentID, "document_name", documentName)
	log.Info("processing textract job", "job_id", n.JobID,
		"bucket", n.DocumentLocation.S3Bucket, "key", n.DocumentLocation.S3ObjectName)

	if err := p.logTable.UpsertStage(ctx, documentID, documentName, "textract_async_end", nil); err != nil {
		return nil, err
	}

	blocks, err := p.ocr.FetchBlocks(ctx, n.JobID)
	if err != nil {
		return nil, err
	}
	log.Info("fetched blocks", "count", len(blocks))

	outputKey := path.Join(documentID, blocksObjectName)
	if err := p.objects.SaveJSON(ctx, p.cfg.TextractBucket, outputKey, textract.AnalysisOutput{Blocks: blocks}); err != nil {
		return nil, err
	}

	info := &JobInfo{
		DocumentID:   documentID,
		DocumentName: documentName,
		OriginalDocument: S3Location{
			Bucket: n.DocumentLocation.S3Bucket,
			Key:    n.DocumentLocation.S3ObjectName,
		},
		TextractOutput: S3Location{
			Bucket: p.cfg.TextractBucket,
			Key:    outputKey,
		},
	}

	if p.queue != nil {
		if err := p.queue.Send(ctx, info); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// MakeSelectable turns one queued job into a selectable PDF in the output
// bucket. Rasters must be supplied by the caller, one per source page, in
// page order.
func (p *Pipeline) MakeSelectable(ctx context.Context, info *JobInfo, rasters []overlay.PageRaster) error {
	log := p.log.With("document_id", info.DocumentID, "document_name", info.DocumentName)

	if err := p.logTable.UpsertStage(ctx, info.DocumentID, info.DocumentName, "selectable_pdf", nil); err != nil {
		return err
	}

	data, err := p.objects.Load(ctx, info.TextractOutput.Bucket, info.TextractOutput.Key)
	if err != nil {
		return err
	}
	blocks, err := textract.DecodeBlocks(data)
	if err != nil {
		return err
	}

	wordCount := 0
	for _, blk := range blocks {
		if blk.BlockType == textract.BlockTypeWord {
			wordCount++
		}
	}
	log.Info("overlaying words", "blocks", len(blocks), "words", wordCount, "pages", len(rasters))

	pdfData, err := overlay.AssembleSearchable(rasters, blocks, p.cfg.Overlay)
	if err != nil {
		return fmt.Errorf("failed to assemble selectable PDF for %s: %w", info.DocumentName, err)
	}

	if err := p.objects.Save(ctx, p.cfg.OutputBucket, info.DocumentName, pdfData, "application/pdf"); err != nil {
		return err
	}
	log.Info("selectable PDF written", "bucket", p.cfg.OutputBucket, "key", info.DocumentName)

	return p.logTable.UpsertStage(ctx, info.DocumentID, info.DocumentName, "selectable_pdf", map[string]string{
		"output_bucket": p.cfg.OutputBucket,
		"output_key":    info.DocumentName,
	})
}

// ExportTables writes the review payload plus one CSV per reconstructed
// table next to the stored block graph.
func (p *Pipeline) ExportTables(ctx context.Context, info *JobInfo) error {
	log := p.log.With("document_id", info.DocumentID, "document_name", info.DocumentName)

	data, err := p.objects.Load(ctx, info.TextractOutput.Bucket, info.TextractOutput.Key)
	if err != nil {
		return err
	}
	blocks, err := textract.DecodeBlocks(data)
	if err != nil {
		return err
	}
	parser, err := textract.NewParser(blocks)
	if err != nil {
		return err
	}
	log.Info("reconstructing tables", "tables", len(parser.TableIDs()))

	payloadKey := path.Join(info.DocumentID, "tables_payload.json")
	payload, err := parser.ReviewPayload(textract.ReviewMetadata{
		OriginalObject: fmt.Sprintf("s3://%s/%s", info.OriginalDocument.Bucket, info.OriginalDocument.Key),
		InputObject:    fmt.Sprintf("s3://%s/%s", p.cfg.TextractBucket, payloadKey),
		OutputObject:   fmt.Sprintf("s3://%s/%s", p.cfg.OutputBucket, payloadKey),
	}, nil)
	if err != nil {
		return err
	}
	if err := p.objects.SaveJSON(ctx, p.cfg.TextractBucket, payloadKey, payload); err != nil {
		return err
	}

	grids, err := parser.AllTables()
	if err != nil {
		return err
	}
	for i, id := range parser.TableIDs() {
		key := path.Join(info.DocumentID, fmt.Sprintf("table_%02d.csv", i+1))
		csv := grids[id].CSV(p.cfg.CSVSeparator)
		if err := p.objects.Save(ctx, p.cfg.TextractBucket, key, []byte(csv), "text/csv"); err != nil {
			return err
		}
	}
	log.Info("table export written", "tables", len(grids), "payload_key", payloadKey)

	return p.logTable.UpsertStage(ctx, info.DocumentID, info.DocumentName, "table_export", map[string]string{
		"payload_key": payloadKey,
	})
}
