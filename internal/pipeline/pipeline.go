// Package pipeline coordinates a submission end to end: upload the scanned
// document, wait for the extraction service to finish processing, request
// structured output, parse and validate the records, and append them to the
// shared ledger. Only the final stage has external side effects; any failure
// before it leaves the ledger untouched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/eventdesk/registration-ingest/constants"
	"github.com/eventdesk/registration-ingest/internal/common"
	"github.com/eventdesk/registration-ingest/internal/entity"
	"github.com/eventdesk/registration-ingest/internal/ledger"
)

// Uploader submits documents to the extraction service and waits for them
// to become ready.
type Uploader interface {
	Submit(ctx context.Context, r io.Reader, mimeType, displayName string) (*entity.DocumentHandle, error)
	AwaitReady(ctx context.Context, handles []*entity.DocumentHandle, pollInterval, maxWait time.Duration) ([]*entity.DocumentHandle, error)
}

// Extractor asks the service for structured output over ready documents.
type Extractor interface {
	Extract(ctx context.Context, handles []*entity.DocumentHandle) (string, error)
}

// Recorder persists submission progress for the operator's local history.
type Recorder interface {
	Begin(ctx context.Context, id uuid.UUID, receiptBookNumber string) error
	SetStage(ctx context.Context, id uuid.UUID, stage constants.Stage) error
	FinishSuccess(ctx context.Context, id uuid.UUID, recordCount, rowsWritten int) error
	FinishFailure(ctx context.Context, id uuid.UUID, stage constants.Stage, errMsg string) error
}

// Config carries the run-level settings the pipeline needs.
type Config struct {
	PollInterval time.Duration
	MaxWait      time.Duration

	// EventListPath optionally names a reference PDF uploaded alongside
	// every submission so the model sees the canonical event names.
	EventListPath string

	// OperatorIdentity is stamped into the second ledger column.
	OperatorIdentity string
}

// SubmitRequest is one scanned receipt book document to ingest.
type SubmitRequest struct {
	Document          io.Reader
	MIMEType          string
	Filename          string
	ReceiptBookNumber string
}

// Result summarizes a successful run.
type Result struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	RecordCount  int       `json:"record_count"`
	RowsWritten  int       `json:"rows_written"`
}

// StageError reports which stage a run died in.
type StageError struct {
	Stage constants.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type parser interface {
	Parse(raw string) ([]entity.RegistrationRecord, error)
}

// Pipeline wires the stages together around a shared history recorder.
type Pipeline struct {
	Uploader  Uploader
	Extractor Extractor
	Parser    parser
	Ledger    ledger.Writer
	History   Recorder
	Config    Config
	Logger    *slog.Logger
}

func New(up Uploader, ex Extractor, p parser, lw ledger.Writer, hist Recorder, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Uploader:  up,
		Extractor: ex,
		Parser:    p,
		Ledger:    lw,
		History:   hist,
		Config:    cfg,
		Logger:    logger,
	}
}

// Run ingests one submission and returns the run summary. Errors are wrapped
// in a *StageError naming the stage that failed; the failure is also recorded
// in the history store before returning.
func (p *Pipeline) Run(ctx context.Context, req SubmitRequest) (Result, error) {
	id := uuid.New()
	res := Result{SubmissionID: id}

	if err := p.History.Begin(ctx, id, req.ReceiptBookNumber); err != nil {
		return res, &StageError{Stage: constants.StageReceived, Err: err}
	}
	p.Logger.Info("pipeline.received",
		"submission_id", id,
		"receipt_book", req.ReceiptBookNumber,
		"filename", req.Filename,
	)

	handles, err := p.uploadStage(ctx, id, req)
	if err != nil {
		return res, p.fail(ctx, id, constants.StageUploading, err)
	}

	p.setStage(ctx, id, constants.StageWaitingReady)
	handles, err = p.Uploader.AwaitReady(ctx, handles, p.Config.PollInterval, p.Config.MaxWait)
	if err != nil {
		return res, p.fail(ctx, id, constants.StageWaitingReady, err)
	}

	p.setStage(ctx, id, constants.StageExtracting)
	raw, err := p.Extractor.Extract(ctx, handles)
	if err != nil {
		return res, p.fail(ctx, id, constants.StageExtracting, err)
	}

	// Parse covers both the decode and validate stages; the parser's errors
	// carry sentinels that tell us which of the two died.
	p.setStage(ctx, id, constants.StageParsing)
	records, err := p.parseStage(ctx, id, raw)
	if err != nil {
		return res, err
	}
	res.RecordCount = len(records)

	p.setStage(ctx, id, constants.StageWriting)
	rows := ledger.MapToRows(records, req.ReceiptBookNumber, p.Config.OperatorIdentity, time.Now())
	written, err := p.Ledger.AppendBatch(ctx, rows)
	if err != nil {
		return res, p.fail(ctx, id, constants.StageWriting, err)
	}
	res.RowsWritten = written

	if err := p.History.FinishSuccess(ctx, id, res.RecordCount, res.RowsWritten); err != nil {
		p.Logger.Error("pipeline.history.finish_failed", "submission_id", id, "err", err)
	}
	p.Logger.Info("pipeline.done",
		"submission_id", id,
		"records", res.RecordCount,
		"rows_written", res.RowsWritten,
	)
	return res, nil
}

func (p *Pipeline) uploadStage(ctx context.Context, id uuid.UUID, req SubmitRequest) ([]*entity.DocumentHandle, error) {
	p.setStage(ctx, id, constants.StageUploading)

	handle, err := p.Uploader.Submit(ctx, req.Document, req.MIMEType, req.Filename)
	if err != nil {
		return nil, err
	}
	handles := []*entity.DocumentHandle{handle}

	if p.Config.EventListPath != "" {
		ref, err := p.uploadEventList(ctx)
		if err != nil {
			return nil, err
		}
		handles = append(handles, ref)
	}
	return handles, nil
}

// uploadEventList sends the reference PDF of canonical event names. It rides
// along with every submission so the model can normalize event names itself.
func (p *Pipeline) uploadEventList(ctx context.Context) (*entity.DocumentHandle, error) {
	f, err := os.Open(p.Config.EventListPath)
	if err != nil {
		return nil, fmt.Errorf("open event list: %w", err)
	}
	defer f.Close()
	return p.Uploader.Submit(ctx, f, "application/pdf", filepath.Base(p.Config.EventListPath))
}

func (p *Pipeline) parseStage(ctx context.Context, id uuid.UUID, raw string) ([]entity.RegistrationRecord, error) {
	records, err := p.Parser.Parse(raw)
	if err != nil {
		// Distinguish the two parser phases for the history record: decode
		// failures stay in PARSING, per-record failures are VALIDATING.
		stage := constants.StageParsing
		if isValidationError(err) {
			p.setStage(ctx, id, constants.StageValidating)
			stage = constants.StageValidating
		}
		return nil, p.fail(ctx, id, stage, err)
	}
	p.setStage(ctx, id, constants.StageValidating)
	return records, nil
}

func isValidationError(err error) bool {
	return errors.Is(err, common.ErrValidation)
}

func (p *Pipeline) setStage(ctx context.Context, id uuid.UUID, stage constants.Stage) {
	if err := p.History.SetStage(ctx, id, stage); err != nil {
		p.Logger.Error("pipeline.history.set_stage_failed",
			"submission_id", id, "stage", stage, "err", err)
	}
}

func (p *Pipeline) fail(ctx context.Context, id uuid.UUID, stage constants.Stage, err error) error {
	p.Logger.Error("pipeline.failed", "submission_id", id, "stage", stage, "err", err)
	if histErr := p.History.FinishFailure(ctx, id, stage, err.Error()); histErr != nil {
		p.Logger.Error("pipeline.history.fail_failed", "submission_id", id, "err", histErr)
	}
	return &StageError{Stage: stage, Err: err}
}
