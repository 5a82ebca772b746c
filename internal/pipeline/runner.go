package pipeline

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/dispatch-ocr/internal/archive"
	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
	"github.com/a3tai/dispatch-ocr/internal/extract"
	"github.com/a3tai/dispatch-ocr/internal/ledger"
	"github.com/a3tai/dispatch-ocr/internal/sheet"
)

// DocumentProcessor turns one PDF into a Document
type DocumentProcessor interface {
	ProcessFile(ctx context.Context, path string) (*Document, error)
}

// Status is what happened to one file
type Status string

const (
	StatusAppended  Status = "appended"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
)

// Outcome reports one file of a batch
type Outcome struct {
	Path       string          `json:"path"`
	Status     Status          `json:"status"`
	Invoice    string          `json:"invoice,omitempty"`
	Row        int             `json:"row,omitempty"`
	Gaps       []extract.Field `json:"gaps,omitempty"`
	ArchivedTo string          `json:"archived_to,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Summary reports a whole batch
type Summary struct {
	Processed int                      `json:"processed"`
	Skipped   int                      `json:"skipped"`
	Failed    int                      `json:"failed"`
	Created   bool                     `json:"sheet_created,omitempty"`
	Outcomes  []Outcome                `json:"outcomes"`
	Errors    *derrors.ErrorCollection `json:"errors"`
}

// RunnerOptions configures where rows and processed PDFs go
type RunnerOptions struct {
	ExcelPath  string
	ArchiveDir string
}

// Runner appends extracted records to the dispatch sheet
type Runner struct {
	processor DocumentProcessor
	opts      RunnerOptions
	log       logrus.FieldLogger
}

// NewRunner creates a new batch runner
func NewRunner(processor DocumentProcessor, opts RunnerOptions, log logrus.FieldLogger) *Runner {
	return &Runner{processor: processor, opts: opts, log: log}
}

// Run processes files in order. Per-file failures are recorded and the batch
// moves on; the returned error is set only when the sheet cannot be prepared,
// an environment failure makes every further file pointless, or ctx ends.
func (r *Runner) Run(ctx context.Context, files []string) (*Summary, error) {
	summary := &Summary{
		Outcomes: make([]Outcome, 0, len(files)),
		Errors:   derrors.NewErrorCollection(),
	}

	created, err := sheet.EnsureFile(r.opts.ExcelPath)
	if err != nil {
		return summary, err
	}
	summary.Created = created
	if created {
		r.log.WithField("excel", r.opts.ExcelPath).Info("Created dispatch spreadsheet")
	}

	known, err := ledger.Load(r.opts.ExcelPath)
	if err != nil {
		return summary, err
	}
	r.log.WithField("invoices", known.Len()).Debug("ledger loaded")

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		out, err := r.runFile(ctx, path, known, summary.Errors)
		summary.Outcomes = append(summary.Outcomes, out)
		switch out.Status {
		case StatusAppended:
			summary.Processed++
		case StatusDuplicate:
			summary.Skipped++
		default:
			summary.Failed++
		}

		if err != nil && derrors.IsFatal(err) {
			return summary, err
		}
	}

	r.log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("Batch complete")
	return summary, nil
}

func (r *Runner) runFile(ctx context.Context, path string, known ledger.KnownSet,
	errs *derrors.ErrorCollection) (Outcome, error) {
	out := Outcome{Path: path}
	log := r.log.WithField("file", filepath.Base(path))

	fail := func(err error) (Outcome, error) {
		errs.Add(err)
		out.Status = StatusFailed
		out.Error = err.Error()
		log.WithError(err).Error("Error processing file")
		return out, err
	}

	doc, err := r.processor.ProcessFile(ctx, path)
	if err != nil {
		return fail(err)
	}
	out.Invoice = doc.Record.InvoiceNumber
	out.Gaps = doc.Gaps
	for _, f := range doc.Gaps {
		errs.Add(derrors.New(derrors.ErrorTypeExtractionGap, "field not found").
			WithFile(path).WithField(string(f)))
	}
	if len(doc.Gaps) > 0 {
		log.WithField("missing", doc.Gaps).Warn("Some fields were not found, row needs review")
	}

	if ledger.IsDuplicate(doc.Record, known) {
		errs.Add(derrors.New(derrors.ErrorTypeDuplicateSkip, "invoice already in spreadsheet").
			WithFile(path).WithField(string(extract.FieldInvoiceNumber)))
		out.Status = StatusDuplicate
		log.WithField("invoice", out.Invoice).Info("Skipped duplicate invoice")
		out.ArchivedTo = r.archive(path, log, errs)
		return out, nil
	}

	row, err := r.appendRecord(doc.Record)
	if err != nil {
		return fail(err)
	}
	known.Add(doc.Record.InvoiceNumber)

	out.Status = StatusAppended
	out.Row = row
	log.WithFields(logrus.Fields{"invoice": out.Invoice, "row": row}).Info("Processed file")
	out.ArchivedTo = r.archive(path, log, errs)
	return out, nil
}

// appendRecord opens, appends to, formats and saves the sheet
func (r *Runner) appendRecord(record extract.OrderRecord) (int, error) {
	wb, err := sheet.Open(r.opts.ExcelPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = wb.Close() }()

	row, err := wb.Append(record)
	if err != nil {
		return 0, err
	}
	if err := wb.ApplyCenterAlignment(); err != nil {
		r.log.WithError(err).Warn("Could not centre cells")
	}
	if err := wb.Save(r.opts.ExcelPath); err != nil {
		return 0, err
	}
	return row, nil
}

// archive moves path into the archive directory when one is configured. An
// archive failure never undoes the row.
func (r *Runner) archive(path string, log logrus.FieldLogger, errs *derrors.ErrorCollection) string {
	if r.opts.ArchiveDir == "" {
		return ""
	}
	dst, err := archive.Move(path, r.opts.ArchiveDir)
	if err != nil {
		errs.Add(derrors.Wrap(derrors.ErrorTypeWrite, "cannot archive PDF", err).WithFile(path))
		log.WithError(err).Warn("Could not archive file")
		return ""
	}
	log.WithField("archived_to", dst).Debug("file archived")
	return dst
}
