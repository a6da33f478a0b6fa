package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Buffnet/Zoho-Books/internal/diagnostics"
	"github.com/Buffnet/Zoho-Books/internal/models"
	"github.com/Buffnet/Zoho-Books/internal/services/extraction"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/pipeline")

var (
	// ErrFatalDrift is returned when a page rendered rows but none were
	// recoverable as paid invoices.
	ErrFatalDrift = errors.New("fatal schema drift: rows present but none parsed")
	// ErrValidation is returned when a retained record fails the final
	// required-field check. Reaching it means the extraction gate let a
	// malformed record through, which is a pipeline defect.
	ErrValidation = errors.New("validation failed: retained record missing required field")
)

// maxErrorSamples caps how many extraction diagnostics are kept per run.
const maxErrorSamples = 10

type Config struct {
	DiagnosticsDir     string
	WarnErrorThreshold int
}

// Pipeline walks the paginated invoice list, extracts paid-family
// records, deduplicates them across pages and watches each page for
// schema drift. One logical control thread; pages are strictly
// sequential because every page mutates shared session state.
type Pipeline struct {
	driver   PageDriver
	detector *DriftDetector
	seen     *DedupStore
	diagDir  string
}

type Result struct {
	Records      []models.InvoiceRecord
	Pages        int
	TotalRows    int
	ParsedRows   int
	Duplicates   int
	ErrorSamples []string
	Warnings     []DriftWarning
}

// DriftWarning notes a page that crossed the warning threshold but did
// not abort the run.
type DriftWarning struct {
	Page       int
	ErrorCount int
}

func New(driver PageDriver, cfg Config) *Pipeline {
	detector := NewDriftDetector()
	if cfg.WarnErrorThreshold > 0 {
		detector.WarnErrorThreshold = cfg.WarnErrorThreshold
	}
	return &Pipeline{
		driver:   driver,
		detector: detector,
		seen:     NewDedupStore(),
		diagDir:  cfg.DiagnosticsDir,
	}
}

// Run traverses every page and returns the accumulated record set. Any
// returned error means the whole run failed and no output should be
// written; there is no internal retry.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	if err := p.driver.WaitRowsVisible(ctx); err != nil {
		err = fmt.Errorf("row container never became visible: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res := &Result{}
	for page := 1; ; page++ {
		res.Pages = page

		stats, err := p.extractPage(ctx, page, res)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		switch p.detector.Assess(stats) {
		case SeverityFatal:
			p.capture(ctx, fmt.Sprintf("fatal-drift-page-%d", page))
			err := fmt.Errorf("page %d: %d rows rendered, 0 parsed: %w", page, stats.TotalRows, ErrFatalDrift)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		case SeverityWarning:
			slog.WarnContext(ctx, "warning drift: high extraction error rate",
				"page", page,
				"errors", len(stats.Errors),
				"sample", sample(stats.Errors, 3),
			)
			p.capture(ctx, fmt.Sprintf("warning-drift-page-%d", page))
			res.Warnings = append(res.Warnings, DriftWarning{Page: page, ErrorCount: len(stats.Errors)})
		}

		done, err := p.advance(ctx, stats.TotalRows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if done {
			break
		}
	}

	for _, r := range res.Records {
		if r.InvoiceID == "" || r.Customer == "" || r.Status == "" {
			err := fmt.Errorf("record %+v: %w", r, ErrValidation)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	if len(res.Records) == 0 {
		slog.WarnContext(ctx, "run completed with zero records, possible drift", "pages", res.Pages)
		p.capture(ctx, "zero-records")
	}

	span.SetAttributes(
		attribute.Int("pages", res.Pages),
		attribute.Int("records", len(res.Records)),
		attribute.Int("duplicates", res.Duplicates),
	)
	return res, nil
}

// extractPage reads the current row set, runs the extraction cascade on
// each row and folds survivors into the accumulator. Row-level problems
// never escalate past this page.
func (p *Pipeline) extractPage(ctx context.Context, page int, res *Result) (models.ExtractionStats, error) {
	ctx, span := tracer.Start(ctx, "extractPage")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page))

	rows, err := p.driver.Rows(ctx)
	if err != nil {
		return models.ExtractionStats{}, fmt.Errorf("read rows on page %d: %w", page, err)
	}

	stats := models.ExtractionStats{Page: page, TotalRows: len(rows)}
	if len(rows) > 0 {
		stats.ColumnCount = len(rows[0].Cells)
		stats.HasExpectedStructure = stats.ColumnCount >= 5
	}

	for i, row := range rows {
		fields, err := extraction.Extract(row)
		if err != nil {
			if errors.Is(err, extraction.ErrRowSkipped) {
				slog.DebugContext(ctx, "row skipped", "page", page, "row", i, "reason", err)
				continue
			}
			stats.Errors = append(stats.Errors, fmt.Sprintf("page %d row %d: %v", page, i, err))
			continue
		}
		if !extraction.IsPaidFamily(fields.Status) {
			continue
		}
		stats.ParsedRows++
		if !p.seen.Admit(fields.InvoiceID) {
			slog.DebugContext(ctx, "duplicate invoice dropped", "invoice_id", fields.InvoiceID, "page", page)
			continue
		}
		res.Records = append(res.Records, models.InvoiceRecord{
			InvoiceID: fields.InvoiceID,
			Customer:  fields.Customer,
			Amount:    fields.Amount,
			PaidAt:    fields.PaidAt,
			Status:    fields.Status,
		})
	}

	res.TotalRows += stats.TotalRows
	res.ParsedRows += stats.ParsedRows
	res.Duplicates = p.seen.Duplicates()
	for _, e := range stats.Errors {
		if len(res.ErrorSamples) < maxErrorSamples {
			res.ErrorSamples = append(res.ErrorSamples, e)
		}
	}

	slog.InfoContext(ctx, "page extracted",
		"page", page,
		"total_rows", stats.TotalRows,
		"parsed_rows", stats.ParsedRows,
		"errors", len(stats.Errors),
	)
	return stats, nil
}

// advance clicks through to the next page if a usable control exists and
// waits for the row set to actually change before handing control back.
func (p *Pipeline) advance(ctx context.Context, previousRowCount int) (done bool, err error) {
	visible, err := p.driver.NextVisible(ctx)
	if err != nil {
		return false, fmt.Errorf("probe next control visibility: %w", err)
	}
	if !visible {
		return true, nil
	}
	enabled, err := p.driver.NextEnabled(ctx)
	if err != nil {
		return false, fmt.Errorf("probe next control state: %w", err)
	}
	if !enabled {
		return true, nil
	}
	if err := p.driver.ClickNext(ctx); err != nil {
		return false, fmt.Errorf("click next: %w", err)
	}
	if err := p.driver.WaitRowCountChange(ctx, previousRowCount); err != nil {
		return false, fmt.Errorf("wait for row set change: %w", err)
	}
	return false, nil
}

// capture records diagnostic artifacts. Capture problems are logged and
// swallowed: diagnostics must never change the run's outcome.
func (p *Pipeline) capture(ctx context.Context, tag string) {
	if p.diagDir == "" {
		return
	}
	html, err := p.driver.PageHTML(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to read page html for diagnostics", "err", err)
	}
	shot, err := p.driver.Screenshot(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to take diagnostic screenshot", "err", err)
	}
	paths, err := diagnostics.Capture(p.diagDir, tag, html, shot)
	if err != nil {
		slog.WarnContext(ctx, "failed to write diagnostic artifacts", "err", err)
		return
	}
	slog.InfoContext(ctx, "diagnostic artifacts written", "tag", tag, "paths", paths)
}

func sample(errs []string, n int) []string {
	if len(errs) <= n {
		return errs
	}
	return errs[:n]
}
