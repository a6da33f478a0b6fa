package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Buffnet/Zoho-Books/internal/config"
	"github.com/Buffnet/Zoho-Books/internal/driver"
	"github.com/Buffnet/Zoho-Books/internal/models"
	"github.com/Buffnet/Zoho-Books/internal/output"
	"github.com/Buffnet/Zoho-Books/internal/repository"
	"github.com/Buffnet/Zoho-Books/internal/services/pipeline"
	"github.com/Buffnet/Zoho-Books/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	flagOut      *string
	flagBaseURL  *string
	flagHeadless *bool
	flagDB       *bool
	flagDiagDir  *string
	flagTimeout  *int
)

func init() {
	flagOut = scrapeCmd.Flags().String("out", "invoices.csv", "Path of the CSV output file.")
	flagBaseURL = scrapeCmd.Flags().String("base-url", "", "URL of the invoice list view. Defaults to ZOHO_INVOICES_URL.")
	flagHeadless = scrapeCmd.Flags().Bool("headless", true, "Run the browser headless.")
	flagDB = scrapeCmd.Flags().Bool("db", false, "Also persist accepted records and run stats to Postgres (DATABASE_URL).")
	flagDiagDir = scrapeCmd.Flags().String("diag-dir", "diagnostics", "Directory for drift diagnostic artifacts.")
	flagTimeout = scrapeCmd.Flags().Int("timeout", 10, "Per-wait timeout in seconds for page operations.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--out invoices.csv] [--base-url URL] [--db]",
	Short: "Runs the extraction pipeline and writes the accepted records to CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config.Load()

		shutdown, err := telemetry.Setup(ctx, "zoho-scraper")
		if err != nil {
			return err
		}
		defer shutdown(context.Background())

		baseURL := *flagBaseURL
		if baseURL == "" {
			baseURL = config.String("ZOHO_INVOICES_URL", "")
		}
		if baseURL == "" {
			return fmt.Errorf("no invoice list URL: pass --base-url or set ZOHO_INVOICES_URL")
		}

		var (
			invoiceRepo *repository.InvoiceRepository
			runRepo     *repository.ScrapeRunRepository
			run         *models.ScrapeRun
		)
		if *flagDB {
			db, err := config.InitDB()
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(&models.Invoice{}, &models.ScrapeRun{}, &models.DriftEvent{}); err != nil {
				return fmt.Errorf("migrate schema: %w", err)
			}
			invoiceRepo = repository.NewInvoiceRepository(db)
			runRepo = repository.NewScrapeRunRepository(db)
			if run, err = runRepo.Begin(); err != nil {
				return fmt.Errorf("record scrape run: %w", err)
			}
		}

		browser := driver.New(ctx, driver.Options{
			BaseURL:     baseURL,
			Headless:    *flagHeadless,
			WaitTimeout: time.Duration(*flagTimeout) * time.Second,
		})
		defer browser.Close()

		if err := browser.Open(ctx); err != nil {
			return finishRun(runRepo, run, nil, fmt.Errorf("open invoice list: %w", err))
		}

		started := time.Now()
		res, err := pipeline.New(browser, pipeline.Config{DiagnosticsDir: *flagDiagDir}).Run(ctx)
		if err != nil {
			return finishRun(runRepo, run, nil, err)
		}

		if err := output.WriteFile(*flagOut, res.Records); err != nil {
			return finishRun(runRepo, run, res, err)
		}
		slog.Info("scrape complete",
			"records", len(res.Records),
			"pages", res.Pages,
			"duplicates", res.Duplicates,
			"out", *flagOut,
			"seconds", time.Since(started).Seconds(),
		)

		if invoiceRepo != nil {
			inserted, err := invoiceRepo.UpsertRecords(res.Records)
			if err != nil {
				return finishRun(runRepo, run, res, fmt.Errorf("persist records: %w", err))
			}
			slog.Info("records persisted", "inserted", inserted, "skipped", int64(len(res.Records))-inserted)
		}
		return finishRun(runRepo, run, res, nil)
	},
}

// finishRun stamps the run row (when the DB sink is on) and passes the
// pipeline error through so the process exits nonzero on failure.
func finishRun(runRepo *repository.ScrapeRunRepository, run *models.ScrapeRun, res *pipeline.Result, runErr error) error {
	if runRepo == nil || run == nil {
		return runErr
	}

	status := "completed"
	var samples []string
	if res != nil {
		run.Pages = res.Pages
		run.TotalRows = res.TotalRows
		run.ParsedRows = res.ParsedRows
		run.RecordCount = len(res.Records)
		run.DuplicateCount = res.Duplicates
		samples = res.ErrorSamples

		for _, w := range res.Warnings {
			err := runRepo.AddDriftEvent(run.ID, w.Page, "warning", map[string]interface{}{
				"error_count": w.ErrorCount,
			})
			if err != nil {
				slog.Warn("failed to persist drift event", "page", w.Page, "err", err)
			}
		}
	}
	if runErr != nil {
		status = "failed"
		samples = append(samples, runErr.Error())
	}

	if err := runRepo.Finish(run, status, samples); err != nil {
		slog.Warn("failed to finalize scrape run row", "err", err)
	}
	return runErr
}
