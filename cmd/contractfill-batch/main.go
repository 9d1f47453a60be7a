// Command contractfill-batch processes every supported document in a
// directory against one template and writes an XLSX summary of the run.
// Duplicate documents (same content hash) are processed once.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"contractfill/constants"
	"contractfill/internal/common"
	"contractfill/internal/export"
	"contractfill/internal/ingest"
	"contractfill/internal/llm/openai"
	"contractfill/internal/loader"
	"contractfill/internal/pipeline"
	"contractfill/internal/repository"
	"contractfill/internal/validate"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir          = flag.String("dir", "", "directory to process (required)")
		templateName = flag.String("template", "", "template name to populate (required)")
		out          = flag.String("out", "", "summary XLSX path (defaults to <dir>/../contracts.xlsx)")
		concurrency  = flag.Int("concurrency", 4, "number of documents processed in parallel")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: -dir is required\n")
		os.Exit(1)
	}
	if *templateName == "" {
		printError("Error: -template is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "contracts.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := repository.Open(cfg.Store.Path, logger)
	if err != nil {
		printError("Error: open job store: %v\n", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	jobs := repository.NewJobRepository(db, logger)
	docLoader := loader.New(loader.Config{
		Pdftoppm:      cfg.Loader.Pdftoppm,
		Tesseract:     cfg.Loader.Tesseract,
		TesseractLang: cfg.Loader.TesseractLang,
		DPI:           cfg.Loader.DPI,
		MaxPages:      cfg.Loader.MaxPages,
		MaxFileSize:   cfg.Loader.MaxFileSize,
	}, logger)
	extractor := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	processor := pipeline.NewProcessor(logger, docLoader, extractor, jobs, nil, cfg.Paths.TemplatesDir, 0)

	entries, stats, err := ingest.ScanDirectory(*dir, true, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("batch.scan", "matched", stats.Matched, "deduplicated", stats.Deduplicated, "failed", stats.Failed)

	rows := make([]export.BatchRow, len(entries))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)

	for i, entry := range entries {
		rows[i] = export.BatchRow{Document: entry.Path, HashHex: entry.HashHex}
		switch {
		case entry.Err != "":
			rows[i].Status = "SCAN_FAILED"
			rows[i].Problems = entry.Err
			continue
		case entry.Deduplicated:
			rows[i].Status = "DUPLICATE"
			continue
		}

		g.Go(func() error {
			start := time.Now()
			row := processOne(gctx, processor, *templateName, entry, cfg.Paths.OutputDir)
			row.Duration = time.Since(start)
			mu.Lock()
			rows[i] = row
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	raw, err := export.NewService(logger).BatchSummaryXLSX(rows)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		printError("Error: write summary: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("processed %d documents, summary written to %s\n", stats.Matched, *out)
}

func processOne(ctx context.Context, p *pipeline.Processor, templateName string, entry ingest.Entry, outputDir string) export.BatchRow {
	row := export.BatchRow{Document: entry.Path, HashHex: entry.HashHex}

	outcome, err := p.Run(ctx, templateName, []string{entry.Path})
	if err != nil {
		row.Status = string(constants.JobStatusFailed)
		row.Problems = err.Error()
		return row
	}
	row.JobID = outcome.JobID.String()
	row.Status = string(outcome.Status)

	if outcome.Status == constants.JobStatusAwaitingReview {
		row.Problems = problemSummary(outcome)
		return row
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s.txt", outcome.JobID))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		row.Problems = err.Error()
		return row
	}
	if err := os.WriteFile(path, []byte(outcome.Output), 0o644); err != nil {
		row.Problems = err.Error()
		return row
	}
	row.OutputPath = path
	return row
}

func problemSummary(outcome *pipeline.Outcome) string {
	var parts []string
	for _, p := range validate.Problems(outcome.Results) {
		parts = append(parts, fmt.Sprintf("%s: %s", p.FieldName, p.ErrorMessage))
	}
	for _, name := range outcome.LowConfidence {
		parts = append(parts, fmt.Sprintf("%s: low confidence", name))
	}
	return strings.Join(parts, "; ")
}
