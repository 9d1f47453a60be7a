// Command contractfill runs one contract job from the command line: it
// loads the given documents, extracts and validates fields, and either
// writes the populated contract or prints the fields needing review.
// A parked job can be finished later with -resume and -set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"contractfill/constants"
	"contractfill/internal/common"
	"contractfill/internal/llm/openai"
	"contractfill/internal/loader"
	"contractfill/internal/pipeline"
	"contractfill/internal/repository"
	"contractfill/internal/validate"
)

// setFlags collects repeated -set field=value corrections.
type setFlags map[string]string

func (s setFlags) String() string { return "" }

func (s setFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected field=value, got %q", v)
	}
	s[name] = value
	return nil
}

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	corrections := setFlags{}
	var (
		templateName = flag.String("template", "", "template name to populate (required unless -resume)")
		resumeID     = flag.String("resume", "", "job ID parked for review to resume")
		templatesDir = flag.String("templates", "", "templates directory (defaults to TEMPLATES_DIR)")
		out          = flag.String("out", "", "output file path (defaults to OUTPUT_DIR/<job>.txt)")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Var(corrections, "set", "correction as field=value (repeatable, with -resume)")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *templatesDir != "" {
		cfg.Paths.TemplatesDir = *templatesDir
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	if *resumeID == "" && *templateName == "" {
		printError("Error: -template is required\n")
		os.Exit(1)
	}
	if *resumeID == "" && flag.NArg() == 0 {
		printError("Error: at least one document path is required\n")
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

	var outcome *pipeline.Outcome
	if *resumeID != "" {
		id, err := uuid.Parse(*resumeID)
		if err != nil {
			printError("Error: bad job ID %q\n", *resumeID)
			os.Exit(1)
		}
		outcome, err = processor.Resume(ctx, id, corrections)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		outcome, err = processor.Run(ctx, *templateName, flag.Args())
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
	}

	switch outcome.Status {
	case constants.JobStatusPopulated:
		path := *out
		if path == "" {
			path = filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("%s.txt", outcome.JobID))
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(path, []byte(outcome.Output), 0o644); err != nil {
			printError("Error: write output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("populated contract written to %s (job %s)\n", path, outcome.JobID)

	case constants.JobStatusAwaitingReview:
		printError("job %s needs review before the contract can be produced:\n", outcome.JobID)
		for _, p := range validate.Problems(outcome.Results) {
			printError("  %s [%s]: %s\n", p.FieldName, p.Status, p.ErrorMessage)
		}
		for _, name := range outcome.LowConfidence {
			printError("  %s [low confidence]\n", name)
		}
		printError("resume with: contractfill -resume %s -set field=value\n", outcome.JobID)
		os.Exit(2)

	default:
		printError("job %s ended in %s\n", outcome.JobID, outcome.Status)
		os.Exit(1)
	}
}
