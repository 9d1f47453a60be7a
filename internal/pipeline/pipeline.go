// Package pipeline coordinates the full contract run: load the source
// documents, extract fields, validate them, and either populate the
// template or park the job for human review. Every stage transition is
// persisted, so a parked job survives a restart and is resumed from the
// stored extraction rather than re-running the provider.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"contractfill/constants"
	"contractfill/internal/common"
	"contractfill/internal/llm"
	"contractfill/internal/loader"
	"contractfill/internal/metrics"
	"contractfill/internal/populate"
	"contractfill/internal/repository"
	"contractfill/internal/schema"
	"contractfill/internal/template"
	"contractfill/internal/validate"
)

// documentSeparator joins the text of multi-document jobs so the
// provider sees one coherent source.
const documentSeparator = "\n\n--- DOCUMENT BREAK ---\n\n"

// TextLoader is the slice of loader.Loader the pipeline needs.
type TextLoader interface {
	Load(ctx context.Context, path string) (loader.Result, error)
}

// Outcome summarizes where a job landed after Run or Resume.
type Outcome struct {
	JobID   uuid.UUID
	Status  constants.JobStatus
	Results map[string]validate.Result
	// Output holds the populated contract when Status is POPULATED.
	Output string
	// LowConfidence names valid fields whose provider confidence fell
	// below the review threshold.
	LowConfidence []string
}

// Processor drives jobs through the status machine.
type Processor struct {
	logger        *slog.Logger
	loader        TextLoader
	extractor     llm.FieldExtractor
	jobs          repository.JobRepository
	metrics       *metrics.Metrics
	templatesDir  string
	minConfidence float32
}

func NewProcessor(
	logger *slog.Logger,
	textLoader TextLoader,
	extractor llm.FieldExtractor,
	jobs repository.JobRepository,
	m *metrics.Metrics,
	templatesDir string,
	minConfidence float32,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if minConfidence == 0 {
		minConfidence = 0.60
	}
	return &Processor{
		logger:        logger,
		loader:        textLoader,
		extractor:     extractor,
		jobs:          jobs,
		metrics:       m,
		templatesDir:  templatesDir,
		minConfidence: minConfidence,
	}
}

// Run creates a job for the given template and documents and advances it
// as far as it can go. Jobs with unresolved or low-confidence fields end
// in AWAITING_REVIEW; clean jobs end in POPULATED.
func (p *Processor) Run(ctx context.Context, templateName string, documentPaths []string) (*Outcome, error) {
	if templateName == "" {
		return nil, fmt.Errorf("%w: template name is required", common.ErrInvalidInput)
	}
	if len(documentPaths) == 0 {
		return nil, fmt.Errorf("%w: at least one document is required", common.ErrInvalidInput)
	}

	tpl, s, err := template.Load(p.templatesDir, templateName)
	if err != nil {
		return nil, common.WrapError(err, fmt.Sprintf("load template %q", templateName))
	}

	job, err := p.jobs.Create(ctx, templateName, documentPaths)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	p.logger.Info("pipeline.job.created",
		"job_id", job.ID,
		"template", templateName,
		"documents", len(documentPaths),
	)

	rawText, prepConfidence, err := p.loadDocuments(ctx, job.ID, documentPaths)
	if err != nil {
		return nil, p.fail(ctx, job.ID, "load", err)
	}
	if err := p.jobs.MarkLoaded(ctx, job.ID, rawText); err != nil {
		return nil, p.fail(ctx, job.ID, "load", err)
	}

	extracted, err := p.extract(ctx, job.ID, rawText, s, documentPaths, prepConfidence)
	if err != nil {
		return nil, p.fail(ctx, job.ID, "extract", err)
	}

	return p.settle(ctx, job.ID, tpl, s, extracted)
}

// Resume re-validates a parked job after human correction. Corrections
// map field names to corrected raw values; an empty corrected value
// withdraws the field, turning it back into an absence. Fields not named
// keep the values the provider extracted.
func (p *Processor) Resume(ctx context.Context, jobID uuid.UUID, corrections map[string]string) (*Outcome, error) {
	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != constants.JobStatusAwaitingReview {
		return nil, fmt.Errorf("%w: job %s is %s, not awaiting review", common.ErrInvalidInput, jobID, job.Status)
	}

	tpl, s, err := template.Load(p.templatesDir, job.TemplateName)
	if err != nil {
		return nil, common.WrapError(err, fmt.Sprintf("load template %q", job.TemplateName))
	}

	extracted := map[string]llm.ExtractedField{}
	if len(job.ExtractedJSON) > 0 {
		if err := json.Unmarshal(job.ExtractedJSON, &extracted); err != nil {
			return nil, fmt.Errorf("decode stored extraction for job %s: %w", jobID, err)
		}
	}
	for name, value := range corrections {
		if _, ok := s.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: correction targets unknown field %q", common.ErrInvalidInput, name)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			delete(extracted, name)
			continue
		}
		// Human-corrected values bypass the confidence gate.
		extracted[name] = llm.ExtractedField{Name: name, RawValue: value, Confidence: 1}
	}
	p.logger.Info("pipeline.job.resume", "job_id", jobID, "corrections", len(corrections))

	return p.settle(ctx, jobID, tpl, s, extracted)
}

// loadDocuments loads every source and concatenates their text in the
// order given. The reported confidence is the weakest OCR confidence
// across the set, since one bad scan taints the whole extraction.
func (p *Processor) loadDocuments(ctx context.Context, jobID uuid.UUID, paths []string) (string, float32, error) {
	start := time.Now()
	var parts []string
	var minConf float32
	for _, path := range paths {
		res, err := p.loader.Load(ctx, path)
		if err != nil {
			return "", 0, fmt.Errorf("load %s: %w", path, err)
		}
		parts = append(parts, res.Text)
		if res.Confidence > 0 && (minConf == 0 || res.Confidence < minConf) {
			minConf = res.Confidence
		}
		p.logger.Debug("pipeline.load.document",
			"job_id", jobID,
			"path", path,
			"format", res.Format,
			"method", res.Method,
			"pages", res.Pages,
		)
	}
	p.metrics.ObserveStage("load", start)
	p.logger.Info("pipeline.load.ok",
		"job_id", jobID,
		"documents", len(paths),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return strings.Join(parts, documentSeparator), minConf, nil
}

func (p *Processor) extract(
	ctx context.Context,
	jobID uuid.UUID,
	rawText string,
	s *schema.Schema,
	paths []string,
	prepConfidence float32,
) (map[string]llm.ExtractedField, error) {
	start := time.Now()
	extracted, _, err := p.extractor.ExtractFields(ctx, llm.ExtractRequest{
		RawText:        rawText,
		Schema:         s,
		DocumentHint:   strings.Join(paths, ", "),
		PrepConfidence: prepConfidence,
	})
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}
	p.metrics.ObserveStage("extract", start)

	extractedJSON, err := json.Marshal(extracted)
	if err != nil {
		return nil, fmt.Errorf("encode extraction: %w", err)
	}
	if err := p.jobs.MarkExtracted(ctx, jobID, extractedJSON); err != nil {
		return nil, err
	}
	p.logger.Info("pipeline.extract.ok",
		"job_id", jobID,
		"fields", len(extracted),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return extracted, nil
}

// settle validates the extracted fields and either populates the
// template or parks the job for review.
func (p *Processor) settle(
	ctx context.Context,
	jobID uuid.UUID,
	tpl *template.Template,
	s *schema.Schema,
	extracted map[string]llm.ExtractedField,
) (*Outcome, error) {
	results := validate.Validate(extracted, s)
	lowConfidence := p.lowConfidenceFields(extracted, results)

	validationJSON, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode validation results: %w", err)
	}

	if problems := validate.Problems(results); len(problems) > 0 || len(lowConfidence) > 0 {
		if err := p.jobs.MarkAwaitingReview(ctx, jobID, validationJSON); err != nil {
			return nil, err
		}
		p.metrics.IncrementJob(string(constants.JobStatusAwaitingReview))
		p.logger.Info("pipeline.job.awaiting_review",
			"job_id", jobID,
			"problems", len(problems),
			"low_confidence", len(lowConfidence),
		)
		return &Outcome{
			JobID:         jobID,
			Status:        constants.JobStatusAwaitingReview,
			Results:       results,
			LowConfidence: lowConfidence,
		}, nil
	}

	output, err := populate.Populate(tpl, results)
	if err != nil {
		return nil, p.fail(ctx, jobID, "populate", err)
	}
	if err := p.jobs.MarkPopulated(ctx, jobID, validationJSON, output); err != nil {
		return nil, err
	}
	p.metrics.IncrementJob(string(constants.JobStatusPopulated))
	p.logger.Info("pipeline.job.populated", "job_id", jobID, "template", tpl.Name)
	return &Outcome{
		JobID:   jobID,
		Status:  constants.JobStatusPopulated,
		Results: results,
		Output:  output,
	}, nil
}

// lowConfidenceFields names fields that validated cleanly but arrived
// with a provider confidence under the review threshold. Missing and
// invalid fields already force review on their own.
func (p *Processor) lowConfidenceFields(
	extracted map[string]llm.ExtractedField,
	results map[string]validate.Result,
) []string {
	var names []string
	for name, field := range extracted {
		if field.Confidence <= 0 || field.Confidence >= p.minConfidence {
			continue
		}
		if res, ok := results[name]; ok && res.Status == validate.StatusValid {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (p *Processor) fail(ctx context.Context, jobID uuid.UUID, stage string, cause error) error {
	p.logger.Error("pipeline.job.failed", "job_id", jobID, "stage", stage, "err", cause)
	if err := p.jobs.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		p.logger.Error("pipeline.job.mark_failed_error", "job_id", jobID, "err", err)
	}
	p.metrics.IncrementJob(string(constants.JobStatusFailed))
	return cause
}
