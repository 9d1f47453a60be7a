package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contractfill/constants"
	"contractfill/internal/common"
)

// Job is one document-to-contract run.
type Job struct {
	ID             uuid.UUID
	TemplateName   string
	DocumentPaths  []string
	Status         constants.JobStatus
	RawText        *string
	ExtractedJSON  []byte
	ValidationJSON []byte
	OutputText     *string
	LastError      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// JobRepository is the persistence interface the pipeline depends on.
type JobRepository interface {
	Create(ctx context.Context, templateName string, documentPaths []string) (*Job, error)
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	ListByStatus(ctx context.Context, status constants.JobStatus) ([]*Job, error)
	MarkLoaded(ctx context.Context, id uuid.UUID, rawText string) error
	MarkExtracted(ctx context.Context, id uuid.UUID, extractedJSON []byte) error
	MarkAwaitingReview(ctx context.Context, id uuid.UUID, validationJSON []byte) error
	MarkPopulated(ctx context.Context, id uuid.UUID, validationJSON []byte, output string) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

type sqliteJobs struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewJobRepository returns a SQLite-backed JobRepository.
func NewJobRepository(db *sql.DB, logger *slog.Logger) JobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqliteJobs{db: db, logger: logger}
}

func (r *sqliteJobs) Create(ctx context.Context, templateName string, documentPaths []string) (*Job, error) {
	paths, err := json.Marshal(documentPaths)
	if err != nil {
		return nil, fmt.Errorf("encode document paths: %w", err)
	}
	now := time.Now().UTC()
	job := &Job{
		ID:            uuid.New(),
		TemplateName:  templateName,
		DocumentPaths: documentPaths,
		Status:        constants.JobStatusQueued,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, template_name, document_paths, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID.String(), templateName, string(paths), string(job.Status),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	r.logger.Info("job.created", "job_id", job.ID, "template", templateName, "documents", len(documentPaths))
	return job, nil
}

func (r *sqliteJobs) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, template_name, document_paths, status, raw_text,
		       extracted_json, validation_json, output_text, last_error,
		       created_at, updated_at
		FROM jobs WHERE id = ?`, id.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	return job, err
}

func (r *sqliteJobs) ListByStatus(ctx context.Context, status constants.JobStatus) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, template_name, document_paths, status, raw_text,
		       extracted_json, validation_json, output_text, last_error,
		       created_at, updated_at
		FROM jobs WHERE status = ? ORDER BY created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *sqliteJobs) MarkLoaded(ctx context.Context, id uuid.UUID, rawText string) error {
	return r.update(ctx, id, constants.JobStatusLoaded, "raw_text", rawText)
}

func (r *sqliteJobs) MarkExtracted(ctx context.Context, id uuid.UUID, extractedJSON []byte) error {
	return r.update(ctx, id, constants.JobStatusExtracted, "extracted_json", string(extractedJSON))
}

func (r *sqliteJobs) MarkAwaitingReview(ctx context.Context, id uuid.UUID, validationJSON []byte) error {
	return r.update(ctx, id, constants.JobStatusAwaitingReview, "validation_json", string(validationJSON))
}

func (r *sqliteJobs) MarkPopulated(ctx context.Context, id uuid.UUID, validationJSON []byte, output string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, validation_json = ?, output_text = ?, last_error = NULL, updated_at = ?
		WHERE id = ?`,
		string(constants.JobStatusPopulated), string(validationJSON), output, now, id.String())
	if err != nil {
		return fmt.Errorf("mark populated: %w", err)
	}
	return requireRow(res, id)
}

func (r *sqliteJobs) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(constants.JobStatusFailed), message, now, id.String())
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return requireRow(res, id)
}

func (r *sqliteJobs) update(ctx context.Context, id uuid.UUID, status constants.JobStatus, column, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	// column names come from the fixed call sites above, never from input
	q := fmt.Sprintf(`UPDATE jobs SET status = ?, %s = ?, updated_at = ? WHERE id = ?`, column)
	res, err := r.db.ExecContext(ctx, q, string(status), value, now, id.String())
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		idStr, tpl, paths, status, createdAt, updatedAt string
		rawText, extracted, validation, output, lastErr sql.NullString
	)
	if err := row.Scan(&idStr, &tpl, &paths, &status, &rawText,
		&extracted, &validation, &output, &lastErr, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	// A row that fails to decode is store corruption, not caller input.
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("%w: parse job id %q: %v", common.ErrInternal, idStr, err)
	}
	var docPaths []string
	if err := json.Unmarshal([]byte(paths), &docPaths); err != nil {
		return nil, fmt.Errorf("%w: decode document paths for job %s: %v", common.ErrInternal, idStr, err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: parse created_at for job %s: %v", common.ErrInternal, idStr, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: parse updated_at for job %s: %v", common.ErrInternal, idStr, err)
	}

	job := &Job{
		ID:            id,
		TemplateName:  tpl,
		DocumentPaths: docPaths,
		Status:        constants.JobStatus(status),
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
	if rawText.Valid {
		job.RawText = &rawText.String
	}
	if extracted.Valid {
		job.ExtractedJSON = []byte(extracted.String)
	}
	if validation.Valid {
		job.ValidationJSON = []byte(validation.String)
	}
	if output.Valid {
		job.OutputText = &output.String
	}
	if lastErr.Valid {
		job.LastError = &lastErr.String
	}
	return job, nil
}
