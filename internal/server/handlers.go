package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"contractfill/constants"
	"contractfill/internal/common"
	"contractfill/internal/pipeline"
	"contractfill/internal/repository"
	"contractfill/internal/validate"
)

type createJobRequest struct {
	Template  string   `json:"template"`
	Documents []string `json:"documents"`
}

type reviewRequest struct {
	Corrections map[string]string `json:"corrections"`
}

type outcomeResponse struct {
	JobID         uuid.UUID                  `json:"job_id"`
	Status        constants.JobStatus        `json:"status"`
	Results       map[string]validate.Result `json:"results,omitempty"`
	Output        string                     `json:"output,omitempty"`
	LowConfidence []string                   `json:"low_confidence,omitempty"`
}

type jobResponse struct {
	ID        uuid.UUID                  `json:"id"`
	Template  string                     `json:"template"`
	Documents []string                   `json:"documents"`
	Status    constants.JobStatus        `json:"status"`
	Results   map[string]validate.Result `json:"results,omitempty"`
	LastError string                     `json:"last_error,omitempty"`
	HasOutput bool                       `json:"has_output"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

func toOutcomeResponse(out *pipeline.Outcome) outcomeResponse {
	return outcomeResponse{
		JobID:         out.JobID,
		Status:        out.Status,
		Results:       out.Results,
		Output:        out.Output,
		LowConfidence: out.LowConfidence,
	}
}

func toJobResponse(job *repository.Job) (jobResponse, error) {
	resp := jobResponse{
		ID:        job.ID,
		Template:  job.TemplateName,
		Documents: job.DocumentPaths,
		Status:    job.Status,
		HasOutput: job.OutputText != nil,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.LastError != nil {
		resp.LastError = *job.LastError
	}
	if len(job.ValidationJSON) > 0 {
		if err := json.Unmarshal(job.ValidationJSON, &resp.Results); err != nil {
			return resp, fmt.Errorf("decode validation results: %w", err)
		}
	}
	return resp, nil
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}
	out, err := s.pipeline.Run(r.Context(), req.Template, req.Documents)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOutcomeResponse(out))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	status := constants.JobStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = constants.JobStatusAwaitingReview
	}
	jobs, err := s.jobs.ListByStatus(r.Context(), status)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	resp := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		jr, err := toJobResponse(job)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		resp = append(resp, jr)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: bad job id", common.ErrInvalidInput))
		return
	}
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	resp, err := toJobResponse(job)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOutput(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: bad job id", common.ErrInvalidInput))
		return
	}
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if job.Status != constants.JobStatusPopulated || job.OutputText == nil {
		writeError(w, s.logger, fmt.Errorf("%w: job %s has no output", common.ErrNotFound, id))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(*job.OutputText))
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: bad job id", common.ErrInvalidInput))
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}
	out, err := s.pipeline.Resume(r.Context(), id, req.Corrections)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutcomeResponse(out))
}
