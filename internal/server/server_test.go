package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractfill/constants"
	"contractfill/internal/common"
	"contractfill/internal/pipeline"
	"contractfill/internal/repository"
	"contractfill/internal/validate"
)

type stubPipeline struct {
	runOut    *pipeline.Outcome
	runErr    error
	resumeOut *pipeline.Outcome
	resumeErr error

	gotTemplate    string
	gotDocuments   []string
	gotJobID       uuid.UUID
	gotCorrections map[string]string
}

func (s *stubPipeline) Run(_ context.Context, templateName string, documentPaths []string) (*pipeline.Outcome, error) {
	s.gotTemplate = templateName
	s.gotDocuments = documentPaths
	return s.runOut, s.runErr
}

func (s *stubPipeline) Resume(_ context.Context, jobID uuid.UUID, corrections map[string]string) (*pipeline.Outcome, error) {
	s.gotJobID = jobID
	s.gotCorrections = corrections
	return s.resumeOut, s.resumeErr
}

func newTestServer(t *testing.T, p Pipeline) (*Server, repository.JobRepository) {
	t.Helper()
	db, err := repository.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	jobs := repository.NewJobRepository(db, nil)
	return New(nil, p, jobs, prometheus.NewRegistry()), jobs
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateJob(t *testing.T) {
	jobID := uuid.New()
	p := &stubPipeline{runOut: &pipeline.Outcome{
		JobID:  jobID,
		Status: constants.JobStatusPopulated,
		Output: "Agreement with Acme Corp.",
	}}
	s, _ := newTestServer(t, p)

	rec := doJSON(t, s.Router(), http.MethodPost, "/v1/jobs", createJobRequest{
		Template:  "service",
		Documents: []string{"/in/msa.pdf"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "service", p.gotTemplate)
	assert.Equal(t, []string{"/in/msa.pdf"}, p.gotDocuments)

	var out outcomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, jobID, out.JobID)
	assert.Equal(t, constants.JobStatusPopulated, out.Status)
	assert.Equal(t, "Agreement with Acme Corp.", out.Output)
}

func TestCreateJob_InvalidInput(t *testing.T) {
	p := &stubPipeline{runErr: common.ErrInvalidInput}
	s, _ := newTestServer(t, p)

	rec := doJSON(t, s.Router(), http.MethodPost, "/v1/jobs", createJobRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJob_ProviderError(t *testing.T) {
	p := &stubPipeline{runErr: common.ErrExtractionProvider}
	s, _ := newTestServer(t, p)

	rec := doJSON(t, s.Router(), http.MethodPost, "/v1/jobs", createJobRequest{Template: "x", Documents: []string{"/a.txt"}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCreateJob_Timeout(t *testing.T) {
	p := &stubPipeline{runErr: common.ErrExtractionTimeout}
	s, _ := newTestServer(t, p)

	rec := doJSON(t, s.Router(), http.MethodPost, "/v1/jobs", createJobRequest{Template: "x", Documents: []string{"/a.txt"}})
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestGetJob_NotFound(t *testing.T) {
	s, _ := newTestServer(t, &stubPipeline{})

	rec := doJSON(t, s.Router(), http.MethodGet, "/v1/jobs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJob_BadID(t *testing.T) {
	s, _ := newTestServer(t, &stubPipeline{})

	rec := doJSON(t, s.Router(), http.MethodGet, "/v1/jobs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJob_IncludesValidationResults(t *testing.T) {
	s, jobs := newTestServer(t, &stubPipeline{})
	ctx := context.Background()

	job, err := jobs.Create(ctx, "service", []string{"/in/msa.pdf"})
	require.NoError(t, err)
	require.NoError(t, jobs.MarkLoaded(ctx, job.ID, "raw"))
	require.NoError(t, jobs.MarkExtracted(ctx, job.ID, []byte(`{}`)))
	validation, err := json.Marshal(map[string]validate.Result{
		"amount": {FieldName: "amount", Status: validate.StatusMissing, ErrorMessage: "required field absent"},
	})
	require.NoError(t, err)
	require.NoError(t, jobs.MarkAwaitingReview(ctx, job.ID, validation))

	rec := doJSON(t, s.Router(), http.MethodGet, "/v1/jobs/"+job.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, constants.JobStatusAwaitingReview, resp.Status)
	assert.Equal(t, validate.StatusMissing, resp.Results["amount"].Status)
	assert.False(t, resp.HasOutput)
}

func TestListJobs_DefaultsToAwaitingReview(t *testing.T) {
	s, jobs := newTestServer(t, &stubPipeline{})
	ctx := context.Background()

	parked, err := jobs.Create(ctx, "service", []string{"/in/a.pdf"})
	require.NoError(t, err)
	require.NoError(t, jobs.MarkLoaded(ctx, parked.ID, "raw"))
	require.NoError(t, jobs.MarkExtracted(ctx, parked.ID, []byte(`{}`)))
	require.NoError(t, jobs.MarkAwaitingReview(ctx, parked.ID, []byte(`{}`)))

	_, err = jobs.Create(ctx, "service", []string{"/in/b.pdf"})
	require.NoError(t, err)

	rec := doJSON(t, s.Router(), http.MethodGet, "/v1/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []jobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, parked.ID, resp[0].ID)
}

func TestReview(t *testing.T) {
	jobID := uuid.New()
	p := &stubPipeline{resumeOut: &pipeline.Outcome{
		JobID:  jobID,
		Status: constants.JobStatusPopulated,
		Output: "done",
	}}
	s, _ := newTestServer(t, p)

	rec := doJSON(t, s.Router(), http.MethodPost, "/v1/jobs/"+jobID.String()+"/review", reviewRequest{
		Corrections: map[string]string{"amount": "$12.00"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jobID, p.gotJobID)
	assert.Equal(t, map[string]string{"amount": "$12.00"}, p.gotCorrections)
}

func TestGetOutput(t *testing.T) {
	s, jobs := newTestServer(t, &stubPipeline{})
	ctx := context.Background()

	job, err := jobs.Create(ctx, "service", []string{"/in/a.pdf"})
	require.NoError(t, err)
	require.NoError(t, jobs.MarkLoaded(ctx, job.ID, "raw"))
	require.NoError(t, jobs.MarkExtracted(ctx, job.ID, []byte(`{}`)))
	require.NoError(t, jobs.MarkPopulated(ctx, job.ID, []byte(`{}`), "Final contract text."))

	rec := doJSON(t, s.Router(), http.MethodGet, "/v1/jobs/"+job.ID.String()+"/output", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Final contract text.", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestGetOutput_NotReady(t *testing.T) {
	s, jobs := newTestServer(t, &stubPipeline{})
	ctx := context.Background()

	job, err := jobs.Create(ctx, "service", []string{"/in/a.pdf"})
	require.NoError(t, err)

	rec := doJSON(t, s.Router(), http.MethodGet, "/v1/jobs/"+job.ID.String()+"/output", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, &stubPipeline{})
	rec := doJSON(t, s.Router(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &stubPipeline{})
	rec := doJSON(t, s.Router(), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
