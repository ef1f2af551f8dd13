package jobserver

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func newTestServer() *Server {
	return NewServer(Options{Addr: ":0", LoadScene: stubLoader})
}

func TestHandleCreateJobAndGetStatus(t *testing.T) {
	s := newTestServer()

	body, _ := json.Marshal(JobConfig{ScenePath: "stub.toml", Width: 4, Height: 4, AAPasses: 1, SamplesPerPass: 1})
	req := httptest.NewRequest("POST", "/api/v1/jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleJobs(rec, req)

	if rec.Code != 201 {
		t.Fatalf("create status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	var created Job
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created job: %v", err)
	}

	statusReq := httptest.NewRequest("GET", "/api/v1/jobs/"+created.ID+"/status", nil)
	statusRec := httptest.NewRecorder()
	s.handleJobsWithID(statusRec, statusReq)
	if statusRec.Code != 200 {
		t.Fatalf("status code = %d, want 200", statusRec.Code)
	}
}

func TestHandleCreateJobRejectsMissingScenePath(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(JobConfig{Width: 4, Height: 4})
	req := httptest.NewRequest("POST", "/api/v1/jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleJobs(rec, req)
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleJobsWithIDUnknownJob(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest("GET", "/api/v1/jobs/does-not-exist/status", nil)
	rec := httptest.NewRecorder()
	s.handleJobsWithID(rec, req)
	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleResumeJobWithoutCheckpointStore(t *testing.T) {
	s := newTestServer()
	job := s.jobs.CreateJob(JobConfig{ScenePath: "stub.toml", Width: 2, Height: 2})
	req := httptest.NewRequest("POST", "/api/v1/jobs/"+job.ID+"/resume", nil)
	rec := httptest.NewRecorder()
	s.handleJobsWithID(rec, req)
	if rec.Code != 503 {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHandleIndexRendersJobList(t *testing.T) {
	s := newTestServer()
	s.jobs.CreateJob(JobConfig{ScenePath: "stub.toml", Width: 4, Height: 4})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)
	if rec.Code != 200 {
		t.Fatalf("index status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("stub.toml")) {
		t.Fatalf("expected job list page to mention scene path, got:\n%s", rec.Body.String())
	}
}

func TestHandleJobPageUnknownJob(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest("GET", "/jobs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.handleJobPage(rec, req)
	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
