package jobserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/lumenforge/internal/store"
)

// Server is the HTTP front-end around a JobManager: job CRUD, an SSE
// progress stream per job, and a small HTML UI for watching renders land.
type Server struct {
	jobs        *JobManager
	checkpoints store.Store
	films       *store.FilmStore
	traceDir    string
	loadScene   SceneLoader

	addr   string
	server *http.Server
	ctx    context.Context
	cancel context.CancelFunc
}

// Options configures the collaborators a Server wires a render job to.
// Checkpoints, Films and TraceDir are each independently optional; a nil
// Store or FilmStore simply disables that persistence channel for every
// job the server runs.
type Options struct {
	Addr        string
	Checkpoints store.Store
	Films       *store.FilmStore
	TraceDir    string
	LoadScene   SceneLoader
}

// NewServer builds a Server ready to Start.
func NewServer(opts Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobs:        NewJobManager(),
		checkpoints: opts.Checkpoints,
		films:       opts.Films,
		traceDir:    opts.TraceDir,
		loadScene:   opts.LoadScene,
		addr:        opts.Addr,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs the HTTP server until it returns an error (including on a
// clean Shutdown, which yields http.ErrServerClosed).
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/jobs/", s.handleJobPage)
	mux.HandleFunc("/create", s.handleCreatePage)

	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)

	s.server = &http.Server{Addr: s.addr, Handler: s.loggingMiddleware(mux)}
	slog.Info("starting job server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels every in-flight render job's context, checkpoints the
// jobs still running and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.checkpoints != nil {
		s.waitForRunningJobs(ctx)
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) waitForRunningJobs(ctx context.Context) {
	running := s.jobs.GetRunningJobs()
	if len(running) == 0 {
		return
	}
	slog.Info("waiting for running jobs to checkpoint on shutdown", "count", len(running))
	deadline := time.After(5 * time.Second)
	select {
	case <-deadline:
	case <-ctx.Done():
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		http.Error(w, "job id required", http.StatusBadRequest)
		return
	}
	jobID := parts[0]
	sub := ""
	if len(parts) > 1 {
		sub = parts[1]
	}

	switch sub {
	case "", "status":
		s.handleGetJobStatus(w, r, jobID)
	case "stream":
		s.handleJobStream(w, r, jobID)
	case "resume":
		s.handleResumeJob(w, r, jobID)
	case "cancel":
		s.handleCancelJob(w, r, jobID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var config JobConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if config.ScenePath == "" {
		http.Error(w, "scenePath is required", http.StatusBadRequest)
		return
	}
	if config.AAPasses <= 0 {
		config.AAPasses = 4
	}
	if config.SamplesPerPass <= 0 {
		config.SamplesPerPass = 4
	}

	job := s.jobs.CreateJob(config)
	go runRender(s.ctx, s.jobs, s.checkpoints, s.films, s.traceDir, s.loadScene, job.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.jobs.ListJobs())
}

func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := s.jobs.GetJob(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (s *Server) handleResumeJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.checkpoints == nil {
		http.Error(w, "checkpointing not enabled", http.StatusServiceUnavailable)
		return
	}

	cp, err := s.checkpoints.LoadCheckpoint(jobID)
	if err != nil {
		if _, ok := err.(*store.NotFoundError); ok {
			http.Error(w, fmt.Sprintf("no checkpoint for job %s", jobID), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("load checkpoint: %v", err), http.StatusInternalServerError)
		return
	}
	if err := cp.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("invalid checkpoint: %v", err), http.StatusBadRequest)
		return
	}

	job := s.jobs.CreateJob(JobConfig{
		ScenePath:        cp.Config.ScenePath,
		Width:            cp.Config.Width,
		Height:           cp.Config.Height,
		AAPasses:         cp.Config.AAPasses,
		SamplesPerPass:   cp.Config.SamplesPerPass,
		SamplesIncrement: cp.Config.SamplesIncrement,
		Adaptive:         cp.Config.Adaptive,
		Threshold:        cp.Config.Threshold,
		Seed:             cp.Config.Seed,
	})
	s.jobs.UpdateJob(job.ID, func(j *Job) {
		j.PassesCompleted = cp.PassesCompleted
		j.DirtyPixels = cp.DirtyPixels
		j.Threshold = cp.Threshold
		j.FilmPath = cp.FilmPath
	})

	go runRender(s.ctx, s.jobs, s.checkpoints, s.films, s.traceDir, s.loadScene, job.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"jobId":       job.ID,
		"resumedFrom": jobID,
		"fromPass":    cp.PassesCompleted,
	})
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := s.jobs.GetJob(jobID); !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	// TODO: track a per-job context.CancelFunc alongside Job so this can
	// cancel one render without tearing down every job the server is running.
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
