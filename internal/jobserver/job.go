// Package jobserver wraps the render driver in an HTTP job front-end: a
// job registry, a ticker-throttled SSE progress stream and a thin set of
// API/UI handlers. It is ambient infrastructure around internal/render, not
// part of the rendering pipeline itself.
package jobserver

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState is a render job's lifecycle stage.
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// JobConfig is the subset of render.Config a client can request over the
// API; runRender fills in the collaborators (scene, store, monitor) that
// aren't meaningful as wire data.
type JobConfig struct {
	ScenePath string `json:"scenePath"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`

	AAPasses         int     `json:"aaPasses"`
	SamplesPerPass   int     `json:"samplesPerPass"`
	SamplesIncrement int     `json:"samplesIncrement,omitempty"`
	SampleMultiplier float64 `json:"sampleMultiplier,omitempty"`
	Adaptive         bool    `json:"adaptive"`
	Threshold        float64 `json:"threshold,omitempty"`
	DirtyFloor       int     `json:"dirtyFloor,omitempty"`

	TileSize int `json:"tileSize,omitempty"`
	Workers  int `json:"workers,omitempty"`
	MaxDepth int `json:"maxDepth,omitempty"`

	Seed               int64 `json:"seed,omitempty"`
	CheckpointInterval int   `json:"checkpointInterval,omitempty"` // passes between autosaves
}

// Job is one render job's server-side bookkeeping: identity, config and the
// progress snapshot the API/UI surfaces read. The accumulated film itself
// never lives here — it's owned by the render driver and reachable only
// through FilmPath once a pass has been autosaved.
type Job struct {
	ID     string
	State  JobState
	Config JobConfig

	PassesCompleted int
	DirtyPixels     int
	Threshold       float64
	FilmPath        string

	StartTime time.Time
	EndTime   *time.Time
	Error     string
}

// JobManager owns the job registry and the broadcaster every job's SSE
// stream is subscribed through.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *EventBroadcaster
}

// NewJobManager creates an empty job registry.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a new pending job with a fresh ID.
func (jm *JobManager) CreateJob(config JobConfig) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		Threshold: config.Threshold,
		StartTime: time.Now(),
	}
	jm.jobs[job.ID] = job
	return job
}

// GetJob returns a copy-free pointer to the job, or false if unknown.
func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	job, ok := jm.jobs[id]
	return job, ok
}

// ListJobs returns every registered job, most recently created last.
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	jobs := make([]*Job, 0, len(jm.jobs))
	for _, j := range jm.jobs {
		jobs = append(jobs, j)
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].StartTime.Before(jobs[j].StartTime) })
	return jobs
}

// UpdateJob applies updateFn to the job under the registry lock.
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	job, ok := jm.jobs[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	updateFn(job)
	return nil
}

// GetRunningJobs returns every job currently in StateRunning.
func (jm *JobManager) GetRunningJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	var running []*Job
	for _, j := range jm.jobs {
		if j.State == StateRunning {
			running = append(running, j)
		}
	}
	return running
}

// NotFoundError reports a lookup against an unknown job ID.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "job not found: " + e.ID
}
