package jobserver

import (
	"context"
	"testing"
	"time"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/scene"
	"github.com/cwbudde/lumenforge/internal/store"
)

func stubLoader(cfg JobConfig) (*scene.View, error) {
	return &scene.View{
		Camera:      scene.NewPinholeCamera(cfg.Width, cfg.Height),
		Background:  scene.FlatBackground{Color: core.NewRgb(0.3, 0.3, 0.3)},
		Accelerator: scene.EmptyAccelerator{},
	}, nil
}

func waitForTerminal(t *testing.T, jm *JobManager, jobID string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := jm.GetJob(jobID)
		if !ok {
			t.Fatalf("job %s vanished", jobID)
		}
		switch job.State {
		case StateCompleted, StateFailed, StateCancelled:
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal state in time", jobID)
	return nil
}

func TestRunRenderCompletesJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{
		ScenePath:      "stub.toml",
		Width:          4,
		Height:         4,
		AAPasses:       2,
		SamplesPerPass: 1,
		TileSize:       4,
		Workers:        2,
	})

	runRender(context.Background(), jm, nil, nil, "", stubLoader, job.ID)

	final := waitForTerminal(t, jm, job.ID)
	if final.State != StateCompleted {
		t.Fatalf("job state = %v, want %v (error=%q)", final.State, StateCompleted, final.Error)
	}
	if final.PassesCompleted != 2 {
		t.Fatalf("PassesCompleted = %d, want 2", final.PassesCompleted)
	}
}

func TestRunRenderFailsOnSceneLoadError(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{ScenePath: "missing.toml", Width: 4, Height: 4, AAPasses: 1, SamplesPerPass: 1})

	failingLoader := func(cfg JobConfig) (*scene.View, error) {
		return nil, errNoScene
	}

	runRender(context.Background(), jm, nil, nil, "", failingLoader, job.ID)

	final, ok := jm.GetJob(job.ID)
	if !ok || final.State != StateFailed {
		t.Fatalf("job state = %v, ok=%v, want %v", final, ok, StateFailed)
	}
}

func TestRunRenderWithCheckpointsAndFilms(t *testing.T) {
	dir := t.TempDir()
	fsStore, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	films, err := store.NewFilmStore(dir)
	if err != nil {
		t.Fatalf("NewFilmStore: %v", err)
	}

	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{
		ScenePath:          "stub.toml",
		Width:              4,
		Height:             4,
		AAPasses:           2,
		SamplesPerPass:     1,
		TileSize:           4,
		Workers:            2,
		CheckpointInterval: 1,
	})

	runRender(context.Background(), jm, fsStore, films, "", stubLoader, job.ID)

	final := waitForTerminal(t, jm, job.ID)
	if final.State != StateCompleted {
		t.Fatalf("job state = %v, want %v (error=%q)", final.State, StateCompleted, final.Error)
	}

	if _, err := fsStore.LoadCheckpoint(job.ID); err != nil {
		t.Fatalf("expected a checkpoint to have been saved: %v", err)
	}
}

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const errNoScene = sentinelError("scene not found")
