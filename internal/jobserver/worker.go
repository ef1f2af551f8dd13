package jobserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/lumenforge/internal/film"
	"github.com/cwbudde/lumenforge/internal/filter"
	"github.com/cwbudde/lumenforge/internal/integrator"
	"github.com/cwbudde/lumenforge/internal/layer"
	"github.com/cwbudde/lumenforge/internal/progress"
	"github.com/cwbudde/lumenforge/internal/render"
	"github.com/cwbudde/lumenforge/internal/scene"
	"github.com/cwbudde/lumenforge/internal/store"
	"github.com/cwbudde/lumenforge/internal/tile"
)

// SceneLoader builds the view a job renders against from its ScenePath.
// Scene-file parsing is an external collaborator (see the module's design
// notes); a server wires in whatever concrete loader its deployment needs.
type SceneLoader func(cfg JobConfig) (*scene.View, error)

// runRender drives one job end to end: load the scene, build a render.Config
// wired to the job's checkpoint/film/trace stores, run the pass loop and
// record the terminal state. It is started in its own goroutine by the
// handler that created or resumed the job.
func runRender(ctx context.Context, jm *JobManager, checkpoints store.Store, films *store.FilmStore, traceDir string, loadScene SceneLoader, jobID string) {
	defer jm.broadcaster.CleanupJob(jobID)
	job, ok := jm.GetJob(jobID)
	if !ok {
		slog.Error("runRender: unknown job", "jobID", jobID)
		return
	}

	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID, ctx.Err())
		return
	default:
	}

	view, err := loadScene(job.Config)
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("load scene: %w", err))
		return
	}

	f := film.New(job.Config.Width, job.Config.Height, 0, 0, layer.NewSet(), filter.Build(filter.Gauss, 2.0), view.Noise, false)
	f.Init(1)
	if job.FilmPath != "" && films != nil {
		if err := films.LoadFilm(job.FilmPath, f); err != nil {
			markJobFailed(jm, jobID, fmt.Errorf("load film: %w", err))
			return
		}
	}

	var trace *store.TraceWriter
	if traceDir != "" {
		if tw, err := store.NewTraceWriter(traceDir, jobID, job.PassesCompleted > 0); err == nil {
			trace = tw
			defer trace.Close()
		} else {
			slog.Warn("trace writer unavailable", "jobID", jobID, "error", err)
		}
	}

	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})

	monitor, latest := newTrackingMonitor()
	monitorDone := make(chan struct{})
	go monitorProgress(jm, jobID, latest, monitorDone)

	maxDepth := job.Config.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 6
	}
	params := integrator.Params{MaxDepth: maxDepth}

	cfg := render.Config{
		JobID:              jobID,
		ScenePath:          job.Config.ScenePath,
		Seed:               job.Config.Seed,
		View:               view,
		Film:               f,
		Integrator:         &integrator.PathIntegrator{Params: params},
		Params:             params,
		TileSize:           tileSizeOr(job.Config.TileSize),
		TileOrder:          tile.CentreRandom,
		Workers:            job.Config.Workers,
		AAPasses:           job.Config.AAPasses,
		BaseSamples:        job.Config.SamplesPerPass,
		SamplesIncrement:   job.Config.SamplesIncrement,
		SampleMultiplier:   job.Config.SampleMultiplier,
		Adaptive:           job.Config.Adaptive,
		Threshold:          job.Threshold,
		DirtyFloor:         job.Config.DirtyFloor,
		StartPass:          job.PassesCompleted + 1,
		Resume:             job.PassesCompleted > 0,
		Checkpoints:        checkpoints,
		Films:              films,
		Trace:              trace,
		CheckpointInterval: job.Config.CheckpointInterval,
		Monitor:            monitor,
	}

	res, err := render.Run(ctx, cfg)
	close(monitorDone)

	if err != nil {
		markJobFailed(jm, jobID, err)
		return
	}
	if res.Cancelled {
		markJobCancelled(jm, jobID, ctx.Err())
		return
	}

	now := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.PassesCompleted = res.PassesCompleted
		j.EndTime = &now
	})
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Pass:        res.PassesCompleted,
		TotalPasses: job.Config.AAPasses,
		Timestamp:   now,
	})
}

func tileSizeOr(n int) int {
	if n <= 0 {
		return 32
	}
	return n
}

func markJobFailed(jm *JobManager, jobID string, err error) {
	now := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &now
	})
	slog.Error("render job failed", "jobID", jobID, "error", err)
}

func markJobCancelled(jm *JobManager, jobID string, reason error) {
	now := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		if reason != nil {
			j.Error = reason.Error()
		}
		j.EndTime = &now
	})
}

// newTrackingMonitor returns a CallbackMonitor whose updates are coalesced
// into a depth-1 channel: monitorProgress only ever needs the latest state,
// never a full history of every per-tile UpdateProgress call.
func newTrackingMonitor() (progress.Monitor, <-chan progress.Update) {
	ch := make(chan progress.Update, 1)
	cb := func(u progress.Update) {
		select {
		case ch <- u:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
	return progress.NewCallbackMonitor(cb), ch
}

// monitorProgress throttles the render driver's (potentially per-tile)
// progress updates down to one broadcast every 500ms, so an SSE stream
// never sees more traffic than a UI can usefully render.
func monitorProgress(jm *JobManager, jobID string, updates <-chan progress.Update, done <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var last progress.Update
	have := false

	for {
		select {
		case <-done:
			return
		case u := <-updates:
			last = u
			have = true
		case <-ticker.C:
			if !have {
				continue
			}
			job, ok := jm.GetJob(jobID)
			if !ok {
				return
			}
			jm.UpdateJob(jobID, func(j *Job) {
				j.PassesCompleted = last.Pass
			})
			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:          jobID,
				State:          StateRunning,
				Pass:           last.Pass,
				TotalPasses:    last.TotalPasses,
				StepsDone:      last.StepsDone,
				StepsTotal:     last.StepsTotal,
				ElapsedSeconds: time.Since(job.StartTime).Seconds(),
				Timestamp:      time.Now(),
			})
		}
	}
}
