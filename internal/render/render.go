// Package render implements the render driver: the per-job orchestration
// that ties the film, tile scheduler, worker pool and progress monitor
// together into the pass loop a render job actually runs.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/film"
	"github.com/cwbudde/lumenforge/internal/integrator"
	"github.com/cwbudde/lumenforge/internal/layer"
	"github.com/cwbudde/lumenforge/internal/progress"
	"github.com/cwbudde/lumenforge/internal/scene"
	"github.com/cwbudde/lumenforge/internal/store"
	"github.com/cwbudde/lumenforge/internal/tile"
	"github.com/cwbudde/lumenforge/internal/worker"
)

// Config bundles everything one render job needs: the scene, the working
// film, the integrator and its tunables, the pass plan, the scheduler
// knobs and the optional persistence/progress collaborators. Persistence
// fields (Checkpoints, Films, Trace) are all optional; a nil value simply
// disables that side-channel.
type Config struct {
	JobID     string
	ScenePath string
	Seed      int64

	View       *scene.View
	Film       *film.Film
	Integrator integrator.Integrator
	Params     integrator.Params

	TileSize  int
	TileOrder tile.Order
	Workers   int // 0 -> runtime.GOMAXPROCS(0)

	AAPasses         int
	BaseSamples      int
	SamplesIncrement int
	SampleMultiplier float64

	Adaptive   bool
	Threshold  float64
	DirtyFloor int // dirty-pixel floor below which the threshold relaxes, per §4.6(e)

	MultiPass        bool
	RayDifferentials bool

	// StartPass is the first pass to run, 1 for a fresh render or
	// resumedCheckpoint.PassesCompleted+1 for a resumed one.
	StartPass int

	// Resume requests that Run scan Films for every saved pass file
	// belonging to JobID and load-accumulate them into Film before the
	// pass loop starts, per the render driver's film-load step.
	Resume bool

	Checkpoints        store.Store
	Films              *store.FilmStore
	Trace              *store.TraceWriter
	CheckpointInterval int // passes between autosaves; 0 disables periodic autosave

	Monitor progress.Monitor
}

// Result is what Run reports back once the pass loop ends, whether by
// completion or cancellation.
type Result struct {
	PassesCompleted int
	Cancelled       bool
	Layers          map[layer.Kind][]core.Rgba
}

// Run drives one render job's pass loop per the render driver contract:
// resume, depth precalc, the per-pass resample/dispatch/autosave/threshold
// cycle, and a final flush. ctx cancellation is cooperative: a worker
// finishes its current tile and the driver treats whatever passes
// completed as the final state.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Film == nil || cfg.View == nil || cfg.Integrator == nil {
		return nil, fmt.Errorf("render: Film, View and Integrator are required")
	}
	if cfg.Monitor != nil {
		cfg.Monitor.SetTotalPasses(cfg.AAPasses)
	}

	if cfg.Resume {
		if err := resumeFromFilms(cfg); err != nil {
			return nil, fmt.Errorf("render: resume: %w", err)
		}
	}

	depthMin, depthMax := precalcDepth(cfg)

	startPass := cfg.StartPass
	if startPass < 1 {
		startPass = 1
	}

	threshold := cfg.Threshold
	thresholdChanged := true
	passesCompleted := startPass - 1
	lastDirty := 0
	cancelled := false

passLoop:
	for p := startPass; p <= cfg.AAPasses; p++ {
		select {
		case <-ctx.Done():
			cancelled = true
			break passLoop
		default:
		}

		if cfg.Monitor != nil {
			cfg.Monitor.SetCurrentPass(p)
		}

		resample := cfg.Film.NextPass(cfg.Adaptive && p > 1, threshold)

		if resample == 0 && !thresholdChanged {
			passesCompleted = p
			continue
		}

		samplesThisPass := samplesForPass(cfg, p)
		areas := tile.Split(cfg.Film.Width, cfg.Film.Height, cfg.Film.Cx0, cfg.Film.Cy0, cfg.TileSize, cfg.TileOrder, cfg.Film.Filter().HalfWidth())

		wc := worker.Config{
			View:             cfg.View,
			Film:             cfg.Film,
			Integrator:       cfg.Integrator,
			Params:           cfg.Params,
			BaseSamples:      samplesThisPass,
			MultiPass:        cfg.MultiPass,
			RayDifferentials: cfg.RayDifferentials,
			PassIndex:        p,
			DepthMin:         depthMin,
			DepthMax:         depthMax,
		}

		if cfg.Monitor != nil {
			cfg.Monitor.InitProgress(cfg.Film.Width * cfg.Film.Height)
		}
		areaCancelled := dispatchAreas(ctx, cfg, wc, areas)
		if cfg.Monitor != nil {
			cfg.Monitor.Done()
		}

		passesCompleted = p
		prevThreshold := threshold
		if cfg.DirtyFloor > 0 && resample > 0 && resample < cfg.DirtyFloor {
			factor := 1 - 0.1*math.Min(8, float64(cfg.DirtyFloor)/float64(resample))
			threshold *= factor
		}
		thresholdChanged = threshold != prevThreshold
		lastDirty = resample

		autosave(cfg, p, resample, threshold, false)

		if areaCancelled {
			cancelled = true
			break
		}
	}

	layers := cfg.Film.Flush(depthMin, depthMax, nil)

	autosave(cfg, passesCompleted, lastDirty, threshold, true)

	return &Result{PassesCompleted: passesCompleted, Cancelled: cancelled, Layers: layers}, nil
}

// resumeFromFilms scans Films for every saved pass file belonging to
// JobID and additively loads each into Film, per the film format's
// sum-weight/max-sampling-offset combine rule. A job with no Films
// configured, or none saved yet, leaves Film untouched.
func resumeFromFilms(cfg Config) error {
	if cfg.Films == nil {
		return nil
	}
	paths, err := cfg.Films.ScanFilms(cfg.JobID)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := cfg.Films.LoadFilm(path, cfg.Film); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// samplesForPass computes samples_this_pass = base + ceil(increment *
// multiplier^p), the per-pass sample-count ramp from §4.6(c).
func samplesForPass(cfg Config, p int) int {
	if cfg.SamplesIncrement == 0 {
		return cfg.BaseSamples
	}
	mult := cfg.SampleMultiplier
	if mult == 0 {
		mult = 1
	}
	extra := math.Ceil(float64(cfg.SamplesIncrement) * math.Pow(mult, float64(p)))
	return cfg.BaseSamples + int(extra)
}

// dispatchAreas runs a fixed-size worker pool over areas, each worker
// drawing its next tile via an atomic dequeue index — the only blocking
// point inside the hot per-sample loop per the concurrency model. It
// returns true if ctx was cancelled before every area was processed.
func dispatchAreas(ctx context.Context, cfg Config, wc worker.Config, areas []tile.Area) bool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var next atomic.Int64
	var cancelled atomic.Bool
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					cancelled.Store(true)
					return
				default:
				}
				idx := next.Add(1) - 1
				if idx >= int64(len(areas)) {
					return
				}
				area := areas[idx]
				worker.RunArea(wc, area)
				if cfg.Monitor != nil {
					cfg.Monitor.UpdateProgress(area.W * area.H)
				}
			}
		}()
	}
	wg.Wait()
	return cancelled.Load()
}

// autosave persists the checkpoint/trace/film side-channels for pass p,
// each of which is independently optional. A nil collaborator simply
// disables that channel; a save error is logged as a warning and that
// channel is skipped for this pass, never fatal to the render itself (per
// the I/O error handling rule: autosave failures are non-fatal). force bypasses
// the periodic-interval gate, for the unconditional save Run performs on
// completion or cancellation regardless of where that landed in the cycle.
func autosave(cfg Config, pass, dirty int, threshold float64, force bool) {
	periodic := cfg.CheckpointInterval > 0 && pass%cfg.CheckpointInterval == 0
	if !force && !periodic && pass != cfg.AAPasses {
		return
	}

	var filmPath string
	if cfg.Films != nil {
		if path, err := cfg.Films.SaveFilm(cfg.JobID, pass, cfg.Film); err == nil {
			filmPath = path
		} else {
			slog.Warn("autosave: film save failed", "jobID", cfg.JobID, "pass", pass, "error", err)
		}
	}

	if cfg.Trace != nil {
		if err := cfg.Trace.Write(store.TraceEntry{
			Pass:           pass,
			DirtyPixels:    dirty,
			Threshold:      threshold,
			SamplingOffset: uint64(cfg.Film.SamplingOffset()),
		}); err != nil {
			slog.Warn("autosave: trace write failed", "jobID", cfg.JobID, "pass", pass, "error", err)
		}
	}

	if cfg.Checkpoints != nil && filmPath != "" {
		cp := store.NewCheckpoint(cfg.JobID, filmPath, pass, uint64(cfg.Film.SamplingOffset()), threshold, dirty, store.RenderConfig{
			ScenePath:        cfg.ScenePath,
			Width:            cfg.Film.Width,
			Height:           cfg.Film.Height,
			AAPasses:         cfg.AAPasses,
			SamplesPerPass:   cfg.BaseSamples,
			SamplesIncrement: cfg.SamplesIncrement,
			Adaptive:         cfg.Adaptive,
			Threshold:        cfg.Threshold,
			Seed:             cfg.Seed,
		})
		if err := cfg.Checkpoints.SaveCheckpoint(cfg.JobID, cp); err != nil {
			slog.Warn("autosave: checkpoint save failed", "jobID", cfg.JobID, "pass", pass, "error", err)
		}
	}
}
