package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/cwbudde/lumenforge/internal/filter"
	"github.com/cwbudde/lumenforge/internal/film"
	"github.com/cwbudde/lumenforge/internal/imageio"
	"github.com/cwbudde/lumenforge/internal/integrator"
	"github.com/cwbudde/lumenforge/internal/jobserver"
	"github.com/cwbudde/lumenforge/internal/layer"
	"github.com/cwbudde/lumenforge/internal/progress"
	"github.com/cwbudde/lumenforge/internal/render"
	"github.com/cwbudde/lumenforge/internal/tile"
	"github.com/spf13/cobra"
)

var (
	renderScenePath  string
	renderOutPath    string
	renderWidth      int
	renderHeight     int
	renderAAPasses   int
	renderSamples    int
	renderAdaptive   bool
	renderThreshold  float64
	renderTileSize   int
	renderWorkers    int
	renderMaxDepth   int
	renderSeed       int64
	renderCpuProfile string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Run a single-shot render",
	Long:  `Renders a scene to a PNG, reporting progress on a console bar.`,
	RunE:  runRenderOnce,
}

func init() {
	renderCmd.Flags().StringVar(&renderScenePath, "scene", "", "Scene path (required)")
	renderCmd.Flags().StringVar(&renderOutPath, "out", "out.png", "Output image path")
	renderCmd.Flags().IntVar(&renderWidth, "width", 640, "Image width")
	renderCmd.Flags().IntVar(&renderHeight, "height", 480, "Image height")
	renderCmd.Flags().IntVar(&renderAAPasses, "passes", 8, "Number of AA passes")
	renderCmd.Flags().IntVar(&renderSamples, "samples", 4, "Samples per pixel per pass")
	renderCmd.Flags().BoolVar(&renderAdaptive, "adaptive", true, "Stop passes early once noise falls below threshold")
	renderCmd.Flags().Float64Var(&renderThreshold, "threshold", 0.01, "Adaptive noise threshold")
	renderCmd.Flags().IntVar(&renderTileSize, "tile-size", 32, "Tile edge length in pixels")
	renderCmd.Flags().IntVar(&renderWorkers, "workers", 0, "Worker goroutines (0 = GOMAXPROCS)")
	renderCmd.Flags().IntVar(&renderMaxDepth, "max-depth", 6, "Maximum path depth")
	renderCmd.Flags().Int64Var(&renderSeed, "seed", 1, "Random seed")
	renderCmd.Flags().StringVar(&renderCpuProfile, "cpuprofile", "", "Write CPU profile to file")

	renderCmd.MarkFlagRequired("scene")
	rootCmd.AddCommand(renderCmd)
}

func runRenderOnce(cmd *cobra.Command, args []string) error {
	if renderCpuProfile != "" {
		f, err := os.Create(renderCpuProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg := jobserver.JobConfig{ScenePath: renderScenePath, Width: renderWidth, Height: renderHeight}
	view, err := loadFixtureScene(cfg)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}

	f := film.New(renderWidth, renderHeight, 0, 0, layer.NewSet(), filter.Build(filter.Gauss, 2.0), view.Noise, false)
	f.Init(1)

	params := integrator.Params{MaxDepth: renderMaxDepth}
	monitor := progress.NewConsoleMonitor(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	res, err := render.Run(ctx, render.Config{
		ScenePath:        renderScenePath,
		Seed:             renderSeed,
		View:             view,
		Film:             f,
		Integrator:       &integrator.PathIntegrator{Params: params},
		Params:           params,
		TileSize:         renderTileSize,
		TileOrder:        tile.CentreRandom,
		Workers:          renderWorkers,
		AAPasses:         renderAAPasses,
		BaseSamples:      renderSamples,
		Adaptive:         renderAdaptive,
		Threshold:        renderThreshold,
		StartPass:        1,
		Monitor:          monitor,
	})
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	elapsed := time.Since(start)

	if res.Cancelled {
		slog.Warn("render cancelled", "passesCompleted", res.PassesCompleted)
	}

	combined, ok := res.Layers[layer.Combined]
	if !ok {
		return fmt.Errorf("render produced no combined layer")
	}

	outFile, err := os.Create(renderOutPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer outFile.Close()

	if err := imageio.WritePNG(outFile, combined, renderWidth, renderHeight); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	slog.Info("render complete", "elapsed", elapsed, "passesCompleted", res.PassesCompleted, "cancelled", res.Cancelled)
	fmt.Printf("Wrote %s (%d passes, %s)\n", renderOutPath, res.PassesCompleted, elapsed.Round(time.Millisecond))

	return nil
}
