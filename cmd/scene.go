package cmd

import (
	"fmt"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/jobserver"
	"github.com/cwbudde/lumenforge/internal/scene"
)

// Scene-file parsing is an external collaborator's job, not this core's
// (see the accelerator/camera/background interfaces in internal/core): a
// real deployment supplies its own jobserver.SceneLoader built on top of
// whatever asset pipeline it already has. loadFixtureScene stands in for
// that collaborator here so render and serve have something runnable out
// of the box — a single matte background lit from nowhere, which is enough
// to exercise the whole tile/sample/integrate/film pipeline end to end.
func loadFixtureScene(cfg jobserver.JobConfig) (*scene.View, error) {
	if cfg.ScenePath == "" {
		return nil, fmt.Errorf("scene: no scene path given")
	}
	return &scene.View{
		Camera:      scene.NewPinholeCamera(cfg.Width, cfg.Height),
		Background:  scene.FlatBackground{Color: core.NewRgb(0.4, 0.55, 0.75)},
		Accelerator: scene.EmptyAccelerator{},
		Noise: scene.NoiseParams{
			Threshold:      0.01,
			VariancePixels: 4,
		},
	}, nil
}
