// Package worker implements the per-tile sampling loop: for every dirty
// pixel in a tile it draws a stratified run of sub-pixel samples, shoots a
// camera ray for each, calls the configured surface integrator, and
// deposits the result into the shared film.
package worker

import (
	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/film"
	"github.com/cwbudde/lumenforge/internal/integrator"
	"github.com/cwbudde/lumenforge/internal/layer"
	"github.com/cwbudde/lumenforge/internal/sampling"
	"github.com/cwbudde/lumenforge/internal/scene"
	"github.com/cwbudde/lumenforge/internal/tile"
)

// Config bundles everything a worker needs that is constant for the whole
// render: the scene view, the film to deposit into, the integrator to
// call, and the sampling knobs that vary per pass.
type Config struct {
	View       *scene.View
	Film       *film.Film
	Integrator integrator.Integrator
	Params     integrator.Params

	BaseSamples        int // n_samples for this pass, before the sampling-factor layer adjusts it
	MultiPass           bool
	RayDifferentials    bool
	PassIndex           int
	DepthMin, DepthMax  float64 // cached near/far precalc, 0 if no depth layer enabled
}

// RunArea runs the per-pixel sampling loop over one tile area and calls
// film.FinishArea when done.
func RunArea(cfg Config, area tile.Area) {
	f := cfg.Film
	resX := f.Width

	for y := area.Y; y < area.Y+area.H; y++ {
		for x := area.X; x < area.X+area.W; x++ {
			if !f.ShouldSample(x, y) {
				continue
			}
			samplePixel(cfg, x, y, resX, area.X, area.Y)
		}
	}

	f.FinishArea(film.AreaBounds{X: area.X, Y: area.Y, W: area.W, H: area.H}, nil)
}

// samplePixel draws nSamplesAdjusted sub-pixel samples for pixel (x,y),
// each shot through the camera and the configured integrator, and deposits
// every one into the film via AddSample. tileX/tileY are the owning tile's
// canvas-local origin, the (pass, tile_x, tile_y, pixel_index, sample_index)
// seed tuple's tile coordinate.
func samplePixel(cfg Config, x, y, resX, tileX, tileY int) {
	n := adjustedSampleCount(cfg, x, y)
	if n <= 0 {
		return
	}

	pd := sampling.NewPixelData(resX, x, y, 0)
	rng := sampling.Seed(cfg.PassIndex, tileX, tileY, pd.PixelIndex, 0)

	for s := 0; s < n; s++ {
		dx, dy := subPixelOffset(cfg, s, n, pd.Offset)

		lensU, lensV := 0.5, 0.5
		if cfg.View.Camera != nil && cfg.View.Camera.SamplesLens() {
			lensU, lensV = sampling.LensPair(uint64(s), uint64(pd.Offset))
		}

		result, colour, alpha := shootAndIntegrate(cfg, x, y, dx, dy, lensU, lensV, &rng)
		result[layer.Combined] = core.NewRgba(colour.R, colour.G, colour.B, alpha)

		cfg.Film.AddSample(x, y, dx, dy, result)
	}
}

// shootAndIntegrate builds the camera ray (with differentials if enabled),
// calls the integrator and returns its layer side-effects alongside the
// combined colour/alpha, so the caller can fold them together under one
// Combined entry per the data model's "combined is synthesised, not a
// separate accumulation" rule.
func shootAndIntegrate(cfg Config, x, y int, dx, dy, lensU, lensV float64, rng *sampling.RNG) (map[layer.Kind]core.Rgba, core.Rgba, float64) {
	if cfg.View.Camera == nil {
		return map[layer.Kind]core.Rgba{}, core.Black, 0
	}
	camRay := cfg.View.Camera.ShootRay(float64(x)+dx, float64(y)+dy, lensU, lensV)
	if !camRay.Valid {
		return map[layer.Kind]core.Rgba{}, core.Black, 0
	}

	ray := camRay.Ray
	if cfg.RayDifferentials {
		ray.Differential = buildDifferential(cfg, x, y, dx, dy, lensU, lensV)
	}

	haltonU, haltonV := sampling.LensPair(uint64(x+y*cfg.Film.Width), 0)

	ctx := integrator.Context{
		View:    cfg.View,
		Ray:     ray,
		RNG:     rng,
		HaltonU: haltonU,
		HaltonV: haltonV,
		Depth:   cfg.Params.MaxDepth,
	}
	res := cfg.Integrator.Integrate(ctx)
	return res.Layers, res.Color, res.Alpha
}

func buildDifferential(cfg Config, x, y int, dx, dy, lensU, lensV float64) *core.RayDifferential {
	rx := cfg.View.Camera.ShootRay(float64(x)+1+dx, float64(y)+dy, lensU, lensV)
	ry := cfg.View.Camera.ShootRay(float64(x)+dx, float64(y)+1+dy, lensU, lensV)
	if !rx.Valid || !ry.Valid {
		return nil
	}
	return &core.RayDifferential{
		OriginX: rx.Ray.Origin, OriginY: ry.Ray.Origin,
		DirX: rx.Ray.Dir, DirY: ry.Ray.Dir,
	}
}

// subPixelOffset computes the stratified sub-pixel jitter per spec: a
// simple regular-plus-LP-sequence split for single-pass renders, and the
// (0,2)-sequence pair (van der Corput x, Larcher-Pillichshammer y) for
// multi-pass renders where each pass must decorrelate from the last.
func subPixelOffset(cfg Config, sample, n int, offset uint32) (dx, dy float64) {
	if !cfg.MultiPass {
		dx = (float64(sample) + 0.5) / float64(n)
		dy = sampling.RiS(uint32(sample)+offset, 0)
		return
	}
	dx = sampling.RiVdC(uint32(sample), offset)
	dy = sampling.RiS(uint32(sample), offset)
	return
}

// adjustedSampleCount folds the debug sample-multiplier layer's normalised
// value into the pass's base sample count: a value of 0 falls back to the
// base count unscaled, since the layer defaults to unconfigured (black).
func adjustedSampleCount(cfg Config, x, y int) int {
	if !cfg.Film.Layers().Has(layer.DebugSamplingFactor) {
		return cfg.BaseSamples
	}
	factor := cfg.Film.Normalized(layer.DebugSamplingFactor, x, y).Luminance()
	if factor <= 0 {
		return cfg.BaseSamples
	}
	n := int(float64(cfg.BaseSamples) * factor)
	if n < 1 {
		n = 1
	}
	return n
}
