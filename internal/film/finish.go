package film

import (
	"math"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/layer"
)

// AreaBounds is the canvas-local rectangle FinishArea operates on; kept
// independent of the tile package's Area so film never imports the
// scheduler.
type AreaBounds struct {
	X, Y, W, H int
}

// ProgressFunc is the Go analogue of the progress callback's C-ABI function
// pointer: (stepsTotal, stepsDone, tag).
type ProgressFunc func(stepsTotal, stepsDone int, tag string)

// FinishArea is called once a tile worker completes its area: it reports
// progress and runs any edge-detection post-layers (toon/object/face
// edges) registered for the area. The snapshot these produce lives in the
// same accumulators the rest of the film uses; no separate copy is kept
// since nothing in this core needs double-buffered exported images.
func (f *Film) FinishArea(a AreaBounds, onProgress ProgressFunc) {
	if f.layers.HasGroup(layer.GroupDebug) {
		f.runEdgeDetection(a)
	}
	if onProgress != nil {
		onProgress(f.Width*f.Height, a.W*a.H, "")
	}
}

// runEdgeDetection applies a simple Sobel-style gradient threshold over the
// combined layer inside the area, writing into the toon/object-edge/face-
// edge layers where present. The exact edge operator is intentionally
// simple (it is a debug aid, not a physically meaningful channel).
func (f *Film) runEdgeDetection(a AreaBounds) {
	targets := []layer.Kind{layer.Toon, layer.ObjectEdge, layer.FaceEdge}
	present := false
	for _, k := range targets {
		if f.layers.Has(k) {
			present = true
			break
		}
	}
	if !present {
		return
	}
	for y := a.Y; y < a.Y+a.H; y++ {
		for x := a.X; x < a.X+a.W; x++ {
			if x <= 0 || y <= 0 || x >= f.Width-1 || y >= f.Height-1 {
				continue
			}
			gx := f.Normalized(layer.Combined, x+1, y).Luminance() - f.Normalized(layer.Combined, x-1, y).Luminance()
			gy := f.Normalized(layer.Combined, x, y+1).Luminance() - f.Normalized(layer.Combined, x, y-1).Luminance()
			mag := math.Hypot(gx, gy)
			edge := core.Rgba{R: mag, G: mag, B: mag, A: 1}
			for _, k := range targets {
				if li := f.layers.IndexOf(k); li >= 0 {
					w := f.weight[f.idx(x, y)]
					if w > 0 {
						f.accumulators[li][f.idx(x, y)] = edge.Scale(w)
					}
				}
			}
		}
	}
}

// PostFilter is an opaque hook applied to the Combined layer's plane after
// normalisation and before the post-rules below. Denoising lives entirely
// behind this hook: the core never implements a denoiser itself, it only
// ever passes normalised pixel data through whatever the caller supplies.
type PostFilter func(plane []core.Rgba, width, height int) []core.Rgba

// Flush normalises every pixel of every enabled layer and applies the
// layer-kind post-rules: mask layers are clamped to [0,1] (ceil-like
// saturation), ZDepthNorm is rescaled by the given min/max depth range
// (ZDepthAbs is left as accumulated), and index-mask layers are left as a
// 0/1 multiply mask for the caller to compose with. depthRange is
// (min, max); pass (0,0) if no depth layer is registered. If post is
// non-nil it is applied to the Combined layer only, after normalisation.
// The result maps each enabled layer kind to a flat row-major plane of
// normalised Rgba, ready for an external image encoder.
func (f *Film) Flush(depthMin, depthMax float64, post PostFilter) map[layer.Kind][]core.Rgba {
	out := make(map[layer.Kind][]core.Rgba, f.layers.Len())
	invRange := 0.0
	if depthMax > depthMin {
		invRange = 1 / (depthMax - depthMin)
	}
	for li, k := range f.layers.Kinds() {
		plane := make([]core.Rgba, f.Width*f.Height)
		for i := range plane {
			n := f.accumulators[li][i].Normalized(f.weight[i])
			switch {
			case k.IsMask():
				n = maskPostRule(n)
			case k.IsDepth() && invRange > 0:
				n = depthPostRule(n, depthMin, invRange, k == layer.ZDepthNorm)
			}
			plane[i] = n
		}
		if k == layer.Combined && post != nil {
			plane = post(plane, f.Width, f.Height)
		}
		out[k] = plane
	}
	return out
}

func maskPostRule(c core.Rgba) core.Rgba {
	clampUnit := func(v float64) float64 {
		if v <= 0 {
			return 0
		}
		return 1
	}
	v := clampUnit(c.R + c.G + c.B)
	return core.Rgba{R: v, G: v, B: v, A: v}
}

func depthPostRule(c core.Rgba, depthMin, invRange float64, normalize bool) core.Rgba {
	if !normalize {
		return c
	}
	v := (c.R - depthMin) * invRange
	return core.Rgba{R: v, G: v, B: v, A: c.A}
}
