// Package film implements the accumulating, filtered, multi-layer raster
// that is the centrepiece of the renderer: samples arrive concurrently, out
// of order, and from overlapping neighbourhoods because of the
// reconstruction filter's support, and this package is what makes that
// safe and bit-reproducible.
package film

import (
	"sync"
	"sync/atomic"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/filter"
	"github.com/cwbudde/lumenforge/internal/layer"
	"github.com/cwbudde/lumenforge/internal/scene"
)

// Film is the rectangular W×H canvas with one Rgba accumulator per enabled
// layer, one shared weight buffer, a dirty-pixel flag mask and an optional
// density buffer. Cx0/Cy0 are the crop origin for cropped renders.
type Film struct {
	Width, Height int
	Cx0, Cy0      int

	layers      *layer.Set
	accumulators [][]core.Rgba // indexed [layerIndex][y*Width+x]
	weight      []float64
	flags       []bool

	density       []core.Rgba
	densitySample int64 // atomic

	filt  *filter.Table
	noise scene.NoiseParams

	mu sync.Mutex // serialises AddSample; see AddSample on locking discipline

	samplingOffset atomic.Uint32 // monotonic LDS index counter, survives resume
	passIndex      int

	estimateDensity bool
}

// New builds an empty film ready for Init. layers must include at least
// layer.Combined (layer.NewSet guarantees this).
func New(width, height, cx0, cy0 int, layers *layer.Set, filt *filter.Table, noise scene.NoiseParams, estimateDensity bool) *Film {
	f := &Film{
		Width: width, Height: height,
		Cx0: cx0, Cy0: cy0,
		layers: layers,
		filt:   filt,
		noise:  noise,
		estimateDensity: estimateDensity,
	}
	n := width * height
	f.accumulators = make([][]core.Rgba, layers.Len())
	for i := range f.accumulators {
		f.accumulators[i] = make([]core.Rgba, n)
	}
	f.weight = make([]float64, n)
	f.flags = make([]bool, n)
	if estimateDensity {
		f.density = make([]core.Rgba, n)
	}
	return f
}

// Init zeros all accumulators, marks every pixel dirty and resets the
// sampling offset counter. Called once at the start of a fresh (not
// resumed) render.
func (f *Film) Init(passes int) {
	n := f.Width * f.Height
	for i := range f.accumulators {
		clear(f.accumulators[i])
	}
	clear(f.weight)
	for i := range f.flags {
		f.flags[i] = true
	}
	if f.density != nil {
		clear(f.density)
	}
	f.densitySample = 0
	f.samplingOffset.Store(0)
	f.passIndex = 0
	_ = n
}

func (f *Film) idx(x, y int) int { return y*f.Width + x }

// Layers returns the registered layer set.
func (f *Film) Layers() *layer.Set { return f.layers }

// Filter returns the shared reconstruction filter table.
func (f *Film) Filter() *filter.Table { return f.filt }

// ShouldSample reports whether pixel (x,y) is marked dirty. It reads flags
// without locking: flags are only ever written single-threaded inside
// NextPass, between passes, so a relaxed read during a pass is sufficient
// per the concurrency model.
func (f *Film) ShouldSample(x, y int) bool {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return false
	}
	return f.flags[f.idx(x, y)]
}

// NextSamplingOffset atomically reserves and returns the next LDS index,
// keeping low-discrepancy sequences correlation-free across passes and
// across resumed renders.
func (f *Film) NextSamplingOffset() uint32 {
	return f.samplingOffset.Add(1) - 1
}

// SamplingOffset returns the current (already-issued) count, used when
// saving state.
func (f *Film) SamplingOffset() uint32 {
	return f.samplingOffset.Load()
}

// Normalized returns the normalised colour of layer k at (x,y):
// accumulator/weight, or the unconverged sentinel (black, alpha 0) when
// weight is zero.
func (f *Film) Normalized(k layer.Kind, x, y int) core.Rgba {
	li := f.layers.IndexOf(k)
	if li < 0 {
		return core.Black
	}
	i := f.idx(x, y)
	return f.accumulators[li][i].Normalized(f.weight[i])
}

func (f *Film) WeightAt(x, y int) float64 {
	return f.weight[f.idx(x, y)]
}
