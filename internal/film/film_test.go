package film

import (
	"bytes"
	"math"
	"testing"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/filter"
	"github.com/cwbudde/lumenforge/internal/layer"
	"github.com/cwbudde/lumenforge/internal/scene"
)

func newTestFilm(w, h int) *Film {
	layers := layer.NewSet()
	filt := filter.Build(filter.Box, 1.0)
	noise := scene.NoiseParams{}
	f := New(w, h, 0, 0, layers, filt, noise, false)
	f.Init(1)
	return f
}

func TestWeightAccumulationIsDeterministic(t *testing.T) {
	build := func() *Film {
		f := newTestFilm(8, 8)
		f.AddSample(4, 4, 0, 0, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(1, 1, 1)})
		f.AddSample(4, 4, 0.2, -0.1, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(1, 1, 1)})
		return f
	}
	f, g := build(), build()
	for i := range f.weight {
		if f.weight[i] != g.weight[i] {
			t.Fatalf("weight[%d] differs across identical runs: %v vs %v", i, f.weight[i], g.weight[i])
		}
	}
	if f.WeightAt(4, 4) <= 0 {
		t.Fatalf("expected positive weight at sample centre, got %v", f.WeightAt(4, 4))
	}
}

func TestNormalizedMatchesAccumulatorOverWeight(t *testing.T) {
	f := newTestFilm(4, 4)
	f.AddSample(2, 2, 0, 0, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(2, 4, 6)})

	w := f.WeightAt(2, 2)
	if w <= 0 {
		t.Fatalf("expected positive weight")
	}
	got := f.Normalized(layer.Combined, 2, 2)
	li := f.layers.IndexOf(layer.Combined)
	acc := f.accumulators[li][f.idx(2, 2)]
	want := acc.Normalized(w)
	if got != want {
		t.Fatalf("Normalized() = %v, want %v", got, want)
	}
}

func TestSaveLoadRoundTripIntoEmptyFilmIsIdentical(t *testing.T) {
	f := newTestFilm(6, 5)
	f.AddSample(3, 2, 0.1, 0.1, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(0.5, 0.25, 0.125)})
	f.AddSample(1, 1, 0, 0, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(1, 1, 1)})
	f.samplingOffset.Store(42)

	var buf bytes.Buffer
	if err := f.SaveState(&buf); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	empty := newTestFilm(6, 5)
	if err := empty.LoadInto(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("LoadInto: %v", err)
	}

	for i := range f.weight {
		if !almostEqual(f.weight[i], empty.weight[i]) {
			t.Fatalf("weight[%d] = %v, want %v", i, empty.weight[i], f.weight[i])
		}
	}
	li := f.layers.IndexOf(layer.Combined)
	for i := range f.accumulators[li] {
		if !rgbaAlmostEqual(f.accumulators[li][i], empty.accumulators[li][i]) {
			t.Fatalf("accumulator[%d] = %v, want %v", i, empty.accumulators[li][i], f.accumulators[li][i])
		}
	}
	if empty.SamplingOffset() != f.SamplingOffset() {
		t.Fatalf("SamplingOffset = %d, want %d", empty.SamplingOffset(), f.SamplingOffset())
	}
}

func TestSaveLoadCombinesAdditively(t *testing.T) {
	a := newTestFilm(5, 5)
	a.AddSample(2, 2, 0, 0, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(1, 0, 0)})
	b := newTestFilm(5, 5)
	b.AddSample(2, 2, 0, 0, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(0, 1, 0)})

	var bufA, bufB bytes.Buffer
	if err := a.SaveState(&bufA); err != nil {
		t.Fatalf("SaveState a: %v", err)
	}
	if err := b.SaveState(&bufB); err != nil {
		t.Fatalf("SaveState b: %v", err)
	}

	// Order 1: A then B.
	c1 := newTestFilm(5, 5)
	if err := c1.LoadInto(bytes.NewReader(bufA.Bytes())); err != nil {
		t.Fatalf("LoadInto a: %v", err)
	}
	if err := c1.LoadInto(bytes.NewReader(bufB.Bytes())); err != nil {
		t.Fatalf("LoadInto b: %v", err)
	}

	// Order 2: B then A.
	c2 := newTestFilm(5, 5)
	if err := c2.LoadInto(bytes.NewReader(bufB.Bytes())); err != nil {
		t.Fatalf("LoadInto b: %v", err)
	}
	if err := c2.LoadInto(bytes.NewReader(bufA.Bytes())); err != nil {
		t.Fatalf("LoadInto a: %v", err)
	}

	li := c1.layers.IndexOf(layer.Combined)
	for i := range c1.weight {
		if !almostEqual(c1.weight[i], c2.weight[i]) {
			t.Fatalf("order-dependent weight at %d: %v vs %v", i, c1.weight[i], c2.weight[i])
		}
		if !rgbaAlmostEqual(c1.accumulators[li][i], c2.accumulators[li][i]) {
			t.Fatalf("order-dependent accumulator at %d: %v vs %v", i, c1.accumulators[li][i], c2.accumulators[li][i])
		}
	}

	pix := c1.idx(2, 2)
	if c1.weight[pix] <= a.weight[pix] {
		t.Fatalf("combined weight should exceed either contributor's alone")
	}
}

func TestLoadIntoRejectsDimensionMismatch(t *testing.T) {
	a := newTestFilm(4, 4)
	var buf bytes.Buffer
	if err := a.SaveState(&buf); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	b := newTestFilm(5, 4)
	err := b.LoadInto(bytes.NewReader(buf.Bytes()))
	if err == nil {
		t.Fatalf("expected mismatch error")
	}
	var mismatch *ErrConfigMismatch
	if !errorsAs(err, &mismatch) {
		t.Fatalf("expected *ErrConfigMismatch, got %T: %v", err, err)
	}
}

func TestNextPassMarksEverythingDirtyWhenNotAdaptive(t *testing.T) {
	f := newTestFilm(4, 4)
	n := f.NextPass(false, 0.01)
	if n != f.Width*f.Height {
		t.Fatalf("NextPass(false, ...) = %d, want %d", n, f.Width*f.Height)
	}
}

func TestNextPassWithNonPositiveThresholdResamplesAll(t *testing.T) {
	f := newTestFilm(4, 4)
	n := f.NextPass(true, 0)
	if n != f.Width*f.Height {
		t.Fatalf("NextPass(true, 0) = %d, want %d", n, f.Width*f.Height)
	}
}

func TestNextPassClearsConvergedFlatRegion(t *testing.T) {
	f := newTestFilm(6, 6)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			f.AddSample(x, y, 0, 0, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(0.5, 0.5, 0.5)})
		}
	}
	n := f.NextPass(true, 0.01)
	if n != 0 {
		t.Fatalf("expected a flat region to fully converge, got %d dirty pixels", n)
	}
}

func TestAddSampleClipsFootprintAtCanvasEdge(t *testing.T) {
	f := newTestFilm(4, 4)
	// A sample at the top-left corner must not panic and must not write
	// negative indices; its recorded weight is necessarily partial.
	f.AddSample(0, 0, 0, 0, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(1, 1, 1)})
	if f.WeightAt(0, 0) <= 0 {
		t.Fatalf("expected some weight at the corner pixel")
	}
}

func TestFlushAppliesPostFilterOnlyToCombined(t *testing.T) {
	f := newTestFilm(3, 3)
	f.AddSample(1, 1, 0, 0, map[layer.Kind]core.Rgba{layer.Combined: core.NewRgb(0.2, 0.2, 0.2)})

	called := false
	post := func(plane []core.Rgba, w, h int) []core.Rgba {
		called = true
		if w != 3 || h != 3 {
			t.Fatalf("post filter got dims %dx%d, want 3x3", w, h)
		}
		out := make([]core.Rgba, len(plane))
		for i, c := range plane {
			out[i] = c.Scale(2)
		}
		return out
	}

	planes := f.Flush(0, 0, post)
	if !called {
		t.Fatalf("post filter was never invoked")
	}
	combined := planes[layer.Combined]
	idx := f.idx(1, 1)
	unfiltered := f.Normalized(layer.Combined, 1, 1)
	want := unfiltered.Scale(2)
	if !rgbaAlmostEqual(combined[idx], want) {
		t.Fatalf("combined[%d] = %v, want %v", idx, combined[idx], want)
	}
}

func TestFlushClampsMaskLayerToUnit(t *testing.T) {
	layers := layer.NewSet(layer.ObjectIndexMask)
	filt := filter.Build(filter.Box, 1.0)
	f := New(6, 6, 0, 0, layers, filt, scene.NoiseParams{}, false)
	f.Init(1)

	// Kept far enough apart that their filter footprints (radius ~1 pixel
	// for a unit box filter) never overlap, so each pixel's accumulator
	// reflects exactly one sample.
	//
	// A mask sample's raw accumulated value is an object index, not a unit
	// colour, so it routinely exceeds 1 before the post-rule clamps it.
	f.AddSample(4, 4, 0, 0, map[layer.Kind]core.Rgba{
		layer.Combined:        core.NewRgb(0.1, 0.1, 0.1),
		layer.ObjectIndexMask: core.NewRgb(7, 7, 7),
	})
	f.AddSample(0, 0, 0, 0, map[layer.Kind]core.Rgba{
		layer.Combined:        core.NewRgb(0.1, 0.1, 0.1),
		layer.ObjectIndexMask: core.Black,
	})

	planes := f.Flush(0, 0, nil)
	mask := planes[layer.ObjectIndexMask]

	hit := mask[f.idx(4, 4)]
	if hit.R != 1 || hit.G != 1 || hit.B != 1 || hit.A != 1 {
		t.Fatalf("hit pixel mask = %v, want all-ones", hit)
	}
	miss := mask[f.idx(0, 0)]
	if miss.R != 0 || miss.G != 0 || miss.B != 0 || miss.A != 0 {
		t.Fatalf("miss pixel mask = %v, want all-zeros", miss)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-5
}

func rgbaAlmostEqual(a, b core.Rgba) bool {
	return almostEqual(a.R, b.R) && almostEqual(a.G, b.G) && almostEqual(a.B, b.B) && almostEqual(a.A, b.A)
}

func errorsAs(err error, target **ErrConfigMismatch) bool {
	if e, ok := err.(*ErrConfigMismatch); ok {
		*target = e
		return true
	}
	return false
}
