package film

import (
	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/layer"
	"github.com/cwbudde/lumenforge/internal/scene"
)

// darkCurveAnchors is the piecewise-linear dark-detection curve: luminance
// anchor points paired with the adaptive threshold to use at that
// brightness. Reproduced verbatim from the upstream threshold table.
var darkCurveAnchors = []struct {
	L, T float64
}{
	{0.1, 1e-4},
	{0.2, 1e-3},
	{0.3, 2e-3},
	{0.4, 3.5e-3},
	{0.5, 5.5e-3},
	{0.6, 7.5e-3},
	{0.7, 1e-2},
	{0.8, 1.5e-2},
	{0.9, 2.5e-2},
	{1.0, 4e-2},
	{1.2, 8e-2},
	{1.4, 9.5e-2},
	{1.8, 1e-1},
}

// darkThresholdCurveInterpolate evaluates the piecewise-linear curve at
// luminance L, floored at the first anchor's threshold for L below it and
// capped at the last anchor's threshold for L above it.
func darkThresholdCurveInterpolate(l float64) float64 {
	if l <= darkCurveAnchors[0].L {
		return darkCurveAnchors[0].T
	}
	last := darkCurveAnchors[len(darkCurveAnchors)-1]
	if l >= last.L {
		return last.T
	}
	for i := 1; i < len(darkCurveAnchors); i++ {
		a, b := darkCurveAnchors[i-1], darkCurveAnchors[i]
		if l <= b.L {
			frac := (l - a.L) / (b.L - a.L)
			return a.T + frac*(b.T-a.T)
		}
	}
	return last.T
}

// NextPass rebuilds the dirty-pixel mask for the next AA pass and returns
// the number of pixels still requiring samples.
//
// When adaptive is false, or the configured threshold is <= 0, every pixel
// is marked dirty and the full W*H count is returned (a render with
// threshold <= 0 resamples the whole image every pass, by design).
//
// Otherwise: first every already-converged pixel (weight > 0) is cleared,
// then a 2x2-neighbourhood colour-difference scan (plus an optional larger
// variance-neighbourhood scan) re-marks any pixel whose neighbourhood
// exceeds the (possibly dark-adapted) threshold.
func (f *Film) NextPass(adaptive bool, threshold float64) int {
	f.passIndex++

	if !adaptive || threshold <= 0 {
		for i := range f.flags {
			f.flags[i] = true
		}
		return f.Width * f.Height
	}

	combinedIdx := f.layers.IndexOf(layer.Combined)

	for i := range f.flags {
		f.flags[i] = f.weight[i] <= 0
	}

	varianceHalfEdge := f.noise.VarianceEdgeSize / 2
	w, h := f.Width, f.Height
	detectColour := f.noise.DetectColourNoise

	normalizedAt := func(x, y int) (col [4]float64, weight float64) {
		i := f.idx(x, y)
		weight = f.weight[i]
		n := f.accumulators[combinedIdx][i].Normalized(weight)
		return [4]float64{n.R, n.G, n.B, n.A}, weight
	}
	diffExceeds := func(a, b [4]float64, thresh float64) bool {
		return colorDiffGE(rgbaOf(a), rgbaOf(b), detectColour, thresh)
	}

	threshAt := func(lum float64) float64 {
		switch f.noise.DarkDetection {
		case scene.DarkDetectionLinear:
			factor := f.noise.DarkThresholdFactor
			if factor > 0 {
				return threshold * ((1 - factor) + lum*factor)
			}
		case scene.DarkDetectionCurve:
			return darkThresholdCurveInterpolate(lum)
		}
		return threshold
	}

	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			pixCol, weight := normalizedAt(x, y)
			if weight <= 0 {
				continue
			}
			lum := rgbaOf(pixCol).Luminance()
			thresh := threshAt(lum)

			right, _ := normalizedAt(x+1, y)
			if diffExceeds(pixCol, right, thresh) {
				f.flags[f.idx(x, y)] = true
				f.flags[f.idx(x+1, y)] = true
			}
			down, _ := normalizedAt(x, y+1)
			if diffExceeds(pixCol, down, thresh) {
				f.flags[f.idx(x, y)] = true
				f.flags[f.idx(x, y+1)] = true
			}
			diag, _ := normalizedAt(x+1, y+1)
			if diffExceeds(pixCol, diag, thresh) {
				f.flags[f.idx(x, y)] = true
				f.flags[f.idx(x+1, y+1)] = true
			}
			if x > 0 {
				antiDiag, _ := normalizedAt(x-1, y+1)
				if diffExceeds(pixCol, antiDiag, thresh) {
					f.flags[f.idx(x, y)] = true
					f.flags[f.idx(x-1, y+1)] = true
				}
			}

			if f.noise.VariancePixels > 0 && varianceHalfEdge > 0 {
				varianceX, varianceY := 0, 0
				for xd := -varianceHalfEdge; xd < varianceHalfEdge-1; xd++ {
					xi := clampInt(x+xd, 0, w-2)
					c0, _ := normalizedAt(xi, y)
					c1, _ := normalizedAt(xi+1, y)
					if diffExceeds(c0, c1, thresh) {
						varianceX++
					}
				}
				for yd := -varianceHalfEdge; yd < varianceHalfEdge-1; yd++ {
					yi := clampInt(y+yd, 0, h-2)
					c0, _ := normalizedAt(x, yi)
					c1, _ := normalizedAt(x, yi+1)
					if diffExceeds(c0, c1, thresh) {
						varianceY++
					}
				}
				if varianceX+varianceY >= f.noise.VariancePixels {
					for xd := -varianceHalfEdge; xd < varianceHalfEdge; xd++ {
						for yd := -varianceHalfEdge; yd < varianceHalfEdge; yd++ {
							xi := clampInt(x+xd, 0, w-1)
							yi := clampInt(y+yd, 0, h-1)
							f.flags[f.idx(xi, yi)] = true
						}
					}
				}
			}
		}
	}

	n := 0
	for _, dirty := range f.flags {
		if dirty {
			n++
		}
	}
	return n
}

func rgbaOf(c [4]float64) core.Rgba {
	return core.Rgba{R: c[0], G: c[1], B: c[2], A: c[3]}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
