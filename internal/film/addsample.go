package film

import (
	"math"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/layer"
)

// AddSample spreads one integrator result across the filter footprint of
// the sub-pixel position (x+dx, y+dy). For every pixel (i,j) within that
// footprint: the filter weight is added to the shared weight buffer, and
// for every value present in layerValues the (proportionally clamped,
// weighted) colour is added to that layer's accumulator. The footprint is
// clipped to the canvas so samples straddling the edge never write out of
// bounds; the expected weight at border pixels drops accordingly, which is
// the documented boundary behaviour.
//
// CAUTION: like the source this is adapted from, this must be safe for
// samples whose footprint extends outside the tile that produced them and
// for footprints from neighbouring tiles landing on this pixel — hence the
// single serialising mutex around the whole footprint write.
func (f *Film) AddSample(x, y int, dx, dy float64, layerValues map[layer.Kind]core.Rgba) {
	halfWidth := f.filt.HalfWidth()

	dx0 := max(-x, roundToInt(dx-halfWidth))
	dx1 := min(f.Width-x-1, roundToInt(dx+halfWidth-1.0))
	dy0 := max(-y, roundToInt(dy-halfWidth))
	dy1 := min(f.Height-y-1, roundToInt(dy+halfWidth-1.0))
	if dx0 > dx1 || dy0 > dy1 {
		return
	}

	xOffs := dx - 0.5
	yOffs := dy - 0.5

	xIndex := make([]int, dx1-dx0+1)
	for i, n := dx0, 0; i <= dx1; i, n = i+1, n+1 {
		xIndex[n] = f.filt.IndexX((float64(i) - xOffs))
	}
	yIndex := make([]int, dy1-dy0+1)
	for i, n := dy0, 0; i <= dy1; i, n = i+1, n+1 {
		yIndex[n] = f.filt.IndexY((float64(i) - yOffs))
	}

	x0, x1 := x+dx0, x+dx1
	y0, y1 := y+dy0, y+dy1

	clamp := f.noise.ClampSamples

	f.mu.Lock()
	defer f.mu.Unlock()
	for j := y0; j <= y1; j++ {
		for i := x0; i <= x1; i++ {
			w := f.filt.WeightFromIndex(xIndex[i-x0], yIndex[j-y0])
			pix := f.idx(i, j)
			f.weight[pix] += w

			for li, k := range f.layers.Kinds() {
				col, ok := layerValues[k]
				if !ok {
					continue
				}
				col = col.ClampProportional(clamp)
				f.accumulators[li][pix] = f.accumulators[li][pix].Add(col.Scale(w))
			}
		}
	}
}

func roundToInt(v float64) int {
	return int(math.Round(v))
}
