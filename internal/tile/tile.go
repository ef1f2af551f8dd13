// Package tile implements the pure tile-splitting function the render
// driver uses to subdivide a canvas into worker-sized areas, and the four
// dispatch orderings the scheduler can use.
package tile

import (
	"math"
	"math/rand"
	"sort"
)

// Order selects the sequence workers draw tiles in. Order is fixed for the
// whole render; workers draw tiles by atomically incrementing a shared
// index into the ordered slice Split returns.
type Order int

const (
	Linear Order = iota
	Random
	Centre
	CentreRandom
)

// Area is one rectangular subregion of the canvas, plus the halo expanded
// by the reconstruction filter's half-width so a worker knows which pixels
// around its core region it may also need to touch when depositing filter
// footprint samples.
type Area struct {
	ID             int
	X, Y           int // core region top-left, in canvas-local coordinates
	W, H           int
	HaloX0, HaloY0 int // inclusive halo start (clipped to the canvas, never negative)
	HaloX1, HaloY1 int // inclusive halo end
}

// Split subdivides a W×H canvas (with crop origin cx0, cy0) into tileSize
// square tiles (the final row/column may be smaller), ordered per order.
// filterHalfWidth expands each tile's halo so add_sample's footprint is
// always reachable by the tile that owns its centre pixel.
func Split(w, h, cx0, cy0, tileSize int, order Order, filterHalfWidth float64) []Area {
	if tileSize <= 0 {
		tileSize = w
	}
	halo := int(math.Ceil(filterHalfWidth))

	var areas []Area
	id := 0
	for y := 0; y < h; y += tileSize {
		th := tileSize
		if y+th > h {
			th = h - y
		}
		for x := 0; x < w; x += tileSize {
			tw := tileSize
			if x+tw > w {
				tw = w - x
			}
			a := Area{
				ID: id,
				X:  x, Y: y, W: tw, H: th,
			}
			a.HaloX0 = max(0, a.X-halo) + cx0
			a.HaloY0 = max(0, a.Y-halo) + cy0
			a.HaloX1 = min(w-1, a.X+a.W-1+halo) + cx0
			a.HaloY1 = min(h-1, a.Y+a.H-1+halo) + cy0
			areas = append(areas, a)
			id++
		}
	}

	switch order {
	case Linear:
		// already row-major from the loop above.
	case Random:
		rng := rand.New(rand.NewSource(int64(w)*73856093 ^ int64(h)*19349663))
		rng.Shuffle(len(areas), func(i, j int) { areas[i], areas[j] = areas[j], areas[i] })
	case Centre:
		sortByCentreDistance(areas, w, h)
	case CentreRandom:
		sortByCentreDistance(areas, w, h)
		localShuffle(areas, 4)
	}
	return areas
}

func sortByCentreDistance(areas []Area, w, h int) {
	cx, cy := float64(w)/2, float64(h)/2
	dist := func(a Area) float64 {
		ax := float64(a.X) + float64(a.W)/2 - cx
		ay := float64(a.Y) + float64(a.H)/2 - cy
		return ax*ax + ay*ay
	}
	sort.SliceStable(areas, func(i, j int) bool {
		return dist(areas[i]) < dist(areas[j])
	})
}

// localShuffle reorders areas within bounded windows of size window so
// nearby-in-priority tiles get spread across worker start times (reducing
// false sharing on the outer edges of adjacent centre-ordered tiles)
// without destroying the overall centre-out progression.
func localShuffle(areas []Area, window int) {
	rng := rand.New(rand.NewSource(int64(len(areas))*2654435761 + 1))
	for start := 0; start < len(areas); start += window {
		end := min(start+window, len(areas))
		rng.Shuffle(end-start, func(i, j int) {
			areas[start+i], areas[start+j] = areas[start+j], areas[start+i]
		})
	}
}
