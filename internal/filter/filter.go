// Package filter builds the reconstruction filter weight table the image
// film uses to spread each sample across its footprint. Formulas are taken
// from the original filter kernels (box/gauss/mitchell/lanczos2) and the
// half-width scaling/table-size constants from the image film constructor
// that builds this table once per render.
package filter

import "math"

// Kind selects which reconstruction kernel Build uses.
type Kind int

const (
	Box Kind = iota
	Gauss
	Mitchell
	Lanczos2
)

func (k Kind) String() string {
	switch k {
	case Box:
		return "box"
	case Gauss:
		return "gauss"
	case Mitchell:
		return "mitchell"
	case Lanczos2:
		return "lanczos2"
	default:
		return "unknown"
	}
}

// Size is the fixed resolution of the precomputed weight table (FT in the
// data model).
const Size = 16

// MaxFilterSize bounds the effective half-width; no filter's support may
// exceed MaxFilterSize/2 pixels in either direction.
const MaxFilterSize = 8.0

const gaussExp = 0.00247875

func boxFunc(dx, dy float64) float64 { return 1 }

func gaussFunc(dx, dy float64) float64 {
	r2 := dx*dx + dy*dy
	return math.Max(0, math.Exp(-6*r2)-gaussExp)
}

func lanczos2Func(dx, dy float64) float64 {
	x := math.Sqrt(dx*dx + dy*dy)
	if x == 0 {
		return 1
	}
	if x > -2 && x < 2 {
		a := math.Pi * x
		b := (math.Pi / 2) * x
		return (math.Sin(a) * math.Sin(b)) / (a * b)
	}
	return 0
}

// Mitchell-Netravali constants for B = C = 1/3.
const (
	mnA1 = -0.38888889
	mnB1 = 2.0
	mnC1 = -3.33333333
	mnD1 = 1.77777778

	mnA2 = 1.16666666
	mnB2 = -2.0
	mnC2 = 0.88888889
)

func mitchellFunc(dx, dy float64) float64 {
	x := 2 * math.Sqrt(dx*dx+dy*dy)
	if x >= 2 {
		return 0
	}
	if x >= 1 {
		return x*(x*(x*mnA1+mnB1)+mnC1) + mnD1
	}
	return x*x*(mnA2*x+mnB2) + mnC2
}

func funcFor(k Kind) func(dx, dy float64) float64 {
	switch k {
	case Gauss:
		return gaussFunc
	case Mitchell:
		return mitchellFunc
	case Lanczos2:
		return lanczos2Func
	default:
		return boxFunc
	}
}

// Table is an immutable, precomputed separable filter weight table, built
// once per render and shared read-only across every tile worker.
type Table struct {
	kind       Kind
	halfWidth  float64 // "filterw_" in pixels
	tableScale float64
	weights    [Size * Size]float64
}

// Build constructs the weight table for kind at widthInPixels (the
// configured filter size, before per-kind scaling). The effective
// half-width is scaled per kind (gauss doubled, mitchell scaled by 2.6,
// lanczos/box left alone) and then clamped to [0.501, MaxFilterSize/2] so
// the filter always covers at least one pixel and never more than the
// table can represent.
func Build(kind Kind, widthInPixels float64) *Table {
	halfWidth := widthInPixels * 0.5
	switch kind {
	case Mitchell:
		halfWidth *= 2.6
	case Gauss:
		halfWidth *= 2.0
	}
	if halfWidth < 0.501 {
		halfWidth = 0.501
	}
	if max := MaxFilterSize / 2; halfWidth > max {
		halfWidth = max
	}

	t := &Table{kind: kind, halfWidth: halfWidth}
	t.tableScale = 0.9999 * Size / halfWidth

	f := funcFor(kind)
	scale := 1.0 / Size
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			t.weights[y*Size+x] = f((float64(x)+0.5)*scale, (float64(y)+0.5)*scale)
		}
	}
	return t
}

// HalfWidth returns the effective filter half-width in pixels, used by the
// film to compute each sample's footprint and by the tile splitter to
// compute the halo each tile must reserve.
func (t *Table) HalfWidth() float64 { return t.halfWidth }

func (t *Table) Kind() Kind { return t.kind }

// index maps a signed pixel-relative offset into the table's bin along one
// axis, mirroring the image film's own lookup: scale by tableScale, take
// the absolute value, floor.
func (t *Table) index(offset float64) int {
	d := math.Abs(offset * t.tableScale)
	i := int(math.Floor(d))
	if i >= Size {
		i = Size - 1
	}
	return i
}

// Weight returns the precomputed weight for a sample whose centre lies
// (dx, dy) pixels away from the pixel being queried.
func (t *Table) Weight(dx, dy float64) float64 {
	xi := t.index(dx)
	yi := t.index(dy)
	return t.weights[yi*Size+xi]
}

// IndexX / IndexY expose the raw bin lookups for callers (the film) that
// need to precompute a run of indices across a filter footprint, matching
// the image film's own x_index/y_index precomputation in AddSample.
func (t *Table) IndexX(offset float64) int { return t.index(offset) }
func (t *Table) IndexY(offset float64) int { return t.index(offset) }

// WeightFromIndex looks up a weight directly from a pair of precomputed
// bin indices, avoiding repeated index() calls when a caller (the film's
// AddSample) has already precomputed a run of x/y indices across a
// footprint.
func (t *Table) WeightFromIndex(xi, yi int) float64 {
	return t.weights[yi*Size+xi]
}
