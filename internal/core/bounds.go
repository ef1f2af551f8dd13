package core

import "math"

// Bounds3 is an axis-aligned bounding box, used by the scene-wide shadow
// bias calibration (diagonal length) and by test-double accelerators.
type Bounds3 struct {
	Min, Max Point3
}

// EmptyBounds3 returns an inverted box such that the first Union call with
// any point produces a correctly sized box.
func EmptyBounds3() Bounds3 {
	inf := math.Inf(1)
	return Bounds3{
		Min: Point3{inf, inf, inf},
		Max: Point3{-inf, -inf, -inf},
	}
}

func (b Bounds3) UnionPoint(p Point3) Bounds3 {
	return Bounds3{
		Min: Point3{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)},
		Max: Point3{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)},
	}
}

func (b Bounds3) Union(o Bounds3) Bounds3 {
	return b.UnionPoint(o.Min).UnionPoint(o.Max)
}

// Diagonal returns the box diagonal vector, used by the shadow-bias
// auto-floor calibration done once per render.
func (b Bounds3) Diagonal() Vec3 {
	return b.Max.Sub(b.Min)
}

func (b Bounds3) DiagonalLength() float64 {
	return b.Diagonal().Length()
}
