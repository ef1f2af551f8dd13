// Package core provides the leaf value types shared by every rendering
// package: colour, vectors, points, rays and bounds. All arithmetic here is
// pure and allocation-free; nothing in this package touches goroutines,
// files or the scene graph.
package core

import "math"

// Rec.709 luminance weights, used by Luminance and the variance estimator.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// Rgba is a linear-light colour sample with alpha. All core arithmetic stays
// in this linear domain; encoding/decoding to display or file colour spaces
// happens only at I/O boundaries outside this package.
type Rgba struct {
	R, G, B, A float64
}

// Black is the zero colour, fully transparent.
var Black = Rgba{}

func NewRgb(r, g, b float64) Rgba   { return Rgba{R: r, G: g, B: b, A: 1} }
func NewRgba(r, g, b, a float64) Rgba { return Rgba{R: r, G: g, B: b, A: a} }

func (c Rgba) Add(o Rgba) Rgba {
	return Rgba{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}

func (c Rgba) Sub(o Rgba) Rgba {
	return Rgba{c.R - o.R, c.G - o.G, c.B - o.B, c.A - o.A}
}

func (c Rgba) Mul(o Rgba) Rgba {
	return Rgba{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

func (c Rgba) Scale(s float64) Rgba {
	return Rgba{c.R * s, c.G * s, c.B * s, c.A * s}
}

// Normalized divides the accumulated colour by a film weight, returning the
// unconverged sentinel (black, alpha 0) when weight is non-positive.
func (c Rgba) Normalized(weight float64) Rgba {
	if weight <= 0 {
		return Black
	}
	inv := 1 / weight
	return c.Scale(inv)
}

// Luminance is the Rec.709 weighted brightness, used for dark-threshold
// scaling and the sample-factor layer.
func (c Rgba) Luminance() float64 {
	return lumR*c.R + lumG*c.G + lumB*c.B
}

// ClampRgbZero clamps negative channel values to zero, leaving alpha alone.
func (c Rgba) ClampRgbZero() Rgba {
	return Rgba{math.Max(0, c.R), math.Max(0, c.G), math.Max(0, c.B), c.A}
}

// ClampProportional scales all three channels down together so the brightest
// channel does not exceed max, preserving hue. max <= 0 disables clamping.
func (c Rgba) ClampProportional(max float64) Rgba {
	if max <= 0 {
		return c
	}
	peak := math.Max(c.R, math.Max(c.G, c.B))
	if peak <= max {
		return c
	}
	s := max / peak
	return Rgba{c.R * s, c.G * s, c.B * s, c.A}
}

// ColorDifference estimates perceptual distance between two normalised
// colours for adaptive-sampling decisions. The luminance difference is
// always the floor; when useColour is true the per-channel (including
// alpha) absolute differences are folded in too, so chromatic or
// alpha-only noise that leaves luminance unchanged still registers.
func (c Rgba) ColorDifference(o Rgba, useColour bool) float64 {
	diff := math.Abs(c.Luminance() - o.Luminance())
	if !useColour {
		return diff
	}
	dr := math.Abs(c.R - o.R)
	dg := math.Abs(c.G - o.G)
	db := math.Abs(c.B - o.B)
	da := math.Abs(c.A - o.A)
	diff = math.Max(diff, dr)
	diff = math.Max(diff, dg)
	diff = math.Max(diff, db)
	diff = math.Max(diff, da)
	return diff
}
