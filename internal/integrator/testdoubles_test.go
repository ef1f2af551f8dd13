package integrator

import (
	"math"

	"github.com/cwbudde/lumenforge/internal/core"
)

// singleHitAccelerator returns the same configured hit (or miss, when
// hasHit is false) for every ray and reports every shadow ray as blocked
// or clear according to shadowed, letting tests drive the integrator's
// single-bounce behaviour deterministically.
type singleHitAccelerator struct {
	hit      core.SurfaceHit
	hasHit   bool
	shadowed bool
}

func (a singleHitAccelerator) Intersect(ray core.Ray) (core.SurfaceHit, bool) {
	return a.hit, a.hasHit
}
func (a singleHitAccelerator) IsShadowed(ray core.Ray, bias float64) bool { return a.shadowed }
func (a singleHitAccelerator) IsShadowedTransparent(ray core.Ray, maxDepth int, bias float64) (bool, core.Rgba) {
	if a.shadowed {
		return true, core.Black
	}
	return false, core.NewRgb(1, 1, 1)
}

// lambertMaterial is a minimal diffuse BSDF test double: constant albedo,
// cosine-weighted sampling, no emission, no specular components.
type lambertMaterial struct {
	albedo core.Rgba
}

func (m lambertMaterial) InitBsdf(hit *core.SurfaceHit) core.BsdfFlags {
	return core.BsdfDiffuse | core.BsdfReflect
}

func (m lambertMaterial) Sample(hit *core.SurfaceHit, wo core.Vec3, u, v float64) core.SampleResult {
	n := hit.ShadingNormal
	t, b := orthonormalBasis(n)
	wi := cosineSampleHemisphere(u, v, t, b, n)
	pdf := wi.Dot(n) / math.Pi
	return core.SampleResult{Wi: wi, Col: m.albedo.Scale(1 / math.Pi), Pdf: pdf}
}

func (m lambertMaterial) Eval(hit *core.SurfaceHit, wo, wi core.Vec3, flags core.BsdfFlags) core.Rgba {
	return m.albedo.Scale(1 / math.Pi)
}

func (m lambertMaterial) Emission(hit *core.SurfaceHit, wo core.Vec3) core.Rgba { return core.Black }
func (m lambertMaterial) Transparency(hit *core.SurfaceHit, wo core.Vec3) core.Rgba {
	return core.Black
}
func (m lambertMaterial) Alpha(hit *core.SurfaceHit, wo core.Vec3) float64 { return 1 }
func (m lambertMaterial) SpecularComponents(hit *core.SurfaceHit, wo core.Vec3) []core.SpecularComponent {
	return nil
}
func (m lambertMaterial) AdditionalDepth() int { return 0 }
func (m lambertMaterial) Index() int           { return 0 }

// pointLight test double: a delta light at a fixed position with constant
// intensity, falling off by inverse-square distance.
type pointLight struct {
	pos       core.Point3
	intensity core.Rgba
}

func (l pointLight) SampleIllumination(p core.Point3, u, v float64) (wi core.Vec3, col core.Rgba, dist float64, pdf float64) {
	d := l.pos.Sub(p)
	dist = d.Length()
	if dist == 0 {
		return core.Vec3{}, core.Black, 0, 0
	}
	wi = d.Normalized()
	falloff := 1 / (dist * dist)
	return wi, l.intensity.Scale(falloff), dist, 1
}

func (l pointLight) Pdf(p core.Point3, wi core.Vec3) float64 { return 0 }
func (l pointLight) IsDelta() bool                           { return true }

type flatTestBackground struct {
	color       core.Rgba
	transparent bool
}

func (b flatTestBackground) Eval(dir core.Vec3, useIblBlur bool) core.Rgba { return b.color }
func (b flatTestBackground) HasIbl() bool                                 { return false }
func (b flatTestBackground) ShootsCaustic() bool                          { return false }
func (b flatTestBackground) Transparent() bool                            { return b.transparent }

type testObject struct{ id int }

func (o testObject) ID() int        { return o.id }
func (o testObject) Name() string   { return "test" }
