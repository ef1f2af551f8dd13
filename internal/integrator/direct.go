package integrator

import (
	"math"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/layer"
)

// DirectIntegrator is the cheap preview variant: intersection, emission and
// one next-event-estimation sample at the first hit only, no recursion. It
// is an alternative value for render.Config.Integrator; the driver uses
// that one integrator for every pass and never switches variants itself.
type DirectIntegrator struct {
	Params Params
}

func (di *DirectIntegrator) Integrate(ctx Context) Result {
	out := make(map[layer.Kind]core.Rgba)

	hit, ok := ctx.View.Accelerator.Intersect(ctx.Ray)
	if !ok {
		bg := core.Black
		alpha := 1.0
		if ctx.View.Background != nil {
			bg = ctx.View.Background.Eval(ctx.Ray.Dir, true)
			if ctx.View.Background.Transparent() {
				alpha = 0
			}
		}
		setLayer(out, layer.Env, bg)
		return Result{Color: bg, Alpha: alpha, Layers: out}
	}

	mat := hit.Material
	flags := mat.InitBsdf(&hit)
	wo := ctx.Ray.Dir.Neg()

	colour := mat.Emission(&hit, wo)
	colour = colour.Add(directLightingSingleSample(ctx, hit, wo, flags, di.Params))

	colour, alpha := evalVolume(ctx.View, ctx.Ray, colour, mat.Alpha(&hit, wo), out)

	setLayer(out, layer.NormalShading, core.NewRgb(hit.ShadingNormal.X, hit.ShadingNormal.Y, hit.ShadingNormal.Z))

	return Result{Color: colour, Alpha: alpha, Layers: out}
}

// directLightingSingleSample is the same NEE+MIS shape PathIntegrator uses,
// factored out so the preview variant doesn't need the full recursive
// integrator to exercise it.
func directLightingSingleSample(ctx Context, hit core.SurfaceHit, wo core.Vec3, flags core.BsdfFlags, p Params) core.Rgba {
	lights := ctx.View.Lights
	if len(lights) == 0 {
		return core.Black
	}
	idx := int(ctx.RNG.Float64() * float64(len(lights)))
	if idx >= len(lights) {
		idx = len(lights) - 1
	}
	light := lights[idx]
	lightSelectPdf := 1.0 / float64(len(lights))

	u, v := ctx.RNG.Float64Pair()
	wi, emission, dist, pdf := light.SampleIllumination(hit.Point, u, v)
	if pdf <= 0 {
		return core.Black
	}
	pdf *= lightSelectPdf

	cosine := wi.Dot(hit.ShadingNormal)
	if cosine <= 0 {
		return core.Black
	}

	bias := shadowBias(ctx.View, hit.Point)
	shadowRay := core.NewRay(hit.Point, wi, bias, dist-bias, ctx.Ray.Time)
	if p.TransparentShadows {
		blocked, trans := ctx.View.Accelerator.IsShadowedTransparent(shadowRay, p.TransparentMaxDepth, bias)
		if blocked {
			return core.Black
		}
		brdf := hit.Material.Eval(&hit, wo, wi, flags)
		return brdf.Mul(emission).Mul(trans).Scale(cosine / pdf)
	}
	if ctx.View.Accelerator.IsShadowed(shadowRay, bias) {
		return core.Black
	}
	brdf := hit.Material.Eval(&hit, wo, wi, flags)
	matPdf := cosine / math.Pi
	misWeight := 1.0
	if !light.IsDelta() {
		misWeight = powerHeuristic(1, pdf, 1, matPdf*lightSelectPdf)
	}
	return brdf.Mul(emission).Scale(cosine * misWeight / pdf)
}
