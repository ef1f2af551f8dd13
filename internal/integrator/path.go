package integrator

import (
	"math"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/layer"
	"github.com/cwbudde/lumenforge/internal/sampling"
)

// PathIntegrator is the path-tracing variant: next-event estimation with
// MIS at every hit, BSDF-sampled indirect bounces, Russian roulette after a
// minimum depth, and per-bounce indirect clamping.
type PathIntegrator struct {
	Params Params
}

func (pi *PathIntegrator) Integrate(ctx Context) Result {
	return pi.trace(ctx, core.NewRgb(1, 1, 1), 0)
}

// trace walks one path. sampleIndex is passed unchanged through the
// recursion to Russian roulette, which skips termination while sampleIndex
// is below RussianRouletteMinSamples. Integrate always starts it at 0
// (Context carries no per-pixel sample index), so with
// RussianRouletteMinSamples > 0 roulette never terminates a path.
func (pi *PathIntegrator) trace(ctx Context, throughput core.Rgba, sampleIndex int) Result {
	out := make(map[layer.Kind]core.Rgba)

	if ctx.Depth <= 0 {
		return Result{Color: core.Black, Alpha: 0, Layers: out}
	}

	terminate, compensation := russianRoulette(pi.Params, ctx.Depth, sampleIndex, throughput, ctx.RNG)
	if terminate {
		return Result{Color: core.Black, Alpha: 0, Layers: out}
	}

	hit, ok := ctx.View.Accelerator.Intersect(ctx.Ray)
	if !ok {
		bg := core.Black
		alpha := 1.0
		if ctx.View.Background != nil {
			bg = ctx.View.Background.Eval(ctx.Ray.Dir, true)
			if ctx.View.Background.Transparent() && (ctx.Depth == pi.Params.MaxDepth || pi.Params.TransparentRefractedBackground) {
				alpha = 0
			}
		}
		setLayer(out, layer.Env, bg)
		return Result{Color: bg.Scale(compensation), Alpha: alpha, Layers: out}
	}

	mat := hit.Material
	flags := mat.InitBsdf(&hit)
	wo := ctx.Ray.Dir.Neg()

	emitted := mat.Emission(&hit, wo)
	colour := emitted
	alpha := mat.Alpha(&hit, wo)

	direct := pi.directLighting(ctx, hit, wo, flags)
	colour = colour.Add(direct)

	if ctx.Depth > 1 {
		indirect := pi.indirectLighting(ctx, hit, wo, flags, throughput, sampleIndex)
		colour = colour.Add(indirect)
	}

	pi.applyLayerSideEffects(ctx, hit, wo, flags, out)

	colour, alpha = evalVolume(ctx.View, ctx.Ray, colour, alpha, out)

	if pi.Params.AOSamples > 0 {
		ao := ambientOcclusion(ctx.View, hit, ctx.HaltonU, ctx.HaltonV, pi.Params.AOSamples, pi.Params.AODistance)
		setLayer(out, layer.AO, core.NewRgb(ao, ao, ao))
	}

	return Result{Color: colour.Scale(compensation), Alpha: alpha, Layers: out}
}

// directLighting samples one light via NEE and combines it with the BSDF
// value at that direction via the power heuristic, mirroring the df07 reference raytracer's
// calculateDirectLighting. Shared with DirectIntegrator, which needs the
// exact same single-sample NEE shape without the surrounding recursion.
func (pi *PathIntegrator) directLighting(ctx Context, hit core.SurfaceHit, wo core.Vec3, flags core.BsdfFlags) core.Rgba {
	return directLightingSingleSample(ctx, hit, wo, flags, pi.Params)
}

// indirectLighting samples a BSDF direction, recurses, and combines the
// result with the light side of MIS, mirroring calculateIndirectLighting.
func (pi *PathIntegrator) indirectLighting(ctx Context, hit core.SurfaceHit, wo core.Vec3, flags core.BsdfFlags, throughput core.Rgba, sampleIndex int) core.Rgba {
	u, v := ctx.RNG.Float64Pair()
	sample := hit.Material.Sample(&hit, wo, u, v)
	if sample.Pdf <= 0 {
		return core.Black
	}

	cosine := sample.Wi.Dot(hit.ShadingNormal)
	if cosine <= 0 {
		return core.Black
	}

	lightPdf := pi.lightPdfSum(ctx, hit.Point, sample.Wi)
	misWeight := 1.0
	if !flags.Has(core.BsdfSpecular) {
		misWeight = powerHeuristic(1, sample.Pdf, 1, lightPdf)
	}

	bias := shadowBias(ctx.View, hit.Point)
	nextRay := core.NewRay(hit.Point, sample.Wi, bias, math.Inf(1), ctx.Ray.Time)

	newThroughput := throughput.Mul(sample.Col).Scale(cosine / sample.Pdf)
	childCtx := ctx
	childCtx.Ray = nextRay
	childCtx.Depth = ctx.Depth - 1 - hit.Material.AdditionalDepth()

	child := pi.trace(childCtx, newThroughput, sampleIndex)
	incoming := child.Color

	contribution := sample.Col.Scale(cosine * misWeight / sample.Pdf).Mul(incoming)
	if pi.Params.ClampIndirect > 0 {
		contribution = contribution.ClampProportional(pi.Params.ClampIndirect)
	}
	return contribution
}

func (pi *PathIntegrator) lightPdfSum(ctx Context, p core.Point3, wi core.Vec3) float64 {
	lights := ctx.View.Lights
	if len(lights) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range lights {
		sum += l.Pdf(p, wi)
	}
	return sum / float64(len(lights))
}

// applyLayerSideEffects writes the debug/combine layers a primary-ray hit
// contributes: normals, UV, diffuse/glossy/trans split by which lobes the
// material exposes.
func (pi *PathIntegrator) applyLayerSideEffects(ctx Context, hit core.SurfaceHit, wo core.Vec3, flags core.BsdfFlags, out map[layer.Kind]core.Rgba) {
	if ctx.Depth != pi.Params.MaxDepth {
		return
	}
	setLayer(out, layer.NormalGeometric, core.NewRgb(hit.GeometricNormal.X, hit.GeometricNormal.Y, hit.GeometricNormal.Z))
	setLayer(out, layer.NormalShading, core.NewRgb(hit.ShadingNormal.X, hit.ShadingNormal.Y, hit.ShadingNormal.Z))
	setLayer(out, layer.UV, core.NewRgb(hit.U, hit.V, 0))

	direct := hit.Material.Eval(&hit, wo, hit.ShadingNormal, flags)
	switch {
	case flags.Has(core.BsdfDiffuse):
		addLayer(out, layer.DiffuseColor, direct)
	case flags.Has(core.BsdfGlossy):
		addLayer(out, layer.GlossyColor, direct)
	case flags.Has(core.BsdfTransmit):
		addLayer(out, layer.TransColor, direct)
	}

	setLayer(out, layer.ZDepthAbs, core.NewRgb(hit.RayLength, hit.RayLength, hit.RayLength))
	setLayer(out, layer.ZDepthNorm, core.NewRgb(hit.RayLength, hit.RayLength, hit.RayLength))

	if hit.Object != nil {
		id := hit.Object.ID()
		fid := float64(id)
		setLayer(out, layer.ObjectIndexAbs, core.NewRgb(fid, fid, fid))
		norm := normalizedIndex(id, ctx.View.HighestObjectIndex)
		setLayer(out, layer.ObjectIndexNorm, core.NewRgb(norm, norm, norm))
		setLayer(out, layer.ObjectIndexAuto, autoIndexColor(id))
		if id == pi.Params.MaskObjectIndex {
			setLayer(out, layer.ObjectIndexMask, core.NewRgb(1, 1, 1))
		} else {
			setLayer(out, layer.ObjectIndexMask, core.Black)
		}
	}

	matID := hit.Material.Index()
	fmatID := float64(matID)
	setLayer(out, layer.MaterialIndexAbs, core.NewRgb(fmatID, fmatID, fmatID))
	matNorm := normalizedIndex(matID, ctx.View.HighestMaterialIndex)
	setLayer(out, layer.MaterialIndexNorm, core.NewRgb(matNorm, matNorm, matNorm))
	setLayer(out, layer.MaterialIndexAuto, autoIndexColor(matID))
	if matID == pi.Params.MaskMaterialIndex {
		setLayer(out, layer.MaterialIndexMask, core.NewRgb(1, 1, 1))
	} else {
		setLayer(out, layer.MaterialIndexMask, core.Black)
	}
}

// normalizedIndex divides an index by the scene-wide highest index seen for
// its kind, the same role getNormObjectIndex/getNormMaterialIndex play in
// the original; an unconfigured (<=0) highest falls back to 1, so the norm
// layer degenerates to the abs layer rather than dividing by zero.
func normalizedIndex(id, highest int) float64 {
	if highest <= 0 {
		highest = 1
	}
	return float64(id) / float64(highest)
}

// autoIndexColor derives a stable, visually-distinct colour from an index
// via the same per-cell hash the tile worker uses to decorrelate sampling
// offsets, standing in for the original's srand(index)-seeded auto colour.
func autoIndexColor(id int) core.Rgba {
	r := float64(sampling.PixelOffset(id, 1)%256) / 255
	g := float64(sampling.PixelOffset(id, 2)%256) / 255
	b := float64(sampling.PixelOffset(id, 3)%256) / 255
	return core.NewRgb(r, g, b)
}
