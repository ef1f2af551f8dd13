// Package integrator implements the surface integrator loop: given a
// primary ray, it walks the scene and returns the radiance and alpha that
// should be deposited into the film's layers for that ray.
//
// The shared contract every variant obeys (intersection, depth bookkeeping,
// shadow-ray bias, volume hook, layer side-effects) lives in this file;
// concrete variants (path tracer, direct-lighting preview) supply only the
// direct/indirect lighting strategy.
package integrator

import (
	"math"

	"github.com/cwbudde/lumenforge/internal/core"
	"github.com/cwbudde/lumenforge/internal/layer"
	"github.com/cwbudde/lumenforge/internal/sampling"
	"github.com/cwbudde/lumenforge/internal/scene"
)

// Context carries everything one Integrate call needs: the scene view, the
// ray to trace, the RNG for this sample, the pixel's Halton pair (for AO
// and lens-style cosine sampling), and the remaining recursion budget.
type Context struct {
	View       *scene.View
	Ray        core.Ray
	RNG        *sampling.RNG
	HaltonU    float64
	HaltonV    float64
	Depth      int
	Chromatic  bool
	Wavelength float64
}

// Result is what Integrate returns: the radiance for this ray and its
// alpha, plus the per-layer side-effect values the worker should merge into
// the sample it hands to film.AddSample. Layers not touched by a given hit
// (or miss) are simply absent from the map.
type Result struct {
	Color  core.Rgba
	Alpha  float64
	Layers map[layer.Kind]core.Rgba
}

// Integrator is the shared contract every surface-integration strategy
// implements.
type Integrator interface {
	Integrate(ctx Context) Result
}

// Params bundles the tunables every concrete integrator shares: Russian
// roulette thresholds, the indirect-radiance clamp, and AO sample count and
// reach.
type Params struct {
	MaxDepth int

	RussianRouletteMinBounces int
	RussianRouletteMinSamples int

	ClampIndirect float64

	TransparentShadows  bool
	TransparentMaxDepth int

	// TransparentRefractedBackground lets a transparent background show
	// through a refracted or reflected secondary ray too, not just the
	// camera's primary ray.
	TransparentRefractedBackground bool

	// MaskObjectIndex/MaskMaterialIndex select which index the
	// ObjectIndexMask/MaterialIndexMask layers isolate; 0 matches
	// unindexed objects/materials, mirroring their zero-value default.
	MaskObjectIndex   int
	MaskMaterialIndex int

	AOSamples  int
	AODistance float64
}

func setLayer(dst map[layer.Kind]core.Rgba, k layer.Kind, v core.Rgba) {
	if dst == nil {
		return
	}
	dst[k] = v
}

func addLayer(dst map[layer.Kind]core.Rgba, k layer.Kind, v core.Rgba) {
	if dst == nil {
		return
	}
	dst[k] = dst[k].Add(v)
}

// shadowBias resolves the scene's configured self-shadow bias at a hit
// point, per the auto-floor-or-scaled-constant rule.
func shadowBias(v *scene.View, p core.Point3) float64 {
	return v.ShadowBiasAt(p)
}

// powerHeuristic is the standard beta=2 multiple-importance-sampling
// weight: (nf*fPdf)^2 / ((nf*fPdf)^2 + (ng*gPdf)^2).
func powerHeuristic(nf int, fPdf float64, ng int, gPdf float64) float64 {
	f := float64(nf) * fPdf
	g := float64(ng) * gPdf
	if f+g == 0 {
		return 0
	}
	return (f * f) / (f*f + g*g)
}

// russianRoulette decides whether to terminate a path and what compensation
// factor to apply to whatever radiance survives. It mirrors the
// energy-conserving scheme: survival probability is clamped to [0.5, 0.95]
// and driven by the luminance of the current throughput, only kicking in
// once both a minimum bounce count and a minimum sample index have been
// reached (protecting early, cheap samples from roulette noise).
func russianRoulette(p Params, depth, sampleIndex int, throughput core.Rgba, rng *sampling.RNG) (terminate bool, compensation float64) {
	bounce := p.MaxDepth - depth
	if bounce < p.RussianRouletteMinBounces || sampleIndex < p.RussianRouletteMinSamples {
		return false, 1.0
	}
	survival := math.Min(0.95, math.Max(0.5, throughput.Luminance()))
	if rng.Float64() > survival {
		return true, 0
	}
	return false, 1.0 / survival
}

// evalVolume applies the configured volume's transmittance/inscatter to an
// already-resolved surface colour, writing the volume debug layers if
// present and raising alpha on partial transmittance when the background
// is marked transparent.
func evalVolume(v *scene.View, ray core.Ray, col core.Rgba, alpha float64, out map[layer.Kind]core.Rgba) (core.Rgba, float64) {
	if v.Volume == nil {
		return col, alpha
	}
	transmittance := v.Volume.Transmittance(ray)
	inscatter := v.Volume.Integrate(ray)
	setLayer(out, layer.VolumeTransmittance, transmittance)
	setLayer(out, layer.VolumeIntegration, inscatter)
	result := col.Mul(transmittance).Add(inscatter)
	if v.Background != nil && v.Background.Transparent() {
		alpha = math.Max(alpha, 1-transmittance.R)
	}
	return result, alpha
}

// ambientOcclusion estimates occlusion at a hit using a cosine-weighted
// hemisphere sample about the shading normal, driven by the pixel's Halton
// pair so AO noise correlates with the rest of the pixel's sampling
// pattern rather than adding an independent source of variance.
func ambientOcclusion(v *scene.View, hit core.SurfaceHit, haltonU, haltonV float64, n int, distance float64) float64 {
	if n <= 0 {
		return 1
	}
	normal := hit.ShadingNormal
	tangent, bitangent := orthonormalBasis(normal)
	visible := 0
	for i := 0; i < n; i++ {
		u := cranleyPatterson(sampling.Halton(2, uint64(i)+1), haltonU)
		w := cranleyPatterson(sampling.Halton(3, uint64(i)+1), haltonV)
		dir := cosineSampleHemisphere(u, w, tangent, bitangent, normal)
		ray := core.NewRay(hit.Point.Add(normal.Scale(1e-4)), dir, 1e-4, distance, 0)
		if !v.Accelerator.IsShadowed(ray, shadowBias(v, hit.Point)) {
			visible++
		}
	}
	return float64(visible) / float64(n)
}

// cranleyPatterson rotates a low-discrepancy sample by the pixel's own
// Halton offset (wrapping into [0,1)), so neighbouring pixels' AO estimates
// decorrelate instead of sharing the exact same hemisphere directions.
func cranleyPatterson(sample, shift float64) float64 {
	s := sample + shift
	return s - math.Floor(s)
}

func orthonormalBasis(n core.Vec3) (t, b core.Vec3) {
	var a core.Vec3
	if math.Abs(n.X) > 0.9 {
		a = core.Vec3{X: 0, Y: 1, Z: 0}
	} else {
		a = core.Vec3{X: 1, Y: 0, Z: 0}
	}
	t = a.Cross(n).Normalized()
	b = n.Cross(t)
	return t, b
}

func cosineSampleHemisphere(u, v float64, t, b, n core.Vec3) core.Vec3 {
	r := math.Sqrt(u)
	theta := 2 * math.Pi * v
	x := r * math.Cos(theta)
	y := r * math.Sin(theta)
	z := math.Sqrt(math.Max(0, 1-u))
	return t.Scale(x).Add(b.Scale(y)).Add(n.Scale(z)).Normalized()
}
