package core

// SurfaceHit is the result of a successful accelerator intersection. The
// geometric and shading normals are stored exactly as the primitive
// reports them; face-forwarding them relative to the incoming ray is the
// integrator's responsibility, not this type's.
type SurfaceHit struct {
	Point            Point3
	GeometricNormal  Vec3
	ShadingNormal    Vec3
	U, V             float64
	TangentU         Vec3
	TangentV         Vec3
	Material         Material
	Object           Object
	Primitive        Primitive
	BaryU, BaryV, BaryW float64
	RayLength        float64
}

// Object identifies the owning scene object of a hit, independent of which
// material or primitive representation it uses internally.
type Object interface {
	ID() int
	Name() string
}

// Primitive is an opaque handle into the accelerator's own primitive
// storage; the core never dereferences it, only threads it back through
// SurfaceHit for material/light lookups that need it.
type Primitive interface {
	ID() int
}

// BsdfFlags is a bitset describing which lobes a material exposes at a
// given hit, gating which sampling/eval paths the integrator takes.
type BsdfFlags uint32

const (
	BsdfNone BsdfFlags = 0
	BsdfDiffuse BsdfFlags = 1 << iota
	BsdfGlossy
	BsdfSpecular
	BsdfReflect
	BsdfTransmit
	BsdfEmit
	BsdfVolumetric
)

func (f BsdfFlags) Has(bit BsdfFlags) bool { return f&bit != 0 }

// SpecularComponent is one perfect-specular direction (reflection or
// refraction) a material reports for delta-distribution handling.
type SpecularComponent struct {
	Reflect, Refract bool
	Dir              [2]Vec3
	Col              [2]Rgba
}

// SampleResult is what Material.Sample returns: an outgoing direction, the
// BSDF value at that direction (already divided by the sampling pdf where
// appropriate is NOT assumed; callers divide explicitly), and the pdf.
type SampleResult struct {
	Wi  Vec3
	Col Rgba
	Pdf float64
}

// Material is the evaluation contract the integrator consumes. Concrete
// BSDF models are external collaborators; this core only calls through the
// interface.
type Material interface {
	InitBsdf(hit *SurfaceHit) BsdfFlags
	Sample(hit *SurfaceHit, wo Vec3, u, v float64) SampleResult
	Eval(hit *SurfaceHit, wo, wi Vec3, flags BsdfFlags) Rgba
	Emission(hit *SurfaceHit, wo Vec3) Rgba
	Transparency(hit *SurfaceHit, wo Vec3) Rgba
	Alpha(hit *SurfaceHit, wo Vec3) float64
	SpecularComponents(hit *SurfaceHit, wo Vec3) []SpecularComponent
	AdditionalDepth() int
	// Index identifies the material for the material-index render layers,
	// independent of the object(s) it is assigned to.
	Index() int
}

// Light is a scene emitter consulted by next-event estimation.
type Light interface {
	// SampleIllumination picks a point on the light visible from p and
	// returns the direction to it, the unoccluded radiance, the distance
	// to clip shadow rays at, and the pdf of that direction under solid
	// angle measure.
	SampleIllumination(p Point3, u, v float64) (wi Vec3, col Rgba, dist float64, pdf float64)
	// Pdf returns the solid-angle pdf of sampling direction wi from p,
	// used by the light side of multiple importance sampling.
	Pdf(p Point3, wi Vec3) float64
	IsDelta() bool
}

// Background evaluates environment radiance for rays that miss all
// geometry.
type Background interface {
	Eval(dir Vec3, useIblBlur bool) Rgba
	HasIbl() bool
	ShootsCaustic() bool
	// Transparent reports whether misses should carry alpha 0 instead of
	// alpha 1 (opaque).
	Transparent() bool
}

// CameraRay is what Camera.ShootRay returns: the generated ray and whether
// it actually samples a point on the image (false for out-of-circle
// fisheye-style projections, for example).
type CameraRay struct {
	Ray   Ray
	Valid bool
}

// Camera is the projection contract the tile worker consumes.
type Camera interface {
	ShootRay(px, py, lensU, lensV float64) CameraRay
	SamplesLens() bool
	ResX() int
	ResY() int
	NearClip() float64
	FarClip() float64
}

// Accelerator answers intersection and occlusion queries over a fixed
// primitive set. Implementations may build multi-threaded but must answer
// queries reentrantly.
type Accelerator interface {
	Intersect(ray Ray) (SurfaceHit, bool)
	IsShadowed(ray Ray, bias float64) bool
	// IsShadowedTransparent returns whether the ray is occluded by any
	// opaque surface, and the product of transparencies of any
	// transparent surfaces it passed through along the way (Rgb, alpha
	// unused).
	IsShadowedTransparent(ray Ray, maxDepth int, bias float64) (bool, Rgba)
}

// Volume is the participating-media contract consulted after the surface
// contribution at a hit is known.
type Volume interface {
	Transmittance(ray Ray) Rgba
	Integrate(ray Ray) Rgba
}
