// Package layer defines the fixed-domain set of output channel kinds a film
// can accumulate, and the flag groups that gate integrator work cheaply.
//
// Only the namespaced/current spelling from the upstream layer-kind table is
// implemented; an older, differently-spelled enum also exists in the
// original source but is treated as obsolete, matching the spec's
// resolution of that ambiguity.
package layer

// Group is a cheap bitset the integrator checks before doing any
// layer-specific work, so that disabled layer families cost nothing.
type Group uint32

const (
	GroupBasic Group = 1 << iota
	GroupDepth
	GroupDiffuse
	GroupIndex
	GroupDebug
)

// Kind enumerates every channel a film can hold.
type Kind int

const (
	Combined Kind = iota
	Env // the background/environment debug layer, always populated on miss

	ZDepthNorm
	ZDepthAbs

	NormalGeometric
	NormalShading
	UV

	DiffuseDirect
	DiffuseIndirect
	DiffuseColor
	GlossyDirect
	GlossyIndirect
	GlossyColor
	TransDirect
	TransIndirect
	TransColor

	ObjectIndexAbs
	ObjectIndexNorm
	ObjectIndexAuto
	ObjectIndexMask
	MaterialIndexAbs
	MaterialIndexNorm
	MaterialIndexAuto
	MaterialIndexMask

	AO

	AASamples

	DebugDpDx
	DebugDpDy
	DebugDuDx
	DebugDvDx

	VolumeTransmittance
	VolumeIntegration

	Toon
	ObjectEdge
	FaceEdge

	DebugSamplingFactor

	numKinds
)

// groupOf maps every kind to its flag group. Combined/Env are basic; used by
// the worker/integrator to decide which accumulations are worth computing.
var groupOf = map[Kind]Group{
	Combined: GroupBasic,
	Env:      GroupBasic,
	AASamples: GroupBasic,

	ZDepthNorm: GroupDepth,
	ZDepthAbs:  GroupDepth,

	NormalGeometric: GroupBasic,
	NormalShading:   GroupBasic,
	UV:              GroupBasic,

	DiffuseDirect:   GroupDiffuse,
	DiffuseIndirect: GroupDiffuse,
	DiffuseColor:    GroupDiffuse,
	GlossyDirect:    GroupDiffuse,
	GlossyIndirect:  GroupDiffuse,
	GlossyColor:     GroupDiffuse,
	TransDirect:     GroupDiffuse,
	TransIndirect:   GroupDiffuse,
	TransColor:      GroupDiffuse,

	ObjectIndexAbs:    GroupIndex,
	ObjectIndexNorm:   GroupIndex,
	ObjectIndexAuto:   GroupIndex,
	ObjectIndexMask:   GroupIndex,
	MaterialIndexAbs:  GroupIndex,
	MaterialIndexNorm: GroupIndex,
	MaterialIndexAuto: GroupIndex,
	MaterialIndexMask: GroupIndex,

	AO: GroupBasic,

	DebugDpDx: GroupDebug,
	DebugDpDy: GroupDebug,
	DebugDuDx: GroupDebug,
	DebugDvDx: GroupDebug,

	VolumeTransmittance: GroupBasic,
	VolumeIntegration:   GroupBasic,

	Toon:      GroupDebug,
	ObjectEdge: GroupDebug,
	FaceEdge:   GroupDebug,

	DebugSamplingFactor: GroupDebug,
}

// Group returns the flag group a kind belongs to.
func (k Kind) Group() Group { return groupOf[k] }

// IsMask reports whether a kind is one of the index-mask layers, which get
// the "clamp to [0,1] / ceil" post-rule on flush instead of normal
// normalisation.
func (k Kind) IsMask() bool {
	return k == ObjectIndexMask || k == MaterialIndexMask
}

// IsDepth reports whether a kind is one of the z-depth layers. Of these,
// only ZDepthNorm is rescaled on flush by the scene-wide min/max depth
// computed by the near/far precalc pass; ZDepthAbs keeps raw depth.
func (k Kind) IsDepth() bool {
	return k == ZDepthNorm || k == ZDepthAbs
}

// Set is the fixed-domain collection of layers a film has registered,
// in registration order (the order layers appear in the binary file
// format and in exported-image iteration).
type Set struct {
	order []Kind
	index map[Kind]int
}

// NewSet builds a layer set from kinds in the given order, deduplicating
// repeats. Combined is implicitly first if not already present, since every
// film accumulates it for the adaptive-sampling decision regardless of
// which layers the caller asked to export.
func NewSet(kinds ...Kind) *Set {
	s := &Set{index: make(map[Kind]int)}
	s.add(Combined)
	for _, k := range kinds {
		s.add(k)
	}
	return s
}

func (s *Set) add(k Kind) {
	if _, ok := s.index[k]; ok {
		return
	}
	s.index[k] = len(s.order)
	s.order = append(s.order, k)
}

// Kinds returns the registered kinds in registration order.
func (s *Set) Kinds() []Kind { return s.order }

// Has reports whether kind k is registered.
func (s *Set) Has(k Kind) bool {
	_, ok := s.index[k]
	return ok
}

// IndexOf returns k's position in registration order, or -1 if absent.
func (s *Set) IndexOf(k Kind) int {
	if i, ok := s.index[k]; ok {
		return i
	}
	return -1
}

// HasGroup reports whether any registered layer belongs to group g, the
// cheap gate the integrator checks before doing group-specific work.
func (s *Set) HasGroup(g Group) bool {
	for _, k := range s.order {
		if k.Group()&g != 0 {
			return true
		}
	}
	return false
}

func (s *Set) Len() int { return len(s.order) }
