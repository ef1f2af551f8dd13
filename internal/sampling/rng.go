package sampling

// RNG is a cheap counter-based pseudo-random generator. Unlike a stateful
// stream RNG, it is reseeded from the exact tuple of indices that identify
// a sample's position in the render (pass, tile, pixel, sample-in-pixel),
// which is what gives the renderer bit-identical reproducibility for a
// fixed thread count: any worker asked to redo a given sample produces the
// same stream regardless of what else it has generated before.
type RNG struct {
	state uint64
}

// Seed derives an RNG seeded from the five indices the design notes call
// out: pass, tile x/y, pixel index and sample index.
func Seed(pass, tileX, tileY, pixelIndex, sampleIndex int) RNG {
	h := splitmix64(uint64(pass))
	h = splitmix64(h ^ uint64(uint32(tileX)))
	h = splitmix64(h ^ uint64(uint32(tileY)))
	h = splitmix64(h ^ uint64(uint32(pixelIndex)))
	h = splitmix64(h ^ uint64(uint32(sampleIndex)))
	return RNG{state: h}
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Next advances the generator and returns the next raw 64-bit output.
func (r *RNG) Next() uint64 {
	r.state = splitmix64(r.state)
	return r.state
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Next()>>11) / (1 << 53)
}

// Float64Pair is a convenience for the common (u, v) sampling pattern.
func (r *RNG) Float64Pair() (float64, float64) {
	return r.Float64(), r.Float64()
}
