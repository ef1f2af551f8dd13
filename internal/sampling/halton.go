// Package sampling provides the low-discrepancy sequences, per-pixel
// scrambling hash and per-thread RNG that give the renderer its
// determinism property: identical inputs and thread count reproduce
// bit-identical images.
package sampling

// primes holds the first bases used for multi-dimensional Halton sampling
// (lens u/v and beyond); the core only needs 2, 3 and 5 per the data model.
var primes = [...]int{2, 3, 5}

// Halton computes the radical-inverse-in-base-b digit-reversal sequence at
// index i. This is the standard construction: successively peel the
// least-significant base-b digit off i and accumulate it into the result
// divided by an increasing power of b.
func Halton(base int, i uint64) float64 {
	invBase := 1.0 / float64(base)
	f := invBase
	r := 0.0
	for i > 0 {
		r += f * float64(i%uint64(base))
		i /= uint64(base)
		f *= invBase
	}
	return r
}

// HaltonDim returns the Halton sequence using the dim-th prime base (0 ->
// base 2, 1 -> base 3, 2 -> base 5), matching the (bases 2,3,5) the data
// model calls for.
func HaltonDim(dim int, i uint64) float64 {
	return Halton(primes[dim%len(primes)], i)
}

// LensPair returns the (u, v) Halton pair used for aperture sampling,
// offset by a per-pixel scramble so different pixels don't share the exact
// same lens sample sequence.
func LensPair(index, scramble uint64) (float64, float64) {
	u := Halton(2, index+scramble)
	v := Halton(3, index+scramble)
	return u, v
}
