package sampling

// PixelData is the per-pixel context carried through the integrator: a
// value type, never shared between threads, matching the data model's
// "Pixel sampling data" entry exactly.
type PixelData struct {
	PixelIndex int
	Offset     uint32
	Sample     int
	Time       float64
}

// NewPixelData builds the per-pixel context for pixel (x,y) of an image
// resX wide, at sample index 0 and the given normalised frame time.
func NewPixelData(resX, x, y int, time float64) PixelData {
	return PixelData{
		PixelIndex: resX*y + x,
		Offset:     PixelOffset(x, y),
		Time:       time,
	}
}

// WithSample returns a copy of d for a specific sample-in-pixel index.
func (d PixelData) WithSample(sample int) PixelData {
	d.Sample = sample
	return d
}

// RayDivision tracks how many times the current path has been split for
// correlated multi-jittered sampling. The scheduler seeds new primary rays
// with Division=1, Offset=0, per the data model.
type RayDivision struct {
	Division int
	Offset   int
}

// NewRayDivision returns the scheduler's seed value for a fresh primary ray.
func NewRayDivision() RayDivision {
	return RayDivision{Division: 1, Offset: 0}
}

// Split returns the division state for one of n branches taken at a
// scattering event, each branch getting a distinct offset so their LDS
// draws stay decorrelated.
func (d RayDivision) Split(n, branch int) RayDivision {
	return RayDivision{
		Division: d.Division * n,
		Offset:   d.Offset*n + branch,
	}
}
