package render

import (
	"math"

	"github.com/cwbudde/lumenforge/internal/layer"
)

// precalcDepth rasterises one unshaded sample per pixel at the pixel
// centre to find the scene's min/max hit depth, used to normalise z-depth
// layer output. It only runs when a depth layer is actually registered and
// the camera hasn't already supplied its own far clip. With a camera far
// clip it returns (NearClip, FarClip) directly; with no depth layer, no
// camera or accelerator, or no hit at all it returns (0, 0), which Flush
// treats as "no depth range" per its own invRange guard.
func precalcDepth(cfg Config) (depthMin, depthMax float64) {
	if !cfg.Film.Layers().HasGroup(layer.GroupDepth) {
		return 0, 0
	}
	cam := cfg.View.Camera
	if cam == nil || cfg.View.Accelerator == nil {
		return 0, 0
	}
	if far := cam.FarClip(); far > 0 {
		return cam.NearClip(), far
	}

	min, max := math.Inf(1), math.Inf(-1)
	found := false
	w, h := cfg.Film.Width, cfg.Film.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			camRay := cam.ShootRay(float64(x)+0.5, float64(y)+0.5, 0.5, 0.5)
			if !camRay.Valid {
				continue
			}
			hit, ok := cfg.View.Accelerator.Intersect(camRay.Ray)
			if !ok {
				continue
			}
			found = true
			if hit.RayLength < min {
				min = hit.RayLength
			}
			if hit.RayLength > max {
				max = hit.RayLength
			}
		}
	}
	if !found {
		return 0, 0
	}
	return min, max
}
