package scene

import "github.com/cwbudde/lumenforge/internal/core"

// FlatBackground is a minimal constant-colour Background, used by tests and
// by the black/constant-colour end-to-end scenarios.
type FlatBackground struct {
	Color       core.Rgba
	IsTransparent bool
}

func (b FlatBackground) Eval(dir core.Vec3, useIblBlur bool) core.Rgba { return b.Color }
func (b FlatBackground) HasIbl() bool                                 { return false }
func (b FlatBackground) ShootsCaustic() bool                          { return false }
func (b FlatBackground) Transparent() bool                            { return b.IsTransparent }

// EmptyAccelerator always misses; used by the black-render scenario and any
// test that only cares about background evaluation.
type EmptyAccelerator struct{}

func (EmptyAccelerator) Intersect(ray core.Ray) (core.SurfaceHit, bool) {
	return core.SurfaceHit{}, false
}
func (EmptyAccelerator) IsShadowed(ray core.Ray, bias float64) bool { return false }
func (EmptyAccelerator) IsShadowedTransparent(ray core.Ray, maxDepth int, bias float64) (bool, core.Rgba) {
	return false, core.Rgba{R: 1, G: 1, B: 1, A: 1}
}

// PinholeCamera is a minimal perspective camera with no lens sampling and
// no projection beyond mapping pixel coordinates linearly into a fixed
// image plane; good enough to exercise the worker/film path in tests
// without depending on a real projection implementation (out of core
// scope per the spec).
type PinholeCamera struct {
	Width, Height int
	Eye           core.Point3
	Forward       core.Vec3
	Up            core.Vec3
	Right         core.Vec3
	Near, Far     float64
}

func NewPinholeCamera(width, height int) *PinholeCamera {
	return &PinholeCamera{
		Width: width, Height: height,
		Eye:     core.Point3{X: 0, Y: 0, Z: -5},
		Forward: core.Vec3{X: 0, Y: 0, Z: 1},
		Up:      core.Vec3{X: 0, Y: 1, Z: 0},
		Right:   core.Vec3{X: 1, Y: 0, Z: 0},
		Near:    0.001, Far: 1000,
	}
}

func (c *PinholeCamera) ShootRay(px, py, lensU, lensV float64) core.CameraRay {
	u := (px/float64(c.Width))*2 - 1
	v := 1 - (py/float64(c.Height))*2
	dir := c.Forward.Add(c.Right.Scale(u)).Add(c.Up.Scale(v)).Normalized()
	return core.CameraRay{
		Ray:   core.NewRay(c.Eye, dir, c.Near, 0, 0),
		Valid: true,
	}
}

func (c *PinholeCamera) SamplesLens() bool { return false }
func (c *PinholeCamera) ResX() int         { return c.Width }
func (c *PinholeCamera) ResY() int         { return c.Height }
func (c *PinholeCamera) NearClip() float64 { return c.Near }
func (c *PinholeCamera) FarClip() float64  { return c.Far }
