package core

import "testing"

func TestRgbaNormalized(t *testing.T) {
	c := Rgba{R: 2, G: 4, B: 6, A: 2}
	got := c.Normalized(2)
	want := Rgba{R: 1, G: 2, B: 3, A: 1}
	if got != want {
		t.Fatalf("Normalized() = %+v, want %+v", got, want)
	}
	if got := c.Normalized(0); got != Black {
		t.Fatalf("Normalized(0) = %+v, want Black", got)
	}
}

func TestRgbaClampProportional(t *testing.T) {
	c := Rgba{R: 2, G: 1, B: 0, A: 1}
	got := c.ClampProportional(1)
	if got.R != 1 {
		t.Fatalf("R = %v, want 1", got.R)
	}
	if got.G != 0.5 {
		t.Fatalf("G = %v, want 0.5 (hue-preserving)", got.G)
	}
}

func TestRgbaColorDifference(t *testing.T) {
	a := Rgba{R: 1, G: 0, B: 0}
	b := Rgba{R: 0, G: 1, B: 0}
	lumDiff := a.ColorDifference(b, false)
	colDiff := a.ColorDifference(b, true)
	if colDiff <= lumDiff {
		t.Fatalf("per-channel diff %v should exceed luminance-only diff %v for opponent colours", colDiff, lumDiff)
	}
}

func TestVec3Normalized(t *testing.T) {
	v := Vec3{X: 3, Y: 4, Z: 0}
	n := v.Normalized()
	if got := n.Length(); got < 0.999999 || got > 1.000001 {
		t.Fatalf("Length() = %v, want 1", got)
	}
	if z := (Vec3{}).Normalized(); z != (Vec3{}) {
		t.Fatalf("zero vector should normalize to itself, got %+v", z)
	}
}

func TestVec3FaceForward(t *testing.T) {
	n := Vec3{X: 0, Y: 0, Z: 1}
	incoming := Vec3{X: 0, Y: 0, Z: 1}
	flipped := n.FaceForward(incoming.Neg())
	if flipped.Dot(incoming.Neg()) < 0 {
		t.Fatalf("FaceForward did not align with reference direction")
	}
}
