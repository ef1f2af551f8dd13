// Package imageio converts a render's float linear-colour layer planes into
// standard library image.Image values for PNG export — the one place
// linear-to-display tonemapping happens, since the film/layer packages
// themselves only ever deal in linear radiance.
package imageio

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/cwbudde/lumenforge/internal/core"
)

// Gamma is the display transfer exponent applied before 8-bit quantisation.
const Gamma = 2.2

// ToNRGBA tonemaps a linear Rgba plane (row-major, len == width*height) into
// a gamma-corrected 8-bit image, clamping every channel to [0, 1] first.
func ToNRGBA(plane []core.Rgba, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	invGamma := 1.0 / Gamma
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := plane[y*width+x]
			img.SetNRGBA(x, y, color.NRGBA{
				R: toByte(c.R, invGamma),
				G: toByte(c.G, invGamma),
				B: toByte(c.B, invGamma),
				A: toByte(c.A, 1),
			})
		}
	}
	return img
}

func toByte(v, invGamma float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(math.Round(math.Pow(v, invGamma) * 255))
}

// WritePNG tonemaps plane and encodes it to w as a PNG.
func WritePNG(w io.Writer, plane []core.Rgba, width, height int) error {
	return png.Encode(w, ToNRGBA(plane, width, height))
}
