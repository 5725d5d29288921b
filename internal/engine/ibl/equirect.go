// Package ibl pre-integrates image-based lighting products from an
// equirectangular HDR environment: the cubemap, the diffuse irradiance
// map, the pre-filtered specular chain and the BRDF lookup table.
// All integration runs on the CPU; results upload through the registry.
package ibl

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/pkg/math"
)

// ErrInvalidInput indicates a malformed environment image.
var ErrInvalidInput = errors.New("ibl: invalid input")

// Equirect is a decoded equirectangular RGB float image, 3 floats per
// pixel, row-major from the top row.
type Equirect struct {
	Width  int
	Height int
	Pixels []float32
}

// maxRadiance caps non-finite HDR samples. NaN becomes black; +Inf
// clamps here so a single hot pixel cannot blow up the integrals.
const maxRadiance = 65504 // largest half-float value

// NewEquirect validates dimensions and sanitizes non-finite pixels,
// which occur in real-world HDR captures.
func NewEquirect(width, height int, pixels []float32) (*Equirect, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidInput, width, height)
	}
	if len(pixels) < width*height*3 {
		return nil, fmt.Errorf("%w: %dx%d needs %d floats, have %d",
			ErrInvalidInput, width, height, width*height*3, len(pixels))
	}
	for i, p := range pixels {
		switch {
		case math32.IsNaN(p) || p < 0:
			pixels[i] = 0
		case math32.IsInf(p, 1) || p > maxRadiance:
			pixels[i] = maxRadiance
		}
	}
	return &Equirect{Width: width, Height: height, Pixels: pixels}, nil
}

// texel returns the RGB value at integer coordinates, wrapping in u
// (the seam is continuous in longitude) and clamping in v.
func (e *Equirect) texel(x, y int) math.Vec3 {
	x = ((x % e.Width) + e.Width) % e.Width
	if y < 0 {
		y = 0
	}
	if y >= e.Height {
		y = e.Height - 1
	}
	i := (y*e.Width + x) * 3
	return math.Vec3{X: e.Pixels[i], Y: e.Pixels[i+1], Z: e.Pixels[i+2]}
}

// SampleBilinear samples the image at normalized uv with bilinear
// filtering.
func (e *Equirect) SampleBilinear(u, v float32) math.Vec3 {
	fx := u*float32(e.Width) - 0.5
	fy := v*float32(e.Height) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := e.texel(x0, y0)
	c10 := e.texel(x0+1, y0)
	c01 := e.texel(x0, y0+1)
	c11 := e.texel(x0+1, y0+1)

	top := c00.Lerp(c10, tx)
	bot := c01.Lerp(c11, tx)
	return top.Lerp(bot, ty)
}

// SampleDirection samples the environment along a world direction using
// the standard equirectangular mapping.
func (e *Equirect) SampleDirection(dir math.Vec3) math.Vec3 {
	d := dir.Normalize()
	u := (math32.Atan2(d.Z, d.X) + math32.Pi) / (2 * math32.Pi)
	v := math32.Acos(clamp(d.Y, -1, 1)) / math32.Pi
	return e.SampleBilinear(u, v)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
