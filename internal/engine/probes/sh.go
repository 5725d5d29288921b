// Package probes bakes and samples a grid of second-order spherical
// harmonic light probes for ambient lighting of dynamic objects.
package probes

import (
	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/pkg/math"
)

// SH9 holds RGB coefficients for the nine l<=2 spherical harmonic
// bands, ordered L00, L1-1, L10, L11, L2-2, L2-1, L20, L21, L22.
type SH9 [9]math.Vec3

// shBasis evaluates the real SH basis functions for a unit direction.
func shBasis(d math.Vec3) [9]float32 {
	return [9]float32{
		0.282095,
		0.488603 * d.Y,
		0.488603 * d.Z,
		0.488603 * d.X,
		1.092548 * d.X * d.Y,
		1.092548 * d.Y * d.Z,
		0.315392 * (3*d.Z*d.Z - 1),
		1.092548 * d.X * d.Z,
		0.546274 * (d.X*d.X - d.Y*d.Y),
	}
}

// AddSample accumulates a weighted radiance sample from a direction.
func (s *SH9) AddSample(dir, radiance math.Vec3, weight float32) {
	basis := shBasis(dir)
	for i := range s {
		s[i] = s[i].Add(radiance.Scale(basis[i] * weight))
	}
}

// Add returns the coefficient-wise sum.
func (s SH9) Add(o SH9) SH9 {
	var out SH9
	for i := range s {
		out[i] = s[i].Add(o[i])
	}
	return out
}

// Scale returns the coefficient-wise product with a scalar.
func (s SH9) Scale(f float32) SH9 {
	var out SH9
	for i := range s {
		out[i] = s[i].Scale(f)
	}
	return out
}

// Lerp interpolates between two coefficient sets.
func (s SH9) Lerp(o SH9, t float32) SH9 {
	var out SH9
	for i := range s {
		out[i] = s[i].Lerp(o[i], t)
	}
	return out
}

// Irradiance reconstruction constants after Ramamoorthi and Hanrahan,
// "An Efficient Representation for Irradiance Environment Maps".
const (
	shC1 = 0.429043
	shC2 = 0.511664
	shC3 = 0.743125
	shC4 = 0.886227
	shC5 = 0.247708
)

// EvalIrradiance reconstructs the cosine-convolved irradiance for a
// surface normal. A constant environment of radiance v evaluates to
// pi*v; shading divides by pi for the Lambert term.
func (s SH9) EvalIrradiance(n math.Vec3) math.Vec3 {
	x, y, z := n.X, n.Y, n.Z

	e := s[8].Scale(shC1 * (x*x - y*y)).
		Add(s[6].Scale(shC3*z*z - shC5)).
		Add(s[0].Scale(shC4)).
		Add(s[4].Scale(2 * shC1 * x * y)).
		Add(s[7].Scale(2 * shC1 * x * z)).
		Add(s[5].Scale(2 * shC1 * y * z)).
		Add(s[3].Scale(2 * shC2 * x)).
		Add(s[1].Scale(2 * shC2 * y)).
		Add(s[2].Scale(2 * shC2 * z))

	return e.Max(math.Vec3{})
}

// SHFromDirectional projects a directional light as a radiance delta,
// scaled so that evaluating back along dir yields irradiance close to
// color*pi (the cosine integral over the facing hemisphere; the L2
// truncation overshoots the peak by about 6%). dir points toward the
// light.
func SHFromDirectional(dir, color math.Vec3) SH9 {
	var s SH9
	s.AddSample(dir.Normalize(), color, math32.Pi)
	return s
}

// SphericalFibonacci returns the i-th of n near-uniform directions on
// the unit sphere.
func SphericalFibonacci(i, n int) math.Vec3 {
	const golden = 2.399963229728653 // pi * (3 - sqrt(5))
	z := 1 - (2*float32(i)+1)/float32(n)
	r := math32.Sqrt(1 - z*z)
	phi := float32(i) * golden
	return math.Vec3{X: r * math32.Cos(phi), Y: r * math32.Sin(phi), Z: z}
}
