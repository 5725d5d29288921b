package ibl

import (
	"math/bits"

	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/pkg/math"
)

// Hammersley returns the i-th point of an n-point low-discrepancy set
// on the unit square.
func Hammersley(i, n uint32) (float32, float32) {
	return float32(i) / float32(n), radicalInverseVdC(i)
}

func radicalInverseVdC(i uint32) float32 {
	return float32(bits.Reverse32(i)) * 2.3283064365386963e-10 // 1/2^32
}

// tangentFrame builds an orthonormal basis around n. The up vector
// flips when n is near vertical to keep the cross product stable.
func tangentFrame(n math.Vec3) (t, b math.Vec3) {
	up := math.Vec3{Y: 1}
	if math32.Abs(n.Y) > 0.999 {
		up = math.Vec3{X: 1}
	}
	t = up.Cross(n).Normalize()
	b = n.Cross(t)
	return t, b
}

// cosineSample maps a unit-square point to a cosine-weighted direction
// in the hemisphere around n.
func cosineSample(u1, u2 float32, n, t, b math.Vec3) math.Vec3 {
	r := math32.Sqrt(u1)
	phi := 2 * math32.Pi * u2
	x := r * math32.Cos(phi)
	y := r * math32.Sin(phi)
	z := math32.Sqrt(1 - u1)
	return t.Scale(x).Add(b.Scale(y)).Add(n.Scale(z)).Normalize()
}

// ggxSample maps a unit-square point to a GGX-distributed half vector
// around n for the given roughness.
func ggxSample(u1, u2, roughness float32, n, t, b math.Vec3) math.Vec3 {
	a := roughness * roughness
	phi := 2 * math32.Pi * u1
	cosTheta := math32.Sqrt((1 - u2) / (1 + (a*a-1)*u2))
	sinTheta := math32.Sqrt(1 - cosTheta*cosTheta)
	x := sinTheta * math32.Cos(phi)
	y := sinTheta * math32.Sin(phi)
	return t.Scale(x).Add(b.Scale(y)).Add(n.Scale(cosTheta)).Normalize()
}
