package ibl

import "github.com/chewxy/math32"

// IrradianceSamples is the Monte Carlo sample count per irradiance
// texel. Cosine-weighted sampling converges quickly for diffuse.
const IrradianceSamples = 2048

// IrradianceMap convolves the environment with a cosine lobe, producing
// the diffuse irradiance cube. Cosine-weighted sampling makes the
// estimator pi times the sample mean, so a constant environment maps to
// pi times its own value. Shading divides by pi for the Lambert term.
func IrradianceMap(env *Cube, size int) *Cube {
	out := NewCube(size)
	inv := 1 / float32(size)

	for face := 0; face < 6; face++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				n := FaceDirection(face, (float32(x)+0.5)*inv, (float32(y)+0.5)*inv)
				t, b := tangentFrame(n)

				var sum [3]float32
				for i := uint32(0); i < IrradianceSamples; i++ {
					u1, u2 := Hammersley(i, IrradianceSamples)
					l := env.SampleDirection(cosineSample(u1, u2, n, t, b))
					sum[0] += l.X
					sum[1] += l.Y
					sum[2] += l.Z
				}

				scale := math32.Pi / IrradianceSamples
				out.Faces[face][(y*size+x)*3] = sum[0] * scale
				out.Faces[face][(y*size+x)*3+1] = sum[1] * scale
				out.Faces[face][(y*size+x)*3+2] = sum[2] * scale
			}
		}
	}
	return out
}
