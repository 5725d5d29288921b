package ibl

import (
	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/pkg/math"
)

// PrefilterSamples is the GGX importance-sample count per prefiltered
// texel.
const PrefilterSamples = 1024

// PrefilterSpecular builds the split-sum pre-filtered specular chain:
// mips levels of decreasing size, each convolved with the GGX lobe at
// roughness mip/(mips-1). Uses the V = R = N approximation.
func PrefilterSpecular(env *Cube, baseSize, mips int) []*Cube {
	out := make([]*Cube, mips)
	for mip := 0; mip < mips; mip++ {
		size := baseSize >> mip
		if size < 1 {
			size = 1
		}
		roughness := float32(0)
		if mips > 1 {
			roughness = float32(mip) / float32(mips-1)
		}
		out[mip] = prefilterLevel(env, size, roughness)
	}
	return out
}

func prefilterLevel(env *Cube, size int, roughness float32) *Cube {
	out := NewCube(size)
	inv := 1 / float32(size)

	for face := 0; face < 6; face++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				n := FaceDirection(face, (float32(x)+0.5)*inv, (float32(y)+0.5)*inv)
				out.Set(face, x, y, prefilterTexel(env, n, roughness))
			}
		}
	}
	return out
}

// prefilterTexel convolves the environment around n with the GGX lobe,
// weighting samples by N.L as in the split-sum formulation.
func prefilterTexel(env *Cube, n math.Vec3, roughness float32) math.Vec3 {
	if roughness == 0 {
		return env.SampleDirection(n)
	}

	t, b := tangentFrame(n)
	v := n // V = R = N

	var sum math.Vec3
	var weight float32
	for i := uint32(0); i < PrefilterSamples; i++ {
		u1, u2 := Hammersley(i, PrefilterSamples)
		h := ggxSample(u1, u2, roughness, n, t, b)
		l := h.Scale(2 * v.Dot(h)).Sub(v).Normalize()

		ndl := n.Dot(l)
		if ndl <= 0 {
			continue
		}
		sum = sum.Add(env.SampleDirection(l).Scale(ndl))
		weight += ndl
	}
	if weight <= 0 {
		return env.SampleDirection(n)
	}
	return sum.Scale(1 / weight)
}

// BRDFLUT integrates the split-sum environment BRDF into a lookup
// table indexed by (N.V, roughness). Returns RG pairs, scale in R and
// bias in G, row-major with roughness increasing down rows.
func BRDFLUT(size int) []float32 {
	out := make([]float32, size*size*2)
	inv := 1 / float32(size)

	for y := 0; y < size; y++ {
		roughness := (float32(y) + 0.5) * inv
		for x := 0; x < size; x++ {
			ndv := (float32(x) + 0.5) * inv
			a, bb := integrateBRDF(ndv, roughness)
			out[(y*size+x)*2] = a
			out[(y*size+x)*2+1] = bb
		}
	}
	return out
}

func integrateBRDF(ndv, roughness float32) (float32, float32) {
	v := math.Vec3{X: math32.Sqrt(1 - ndv*ndv), Z: ndv}
	n := math.Vec3{Z: 1}
	t, b := tangentFrame(n)

	var scale, bias float32
	for i := uint32(0); i < PrefilterSamples; i++ {
		u1, u2 := Hammersley(i, PrefilterSamples)
		h := ggxSample(u1, u2, roughness, n, t, b)
		l := h.Scale(2 * v.Dot(h)).Sub(v)

		ndl := l.Z
		if ndl <= 0 {
			continue
		}
		ndh := math32.Max(h.Z, 0)
		vdh := math32.Max(v.Dot(h), 0)

		g := geometrySmithIBL(ndv, ndl, roughness)
		gVis := g * vdh / (ndh * ndv)
		fc := math32.Pow(1-vdh, 5)

		scale += (1 - fc) * gVis
		bias += fc * gVis
	}
	return scale / PrefilterSamples, bias / PrefilterSamples
}

// Smith geometry term with the IBL k remapping (a^2/2 rather than the
// direct-lighting (r+1)^2/8).
func geometrySmithIBL(ndv, ndl, roughness float32) float32 {
	k := roughness * roughness / 2
	gv := ndv / (ndv*(1-k) + k)
	gl := ndl / (ndl*(1-k) + k)
	return gv * gl
}
