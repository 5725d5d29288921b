package viewer

import (
	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/internal/engine/ibl"
	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/pkg/math"
)

// vertex appends one packed vertex: position, normal, tangent with
// handedness, uv, color.
func vertex(dst []float32, p, n math.Vec3, t math.Vec4, u, v float32, c math.Vec3) []float32 {
	return append(dst,
		p.X, p.Y, p.Z,
		n.X, n.Y, n.Z,
		t.X, t.Y, t.Z, t.W,
		u, v,
		c.X, c.Y, c.Z,
	)
}

// cubeMesh builds a unit cube centered at the origin.
func cubeMesh(size float32, mat registry.Material) *registry.MeshData {
	h := size / 2
	white := math.Vec3{X: 1, Y: 1, Z: 1}

	type face struct {
		normal  math.Vec3
		tangent math.Vec3
		up      math.Vec3
	}
	faces := []face{
		{math.Vec3{Z: 1}, math.Vec3{X: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Z: -1}, math.Vec3{X: -1}, math.Vec3{Y: 1}},
		{math.Vec3{X: 1}, math.Vec3{Z: -1}, math.Vec3{Y: 1}},
		{math.Vec3{X: -1}, math.Vec3{Z: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Y: 1}, math.Vec3{X: 1}, math.Vec3{Z: -1}},
		{math.Vec3{Y: -1}, math.Vec3{X: 1}, math.Vec3{Z: 1}},
	}

	var verts []float32
	var idx []uint32
	for fi, f := range faces {
		base := uint32(fi * 4)
		for i := 0; i < 4; i++ {
			u := float32(i % 2)
			v := float32(i / 2)
			p := f.normal.Scale(h).
				Add(f.tangent.Scale((u*2 - 1) * h)).
				Add(f.up.Scale((v*2 - 1) * h))
			tan := math.NewVec4(f.tangent, 1)
			verts = vertex(verts, p, f.normal, tan, u, v, white)
		}
		idx = append(idx, base, base+1, base+2, base+2, base+1, base+3)
	}

	return &registry.MeshData{Vertices: verts, Indices: idx, Material: mat}
}

// planeMesh builds a horizontal quad facing up.
func planeMesh(size float32, mat registry.Material) *registry.MeshData {
	h := size / 2
	n := math.Vec3{Y: 1}
	tan := math.Vec4{X: 1, W: 1}
	white := math.Vec3{X: 1, Y: 1, Z: 1}

	var verts []float32
	verts = vertex(verts, math.Vec3{X: -h, Z: -h}, n, tan, 0, 0, white)
	verts = vertex(verts, math.Vec3{X: h, Z: -h}, n, tan, 1, 0, white)
	verts = vertex(verts, math.Vec3{X: -h, Z: h}, n, tan, 0, 1, white)
	verts = vertex(verts, math.Vec3{X: h, Z: h}, n, tan, 1, 1, white)

	return &registry.MeshData{
		Vertices: verts,
		Indices:  []uint32{0, 2, 1, 1, 2, 3},
		Material: mat,
	}
}

// sphereMesh builds a UV sphere with tangents along longitude.
func sphereMesh(radius float32, rings, sectors int, mat registry.Material) *registry.MeshData {
	white := math.Vec3{X: 1, Y: 1, Z: 1}

	var verts []float32
	var idx []uint32
	for r := 0; r <= rings; r++ {
		theta := math32.Pi * float32(r) / float32(rings)
		sinT, cosT := math32.Sin(theta), math32.Cos(theta)
		for s := 0; s <= sectors; s++ {
			phi := 2 * math32.Pi * float32(s) / float32(sectors)
			sinP, cosP := math32.Sin(phi), math32.Cos(phi)

			n := math.Vec3{X: sinT * cosP, Y: cosT, Z: sinT * sinP}
			tan := math.Vec4{X: -sinP, Z: cosP, W: 1}
			u := float32(s) / float32(sectors)
			v := float32(r) / float32(rings)
			verts = vertex(verts, n.Scale(radius), n, tan, u, v, white)
		}
	}
	stride := uint32(sectors + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < sectors; s++ {
			a := uint32(r)*stride + uint32(s)
			b := a + stride
			idx = append(idx, a, b, a+1, a+1, b, b+1)
		}
	}

	return &registry.MeshData{Vertices: verts, Indices: idx, Material: mat}
}

// axisGizmo builds RGB axis lines of the given length.
func axisGizmo(length float32) []float32 {
	return []float32{
		0, 0, 0, 1, 0, 0, length, 0, 0, 1, 0, 0,
		0, 0, 0, 0, 1, 0, 0, length, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 1, 0, 0, length, 0, 0, 1,
	}
}

// gradientSky synthesizes a simple dawn-like equirectangular
// environment: bright warm horizon band, blue sky, dark ground.
func gradientSky(width, height int) *ibl.Equirect {
	px := make([]float32, width*height*3)
	for y := 0; y < height; y++ {
		v := float32(y) / float32(height-1) // 0 = zenith
		var r, g, b float32
		switch {
		case v < 0.5:
			t := v / 0.5
			r = 0.1 + 0.9*t
			g = 0.25 + 0.55*t
			b = 0.7 + 0.1*t
		default:
			t := (v - 0.5) / 0.5
			r = 1.0 - 0.85*t
			g = 0.8 - 0.68*t
			b = 0.8 - 0.72*t
		}
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			px[i], px[i+1], px[i+2] = r, g, b
		}
	}
	e, _ := ibl.NewEquirect(width, height, px)
	return e
}
