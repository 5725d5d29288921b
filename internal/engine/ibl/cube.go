package ibl

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/pkg/math"
)

// Cube is a CPU-side float cubemap, 3 floats per pixel, faces in GL
// order +X -X +Y -Y +Z -Z.
type Cube struct {
	Size  int
	Faces [6][]float32
}

// NewCube allocates a black cube of the given edge size.
func NewCube(size int) *Cube {
	c := &Cube{Size: size}
	for f := range c.Faces {
		c.Faces[f] = make([]float32, size*size*3)
	}
	return c
}

// FaceDirection maps a face index and normalized uv to the world
// direction through that texel, following the GL cubemap convention.
func FaceDirection(face int, u, v float32) math.Vec3 {
	uc := 2*u - 1
	vc := 2*v - 1
	var d math.Vec3
	switch face {
	case 0: // +X
		d = math.Vec3{X: 1, Y: -vc, Z: -uc}
	case 1: // -X
		d = math.Vec3{X: -1, Y: -vc, Z: uc}
	case 2: // +Y
		d = math.Vec3{X: uc, Y: 1, Z: vc}
	case 3: // -Y
		d = math.Vec3{X: uc, Y: -1, Z: -vc}
	case 4: // +Z
		d = math.Vec3{X: uc, Y: -vc, Z: 1}
	default: // -Z
		d = math.Vec3{X: -uc, Y: -vc, Z: -1}
	}
	return d.Normalize()
}

// At returns the texel value.
func (c *Cube) At(face, x, y int) math.Vec3 {
	i := (y*c.Size + x) * 3
	p := c.Faces[face]
	return math.Vec3{X: p[i], Y: p[i+1], Z: p[i+2]}
}

// Set writes a texel value.
func (c *Cube) Set(face, x, y int, v math.Vec3) {
	i := (y*c.Size + x) * 3
	p := c.Faces[face]
	p[i], p[i+1], p[i+2] = v.X, v.Y, v.Z
}

// SampleDirection returns the texel the direction passes through,
// selecting the dominant-axis face. Nearest filtering; the integrators
// average thousands of samples so texel-level filtering washes out.
func (c *Cube) SampleDirection(dir math.Vec3) math.Vec3 {
	ax := math32.Abs(dir.X)
	ay := math32.Abs(dir.Y)
	az := math32.Abs(dir.Z)

	var face int
	var u, v float32
	switch {
	case ax >= ay && ax >= az:
		if dir.X > 0 {
			face, u, v = 0, -dir.Z/ax, -dir.Y/ax
		} else {
			face, u, v = 1, dir.Z/ax, -dir.Y/ax
		}
	case ay >= az:
		if dir.Y > 0 {
			face, u, v = 2, dir.X/ay, dir.Z/ay
		} else {
			face, u, v = 3, dir.X/ay, -dir.Z/ay
		}
	default:
		if dir.Z > 0 {
			face, u, v = 4, dir.X/az, -dir.Y/az
		} else {
			face, u, v = 5, -dir.X/az, -dir.Y/az
		}
	}

	x := int((u*0.5 + 0.5) * float32(c.Size))
	y := int((v*0.5 + 0.5) * float32(c.Size))
	if x < 0 {
		x = 0
	}
	if x >= c.Size {
		x = c.Size - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= c.Size {
		y = c.Size - 1
	}
	return c.At(face, x, y)
}

// EquirectToCube resamples an equirectangular environment into a cube
// of the given edge size with bilinear filtering.
func EquirectToCube(e *Equirect, size int) (*Cube, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: cube size %d", ErrInvalidInput, size)
	}
	c := NewCube(size)
	inv := 1 / float32(size)
	for face := 0; face < 6; face++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				u := (float32(x) + 0.5) * inv
				v := (float32(y) + 0.5) * inv
				c.Set(face, x, y, e.SampleDirection(FaceDirection(face, u, v)))
			}
		}
	}
	return c, nil
}

// Downsample halves the cube with a 2x2 box filter.
func (c *Cube) Downsample() *Cube {
	size := c.Size / 2
	if size < 1 {
		size = 1
	}
	out := NewCube(size)
	for face := 0; face < 6; face++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				x0, y0 := x*2, y*2
				x1, y1 := x0+1, y0+1
				if x1 >= c.Size {
					x1 = c.Size - 1
				}
				if y1 >= c.Size {
					y1 = c.Size - 1
				}
				sum := c.At(face, x0, y0).
					Add(c.At(face, x1, y0)).
					Add(c.At(face, x0, y1)).
					Add(c.At(face, x1, y1))
				out.Set(face, x, y, sum.Scale(0.25))
			}
		}
	}
	return out
}

// ToCubemapData packs the cube and a box-filtered mip chain down to 1x1
// for upload.
func (c *Cube) ToCubemapData() *registry.CubemapData {
	data := &registry.CubemapData{Size: c.Size}
	level := c
	for {
		data.Faces = append(data.Faces, level.Faces)
		if level.Size <= 1 {
			break
		}
		level = level.Downsample()
	}
	return data
}

// ToCubemapDataLevels packs exactly the given cubes as successive mip
// levels. Each level must halve the previous edge size.
func ToCubemapDataLevels(levels []*Cube) *registry.CubemapData {
	data := &registry.CubemapData{Size: levels[0].Size}
	for _, l := range levels {
		data.Faces = append(data.Faces, l.Faces)
	}
	return data
}
