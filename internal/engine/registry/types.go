// Package registry uploads mesh and texture data to GPU memory and hands out
// stable handles with attached texture-slot indices.
package registry

import (
	"errors"
	"fmt"

	"github.com/lumen3d/lumen/pkg/math"
)

// ErrResourceAllocation indicates a GPU resource could not be created.
var ErrResourceAllocation = errors.New("registry: resource allocation failed")

// MeshID is a stable handle to an uploaded mesh.
type MeshID uint32

// TextureID is a stable handle to an uploaded texture.
type TextureID uint32

// Texture formats accepted by UploadTexture.
type Format int

const (
	FormatRGBA8  Format = iota // 8-bit color maps, 4 bytes/pixel
	FormatRGBA16F              // HDR products, float16 storage, float32 input
	FormatRG32F                // BRDF LUT, two float32 channels
)

// BytesPerPixel returns the CPU-side bytes per pixel for the format's
// expected input buffer.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA8:
		return 4
	case FormatRGBA16F:
		return 16 // float32 RGBA input
	case FormatRG32F:
		return 8 // two float32 channels
	}
	return 0
}

// FloatsPerVertex is the packed vertex layout size in float32 units:
// position 3, normal 3, tangent 4, uv 2, color 3.
const FloatsPerVertex = 15

// VertexStride is the packed vertex size in bytes.
const VertexStride = FloatsPerVertex * 4

// TextureChannel names the three per-mesh texture bindings.
type TextureChannel int

const (
	ChannelBaseColor TextureChannel = iota
	ChannelNormal
	ChannelMetalRough
	channelCount
)

// Material holds the PBR scalar parameters of a mesh.
type Material struct {
	BaseColor math.Vec3
	Metallic  float32 // in [0,1]
	Roughness float32 // in [0,1]
}

// MeshData is the decoded input for a mesh upload.
// Vertices are tightly packed per VertexStride; Indices form a triangle list.
type MeshData struct {
	Vertices []float32
	Indices  []uint32
	Material Material

	// Optional decoded texture channels; nil entries fall back to the
	// default white texture.
	BaseColor  *TextureData
	Normal     *TextureData
	MetalRough *TextureData
}

// TextureData is a decoded pixel buffer.
// For FormatRGBA8 Pixels holds w*h*4 bytes, rows tightly packed, top-left origin.
type TextureData struct {
	Width  int
	Height int
	Pixels []byte
}

// Validate checks the mesh invariants: vertex array is whole vertices,
// index count is a positive multiple of 3, and every index is in range.
func (d *MeshData) Validate() error {
	if len(d.Vertices) == 0 || len(d.Vertices)%FloatsPerVertex != 0 {
		return fmt.Errorf("mesh vertex array length %d is not a multiple of %d floats", len(d.Vertices), FloatsPerVertex)
	}
	if len(d.Indices) == 0 || len(d.Indices)%3 != 0 {
		return fmt.Errorf("mesh index count %d is not a positive multiple of 3", len(d.Indices))
	}
	vertexCount := uint32(len(d.Vertices) / FloatsPerVertex)
	for i, idx := range d.Indices {
		if idx >= vertexCount {
			return fmt.Errorf("mesh index %d at position %d out of range (%d vertices)", idx, i, vertexCount)
		}
	}
	return nil
}

// CubemapData is a decoded cubemap: per-mip, six faces in the fixed order
// +X, -X, +Y, -Y, +Z, -Z. Each face holds size*size*3 float32 linear RGB
// values; mip m has edge size Size>>m.
type CubemapData struct {
	Size  int
	Faces [][6][]float32 // Faces[mip][face]
}

// Validate checks dimensions and face sizes.
func (c *CubemapData) Validate() error {
	if c.Size <= 0 || len(c.Faces) == 0 {
		return fmt.Errorf("cubemap has no faces")
	}
	for mip := range c.Faces {
		edge := c.Size >> mip
		if edge < 1 {
			edge = 1
		}
		want := edge * edge * 3
		for face := 0; face < 6; face++ {
			if len(c.Faces[mip][face]) != want {
				return fmt.Errorf("cubemap mip %d face %d: got %d floats, want %d", mip, face, len(c.Faces[mip][face]), want)
			}
		}
	}
	return nil
}
