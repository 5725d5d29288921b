package registry

import (
	"unsafe"

	"github.com/lumen3d/lumen/pkg/math"
)

// DrawConstants is the per-draw constant block. Field order is part of the
// shader ABI and must match the DrawConstants uniform block in GLSL.
type DrawConstants struct {
	WorldViewProj math.Mat4
	World         math.Mat4
	LightViewProj math.Mat4

	// LightDir packs the directional light direction in xyz.
	LightDir math.Vec4
	// CameraPos packs the camera world position in xyz and metallic in w.
	CameraPos math.Vec4
	// BaseColor packs the material base color in xyz and roughness in w.
	BaseColor math.Vec4
	// Shadow packs (constant bias, normal bias, softness, enable).
	Shadow math.Vec4
	// IBL packs (intensity, rotation, max prefiltered mip, enable).
	IBL math.Vec4
}

// ConstantsSize is the packed byte size of DrawConstants.
const ConstantsSize = int(unsafe.Sizeof(DrawConstants{}))

// ConstantAlign is the alignment each per-draw region starts on. 256 bytes
// satisfies every implementation's uniform-buffer offset alignment.
const ConstantAlign = 256

// AlignedConstantsSize is ConstantsSize rounded up to ConstantAlign.
const AlignedConstantsSize = (ConstantsSize + ConstantAlign - 1) &^ (ConstantAlign - 1)

// Bytes returns the raw constant block for buffer upload.
func (c *DrawConstants) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(c)), ConstantsSize)
}

// Ring hands out aligned per-draw offsets inside one half of a
// double-buffered constant buffer. The half in use flips with the frame
// index so GPU reads of the previous frame never race CPU writes.
type Ring struct {
	alignedSize int
	maxDraws    int
	frame       int // 0 or 1
	drawIndex   int
}

// NewRing sizes a ring for maxDraws draws per frame across two frames.
func NewRing(maxDraws int) *Ring {
	if maxDraws <= 0 {
		maxDraws = 1
	}
	return &Ring{
		alignedSize: AlignedConstantsSize,
		maxDraws:    maxDraws,
	}
}

// TotalSize is the byte size of the backing buffer (both halves).
func (r *Ring) TotalSize() int {
	return r.alignedSize * r.maxDraws * 2
}

// Reset starts a new frame: offsets restart at the given frame's half.
func (r *Ring) Reset(frameIndex int) {
	r.frame = frameIndex & 1
	r.drawIndex = 0
}

// Alloc reserves the next aligned offset in the current half.
// ok is false once the frame's draw budget is exhausted.
func (r *Ring) Alloc() (offset int, ok bool) {
	if r.drawIndex >= r.maxDraws {
		return 0, false
	}
	offset = r.frame*r.maxDraws*r.alignedSize + r.drawIndex*r.alignedSize
	r.drawIndex++
	return offset, true
}

// Used returns the number of offsets handed out this frame.
func (r *Ring) Used() int {
	return r.drawIndex
}

// Capacity returns the per-frame draw budget.
func (r *Ring) Capacity() int {
	return r.maxDraws
}
