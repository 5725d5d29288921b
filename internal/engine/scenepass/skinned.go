package scenepass

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/lumen3d/lumen/internal/engine/pipeline"
	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/pkg/math"
)

// MaxBones is the palette size the skinned vertex shader declares.
const MaxBones = 128

const boneBufferSize = MaxBones * 64

// BonePalette is a GPU-resident bone matrix buffer shared by the
// skinned draws of one animated instance.
type BonePalette struct {
	ubo uint32
}

// NewBonePalette allocates the palette buffer, initialized to identity
// so unwritten bones pass vertices through.
func NewBonePalette() *BonePalette {
	p := &BonePalette{}
	gl.GenBuffers(1, &p.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, p.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, boneBufferSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	identity := make([]math.Mat4, MaxBones)
	for i := range identity {
		identity[i] = math.Identity()
	}
	p.Upload(identity)
	return p
}

// Upload writes the pose matrices. Palettes beyond MaxBones truncate.
func (p *BonePalette) Upload(bones []math.Mat4) {
	if len(bones) == 0 {
		return
	}
	if len(bones) > MaxBones {
		bones = bones[:MaxBones]
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, p.ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(bones)*64, unsafe.Pointer(&bones[0]))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

// Destroy releases the buffer.
func (p *BonePalette) Destroy() {
	if p.ubo != 0 {
		gl.DeleteBuffers(1, &p.ubo)
		p.ubo = 0
	}
}

// BeginSkinned binds the skinned pipeline with the same frame-constant
// units as the opaque pass.
func (p *Pass) BeginSkinned() {
	p.pipelines.Get(pipeline.Skinned).Bind()

	if p.shadowMap != nil && p.shadowMap.IsValid() {
		p.shadowMap.BindTexture(unitShadow)
	}
	p.reg.BindSlot(unitIrradiance, p.env.IrradianceSlot)
	p.reg.BindSlot(unitPrefilter, p.env.PrefilterSlot)
	p.reg.BindSlot(unitBRDFLUT, p.env.BRDFLUTSlot)
}

// DrawSkinned issues one skinned indexed draw with the given palette.
func (p *Pass) DrawSkinned(id registry.MeshID, world math.Mat4, palette *BonePalette) {
	if palette == nil {
		p.Draw(id, world)
		return
	}
	gl.BindBufferBase(gl.UNIFORM_BUFFER, pipeline.BindingBoneConstants, palette.ubo)
	p.Draw(id, world)
}
