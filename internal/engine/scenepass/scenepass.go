// Package scenepass emits the shadow and opaque draws for visible meshes,
// filling the per-draw constant ring and binding texture slots.
package scenepass

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/engine/pipeline"
	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/internal/engine/shadow"
	"github.com/lumen3d/lumen/internal/logger"
	"github.com/lumen3d/lumen/pkg/math"
)

// Texture units used by the opaque pipeline, in fixed ABI order.
const (
	unitBaseColor  = 0
	unitNormal     = 1
	unitMetalRough = 2
	unitShadow     = 3
	unitIrradiance = 4
	unitPrefilter  = 5
	unitBRDFLUT    = 6
)

// ShadowParams are the shadow constants written into every opaque draw.
type ShadowParams struct {
	Bias       float32
	NormalBias float32
	Softness   float32
	Enabled    bool
}

// IBLParams are the image-based-lighting constants.
type IBLParams struct {
	Intensity float32
	Rotation  float32
	MaxMip    float32
	Enabled   bool
}

// Environment references the IBL product slots.
type Environment struct {
	IrradianceSlot int
	PrefilterSlot  int
	BRDFLUTSlot    int
	Params         IBLParams
}

// Pass renders meshes with the opaque PBR pipeline and an optional
// depth-only shadow prepass. Render-thread only.
type Pass struct {
	reg       *registry.Registry
	pipelines *pipeline.Cache

	shadowMap *shadow.Map
	shadowP   ShadowParams
	lightVP   math.Mat4
	lightDir  math.Vec3

	env Environment

	view      math.Mat4
	proj      math.Mat4
	viewProj  math.Mat4
	cameraPos math.Vec3

	skippedDraws uint64
}

// New creates a scene pass over the shared registry and pipeline cache.
func New(reg *registry.Registry, pipelines *pipeline.Cache) *Pass {
	return &Pass{
		reg:       reg,
		pipelines: pipelines,
		lightVP:   math.Identity(),
		lightDir:  math.Vec3{Y: -1},
	}
}

// SetLight sets the directional light. dir is the direction light travels.
func (p *Pass) SetLight(dir math.Vec3) {
	p.lightDir = dir.Normalize()
}

// SetShadow attaches the shadow map and its sampling parameters.
// The light matrix is persisted and written into every opaque draw.
func (p *Pass) SetShadow(m *shadow.Map, params ShadowParams, lightVP math.Mat4) {
	p.shadowMap = m
	p.shadowP = params
	p.lightVP = lightVP
}

// SetEnvironment attaches the IBL product slots.
func (p *Pass) SetEnvironment(env Environment) {
	p.env = env
}

// SetCamera sets the view and projection for the frame.
func (p *Pass) SetCamera(view, proj math.Mat4, cameraPos math.Vec3) {
	p.view = view
	p.proj = proj
	p.viewProj = proj.Mul(view)
	p.cameraPos = cameraPos
}

// BeginShadow binds the shadow framebuffer and pipeline. Callers issue
// DrawShadow per mesh and finish with EndShadow.
func (p *Pass) BeginShadow() bool {
	if p.shadowMap == nil || !p.shadowMap.IsValid() {
		return false
	}
	p.shadowMap.Begin()
	p.pipelines.Get(pipeline.Shadow).Bind()
	return true
}

// DrawShadow renders one mesh into the shadow map.
func (p *Pass) DrawShadow(id registry.MeshID, world math.Mat4) {
	m := p.reg.Mesh(id)
	if m == nil || m.IndexCount() == 0 {
		p.skip(id)
		return
	}

	offset, ok := p.reg.Ring().Alloc()
	if !ok {
		p.skip(id)
		return
	}

	c := registry.DrawConstants{
		WorldViewProj: p.viewProj.Mul(world),
		World:         world,
		LightViewProj: p.lightVP,
	}
	p.reg.WriteConstants(offset, &c)
	p.reg.BindConstants(offset)

	p.reg.BindMesh(m)
	gl.DrawElements(gl.TRIANGLES, m.IndexCount(), gl.UNSIGNED_INT, nil)
}

// EndShadow closes the shadow pass. The caller rebinds its scene target.
func (p *Pass) EndShadow() {
	if p.shadowMap != nil {
		p.shadowMap.End()
	}
}

// BeginOpaque binds the opaque pipeline and the frame-constant texture
// units (shadow map and IBL products).
func (p *Pass) BeginOpaque() {
	p.pipelines.Get(pipeline.Opaque).Bind()

	if p.shadowMap != nil && p.shadowMap.IsValid() {
		p.shadowMap.BindTexture(unitShadow)
	}
	p.reg.BindSlot(unitIrradiance, p.env.IrradianceSlot)
	p.reg.BindSlot(unitPrefilter, p.env.PrefilterSlot)
	p.reg.BindSlot(unitBRDFLUT, p.env.BRDFLUTSlot)
}

// Draw issues one opaque indexed draw in submission order.
func (p *Pass) Draw(id registry.MeshID, world math.Mat4) {
	m := p.reg.Mesh(id)
	if m == nil || m.IndexCount() == 0 {
		p.skip(id)
		return
	}

	offset, ok := p.reg.Ring().Alloc()
	if !ok {
		p.skip(id)
		return
	}

	c := registry.DrawConstants{
		WorldViewProj: p.viewProj.Mul(world),
		World:         world,
		LightViewProj: p.lightVP,
		LightDir:      math.NewVec4(p.lightDir.Negate(), 0),
		CameraPos:     math.NewVec4(p.cameraPos, m.Material.Metallic),
		BaseColor:     math.NewVec4(m.Material.BaseColor, m.Material.Roughness),
		Shadow:        math.Vec4{X: p.shadowP.Bias, Y: p.shadowP.NormalBias, Z: p.shadowP.Softness, W: boolFloat(p.shadowP.Enabled && p.shadowMap.IsValid())},
		IBL:           math.Vec4{X: p.env.Params.Intensity, Y: p.env.Params.Rotation, Z: p.env.Params.MaxMip, W: boolFloat(p.env.Params.Enabled)},
	}
	p.reg.WriteConstants(offset, &c)
	p.reg.BindConstants(offset)

	p.reg.BindSlot(unitBaseColor, m.Slots[registry.ChannelBaseColor])
	p.reg.BindSlot(unitNormal, m.Slots[registry.ChannelNormal])
	p.reg.BindSlot(unitMetalRough, m.Slots[registry.ChannelMetalRough])

	p.reg.BindMesh(m)
	gl.DrawElements(gl.TRIANGLES, m.IndexCount(), gl.UNSIGNED_INT, nil)
}

// skip drops a draw whose handle or budget is invalid. Logged once per
// 256 occurrences to keep the frame path quiet.
func (p *Pass) skip(id registry.MeshID) {
	p.skippedDraws++
	if p.skippedDraws%256 == 1 {
		logger.Warn("skipping draw",
			zap.Uint32("mesh", uint32(id)),
			zap.Uint64("total_skipped", p.skippedDraws),
		)
	}
}

// SkippedDraws returns the total number of silently dropped draws.
func (p *Pass) SkippedDraws() uint64 { return p.skippedDraws }

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
