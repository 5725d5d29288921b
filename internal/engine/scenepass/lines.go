package scenepass

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/lumen3d/lumen/internal/engine/pipeline"
	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/pkg/math"
)

// LineBatch is a GPU-resident set of colored line segments for debug
// overlays. Vertices are 6 floats each: position xyz, color rgb.
type LineBatch struct {
	vao   uint32
	vbo   uint32
	count int32
}

// LineVertexFloats is the float count per line vertex.
const LineVertexFloats = 6

// NewLineBatch uploads line vertices, two per segment.
func NewLineBatch(verts []float32) *LineBatch {
	b := &LineBatch{count: int32(len(verts) / LineVertexFloats)}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	stride := int32(LineVertexFloats * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	return b
}

// Destroy releases the batch's GPU buffers.
func (b *LineBatch) Destroy() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		gl.DeleteBuffers(1, &b.vbo)
		b.vao, b.vbo, b.count = 0, 0, 0
	}
}

// DrawLines renders a line batch with the depth-tested line pipeline.
func (p *Pass) DrawLines(b *LineBatch, world math.Mat4) {
	p.drawLines(b, world, pipeline.Line)
}

// DrawGizmo renders a line batch on top of the scene, ignoring depth.
func (p *Pass) DrawGizmo(b *LineBatch, world math.Mat4) {
	p.drawLines(b, world, pipeline.Gizmo)
}

func (p *Pass) drawLines(b *LineBatch, world math.Mat4, name string) {
	if b == nil || b.count == 0 {
		return
	}
	offset, ok := p.reg.Ring().Alloc()
	if !ok {
		return
	}

	p.pipelines.Get(name).Bind()

	c := registry.DrawConstants{
		WorldViewProj: p.viewProj.Mul(world),
		World:         world,
	}
	p.reg.WriteConstants(offset, &c)
	p.reg.BindConstants(offset)

	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.LINES, 0, b.count)
	gl.BindVertexArray(0)
}
