package registry

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/logger"
)

// Mesh is a GPU-resident mesh record. Immutable after upload except for the
// texture slot contents, which the streaming pipeline may rewrite.
type Mesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	skinVBO    uint32
	indexCount int32

	Material Material
	// Slots holds the texture slot index per channel; absent channels point
	// at SlotDefaultWhite.
	Slots [3]int
}

// IndexCount returns the number of indices in the mesh.
func (m *Mesh) IndexCount() int32 { return m.indexCount }

// Texture is a GPU-resident texture record.
type Texture struct {
	name   uint32
	target uint32
	slot   int
	width  int
	height int
	format Format
}

// Slot returns the texture's slot index.
func (t *Texture) Slot() int { return t.slot }

// Registry owns all GPU mesh and texture records, the texture slot table,
// and the per-draw constant ring buffer. Render-thread only.
type Registry struct {
	meshes   []*Mesh
	textures []*Texture

	slots       *slotTable
	slotTargets [SlotCapacity]uint32

	ring    *Ring
	ringUBO uint32

	// GL objects queued for deletion once the owning frame's fence retires.
	pendingDelete []uint32
	pendingVAOs   []uint32
}

// New creates the registry, the constant ring buffer and the default
// 1x1 opaque-white texture. Requires a current GL context.
func New(maxDrawsPerFrame int) (*Registry, error) {
	r := &Registry{
		slots: newSlotTable(),
		ring:  NewRing(maxDrawsPerFrame),
	}

	gl.GenBuffers(1, &r.ringUBO)
	if r.ringUBO == 0 {
		return nil, fmt.Errorf("%w: constant ring buffer", ErrResourceAllocation)
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, r.ringUBO)
	gl.BufferData(gl.UNIFORM_BUFFER, r.ring.TotalSize(), nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	if err := r.createDefaultWhite(); err != nil {
		gl.DeleteBuffers(1, &r.ringUBO)
		return nil, err
	}

	logger.Info("resource registry ready",
		zap.Int("ring_bytes", r.ring.TotalSize()),
		zap.Int("max_draws", r.ring.Capacity()),
	)
	return r, nil
}

// createDefaultWhite uploads the 1x1 opaque-white fallback into its
// reserved slot.
func (r *Registry) createDefaultWhite() error {
	data := &TextureData{Width: 1, Height: 1, Pixels: []byte{255, 255, 255, 255}}
	tex, err := r.uploadTexture2D(data, FormatRGBA8, SlotDefaultWhite)
	if err != nil {
		return err
	}
	r.textures = append(r.textures, tex)
	return nil
}

// UploadMesh validates and uploads a mesh, returning its stable handle.
func (r *Registry) UploadMesh(data *MeshData) (MeshID, error) {
	if err := data.Validate(); err != nil {
		return 0, err
	}

	m := &Mesh{
		indexCount: int32(len(data.Indices)),
		Material:   data.Material,
		Slots:      [3]int{SlotDefaultWhite, SlotDefaultWhite, SlotDefaultWhite},
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*4, gl.Ptr(data.Vertices), gl.STATIC_DRAW)

	// position, normal, tangent, uv, color at the packed 60-byte stride
	offsets := []struct {
		size   int32
		offset int
	}{
		{3, 0}, {3, 12}, {4, 24}, {2, 40}, {3, 48},
	}
	for i, a := range offsets {
		gl.VertexAttribPointerWithOffset(uint32(i), a.size, gl.FLOAT, false, VertexStride, uintptr(a.offset))
		gl.EnableVertexAttribArray(uint32(i))
	}

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	if m.vao == 0 || m.vbo == 0 || m.ebo == 0 {
		return 0, fmt.Errorf("%w: mesh buffers", ErrResourceAllocation)
	}

	// Synchronous texture channels, when present
	channels := []struct {
		data    *TextureData
		channel TextureChannel
	}{
		{data.BaseColor, ChannelBaseColor},
		{data.Normal, ChannelNormal},
		{data.MetalRough, ChannelMetalRough},
	}
	for _, c := range channels {
		if c.data == nil {
			continue
		}
		tex, _, err := r.UploadTexture(c.data, FormatRGBA8)
		if err != nil {
			return 0, err
		}
		m.Slots[c.channel] = r.textures[tex].slot
	}

	id := MeshID(len(r.meshes))
	r.meshes = append(r.meshes, m)
	return id, nil
}

// SkinVertex carries the bone influences for one vertex: up to four
// palette indices with normalized weights.
type SkinVertex struct {
	Indices [4]int32
	Weights [4]float32
}

// UploadSkinnedMesh uploads a mesh plus a parallel skinning stream in
// a second vertex buffer, one SkinVertex per vertex.
func (r *Registry) UploadSkinnedMesh(data *MeshData, skin []SkinVertex) (MeshID, error) {
	if len(skin) != len(data.Vertices)/FloatsPerVertex {
		return 0, fmt.Errorf("%w: %d skin vertices for %d mesh vertices",
			ErrResourceAllocation, len(skin), len(data.Vertices)/FloatsPerVertex)
	}
	id, err := r.UploadMesh(data)
	if err != nil {
		return 0, err
	}
	m := r.meshes[id]

	gl.BindVertexArray(m.vao)
	var skinVBO uint32
	gl.GenBuffers(1, &skinVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, skinVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(skin)*int(unsafe.Sizeof(SkinVertex{})), gl.Ptr(skin), gl.STATIC_DRAW)

	stride := int32(unsafe.Sizeof(SkinVertex{}))
	gl.VertexAttribIPointerWithOffset(5, 4, gl.INT, stride, 0)
	gl.EnableVertexAttribArray(5)
	gl.VertexAttribPointerWithOffset(6, 4, gl.FLOAT, false, stride, 16)
	gl.EnableVertexAttribArray(6)
	gl.BindVertexArray(0)

	m.skinVBO = skinVBO
	return id, nil
}

// Mesh resolves a handle. Returns nil for out-of-range handles; callers
// treat that as a silently skipped draw.
func (r *Registry) Mesh(id MeshID) *Mesh {
	if int(id) >= len(r.meshes) {
		return nil
	}
	return r.meshes[id]
}

// MeshCount returns the number of uploaded meshes.
func (r *Registry) MeshCount() int { return len(r.meshes) }

// UploadTexture uploads a decoded 2D pixel buffer and allocates a new slot.
func (r *Registry) UploadTexture(data *TextureData, format Format) (TextureID, int, error) {
	slot, err := r.slots.alloc()
	if err != nil {
		return 0, 0, err
	}
	tex, err := r.uploadTexture2D(data, format, slot)
	if err != nil {
		return 0, 0, err
	}
	id := TextureID(len(r.textures))
	r.textures = append(r.textures, tex)
	return id, slot, nil
}

func (r *Registry) uploadTexture2D(data *TextureData, format Format, slot int) (*Texture, error) {
	want := data.Width * data.Height * format.BytesPerPixel()
	if data.Width <= 0 || data.Height <= 0 || len(data.Pixels) < want {
		return nil, fmt.Errorf("%w: texture %dx%d needs %d bytes, have %d",
			ErrResourceAllocation, data.Width, data.Height, want, len(data.Pixels))
	}

	var name uint32
	gl.GenTextures(1, &name)
	if name == 0 {
		return nil, fmt.Errorf("%w: texture object", ErrResourceAllocation)
	}
	gl.BindTexture(gl.TEXTURE_2D, name)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	switch format {
	case FormatRGBA8:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(data.Width), int32(data.Height),
			0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(data.Pixels))
	case FormatRGBA16F:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F, int32(data.Width), int32(data.Height),
			0, gl.RGBA, gl.FLOAT, gl.Ptr(data.Pixels))
	case FormatRG32F:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RG32F, int32(data.Width), int32(data.Height),
			0, gl.RG, gl.FLOAT, gl.Ptr(data.Pixels))
	}

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	r.slots.set(slot, name)
	r.slotTargets[slot] = gl.TEXTURE_2D

	return &Texture{
		name:   name,
		target: gl.TEXTURE_2D,
		slot:   slot,
		width:  data.Width,
		height: data.Height,
		format: format,
	}, nil
}

// UploadCubemap uploads six faces per mip level and allocates a slot.
// The mip chain, when longer than one level, is uploaded explicitly; no
// driver-side mip generation happens.
func (r *Registry) UploadCubemap(data *CubemapData) (TextureID, int, error) {
	if err := data.Validate(); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrResourceAllocation, err)
	}
	slot, err := r.slots.alloc()
	if err != nil {
		return 0, 0, err
	}

	var name uint32
	gl.GenTextures(1, &name)
	if name == 0 {
		return 0, 0, fmt.Errorf("%w: cubemap object", ErrResourceAllocation)
	}
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, name)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	for mip := range data.Faces {
		edge := int32(data.Size >> mip)
		if edge < 1 {
			edge = 1
		}
		for face := 0; face < 6; face++ {
			gl.TexImage2D(uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face), int32(mip),
				gl.RGBA16F, edge, edge, 0, gl.RGB, gl.FLOAT, gl.Ptr(data.Faces[mip][face]))
		}
	}

	minFilter := int32(gl.LINEAR)
	if len(data.Faces) > 1 {
		minFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAX_LEVEL, int32(len(data.Faces)-1))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	r.slots.set(slot, name)
	r.slotTargets[slot] = gl.TEXTURE_CUBE_MAP

	id := TextureID(len(r.textures))
	r.textures = append(r.textures, &Texture{
		name:   name,
		target: gl.TEXTURE_CUBE_MAP,
		slot:   slot,
		width:  data.Size,
		height: data.Size,
		format: FormatRGBA16F,
	})
	return id, slot, nil
}

// RewriteSlot replaces the texture behind an existing slot. The old texture
// is queued for deferred deletion; the slot index stays stable so bound
// meshes need no rebinding.
func (r *Registry) RewriteSlot(slot int, data *TextureData, format Format) error {
	old := r.slots.get(slot)
	if _, err := r.uploadTexture2D(data, format, slot); err != nil {
		return err
	}
	if old != 0 {
		r.pendingDelete = append(r.pendingDelete, old)
	}
	return nil
}

// SetMeshChannelSlot points a mesh's texture channel at a slot.
func (r *Registry) SetMeshChannelSlot(id MeshID, channel TextureChannel, slot int) {
	m := r.Mesh(id)
	if m == nil || channel < 0 || channel >= channelCount {
		return
	}
	m.Slots[channel] = slot
}

// BindSlot binds the texture behind a slot to a texture unit, using the
// slot's recorded target (2D or cube).
func (r *Registry) BindSlot(unit uint32, slot int) {
	name := r.slots.get(slot)
	target := r.slotTargets[slot]
	if name == 0 {
		name = r.slots.get(SlotDefaultWhite)
		target = gl.TEXTURE_2D
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(target, name)
}

// RegisterExternalTexture reserves a slot for a texture created outside the
// registry (the UI font atlas uses the reserved slot 0).
func (r *Registry) RegisterExternalTexture(slot int, name, target uint32) {
	r.slots.set(slot, name)
	r.slotTargets[slot] = target
}

// Ring exposes the per-draw constant ring allocator.
func (r *Registry) Ring() *Ring { return r.ring }

// WriteConstants copies a constant block into the ring buffer at offset.
func (r *Registry) WriteConstants(offset int, c *DrawConstants) {
	gl.BindBuffer(gl.UNIFORM_BUFFER, r.ringUBO)
	gl.BufferSubData(gl.UNIFORM_BUFFER, offset, ConstantsSize, gl.Ptr(c.Bytes()))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

// BindConstants binds the ring region at offset to uniform binding 0.
func (r *Registry) BindConstants(offset int) {
	gl.BindBufferRange(gl.UNIFORM_BUFFER, 0, r.ringUBO, offset, ConstantsSize)
}

// BindMesh binds the mesh's vertex array for drawing.
func (r *Registry) BindMesh(m *Mesh) {
	gl.BindVertexArray(m.vao)
}

// ReleaseMesh queues a mesh's GPU buffers for deletion. The caller must
// drain releases only after a WaitForGPU.
func (r *Registry) ReleaseMesh(id MeshID) {
	m := r.Mesh(id)
	if m == nil {
		return
	}
	r.pendingVAOs = append(r.pendingVAOs, m.vao)
	r.pendingDelete = append(r.pendingDelete, m.vbo, m.ebo)
	if m.skinVBO != 0 {
		r.pendingDelete = append(r.pendingDelete, m.skinVBO)
	}
	m.vao, m.vbo, m.ebo, m.skinVBO = 0, 0, 0, 0
	m.indexCount = 0
}

// FlushReleases deletes all queued GPU objects. Call after GPU idle.
func (r *Registry) FlushReleases() {
	for _, vao := range r.pendingVAOs {
		v := vao
		gl.DeleteVertexArrays(1, &v)
	}
	r.pendingVAOs = r.pendingVAOs[:0]
	for _, buf := range r.pendingDelete {
		b := buf
		// Buffers and textures share the queue; try both namespaces.
		if gl.IsBuffer(b) {
			gl.DeleteBuffers(1, &b)
		} else if gl.IsTexture(b) {
			gl.DeleteTextures(1, &b)
		}
	}
	r.pendingDelete = r.pendingDelete[:0]
}

// Close releases everything. Call after GPU idle.
func (r *Registry) Close() {
	for i := range r.meshes {
		r.ReleaseMesh(MeshID(i))
	}
	for _, t := range r.textures {
		r.pendingDelete = append(r.pendingDelete, t.name)
	}
	r.FlushReleases()
	if r.ringUBO != 0 {
		gl.DeleteBuffers(1, &r.ringUBO)
		r.ringUBO = 0
	}
}

// FloatBytes reinterprets a float32 slice as raw bytes for texture upload.
func FloatBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4)
}
