package postfx

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/lumen3d/lumen/internal/engine/device"
	"github.com/lumen3d/lumen/internal/engine/pipeline"
)

// constants mirrors the std140 PostConstants block: eight vec4s.
type constants struct {
	BloomParams  [4]float32
	ColorParams  [4]float32
	ExtraParams  [4]float32
	Lift         [4]float32
	GammaMid     [4]float32
	Gain         [4]float32
	GrainParams  [4]float32
	ScreenParams [4]float32
}

const constantsSize = int(unsafe.Sizeof(constants{}))

// Chain is the post-process pass. It satisfies the device's
// PostProcessor: the device hands it the HDR color texture after the
// scene pass and it writes the final image to the bound back buffer.
type Chain struct {
	pipelines *pipeline.Cache
	settings  Settings

	// half-resolution ping-pong targets for the separable bloom blur
	bloomA *device.Target
	bloomB *device.Target

	ubo        uint32
	quadVAO    uint32 // empty VAO; the fullscreen vertex shader is attributeless
	time       float32
	blurPasses int
}

// NewChain allocates the bloom targets at half the given resolution.
func NewChain(pipelines *pipeline.Cache, width, height int32, settings Settings) (*Chain, error) {
	c := &Chain{
		pipelines:  pipelines,
		settings:   settings,
		blurPasses: 4,
	}

	var err error
	c.bloomA, err = device.NewTarget(max(width/2, 1), max(height/2, 1), gl.RGBA16F)
	if err != nil {
		return nil, fmt.Errorf("postfx: bloom target: %w", err)
	}
	c.bloomB, err = device.NewTarget(max(width/2, 1), max(height/2, 1), gl.RGBA16F)
	if err != nil {
		c.bloomA.Destroy()
		return nil, fmt.Errorf("postfx: bloom target: %w", err)
	}

	gl.GenBuffers(1, &c.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, c.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, constantsSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	gl.GenVertexArrays(1, &c.quadVAO)
	return c, nil
}

// SetSettings swaps the effect parameters; applied from the next Run.
func (c *Chain) SetSettings(s Settings) { c.settings = s }

// Settings returns the active parameters.
func (c *Chain) Settings() Settings { return c.settings }

// Advance accumulates elapsed time for the grain animation.
func (c *Chain) Advance(dt float32) { c.time += dt }

// Run executes the chain: bright extract and blur at half resolution
// when bloom is on, then the composite pass into the bound target.
// The caller has already bound the destination framebuffer.
func (c *Chain) Run(hdrColor uint32, width, height int32) {
	var dstFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &dstFBO)

	mask := c.settings.Mask()
	c.upload(width, height, mask)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, pipeline.BindingPostConstants, c.ubo)
	gl.BindVertexArray(c.quadVAO)

	if mask&FXBloom != 0 {
		// bright extract into A
		c.bloomA.Bind()
		c.pipelines.Get(pipeline.Bright).Bind()
		bindTexture(0, hdrColor)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)

		// separable blur ping-pong A <-> B
		for i := 0; i < c.blurPasses; i++ {
			c.bloomB.Bind()
			c.pipelines.Get(pipeline.BlurH).Bind()
			bindTexture(0, c.bloomA.ColorTexture())
			gl.DrawArrays(gl.TRIANGLES, 0, 3)

			c.bloomA.Bind()
			c.pipelines.Get(pipeline.BlurV).Bind()
			bindTexture(0, c.bloomB.ColorTexture())
			gl.DrawArrays(gl.TRIANGLES, 0, 3)
		}
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(dstFBO))
	gl.Viewport(0, 0, width, height)
	c.pipelines.Get(pipeline.Composite).Bind()
	bindTexture(0, hdrColor)
	bindTexture(1, c.bloomA.ColorTexture())
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	gl.BindVertexArray(0)
}

func (c *Chain) upload(width, height int32, mask int) {
	s := c.settings
	toneMode := float32(0)
	if s.ToneMap == "aces" {
		toneMode = 1
	}

	u := constants{
		BloomParams: [4]float32{s.BloomThreshold, s.BloomIntensity, 0, 0},
		ColorParams: [4]float32{s.Exposure, s.Gamma, s.Saturation, s.Contrast},
		ExtraParams: [4]float32{s.Brightness, s.VignetteIntensity, s.VignetteRadius, s.ChromaticAberration},
		Lift:        [4]float32{s.Lift[0], s.Lift[1], s.Lift[2], 0},
		GammaMid:    [4]float32{s.GammaMid[0], s.GammaMid[1], s.GammaMid[2], 1},
		Gain:        [4]float32{s.Gain[0], s.Gain[1], s.Gain[2], 1},
		GrainParams: [4]float32{s.GrainIntensity, s.GrainSize, c.time, toneMode},
		ScreenParams: [4]float32{float32(width), float32(height), float32(mask), 0},
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, c.ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, constantsSize, unsafe.Pointer(&u))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

// Resize reallocates the half-resolution bloom targets.
func (c *Chain) Resize(width, height int32) {
	c.bloomA.Resize(max(width/2, 1), max(height/2, 1))
	c.bloomB.Resize(max(width/2, 1), max(height/2, 1))
}

// Close releases the chain's GPU objects.
func (c *Chain) Close() {
	c.bloomA.Destroy()
	c.bloomB.Destroy()
	if c.ubo != 0 {
		gl.DeleteBuffers(1, &c.ubo)
		c.ubo = 0
	}
	if c.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &c.quadVAO)
		c.quadVAO = 0
	}
}

func bindTexture(unit uint32, name uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, name)
}
