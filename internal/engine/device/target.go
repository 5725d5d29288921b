package device

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Target manages an offscreen render target with a float color attachment
// and a depth renderbuffer. The scene renders into it when post-processing
// is enabled.
type Target struct {
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	width        int32
	height       int32
	internal     uint32 // color internal format
}

// NewTarget creates a render target with the given dimensions and internal
// color format (gl.RGBA16F for the HDR scene target).
func NewTarget(width, height int32, internalFormat uint32) (*Target, error) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	t := &Target{
		width:    width,
		height:   height,
		internal: internalFormat,
	}
	if err := t.create(); err != nil {
		return nil, fmt.Errorf("creating render target: %w", err)
	}
	return t, nil
}

func (t *Target) create() error {
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)

	gl.GenTextures(1, &t.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, t.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(t.internal), t.width, t.height, 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.colorTexture, 0)

	gl.GenRenderbuffers(1, &t.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, t.width, t.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depthRBO)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		t.Destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// Bind makes this target the current framebuffer and sets its viewport.
func (t *Target) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, t.width, t.height)
}

// Unbind restores the default framebuffer.
func (t *Target) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Clear clears color and depth with the specified color.
func (t *Target) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ColorTexture returns the color attachment texture name.
func (t *Target) ColorTexture() uint32 {
	return t.colorTexture
}

// Size returns the target dimensions.
func (t *Target) Size() (width, height int32) {
	return t.width, t.height
}

// Resize reallocates the attachments if the dimensions changed.
func (t *Target) Resize(width, height int32) {
	if width == t.width && height == t.height {
		return
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	t.width = width
	t.height = height

	gl.BindTexture(gl.TEXTURE_2D, t.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(t.internal), t.width, t.height, 0, gl.RGBA, gl.FLOAT, nil)

	gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, t.width, t.height)
}

// ReadPixels reads the color attachment as RGBA float32 values.
func (t *Target) ReadPixels() []float32 {
	pixels := make([]float32, t.width*t.height*4)

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.ReadPixels(0, 0, t.width, t.height, gl.RGBA, gl.FLOAT, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))

	return pixels
}

// Destroy releases all GL resources.
func (t *Target) Destroy() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.colorTexture != 0 {
		gl.DeleteTextures(1, &t.colorTexture)
		t.colorTexture = 0
	}
	if t.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &t.depthRBO)
		t.depthRBO = 0
	}
}
