// Package device owns the GL device state and per-frame orchestration:
// frame pacing with sync fences, the HDR scene target, and the hand-off
// points between the scene pass, the post chain and the UI overlay.
package device

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/internal/logger"
)

// ErrDeviceCreation indicates the GL context does not meet requirements.
var ErrDeviceCreation = errors.New("device: creation failed")

// InFlightFrames is the number of frames the CPU may record ahead of the
// GPU. The constant ring buffer is double-buffered to match.
const InFlightFrames = 2

// PostProcessor consumes the HDR scene color texture and writes the final
// image to the back buffer.
type PostProcessor interface {
	Run(hdrColor uint32, width, height int32)
	Resize(width, height int32)
}

// Config holds device configuration.
type Config struct {
	Width       int
	Height      int
	PostProcess bool
	// Present swaps the back buffer (the window's GLSwap).
	Present func()
	// ClearColor is the scene clear color.
	ClearColor [4]float32
}

// Device drives the per-frame protocol. Render-thread only.
type Device struct {
	config   Config
	registry *registry.Registry

	hdr  *Target // nil when post-processing is disabled
	post PostProcessor

	fences     [InFlightFrames]uintptr
	frameCount uint64
	frameIndex int

	width  int32
	height int32
}

// InitGL loads the GL function pointers, verifies the context version
// and applies the global render state. Call once after context
// creation, before any other GL-touching constructor.
func InitGL() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("%w: initializing OpenGL: %v", ErrDeviceCreation, err)
	}

	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 1) {
		return fmt.Errorf("%w: OpenGL 4.1 required, context is %d.%d", ErrDeviceCreation, major, minor)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	vendor := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", vendor),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	return nil
}

// New creates the frame resources. InitGL must have run.
func New(cfg Config, reg *registry.Registry) (*Device, error) {
	d := &Device{
		config:   cfg,
		registry: reg,
		width:    int32(cfg.Width),
		height:   int32(cfg.Height),
	}

	if cfg.PostProcess {
		hdr, err := NewTarget(d.width, d.height, gl.RGBA16F)
		if err != nil {
			return nil, fmt.Errorf("%w: HDR target: %v", ErrDeviceCreation, err)
		}
		d.hdr = hdr
	}

	return d, nil
}

// SetPostProcessor attaches the post chain. Pass nil to composite directly
// into the back buffer.
func (d *Device) SetPostProcessor(p PostProcessor) {
	d.post = p
}

// HDRTarget returns the offscreen scene target, or nil when post-processing
// is disabled.
func (d *Device) HDRTarget() *Target {
	return d.hdr
}

// FrameIndex returns the current in-flight frame index (0 or 1).
func (d *Device) FrameIndex() int {
	return d.frameIndex
}

// BeginFrame starts a new frame: waits for the fence of the frame slot
// being reused, drains deferred releases, resets the constant ring, and
// binds and clears the scene color and depth targets.
func (d *Device) BeginFrame() {
	d.waitFence(d.frameIndex)
	d.registry.FlushReleases()
	d.registry.Ring().Reset(d.frameIndex)

	if d.hdr != nil && d.post != nil {
		d.hdr.Bind()
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, d.width, d.height)
	}

	c := d.config.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
}

// BindSceneTarget rebinds the scene color and depth targets without
// clearing. Used after side passes such as the shadow prepass.
func (d *Device) BindSceneTarget() {
	if d.hdr != nil && d.post != nil {
		d.hdr.Bind()
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, d.width, d.height)
}

// FinishSceneRendering runs the post chain when enabled, leaving the back
// buffer bound for UI overlay draws. Without a post chain it rebinds the
// back buffer directly.
func (d *Device) FinishSceneRendering() {
	if d.hdr != nil && d.post != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, d.width, d.height)
		d.post.Run(d.hdr.ColorTexture(), d.width, d.height)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, d.width, d.height)
}

// EndFrame inserts this frame's fence, presents, and advances the frame
// slot. The fence is waited on when the slot comes around again, so at most
// two frames are ever in flight.
func (d *Device) EndFrame() {
	if d.fences[d.frameIndex] != 0 {
		gl.DeleteSync(d.fences[d.frameIndex])
	}
	d.fences[d.frameIndex] = gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)

	if d.config.Present != nil {
		d.config.Present()
	}

	d.frameCount++
	d.frameIndex = int(d.frameCount % InFlightFrames)
}

// waitFence blocks until the fence for a frame slot has retired.
// Infinite wait: fence expiry is not surfaced as an error.
func (d *Device) waitFence(slot int) {
	sync := d.fences[slot]
	if sync == 0 {
		return
	}
	for {
		status := gl.ClientWaitSync(sync, gl.SYNC_FLUSH_COMMANDS_BIT, uint64(gl.TIMEOUT_IGNORED))
		if status == gl.ALREADY_SIGNALED || status == gl.CONDITION_SATISFIED {
			break
		}
		if status == gl.WAIT_FAILED {
			logger.Warn("frame fence wait failed", zap.Int("slot", slot))
			break
		}
	}
	gl.DeleteSync(sync)
	d.fences[slot] = 0
}

// WaitForGPU blocks until all submitted work completes. Used around
// pipeline hot reload, resize and shutdown.
func (d *Device) WaitForGPU() {
	gl.Finish()
	for i := range d.fences {
		if d.fences[i] != 0 {
			gl.DeleteSync(d.fences[i])
			d.fences[i] = 0
		}
	}
	d.registry.FlushReleases()
}

// Resize updates the back-buffer dimensions and reallocates the HDR target.
// A zero dimension is a no-op.
func (d *Device) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	d.WaitForGPU()

	d.width = int32(width)
	d.height = int32(height)
	gl.Viewport(0, 0, d.width, d.height)

	if d.hdr != nil {
		d.hdr.Resize(d.width, d.height)
	}
	if d.post != nil {
		d.post.Resize(d.width, d.height)
	}

	logger.Debug("device resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the current back-buffer dimensions.
func (d *Device) Size() (int32, int32) {
	return d.width, d.height
}

// Close waits for idle and releases frame resources.
func (d *Device) Close() {
	logger.Info("closing device")
	d.WaitForGPU()
	if d.hdr != nil {
		d.hdr.Destroy()
		d.hdr = nil
	}
}
