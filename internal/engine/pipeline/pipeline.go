// Package pipeline owns compiled shader programs and their fixed-function
// state, keyed by name, with optional hot reload from an override directory.
package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/engine/shader"
	"github.com/lumen3d/lumen/internal/logger"
)

// ErrCompile indicates shader compilation or linking failed.
var ErrCompile = errors.New("pipeline: compile failed")

// Pipeline names created at init.
const (
	Opaque    = "opaque"
	Skinned   = "skinned"
	Shadow    = "shadow"
	Line      = "line"
	Gizmo     = "gizmo"
	Bright    = "bright"
	BlurH     = "blurh"
	BlurV     = "blurv"
	Composite = "composite"
)

// Uniform block binding points shared by all pipelines.
const (
	BindingDrawConstants = 0
	BindingBoneConstants = 1
	BindingPostConstants = 0
)

// depthMode selects the depth test state a pipeline binds with.
type depthMode int

const (
	depthLess depthMode = iota
	depthLessNoWrite
	depthAlways
	depthOff
)

// spec describes how to build one pipeline.
type spec struct {
	vert  string
	frag  string
	depth depthMode
	// gizmos pull toward the camera to win depth ties against the geometry
	// they annotate
	polygonOffset float32
	setup         func(program uint32)
}

// Pipeline is a linked program plus its fixed-function state.
type Pipeline struct {
	program uint32
	spec    spec
}

// Program returns the GL program name.
func (p *Pipeline) Program() uint32 { return p.program }

// Bind makes the pipeline current, applying its depth and blend state.
// Opaque geometry renders with blending disabled; transparency belongs in
// a separate sorted pass.
func (p *Pipeline) Bind() {
	gl.UseProgram(p.program)
	gl.Disable(gl.BLEND)

	switch p.spec.depth {
	case depthLess:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
		gl.DepthMask(true)
	case depthLessNoWrite:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
		gl.DepthMask(false)
	case depthAlways:
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.ALWAYS)
		gl.DepthMask(true)
	case depthOff:
		gl.Disable(gl.DEPTH_TEST)
	}

	if p.spec.polygonOffset != 0 {
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(p.spec.polygonOffset, p.spec.polygonOffset)
	} else {
		gl.Disable(gl.POLYGON_OFFSET_FILL)
	}
}

// Cache compiles and stores all pipelines.
type Cache struct {
	pipelines map[string]*Pipeline
	specs     map[string]spec

	overrideDir string
	watcher     *watcher

	mu      sync.Mutex
	dirty   map[string]bool
	lastErr string
}

// sceneSetup binds the shared scene sampler units and uniform blocks.
func sceneSetup(program uint32) {
	shader.BindUniformBlock(program, "DrawConstants", BindingDrawConstants)
	shader.BindSamplerUnit(program, "uBaseColorMap", 0)
	shader.BindSamplerUnit(program, "uNormalMap", 1)
	shader.BindSamplerUnit(program, "uMetalRoughMap", 2)
	shader.BindSamplerUnit(program, "uShadowMap", 3)
	shader.BindSamplerUnit(program, "uIrradianceMap", 4)
	shader.BindSamplerUnit(program, "uPrefilteredMap", 5)
	shader.BindSamplerUnit(program, "uBRDFLUT", 6)
}

func postSetup(program uint32) {
	shader.BindUniformBlock(program, "PostConstants", BindingPostConstants)
	shader.BindSamplerUnit(program, "uSceneMap", 0)
	shader.BindSamplerUnit(program, "uSourceMap", 0)
	shader.BindSamplerUnit(program, "uBloomMap", 1)
}

// NewCache compiles every pipeline. Compilation failure at init is fatal.
// overrideDir, when non-empty, supplies hot-reloadable shader sources.
func NewCache(overrideDir string, hotReload bool) (*Cache, error) {
	c := &Cache{
		pipelines:   make(map[string]*Pipeline),
		specs:       make(map[string]spec),
		overrideDir: overrideDir,
		dirty:       make(map[string]bool),
	}

	c.specs[Opaque] = spec{vert: "pbr.vert", frag: "pbr.frag", depth: depthLess, setup: sceneSetup}
	c.specs[Skinned] = spec{vert: "skinned.vert", frag: "pbr.frag", depth: depthLess, setup: func(p uint32) {
		sceneSetup(p)
		shader.BindUniformBlock(p, "BoneConstants", BindingBoneConstants)
	}}
	c.specs[Shadow] = spec{vert: "shadow.vert", frag: "shadow.frag", depth: depthLess, setup: func(p uint32) {
		shader.BindUniformBlock(p, "DrawConstants", BindingDrawConstants)
	}}
	c.specs[Line] = spec{vert: "line.vert", frag: "line.frag", depth: depthLessNoWrite, setup: func(p uint32) {
		shader.BindUniformBlock(p, "DrawConstants", BindingDrawConstants)
	}}
	c.specs[Gizmo] = spec{vert: "line.vert", frag: "line.frag", depth: depthAlways, polygonOffset: -1, setup: func(p uint32) {
		shader.BindUniformBlock(p, "DrawConstants", BindingDrawConstants)
	}}
	c.specs[Bright] = spec{vert: "fullscreen.vert", frag: "bright.frag", depth: depthOff, setup: postSetup}
	c.specs[BlurH] = spec{vert: "fullscreen.vert", frag: "blurh.frag", depth: depthOff, setup: postSetup}
	c.specs[BlurV] = spec{vert: "fullscreen.vert", frag: "blurv.frag", depth: depthOff, setup: postSetup}
	c.specs[Composite] = spec{vert: "fullscreen.vert", frag: "composite.frag", depth: depthOff, setup: postSetup}

	for name := range c.specs {
		p, err := c.build(name)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.pipelines[name] = p
	}

	if hotReload && overrideDir != "" {
		w, err := newWatcher(overrideDir, c.markDirty)
		if err != nil {
			logger.Warn("shader watcher unavailable", zap.Error(err))
		} else {
			c.watcher = w
			logger.Info("shader hot reload enabled", zap.String("dir", overrideDir))
		}
	}

	logger.Info("pipeline cache ready", zap.Int("pipelines", len(c.pipelines)))
	return c, nil
}

// build compiles one pipeline from its spec.
func (c *Cache) build(name string) (*Pipeline, error) {
	s, ok := c.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown pipeline %q", ErrCompile, name)
	}
	vertSrc, err := c.loadSource(s.vert)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, s.vert, err)
	}
	fragSrc, err := c.loadSource(s.frag)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, s.frag, err)
	}

	program, err := shader.CompileProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}
	if s.setup != nil {
		s.setup(program)
	}
	return &Pipeline{program: program, spec: s}, nil
}

// Get returns a pipeline by name, or nil.
func (c *Cache) Get(name string) *Pipeline {
	return c.pipelines[name]
}

// markDirty flags every pipeline that uses a changed shader file.
// Called from the watcher goroutine.
func (c *Cache) markDirty(file string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, s := range c.specs {
		if s.vert == file || s.frag == file {
			c.dirty[name] = true
		}
	}
}

// ProcessReloads recompiles dirty pipelines on the render thread. A failed
// compile keeps the prior pipeline active and latches the error string;
// successful swaps wait for GPU idle before deleting the old program.
func (c *Cache) ProcessReloads(waitForGPU func()) {
	c.mu.Lock()
	names := make([]string, 0, len(c.dirty))
	for name := range c.dirty {
		names = append(names, name)
	}
	c.dirty = make(map[string]bool)
	c.mu.Unlock()

	for _, name := range names {
		fresh, err := c.build(name)
		if err != nil {
			c.mu.Lock()
			c.lastErr = err.Error()
			c.mu.Unlock()
			logger.Error("shader reload failed, keeping previous pipeline",
				zap.String("pipeline", name),
				zap.Error(err),
			)
			continue
		}

		old := c.pipelines[name]
		if waitForGPU != nil {
			waitForGPU()
		}
		c.pipelines[name] = fresh
		if old != nil {
			gl.DeleteProgram(old.program)
		}

		c.mu.Lock()
		c.lastErr = ""
		c.mu.Unlock()
		logger.Info("shader pipeline reloaded", zap.String("pipeline", name))
	}
}

// LastError returns the latched error text of the most recent failed
// reload, or empty after a successful one.
func (c *Cache) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close stops the watcher and deletes all programs.
func (c *Cache) Close() {
	if c.watcher != nil {
		c.watcher.close()
		c.watcher = nil
	}
	for name, p := range c.pipelines {
		gl.DeleteProgram(p.program)
		delete(c.pipelines, name)
	}
}
