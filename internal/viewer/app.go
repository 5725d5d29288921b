// Package viewer wires the full renderer into a demo application: a
// lit scene of primitives under a sun, a sky environment, baked light
// probes and the post-process chain.
package viewer

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/config"
	"github.com/lumen3d/lumen/internal/engine/device"
	"github.com/lumen3d/lumen/internal/engine/ibl"
	"github.com/lumen3d/lumen/internal/engine/pipeline"
	"github.com/lumen3d/lumen/internal/engine/postfx"
	"github.com/lumen3d/lumen/internal/engine/probes"
	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/internal/engine/scene"
	"github.com/lumen3d/lumen/internal/engine/scenepass"
	"github.com/lumen3d/lumen/internal/engine/shadow"
	"github.com/lumen3d/lumen/internal/engine/texstream"
	"github.com/lumen3d/lumen/internal/engine/window"
	"github.com/lumen3d/lumen/internal/logger"
	"github.com/lumen3d/lumen/pkg/math"
)

// App owns every renderer subsystem and the demo scene.
type App struct {
	cfg *config.Config

	win       *window.Window
	reg       *registry.Registry
	dev       *device.Device
	pipelines *pipeline.Cache

	shadowMap *shadow.Map
	pass      *scenepass.Pass
	chain     *postfx.Chain
	stream    *texstream.Pipeline
	scene     *scene.Manager

	products *ibl.Products
	grid     *probes.Grid
	baker    *probes.Baker

	gizmo    *scenepass.LineBatch
	lightDir math.Vec3
	elapsed  float32
}

// New builds the renderer stack and the demo content.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:      cfg,
		lightDir: math.Vec3{X: -0.4, Y: -1, Z: -0.3}.Normalize(),
	}

	var err error
	a.win, err = window.New(window.Config{
		Title:      "lumen viewer",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, err
	}

	if err := device.InitGL(); err != nil {
		a.win.Close()
		return nil, err
	}

	a.reg, err = registry.New(cfg.Graphics.MaxDrawsPerFrame)
	if err != nil {
		a.win.Close()
		return nil, err
	}

	a.dev, err = device.New(device.Config{
		Width:       cfg.Graphics.Width,
		Height:      cfg.Graphics.Height,
		PostProcess: cfg.Post.Enabled,
		Present:     a.win.Present,
		ClearColor:  [4]float32{0.05, 0.06, 0.08, 1},
	}, a.reg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pipelines, err = pipeline.NewCache(cfg.Shaders.Dir, cfg.Shaders.HotReload)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Shadow.Enabled {
		a.shadowMap = shadow.NewMap(int32(cfg.Shadow.Resolution))
		if !a.shadowMap.IsValid() {
			logger.Warn("shadow map unavailable, continuing without shadows")
			a.shadowMap = nil
		}
	}

	if cfg.Post.Enabled {
		settings := postfx.DefaultSettings()
		settings.BloomThreshold = cfg.Post.BloomThreshold
		settings.BloomIntensity = cfg.Post.BloomIntensity
		settings.Exposure = cfg.Post.Exposure
		settings.Gamma = cfg.Post.Gamma
		settings.ToneMap = cfg.Post.ToneMap
		settings.VignetteIntensity = cfg.Post.Vignette
		settings.GrainIntensity = cfg.Post.FilmGrain
		a.chain, err = postfx.NewChain(a.pipelines,
			int32(cfg.Graphics.Width), int32(cfg.Graphics.Height), settings)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.dev.SetPostProcessor(a.chain)
	}

	a.pass = scenepass.New(a.reg, a.pipelines)
	a.stream = texstream.NewPipeline(cfg.Stream.Workers, cfg.Stream.MaxTextureSize)
	a.scene = scene.NewManager(a.reg)

	if err := a.buildContent(); err != nil {
		a.Close()
		return nil, fmt.Errorf("building demo content: %w", err)
	}
	return a, nil
}

// buildContent loads the demo meshes, pre-integrates the sky and bakes
// the probe grid.
func (a *App) buildContent() error {
	cfg := a.cfg

	floor := []*registry.MeshData{planeMesh(20, registry.Material{
		BaseColor: math.Vec3{X: 0.55, Y: 0.55, Z: 0.6}, Roughness: 0.9,
	})}
	if _, err := a.scene.LoadModel("floor", floor); err != nil {
		return err
	}

	cube := []*registry.MeshData{cubeMesh(1.5, registry.Material{
		BaseColor: math.Vec3{X: 0.8, Y: 0.3, Z: 0.2}, Roughness: 0.5,
	})}
	if _, err := a.scene.LoadModel("cube", cube); err != nil {
		return err
	}

	sphere := []*registry.MeshData{sphereMesh(1, 24, 48, registry.Material{
		BaseColor: math.Vec3{X: 0.9, Y: 0.85, Z: 0.8}, Metallic: 1, Roughness: 0.15,
	})}
	if _, err := a.scene.LoadModel("sphere", sphere); err != nil {
		return err
	}

	if _, err := a.scene.CreateNode("floor"); err != nil {
		return err
	}
	c, err := a.scene.CreateNode("cube")
	if err != nil {
		return err
	}
	c.Position = math.Vec3{X: -2, Y: 0.75}
	s, err := a.scene.CreateNode("sphere")
	if err != nil {
		return err
	}
	s.Position = math.Vec3{X: 2, Y: 1}

	if cfg.IBL.Enabled {
		a.products, err = ibl.Build(a.reg, gradientSky(128, 64), ibl.Options{
			EnvSize:        cfg.IBL.EnvSize,
			IrradianceSize: cfg.IBL.IrradianceSize,
			PrefilterSize:  cfg.IBL.PrefilterSize,
			PrefilterMips:  cfg.IBL.PrefilterMips,
			BRDFLUTSize:    cfg.IBL.BRDFLUTSize,
		})
		if err != nil {
			return err
		}
	}

	bounds := a.scene.SceneBounds()
	a.grid, err = probes.NewGrid(cfg.Probes.ResX, cfg.Probes.ResY, cfg.Probes.ResZ,
		bounds.Min, bounds.Max)
	if err != nil {
		return err
	}
	var env *ibl.Cube
	if a.products != nil {
		env = a.products.Environment
	}
	a.baker = probes.NewBaker(a.grid, env, nil)
	a.baker.Light = probes.DirectionalLight{
		Dir:   a.lightDir.Negate(),
		Color: math.Vec3{X: 1, Y: 0.96, Z: 0.9},
	}
	a.baker.Samples = cfg.Probes.Samples
	a.baker.Bounces = cfg.Probes.Bounces

	a.gizmo = scenepass.NewLineBatch(axisGizmo(2))
	return nil
}

// Run drives the frame loop until quit.
func (a *App) Run() error {
	last := time.Now()
	for {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now
		a.elapsed += dt

		if !a.win.PollEvents(func(w, h int) {
			a.dev.Resize(w, h)
		}) {
			return nil
		}

		a.pipelines.ProcessReloads(a.dev.WaitForGPU)
		a.stream.Collect(a.reg, a.cfg.Stream.UploadsPerFrame)
		a.baker.BakeDirty(1)

		a.frame()
		if a.chain != nil {
			a.chain.Advance(dt)
		}
	}
}

// frame records and presents one frame.
func (a *App) frame() {
	w, h := a.dev.Size()
	bounds := a.scene.SceneBounds()

	// slow orbit camera
	angle := a.elapsed * 0.25
	dist := bounds.Radius() * 2.5
	eye := bounds.Center().Add(math.Vec3{
		X: math32.Cos(angle) * dist,
		Y: dist * 0.55,
		Z: math32.Sin(angle) * dist,
	})
	view := math.LookAt(eye, bounds.Center(), math.Vec3{Y: 1})
	proj := math.Perspective(math32.Pi/4, float32(w)/float32(h), 0.1, dist*4)
	a.pass.SetCamera(view, proj, eye)

	a.pass.SetLight(a.lightDir)
	lightVP := shadow.LightMatrix(a.lightDir, bounds.Center(), bounds.Radius(),
		a.cfg.Shadow.DistanceFactor)
	if a.shadowMap != nil {
		a.pass.SetShadow(a.shadowMap, scenepass.ShadowParams{
			Bias:       a.cfg.Shadow.Bias,
			NormalBias: a.cfg.Shadow.NormalBias,
			Softness:   a.cfg.Shadow.Softness,
			Enabled:    true,
		}, lightVP)
	}
	if a.products != nil {
		a.pass.SetEnvironment(scenepass.Environment{
			IrradianceSlot: a.products.IrradianceSlot,
			PrefilterSlot:  a.products.PrefilterSlot,
			BRDFLUTSlot:    a.products.BRDFLUTSlot,
			Params: scenepass.IBLParams{
				Intensity: a.cfg.IBL.Intensity,
				Rotation:  a.cfg.IBL.Rotation,
				MaxMip:    a.products.MaxMip,
				Enabled:   true,
			},
		})
	}

	a.dev.BeginFrame()

	if a.pass.BeginShadow() {
		for _, n := range a.scene.Nodes() {
			if !n.Visible || !n.CastsShadow {
				continue
			}
			world := n.World()
			for _, id := range n.Model.Meshes {
				a.pass.DrawShadow(id, world)
			}
		}
		a.pass.EndShadow()
		a.dev.BindSceneTarget()
	}

	a.pass.BeginOpaque()
	for _, n := range a.scene.Nodes() {
		if !n.Visible {
			continue
		}
		world := n.World()
		for _, id := range n.Model.Meshes {
			a.pass.Draw(id, world)
		}
	}
	a.pass.DrawGizmo(a.gizmo, math.Identity())

	a.dev.FinishSceneRendering()
	a.dev.EndFrame()
}

// Close tears the stack down in reverse construction order.
func (a *App) Close() {
	if a.stream != nil {
		a.stream.Close()
	}
	if a.dev != nil {
		a.dev.WaitForGPU()
	}
	if a.gizmo != nil {
		a.gizmo.Destroy()
	}
	if a.chain != nil {
		a.chain.Close()
	}
	if a.shadowMap != nil {
		a.shadowMap.Destroy()
	}
	if a.pipelines != nil {
		a.pipelines.Close()
	}
	if a.dev != nil {
		a.dev.Close()
	}
	if a.reg != nil {
		a.reg.Close()
	}
	if a.win != nil {
		a.win.Close()
	}
	logger.Info("viewer closed", zap.Uint64("skipped_draws", skipped(a.pass)))
}

func skipped(p *scenepass.Pass) uint64 {
	if p == nil {
		return 0
	}
	return p.SkippedDraws()
}
