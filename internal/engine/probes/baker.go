package probes

import (
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/engine/ibl"
	"github.com/lumen3d/lumen/internal/logger"
	"github.com/lumen3d/lumen/pkg/math"
)

// Surface is a ray hit.
type Surface struct {
	Position math.Vec3
	Normal   math.Vec3
	Albedo   math.Vec3
}

// RayTracer is the scene intersection capability the baker needs.
// Implementations are expected to be safe for repeated sequential
// calls; the baker never traces concurrently.
type RayTracer interface {
	Trace(origin, dir math.Vec3) (Surface, bool)
}

// DirectionalLight is the single sun used during baking. Dir points
// toward the light.
type DirectionalLight struct {
	Dir   math.Vec3
	Color math.Vec3
}

// Baker fills probe grids by gathering radiance over the sphere:
// environment lighting on ray misses, bounced sun and sky on hits.
type Baker struct {
	Grid   *Grid
	Env    *ibl.Cube // may be nil; misses then contribute black
	Tracer RayTracer // may be nil; every ray then samples the environment
	Light  DirectionalLight

	// Samples is the gather-ray count per probe.
	Samples int
	// Bounces bounds the indirect recursion depth.
	Bounces int

	indirectSamples int
}

// NewBaker creates a baker with the default sample counts.
func NewBaker(grid *Grid, env *ibl.Cube, tracer RayTracer) *Baker {
	return &Baker{
		Grid:            grid,
		Env:             env,
		Tracer:          tracer,
		Light:           DirectionalLight{Dir: math.Vec3{Y: 1}, Color: math.Vec3{X: 1, Y: 1, Z: 1}},
		Samples:         64,
		Bounces:         2,
		indirectSamples: 8,
	}
}

// BakeAll rebakes every probe regardless of dirty state.
func (b *Baker) BakeAll() {
	start := time.Now()
	for i := range b.Grid.Probes {
		b.bakeProbe(i)
		b.Grid.dirty[i] = false
		b.Grid.valid[i] = true
	}
	logger.Info("probe grid baked",
		zap.Int("probes", len(b.Grid.Probes)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// BakeDirty rebakes up to budget dirty probes and returns how many it
// processed. Frame loops call this with a small budget to amortize
// invalidation over several frames.
func (b *Baker) BakeDirty(budget int) int {
	baked := 0
	for i := range b.Grid.dirty {
		if baked >= budget {
			break
		}
		if !b.Grid.dirty[i] {
			continue
		}
		b.bakeProbe(i)
		b.Grid.dirty[i] = false
		b.Grid.valid[i] = true
		baked++
	}
	return baked
}

func (b *Baker) bakeProbe(idx int) {
	nx, ny := b.Grid.Dims[0], b.Grid.Dims[1]
	x := idx % nx
	y := (idx / nx) % ny
	z := idx / (nx * ny)
	origin := b.Grid.Position(x, y, z)

	var sh SH9
	for i := 0; i < b.Samples; i++ {
		dir := SphericalFibonacci(i, b.Samples)
		sh.AddSample(dir, b.radiance(origin, dir, b.Bounces), 1)
	}
	// Uniform sphere sampling: each sample carries solid angle 4pi/N.
	b.Grid.Probes[idx] = sh.Scale(4 * math32.Pi / float32(b.Samples))
}

// radiance gathers incoming light along a ray, recursing for indirect
// bounces up to the configured depth.
func (b *Baker) radiance(origin, dir math.Vec3, depth int) math.Vec3 {
	if b.Tracer == nil {
		return b.envRadiance(dir)
	}
	hit, ok := b.Tracer.Trace(origin, dir)
	if !ok {
		return b.envRadiance(dir)
	}

	n := hit.Normal.Normalize()
	p := hit.Position.Add(n.Scale(1e-3))

	// Direct sun with a shadow ray.
	var direct math.Vec3
	ndl := n.Dot(b.Light.Dir)
	if ndl > 0 {
		if _, blocked := b.Tracer.Trace(p, b.Light.Dir); !blocked {
			direct = b.Light.Color.Scale(ndl)
		}
	}

	// One level of cosine-distributed indirect gathering.
	var indirect math.Vec3
	if depth > 1 {
		for i := 0; i < b.indirectSamples; i++ {
			d := SphericalFibonacci(i, b.indirectSamples)
			if d.Dot(n) < 0 {
				d = d.Negate()
			}
			indirect = indirect.Add(b.radiance(p, d, depth-1).Scale(d.Dot(n)))
		}
		indirect = indirect.Scale(2 * math32.Pi / float32(b.indirectSamples))
	}

	return hit.Albedo.Mul(direct.Add(indirect)).Scale(1 / math32.Pi)
}

func (b *Baker) envRadiance(dir math.Vec3) math.Vec3 {
	if b.Env == nil {
		return math.Vec3{}
	}
	return b.Env.SampleDirection(dir)
}
