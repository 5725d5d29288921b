package probes

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/internal/engine/ibl"
	"github.com/lumen3d/lumen/pkg/math"
)

func constantCube(size int, r, g, b float32) *ibl.Cube {
	c := ibl.NewCube(size)
	for f := range c.Faces {
		for i := 0; i < len(c.Faces[f]); i += 3 {
			c.Faces[f][i] = r
			c.Faces[f][i+1] = g
			c.Faces[f][i+2] = b
		}
	}
	return c
}

// dcOnly builds an SH set whose reconstruction is a constant value.
func dcOnly(v float32) SH9 {
	var s SH9
	// DC reconstruction is c4 * L00; choose L00 so the result is v.
	s[0] = math.Vec3{X: v, Y: v, Z: v}.Scale(1 / shC4)
	return s
}

func TestEvalIrradianceConstant(t *testing.T) {
	s := dcOnly(0.5)
	dirs := []math.Vec3{{X: 1}, {Y: 1}, {Z: -1}, {X: 0.577, Y: 0.577, Z: 0.577}}
	for _, d := range dirs {
		e := s.EvalIrradiance(d.Normalize())
		if math32.Abs(e.X-0.5) > 1e-3 {
			t.Errorf("dir %+v: got %v, want 0.5", d, e.X)
		}
	}
}

func TestSHFromDirectional(t *testing.T) {
	dir := math.Vec3{Y: 1}
	s := SHFromDirectional(dir, math.Vec3{X: 1, Y: 1, Z: 1})

	// Evaluating back along the light direction gives the cosine
	// integral, color*pi, times the L2 peak overshoot of 1.0625.
	toward := s.EvalIrradiance(dir)
	want := 1.0625 * math32.Pi
	if math32.Abs(toward.X-want) > 0.01 {
		t.Fatalf("irradiance toward light %v, want %v", toward.X, want)
	}
	if math32.Abs(toward.X-math32.Pi) > 0.1*math32.Pi {
		t.Errorf("irradiance %v more than 10%% from pi", toward.X)
	}
	away := s.EvalIrradiance(dir.Negate())
	if away.X >= toward.X {
		t.Errorf("away %v not darker than toward %v", away.X, toward.X)
	}
}

func TestSphericalFibonacciUnitAndSpread(t *testing.T) {
	const n = 64
	var sum math.Vec3
	for i := 0; i < n; i++ {
		d := SphericalFibonacci(i, n)
		if math32.Abs(d.Length()-1) > 1e-4 {
			t.Fatalf("sample %d length %v", i, d.Length())
		}
		sum = sum.Add(d)
	}
	// Near-uniform coverage: the mean direction stays close to zero.
	if sum.Scale(1.0/n).Length() > 0.1 {
		t.Errorf("directions unbalanced, mean length %v", sum.Scale(1.0/n).Length())
	}
}

// Baking over a constant environment of radiance v must reproduce the
// cosine integral pi*v at every probe and normal.
func TestBakeConstantEnvironment(t *testing.T) {
	grid, err := NewGrid(2, 1, 2, math.Vec3{X: -1, Z: -1}, math.Vec3{X: 1, Z: 1})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	b := NewBaker(grid, constantCube(4, 0.25, 0.5, 0.75), nil)
	b.BakeAll()

	e := grid.Probes[0].EvalIrradiance(math.Vec3{Y: 1})
	want := math.Vec3{X: 0.25, Y: 0.5, Z: 0.75}.Scale(math32.Pi)
	if math32.Abs(e.X-want.X) > 0.1 || math32.Abs(e.Y-want.Y) > 0.16 || math32.Abs(e.Z-want.Z) > 0.25 {
		t.Errorf("constant bake: got %+v, want %+v", e, want)
	}
	if grid.DirtyCount() != 0 {
		t.Errorf("dirty count %d after BakeAll", grid.DirtyCount())
	}
}

func TestGridTrilinearWeights(t *testing.T) {
	grid, err := NewGrid(2, 1, 1, math.Vec3{}, math.Vec3{X: 1})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	grid.Probes[0] = dcOnly(1)
	grid.Probes[1] = dcOnly(0)

	// 12.5% of the way between the probes: 0.875 / 0.125 split.
	e := grid.Sample(math.Vec3{X: 0.125}).EvalIrradiance(math.Vec3{Y: 1})
	if math32.Abs(e.X-0.875) > 1e-3 {
		t.Errorf("got %v, want 0.875", e.X)
	}
}

// Trilinear sampling must equal the explicit weighted sum over the
// eight cell corners.
func TestGridTrilinearMatchesCornerSum(t *testing.T) {
	grid, err := NewGrid(2, 2, 2, math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	for i := range grid.Probes {
		grid.Probes[i] = dcOnly(float32(i) * 0.1)
	}

	pos := math.Vec3{X: 0.3, Y: 0.65, Z: 0.8}
	up := math.Vec3{Y: 1}
	got := grid.Sample(pos).EvalIrradiance(up).X

	var want float32
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				wx := pos.X
				if x == 0 {
					wx = 1 - pos.X
				}
				wy := pos.Y
				if y == 0 {
					wy = 1 - pos.Y
				}
				wz := pos.Z
				if z == 0 {
					wz = 1 - pos.Z
				}
				corner := grid.Probes[grid.Index(x, y, z)].EvalIrradiance(up).X
				want += wx * wy * wz * corner
			}
		}
	}
	if math32.Abs(got-want) > 1e-4 {
		t.Errorf("trilinear %v, corner sum %v", got, want)
	}
}

func TestGridClampsToEdge(t *testing.T) {
	grid, _ := NewGrid(2, 1, 1, math.Vec3{}, math.Vec3{X: 1})
	grid.Probes[0] = dcOnly(1)
	grid.Probes[1] = dcOnly(0)

	inside := grid.Sample(math.Vec3{X: 0}).EvalIrradiance(math.Vec3{Y: 1})
	outside := grid.Sample(math.Vec3{X: -5, Y: 9, Z: -9}).EvalIrradiance(math.Vec3{Y: 1})
	if math32.Abs(inside.X-outside.X) > 1e-4 {
		t.Errorf("outside sample %v differs from edge %v", outside.X, inside.X)
	}
}

func TestSampleGroupWeightsNearestProbe(t *testing.T) {
	grid, _ := NewGrid(3, 1, 1, math.Vec3{}, math.Vec3{X: 2})
	grid.Probes[0] = dcOnly(1)
	grid.Probes[1] = dcOnly(0)
	grid.Probes[2] = dcOnly(0)

	near := grid.SampleGroup(math.Vec3{X: 0.01}).EvalIrradiance(math.Vec3{Y: 1})
	far := grid.SampleGroup(math.Vec3{X: 1.99}).EvalIrradiance(math.Vec3{Y: 1})
	if near.X <= far.X {
		t.Errorf("inverse-distance blend: near %v, far %v", near.X, far.X)
	}
	if near.X < 0.9 {
		t.Errorf("coincident probe should dominate: %v", near.X)
	}
}

func TestBakeDirtyBudget(t *testing.T) {
	grid, _ := NewGrid(2, 2, 2, math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	b := NewBaker(grid, constantCube(2, 1, 1, 1), nil)

	if n := b.BakeDirty(3); n != 3 {
		t.Fatalf("baked %d, want 3", n)
	}
	if grid.DirtyCount() != 5 {
		t.Errorf("dirty count %d, want 5", grid.DirtyCount())
	}
	if n := b.BakeDirty(100); n != 5 {
		t.Errorf("second pass baked %d, want 5", n)
	}
	if grid.DirtyCount() != 0 {
		t.Errorf("dirty count %d, want 0", grid.DirtyCount())
	}
}

// Probes start invalid, become valid on their first bake, and stay
// valid when marked dirty again.
func TestProbeValidityLifecycle(t *testing.T) {
	grid, _ := NewGrid(2, 1, 1, math.Vec3{}, math.Vec3{X: 1})
	if grid.ValidCount() != 0 {
		t.Fatalf("new grid has %d valid probes", grid.ValidCount())
	}

	b := NewBaker(grid, constantCube(2, 1, 1, 1), nil)
	if b.BakeDirty(1) != 1 {
		t.Fatal("expected one bake")
	}
	if !grid.IsValid(0) || grid.IsValid(1) {
		t.Errorf("validity after partial bake: %v %v", grid.IsValid(0), grid.IsValid(1))
	}

	grid.MarkAllDirty()
	if !grid.IsValid(0) {
		t.Error("marking dirty must not invalidate a baked probe")
	}
	if grid.DirtyCount() != 2 {
		t.Errorf("dirty count %d, want 2", grid.DirtyCount())
	}
}

func TestNewGridRejectsDegenerateExtent(t *testing.T) {
	if _, err := NewGrid(2, 1, 1, math.Vec3{}, math.Vec3{}); err == nil {
		t.Error("zero x extent with two probes should fail")
	}
	if _, err := NewGrid(1, 1, 3, math.Vec3{Z: 2}, math.Vec3{Z: 1}); err == nil {
		t.Error("inverted z extent should fail")
	}
	// Flat axes with a single probe are fine.
	if _, err := NewGrid(1, 1, 1, math.Vec3{Y: 1}, math.Vec3{Y: 1}); err != nil {
		t.Errorf("single-probe grid rejected: %v", err)
	}
}

func TestMarkDirtyRadius(t *testing.T) {
	grid, _ := NewGrid(2, 1, 1, math.Vec3{}, math.Vec3{X: 10})
	b := NewBaker(grid, nil, nil)
	b.BakeDirty(100)
	if grid.DirtyCount() != 0 {
		t.Fatal("grid should be clean")
	}

	grid.MarkDirty(math.Vec3{X: 0}, 1)
	if grid.DirtyCount() != 1 {
		t.Errorf("dirty count %d, want 1", grid.DirtyCount())
	}
}

// shadowPlane occludes all downward rays below y=0.
type shadowPlane struct{}

func (shadowPlane) Trace(origin, dir math.Vec3) (Surface, bool) {
	if dir.Y >= 0 {
		return Surface{}, false
	}
	t := -origin.Y / dir.Y
	if t <= 0 {
		return Surface{}, false
	}
	p := origin.Add(dir.Scale(t))
	return Surface{Position: p, Normal: math.Vec3{Y: 1}, Albedo: math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}}, true
}

func TestBakeWithGeometryDarkensLowerHemisphere(t *testing.T) {
	grid, _ := NewGrid(1, 1, 1, math.Vec3{Y: 1}, math.Vec3{Y: 1})
	b := NewBaker(grid, constantCube(2, 1, 1, 1), shadowPlane{})
	b.Samples = 128
	b.BakeAll()

	up := grid.Probes[0].EvalIrradiance(math.Vec3{Y: 1})
	down := grid.Probes[0].EvalIrradiance(math.Vec3{Y: -1})
	if down.X >= up.X {
		t.Errorf("floor-facing irradiance %v not darker than sky-facing %v", down.X, up.X)
	}
}
