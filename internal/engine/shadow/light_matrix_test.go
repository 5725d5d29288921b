package shadow

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/pkg/math"
)

func TestLightMatrixCentersScene(t *testing.T) {
	center := math.Vec3{X: 3, Y: 1, Z: -2}
	m := LightMatrix(math.Vec3{X: 0.5, Y: -1, Z: 0.3}, center, 5, 10)

	// The scene center must project to the middle of the shadow map
	p := m.TransformPoint(center)
	if math32.Abs(p.X) > 1e-4 || math32.Abs(p.Y) > 1e-4 {
		t.Errorf("scene center off-axis in light space: %v", p)
	}
	if p.Z < -1 || p.Z > 1 {
		t.Errorf("scene center outside depth range: %f", p.Z)
	}
}

func TestLightMatrixCoversSceneExtent(t *testing.T) {
	center := math.Vec3{}
	radius := float32(4)
	m := LightMatrix(math.Vec3{Y: -1, X: 0.2}, center, radius, 10)

	// Points on the bounding sphere stay inside the ortho frustum
	offsets := []math.Vec3{
		{X: radius}, {X: -radius}, {Y: radius}, {Y: -radius}, {Z: radius}, {Z: -radius},
	}
	for _, off := range offsets {
		p := m.TransformPoint(center.Add(off))
		if p.X < -1 || p.X > 1 || p.Y < -1 || p.Y > 1 {
			t.Errorf("sphere point %v maps outside NDC: %v", off, p)
		}
	}
}

func TestLightMatrixVerticalLightUpFlip(t *testing.T) {
	// A straight-down light must not produce a degenerate view basis
	m := LightMatrix(math.Vec3{Y: -1}, math.Vec3{}, 2, 10)

	for i, v := range m {
		if math32.IsNaN(v) {
			t.Fatalf("vertical light produced NaN at element %d", i)
		}
	}

	// Two distinct points must stay distinct after the transform
	a := m.TransformPoint(math.Vec3{X: 1})
	b := m.TransformPoint(math.Vec3{Z: 1})
	if a == b {
		t.Error("degenerate light basis collapses distinct points")
	}
}

func TestLightMatrixDefaultsOnBadInput(t *testing.T) {
	m := LightMatrix(math.Vec3{Y: -1, X: 0.1}, math.Vec3{}, 0, 0)
	for i, v := range m {
		if math32.IsNaN(v) {
			t.Fatalf("bad input produced NaN at element %d", i)
		}
	}
}
