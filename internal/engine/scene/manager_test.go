package scene

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/pkg/math"
)

func TestBoundsRadiusFloor(t *testing.T) {
	b := Bounds{}
	if r := b.Radius(); r != 0.1 {
		t.Errorf("degenerate radius %v, want 0.1", r)
	}

	b = Bounds{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}
	want := math32.Sqrt(12) / 2
	if r := b.Radius(); math32.Abs(r-want) > 1e-5 {
		t.Errorf("radius %v, want %v", r, want)
	}
}

func TestBoundsUnion(t *testing.T) {
	a := Bounds{Min: math.Vec3{X: -1}, Max: math.Vec3{X: 1}}
	b := Bounds{Min: math.Vec3{Y: -2}, Max: math.Vec3{Y: 3}}
	u := a.Union(b)
	if u.Min.X != -1 || u.Min.Y != -2 || u.Max.X != 1 || u.Max.Y != 3 {
		t.Errorf("union %+v", u)
	}
}

func TestBoundsTransformedRefits(t *testing.T) {
	b := Bounds{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}

	moved := b.transformed(math.Translate(10, 0, 0))
	if math32.Abs(moved.Center().X-10) > 1e-5 {
		t.Errorf("translated center %+v", moved.Center())
	}

	// 45 degree rotation grows the footprint to sqrt(2).
	rot := b.transformed(math.RotateY(math32.Pi / 4))
	if math32.Abs(rot.Max.X-math32.Sqrt2) > 1e-4 {
		t.Errorf("rotated max.X %v, want sqrt(2)", rot.Max.X)
	}
}

func TestNodeWorldOrder(t *testing.T) {
	n := &Node{
		Position: math.Vec3{X: 5},
		Rotation: math.QuatFromAxisAngle(math.Vec3{Y: 1}, math32.Pi/2),
		Scaling:  math.Vec3{X: 2, Y: 2, Z: 2},
	}
	// Scale then rotate then translate: (1,0,0) -> (2,0,0) -> (0,0,-2) -> (5,0,-2)
	p := n.World().TransformPoint(math.Vec3{X: 1})
	if math32.Abs(p.X-5) > 1e-4 || math32.Abs(p.Z+2) > 1e-4 {
		t.Errorf("transformed point %+v, want (5, 0, -2)", p)
	}
}

func TestMeshBounds(t *testing.T) {
	verts := make([]float32, registry.FloatsPerVertex*2)
	verts[0], verts[1], verts[2] = -3, 0, 1
	stride := registry.FloatsPerVertex
	verts[stride], verts[stride+1], verts[stride+2] = 2, 5, -4

	b := meshBounds(&registry.MeshData{Vertices: verts})
	if b.Min.X != -3 || b.Min.Z != -4 || b.Max.X != 2 || b.Max.Y != 5 {
		t.Errorf("bounds %+v", b)
	}
}

func TestSceneBoundsUnionsVisibleNodes(t *testing.T) {
	m := NewManager(nil)
	model := &Model{
		Name:  "cube",
		Local: Bounds{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}},
	}

	a := &Node{Model: model, Rotation: math.QuatIdentity(), Scaling: math.Vec3{X: 1, Y: 1, Z: 1}, Visible: true}
	b := &Node{Model: model, Rotation: math.QuatIdentity(), Scaling: math.Vec3{X: 1, Y: 1, Z: 1}, Visible: true,
		Position: math.Vec3{X: 10}}
	hidden := &Node{Model: model, Rotation: math.QuatIdentity(), Scaling: math.Vec3{X: 1, Y: 1, Z: 1},
		Position: math.Vec3{X: 100}}
	m.nodes = append(m.nodes, a, b, hidden)

	bounds := m.SceneBounds()
	if bounds.Min.X != -1 || math32.Abs(bounds.Max.X-11) > 1e-5 {
		t.Errorf("scene bounds %+v, want x in [-1, 11]", bounds)
	}
}

func TestSceneBoundsEmptyScene(t *testing.T) {
	m := NewManager(nil)
	b := m.SceneBounds()
	if b.Radius() < 0.1 {
		t.Errorf("empty scene radius %v", b.Radius())
	}
	if b.Center().Length() > 1e-5 {
		t.Errorf("empty scene center %+v, want origin", b.Center())
	}
}

func TestRemoveNode(t *testing.T) {
	m := NewManager(nil)
	model := &Model{Name: "m"}
	a := &Node{Model: model}
	b := &Node{Model: model}
	m.nodes = append(m.nodes, a, b)

	m.RemoveNode(a)
	if len(m.Nodes()) != 1 || m.Nodes()[0] != b {
		t.Errorf("nodes after removal: %d", len(m.Nodes()))
	}
}
