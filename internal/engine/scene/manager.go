// Package scene bridges loaded model assets and placed instances to
// the renderer: models keyed by name, nodes with transforms, and the
// world-space bounds the shadow and probe systems fit themselves to.
package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/internal/logger"
	"github.com/lumen3d/lumen/pkg/math"
)

// Bounds is an axis-aligned box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Center returns the box midpoint.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Radius returns the half-diagonal, floored so degenerate scenes still
// produce usable shadow and probe volumes.
func (b Bounds) Radius() float32 {
	r := b.Max.Sub(b.Min).Length() * 0.5
	if r < 0.1 {
		r = 0.1
	}
	return r
}

// Union grows the box to contain another.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// transformed maps the box through a matrix by transforming all eight
// corners and refitting.
func (b Bounds) transformed(m math.Mat4) Bounds {
	corners := [8]math.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
	out := Bounds{Min: m.TransformPoint(corners[0]), Max: m.TransformPoint(corners[0])}
	for _, c := range corners[1:] {
		p := m.TransformPoint(c)
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}

// Model is a named group of uploaded meshes sharing a local bound.
type Model struct {
	Name   string
	Meshes []registry.MeshID
	Local  Bounds
}

// Node places a model in the world.
type Node struct {
	Model    *Model
	Position math.Vec3
	Rotation math.Quat
	Scaling  math.Vec3
	Visible  bool
	// CastsShadow excludes a node from the shadow prepass when false.
	CastsShadow bool
}

// World returns the node's local-to-world matrix, scale then rotation
// then translation.
func (n *Node) World() math.Mat4 {
	t := math.Translate(n.Position.X, n.Position.Y, n.Position.Z)
	s := math.Scale(n.Scaling.X, n.Scaling.Y, n.Scaling.Z)
	return t.Mul(n.Rotation.ToMat4()).Mul(s)
}

// Manager owns the model library and the node list.
type Manager struct {
	reg    *registry.Registry
	models map[string]*Model
	nodes  []*Node
}

// NewManager creates an empty scene over the shared registry.
func NewManager(reg *registry.Registry) *Manager {
	return &Manager{
		reg:    reg,
		models: make(map[string]*Model),
	}
}

// LoadModel uploads mesh data under a name and computes its local
// bounds from the vertex positions. Reloading an existing name is an
// error; callers check HasModel first.
func (m *Manager) LoadModel(name string, meshes []*registry.MeshData) (*Model, error) {
	if _, ok := m.models[name]; ok {
		return nil, fmt.Errorf("scene: model %q already loaded", name)
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("scene: model %q has no meshes", name)
	}

	model := &Model{Name: name}
	first := true
	for _, data := range meshes {
		id, err := m.reg.UploadMesh(data)
		if err != nil {
			return nil, fmt.Errorf("scene: model %q: %w", name, err)
		}
		model.Meshes = append(model.Meshes, id)

		b := meshBounds(data)
		if first {
			model.Local = b
			first = false
		} else {
			model.Local = model.Local.Union(b)
		}
	}

	m.models[name] = model
	logger.Debug("model loaded",
		zap.String("name", name),
		zap.Int("meshes", len(model.Meshes)),
	)
	return model, nil
}

// meshBounds fits a box around the position stream.
func meshBounds(data *registry.MeshData) Bounds {
	var b Bounds
	for i := 0; i+2 < len(data.Vertices); i += registry.FloatsPerVertex {
		p := math.Vec3{X: data.Vertices[i], Y: data.Vertices[i+1], Z: data.Vertices[i+2]}
		if i == 0 {
			b.Min, b.Max = p, p
			continue
		}
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// HasModel reports whether a model name is loaded.
func (m *Manager) HasModel(name string) bool {
	_, ok := m.models[name]
	return ok
}

// Model returns a loaded model, or nil.
func (m *Manager) Model(name string) *Model {
	return m.models[name]
}

// CreateNode places a loaded model with an identity transform.
func (m *Manager) CreateNode(modelName string) (*Node, error) {
	model, ok := m.models[modelName]
	if !ok {
		return nil, fmt.Errorf("scene: model %q not loaded", modelName)
	}
	n := &Node{
		Model:       model,
		Rotation:    math.QuatIdentity(),
		Scaling:     math.Vec3{X: 1, Y: 1, Z: 1},
		Visible:     true,
		CastsShadow: true,
	}
	m.nodes = append(m.nodes, n)
	return n, nil
}

// RemoveNode unlinks a node from the scene.
func (m *Manager) RemoveNode(target *Node) {
	for i, n := range m.nodes {
		if n == target {
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			return
		}
	}
}

// Nodes returns the live node list in placement order.
func (m *Manager) Nodes() []*Node {
	return m.nodes
}

// SceneBounds unions the world-space bounds of every visible node.
// An empty scene reports a unit box at the origin.
func (m *Manager) SceneBounds() Bounds {
	first := true
	var out Bounds
	for _, n := range m.nodes {
		if !n.Visible || n.Model == nil {
			continue
		}
		b := n.Model.Local.transformed(n.World())
		if first {
			out = b
			first = false
		} else {
			out = out.Union(b)
		}
	}
	if first {
		return Bounds{Min: math.Vec3{X: -0.5, Y: -0.5, Z: -0.5}, Max: math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}}
	}
	return out
}
