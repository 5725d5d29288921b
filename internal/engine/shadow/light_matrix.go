// Package shadow provides directional-light shadow mapping.
package shadow

import (
	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/pkg/math"
)

// DefaultDistanceFactor controls how far the virtual light eye sits from
// the scene center relative to the scene radius.
const DefaultDistanceFactor = 10

// LightMatrix computes the light-space view-projection for a directional
// light. lightDir is the direction light travels (normalized); the virtual
// eye sits at center - lightDir * radius * distanceFactor / 10 looking at
// the scene center, with an orthographic frustum sized to cover the scene.
func LightMatrix(lightDir math.Vec3, center math.Vec3, radius float32, distanceFactor float32) math.Mat4 {
	if distanceFactor <= 0 {
		distanceFactor = DefaultDistanceFactor
	}
	if radius <= 0 {
		radius = 1
	}

	dir := lightDir.Normalize()
	eyeDistance := radius * distanceFactor / 10
	eye := center.Sub(dir.Scale(eyeDistance))

	up := math.Vec3{Y: 1}
	if math32.Abs(dir.Y) > 0.99 {
		up = math.Vec3{Z: 1}
	}

	view := math.LookAt(eye, center, up)

	halfSize := 2 * radius
	near := float32(0.1)
	far := distanceFactor * radius * 2 / 10

	proj := math.Ortho(-halfSize, halfSize, -halfSize, halfSize, near, far)
	return proj.Mul(view)
}
