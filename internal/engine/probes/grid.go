package probes

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/lumen3d/lumen/pkg/math"
)

// Grid is a regular lattice of SH probes spanning an axis-aligned
// volume. Probes are stored x-fastest, z slowest.
type Grid struct {
	Dims [3]int
	Min  math.Vec3
	Max  math.Vec3

	Probes []SH9
	dirty  []bool
	valid  []bool
}

// NewGrid allocates a probe grid. Every probe starts dirty and invalid
// so the first bake pass fills the whole volume. Any axis with more
// than one probe needs a positive extent.
func NewGrid(nx, ny, nz int, min, max math.Vec3) (*Grid, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("probes: invalid grid %dx%dx%d", nx, ny, nz)
	}
	ext := [3]float32{max.X - min.X, max.Y - min.Y, max.Z - min.Z}
	for axis, n := range [3]int{nx, ny, nz} {
		if n > 1 && ext[axis] <= 0 {
			return nil, fmt.Errorf("probes: %d probes on axis %d but extent %v",
				n, axis, ext[axis])
		}
	}
	n := nx * ny * nz
	g := &Grid{
		Dims:   [3]int{nx, ny, nz},
		Min:    min,
		Max:    max,
		Probes: make([]SH9, n),
		dirty:  make([]bool, n),
		valid:  make([]bool, n),
	}
	for i := range g.dirty {
		g.dirty[i] = true
	}
	return g, nil
}

// Index converts lattice coordinates to a probe index.
func (g *Grid) Index(x, y, z int) int {
	return (z*g.Dims[1]+y)*g.Dims[0] + x
}

// Position returns the world position of a probe.
func (g *Grid) Position(x, y, z int) math.Vec3 {
	f := func(i, n int, lo, hi float32) float32 {
		if n == 1 {
			return (lo + hi) * 0.5
		}
		return lo + (hi-lo)*float32(i)/float32(n-1)
	}
	return math.Vec3{
		X: f(x, g.Dims[0], g.Min.X, g.Max.X),
		Y: f(y, g.Dims[1], g.Min.Y, g.Max.Y),
		Z: f(z, g.Dims[2], g.Min.Z, g.Max.Z),
	}
}

// cellCoord maps a world coordinate to continuous lattice space,
// clamped to the edges.
func cellCoord(p, lo, hi float32, n int) (int, float32) {
	if n == 1 {
		return 0, 0
	}
	t := (p - lo) / (hi - lo) * float32(n-1)
	t = math32.Max(0, math32.Min(t, float32(n-1)))
	i := int(math32.Floor(t))
	if i >= n-1 {
		i = n - 2
	}
	return i, t - float32(i)
}

// Sample trilinearly interpolates the eight surrounding probes.
// Positions outside the volume clamp to the boundary probes.
func (g *Grid) Sample(pos math.Vec3) SH9 {
	x0, tx := cellCoord(pos.X, g.Min.X, g.Max.X, g.Dims[0])
	y0, ty := cellCoord(pos.Y, g.Min.Y, g.Max.Y, g.Dims[1])
	z0, tz := cellCoord(pos.Z, g.Min.Z, g.Max.Z, g.Dims[2])

	x1 := min(x0+1, g.Dims[0]-1)
	y1 := min(y0+1, g.Dims[1]-1)
	z1 := min(z0+1, g.Dims[2]-1)

	c00 := g.Probes[g.Index(x0, y0, z0)].Lerp(g.Probes[g.Index(x1, y0, z0)], tx)
	c10 := g.Probes[g.Index(x0, y1, z0)].Lerp(g.Probes[g.Index(x1, y1, z0)], tx)
	c01 := g.Probes[g.Index(x0, y0, z1)].Lerp(g.Probes[g.Index(x1, y0, z1)], tx)
	c11 := g.Probes[g.Index(x0, y1, z1)].Lerp(g.Probes[g.Index(x1, y1, z1)], tx)

	return c00.Lerp(c10, ty).Lerp(c01.Lerp(c11, ty), tz)
}

// SampleGroup blends the four nearest probes with inverse-distance
// weights. Dynamic objects use this instead of the cell interpolation
// when they sit near volume edges or between distant probes.
func (g *Grid) SampleGroup(pos math.Vec3) SH9 {
	const groupSize = 4

	type cand struct {
		idx  int
		dist float32
	}
	best := make([]cand, 0, groupSize)

	for z := 0; z < g.Dims[2]; z++ {
		for y := 0; y < g.Dims[1]; y++ {
			for x := 0; x < g.Dims[0]; x++ {
				d := g.Position(x, y, z).Distance(pos)
				c := cand{idx: g.Index(x, y, z), dist: d}
				if len(best) < groupSize {
					best = append(best, c)
				} else {
					worst := 0
					for i := 1; i < len(best); i++ {
						if best[i].dist > best[worst].dist {
							worst = i
						}
					}
					if d < best[worst].dist {
						best[worst] = c
					}
				}
			}
		}
	}

	const eps = 1e-4
	var total float32
	var out SH9
	for _, c := range best {
		w := 1 / (c.dist + eps)
		out = out.Add(g.Probes[c.idx].Scale(w))
		total += w
	}
	if total > 0 {
		out = out.Scale(1 / total)
	}
	return out
}

// MarkDirty flags every probe within radius of a point for rebaking.
func (g *Grid) MarkDirty(pos math.Vec3, radius float32) {
	for z := 0; z < g.Dims[2]; z++ {
		for y := 0; y < g.Dims[1]; y++ {
			for x := 0; x < g.Dims[0]; x++ {
				if g.Position(x, y, z).Distance(pos) <= radius {
					g.dirty[g.Index(x, y, z)] = true
				}
			}
		}
	}
}

// MarkAllDirty flags the whole grid.
func (g *Grid) MarkAllDirty() {
	for i := range g.dirty {
		g.dirty[i] = true
	}
}

// IsValid reports whether a probe has been baked at least once.
// Marking a probe dirty keeps it valid; its stale coefficients remain
// usable until the rebake lands.
func (g *Grid) IsValid(idx int) bool {
	return g.valid[idx]
}

// ValidCount returns the number of probes baked at least once.
func (g *Grid) ValidCount() int {
	n := 0
	for _, v := range g.valid {
		if v {
			n++
		}
	}
	return n
}

// DirtyCount returns the number of probes awaiting a bake.
func (g *Grid) DirtyCount() int {
	n := 0
	for _, d := range g.dirty {
		if d {
			n++
		}
	}
	return n
}
