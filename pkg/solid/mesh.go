// Package solid provides triangle meshes and boolean composition.
//
// Meshes are plain triangle soups in the canonical millimeter frame,
// oriented counter-clockwise when viewed from outside. Boolean union and
// difference run on BSP trees ([Union], [Subtract]); the algorithm clips
// each solid against the other's tree and merges the surviving polygons,
// so inputs must be closed, consistently oriented solids.
//
// Boolean output can contain T-junctions along split edges. That is
// expected and harmless for STL consumers; [Mesh.Validate] therefore
// checks geometric closure via the signed volume rather than strict
// edge-pairing. Strict pairing ([Mesh.IsManifold]) is still used for
// freshly tessellated primitives, which must be exactly two-manifold.
package solid

import (
	"math"

	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/plate"
)

// Triangle is one oriented face. Vertex order is counter-clockwise seen
// from the outside of the solid.
type Triangle struct {
	A, B, C plate.Vec3
}

// Normal returns the unit face normal, or the zero vector for degenerate
// triangles.
func (t Triangle) Normal() plate.Vec3 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).Normalize()
}

// Mesh is a triangle soup describing a closed solid.
type Mesh struct {
	Triangles []Triangle
}

// Append adds triangles to the mesh.
func (m *Mesh) Append(ts ...Triangle) {
	m.Triangles = append(m.Triangles, ts...)
}

// AppendQuad adds the quad a-b-c-d as two triangles. Vertices are given
// counter-clockwise from outside.
func (m *Mesh) AppendQuad(a, b, c, d plate.Vec3) {
	m.Append(Triangle{a, b, c}, Triangle{a, c, d})
}

// Merge concatenates other into m. The solids must be disjoint or the
// caller must run a boolean union instead.
func (m *Mesh) Merge(other Mesh) {
	m.Triangles = append(m.Triangles, other.Triangles...)
}

// Transform returns a copy with f applied to every vertex.
func (m Mesh) Transform(f func(plate.Vec3) plate.Vec3) Mesh {
	out := Mesh{Triangles: make([]Triangle, len(m.Triangles))}
	for i, t := range m.Triangles {
		out.Triangles[i] = Triangle{A: f(t.A), B: f(t.B), C: f(t.C)}
	}
	return out
}

// Translate returns a copy shifted by v.
func (m Mesh) Translate(v plate.Vec3) Mesh {
	return m.Transform(func(p plate.Vec3) plate.Vec3 { return p.Add(v) })
}

// Volume returns the signed enclosed volume via the divergence theorem.
// Positive for outward-oriented closed solids; near zero or negative
// signals an open or inverted mesh.
func (m Mesh) Volume() float64 {
	var v float64
	for _, t := range m.Triangles {
		v += t.A.Dot(t.B.Cross(t.C))
	}
	return v / 6
}

// Bounds returns the axis-aligned bounding box. The zero mesh returns
// two zero vectors.
func (m Mesh) Bounds() (min, max plate.Vec3) {
	if len(m.Triangles) == 0 {
		return plate.Vec3{}, plate.Vec3{}
	}
	min = m.Triangles[0].A
	max = min
	grow := func(p plate.Vec3) {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	for _, t := range m.Triangles {
		grow(t.A)
		grow(t.B)
		grow(t.C)
	}
	return min, max
}

// vertexKey quantizes coordinates so numerically identical vertices from
// separate triangles share a key.
type vertexKey struct{ x, y, z int64 }

func keyOf(v plate.Vec3) vertexKey {
	const q = 1e6 // 0.001 micron grid
	return vertexKey{int64(math.Round(v.X * q)), int64(math.Round(v.Y * q)), int64(math.Round(v.Z * q))}
}

// IsManifold reports whether every edge is shared by exactly two faces
// with opposite orientation. Tessellated primitives must satisfy this;
// boolean output generally does not (T-junctions) and is validated with
// [Mesh.Validate] instead.
func (m Mesh) IsManifold() bool {
	if len(m.Triangles) == 0 {
		return false
	}
	type edge struct{ a, b vertexKey }
	counts := make(map[edge]int, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		ks := [3]vertexKey{keyOf(t.A), keyOf(t.B), keyOf(t.C)}
		for i := 0; i < 3; i++ {
			counts[edge{ks[i], ks[(i+1)%3]}]++
		}
	}
	for e, n := range counts {
		if n != 1 || counts[edge{e.b, e.a}] != 1 {
			return false
		}
	}
	return true
}

// Validate checks that the mesh is a plausible closed solid: non-empty,
// finite, and enclosing positive volume.
func (m Mesh) Validate() error {
	if len(m.Triangles) == 0 {
		return errors.New(errors.ErrCodeAssemblyFailure, "boolean composition produced an empty solid")
	}
	for i, t := range m.Triangles {
		for _, v := range [3]plate.Vec3{t.A, t.B, t.C} {
			if !finite(v) {
				return errors.New(errors.ErrCodeAssemblyFailure, "triangle %d has a non-finite vertex", i)
			}
		}
	}
	if v := m.Volume(); v <= 0 {
		return errors.New(errors.ErrCodeAssemblyFailure, "solid is open or inverted (signed volume %g)", v)
	}
	return nil
}

func finite(v plate.Vec3) bool {
	ok := func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
	return ok(v.X) && ok(v.Y) && ok(v.Z)
}
