package solid

import "github.com/tactilab/dotplate/pkg/plate"

// planeEpsilon is the coplanarity tolerance for BSP classification, in
// millimeters.
const planeEpsilon = 1e-5

// Union returns a solid covering a or b.
func Union(a, b Mesh) Mesh {
	na := newNode(toPolygons(a))
	nb := newNode(toPolygons(b))
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	return toMesh(na.allPolygons())
}

// Subtract returns the solid a minus the solid b.
func Subtract(a, b Mesh) Mesh {
	na := newNode(toPolygons(a))
	nb := newNode(toPolygons(b))
	na.invert()
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	na.invert()
	return toMesh(na.allPolygons())
}

// =============================================================================
// Polygons and planes
// =============================================================================

type plane struct {
	normal plate.Vec3
	w      float64
}

func planeFrom(a, b, c plate.Vec3) plane {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	return plane{normal: n, w: n.Dot(a)}
}

func (p *plane) flip() {
	p.normal = p.normal.Scale(-1)
	p.w = -p.w
}

type polygon struct {
	vertices []plate.Vec3
	plane    plane
}

func newPolygon(vertices []plate.Vec3) polygon {
	return polygon{vertices: vertices, plane: planeFrom(vertices[0], vertices[1], vertices[2])}
}

func (p *polygon) flip() {
	for i, j := 0, len(p.vertices)-1; i < j; i, j = i+1, j-1 {
		p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i]
	}
	p.plane.flip()
}

func (p polygon) clone() polygon {
	verts := make([]plate.Vec3, len(p.vertices))
	copy(verts, p.vertices)
	return polygon{vertices: verts, plane: p.plane}
}

// Vertex classification relative to a plane.
const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// split classifies poly against p and appends it (or its pieces) to the
// matching lists.
func (p plane) split(poly polygon, coplanarFront, coplanarBack, frontList, backList *[]polygon) {
	polyType := 0
	types := make([]int, len(poly.vertices))
	for i, v := range poly.vertices {
		t := p.normal.Dot(v) - p.w
		vt := coplanar
		if t < -planeEpsilon {
			vt = back
		} else if t > planeEpsilon {
			vt = front
		}
		polyType |= vt
		types[i] = vt
	}

	switch polyType {
	case coplanar:
		if p.normal.Dot(poly.plane.normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*frontList = append(*frontList, poly)
	case back:
		*backList = append(*backList, poly)
	case spanning:
		var f, b []plate.Vec3
		n := len(poly.vertices)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.vertices[i], poly.vertices[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if (ti | tj) == spanning {
				t := (p.w - p.normal.Dot(vi)) / p.normal.Dot(vj.Sub(vi))
				v := vi.Add(vj.Sub(vi).Scale(t))
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*frontList = append(*frontList, newPolygon(f))
		}
		if len(b) >= 3 {
			*backList = append(*backList, newPolygon(b))
		}
	}
}

// =============================================================================
// BSP tree
// =============================================================================

type node struct {
	plane    *plane
	front    *node
	back     *node
	polygons []polygon
}

func newNode(polygons []polygon) *node {
	n := &node{}
	n.build(polygons)
	return n
}

// invert swaps solid and empty space below this node.
func (n *node) invert() {
	for i := range n.polygons {
		n.polygons[i].flip()
	}
	if n.plane != nil {
		n.plane.flip()
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of the given polygons inside this
// node's solid.
func (n *node) clipPolygons(polygons []polygon) []polygon {
	if n.plane == nil {
		out := make([]polygon, len(polygons))
		for i, p := range polygons {
			out[i] = p.clone()
		}
		return out
	}

	var frontList, backList []polygon
	for _, p := range polygons {
		// Coplanar pieces follow the side their normal faces.
		n.plane.split(p, &frontList, &backList, &frontList, &backList)
	}

	if n.front != nil {
		frontList = n.front.clipPolygons(frontList)
	}
	if n.back != nil {
		backList = n.back.clipPolygons(backList)
	} else {
		backList = nil
	}
	return append(frontList, backList...)
}

// clipTo removes the parts of this tree's polygons inside other's solid.
func (n *node) clipTo(other *node) {
	n.polygons = other.clipPolygons(n.polygons)
	if n.front != nil {
		n.front.clipTo(other)
	}
	if n.back != nil {
		n.back.clipTo(other)
	}
}

func (n *node) allPolygons() []polygon {
	out := append([]polygon(nil), n.polygons...)
	if n.front != nil {
		out = append(out, n.front.allPolygons()...)
	}
	if n.back != nil {
		out = append(out, n.back.allPolygons()...)
	}
	return out
}

// build inserts polygons into the tree, splitting them as needed. The
// first polygon of each batch picks the node plane.
func (n *node) build(polygons []polygon) {
	if len(polygons) == 0 {
		return
	}
	if n.plane == nil {
		pl := polygons[0].plane
		n.plane = &pl
	}

	var frontList, backList []polygon
	for _, p := range polygons {
		n.plane.split(p, &n.polygons, &n.polygons, &frontList, &backList)
	}

	if len(frontList) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(frontList)
	}
	if len(backList) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(backList)
	}
}

// =============================================================================
// Mesh conversion
// =============================================================================

func toPolygons(m Mesh) []polygon {
	out := make([]polygon, 0, len(m.Triangles))
	for _, t := range m.Triangles {
		if t.Normal() == (plate.Vec3{}) {
			continue // degenerate
		}
		out = append(out, newPolygon([]plate.Vec3{t.A, t.B, t.C}))
	}
	return out
}

func toMesh(polygons []polygon) Mesh {
	var m Mesh
	for _, p := range polygons {
		// Fan triangulation; BSP polygons are convex.
		for i := 2; i < len(p.vertices); i++ {
			t := Triangle{A: p.vertices[0], B: p.vertices[i-1], C: p.vertices[i]}
			if t.Normal() == (plate.Vec3{}) {
				continue
			}
			m.Append(t)
		}
	}
	return m
}
