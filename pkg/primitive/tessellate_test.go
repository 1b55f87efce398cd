package primitive

import (
	"math"
	"testing"

	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/solid"
)

func seated(shape plate.DotShape, op plate.Op) plate.Primitive {
	return plate.Primitive{
		Shape: shape,
		Op:    op,
		Transform: plate.Transform{
			Position: plate.Vec3{X: 10, Y: 10, Z: 2},
			Normal:   plate.Vec3{Z: 1},
		},
	}
}

func mustMesh(t *testing.T, p plate.Primitive) solid.Mesh {
	t.Helper()
	m, err := Mesh(p, plate.Embossing, 64, 0)
	if err != nil {
		t.Fatalf("Mesh() error = %v", err)
	}
	return m
}

// Tessellated solids of revolution must be strictly two-manifold.
func TestDotMeshesAreManifold(t *testing.T) {
	shapes := []plate.DotShape{
		plate.ConeFrustum{BaseR: 0.8, TopR: 0.6, Height: 0.8},
		plate.RoundedDome{BaseR: 0.8, DomeR: 0.75, BaseHeight: 0.2, DomeHeight: 0.6},
		plate.Hemisphere{R: 0.9},
		plate.Bowl{OpeningR: 0.9, Depth: 0.8},
		plate.ConeRecess{OpeningR: 0.9, TipR: 0.4, Depth: 0.8},
	}
	for _, s := range shapes {
		m := mustMesh(t, seated(s, plate.OpAdd))
		if !m.IsManifold() {
			t.Errorf("%s: mesh is not manifold", s.ShapeKind())
		}
		if err := m.Validate(); err != nil {
			t.Errorf("%s: Validate() error = %v", s.ShapeKind(), err)
		}
	}
}

func TestFrustumVolume(t *testing.T) {
	f := plate.ConeFrustum{BaseR: 1, TopR: 0.5, Height: 1.2}
	m := mustMesh(t, seated(f, plate.OpAdd))

	want := math.Pi * f.Height / 3 * (f.BaseR*f.BaseR + f.BaseR*f.TopR + f.TopR*f.TopR)
	if v := m.Volume(); math.Abs(v-want)/want > 0.01 {
		t.Errorf("volume = %v, want ~%v", v, want)
	}
}

func TestSphereVolume(t *testing.T) {
	m := mustMesh(t, seated(plate.Hemisphere{R: 1}, plate.OpSubtract))
	want := 4.0 / 3.0 * math.Pi
	if v := m.Volume(); math.Abs(v-want)/want > 0.01 {
		t.Errorf("volume = %v, want ~%v", v, want)
	}
}

func TestDomeApexHeight(t *testing.T) {
	d := plate.RoundedDome{BaseR: 0.8, DomeR: 0.75, BaseHeight: 0.2, DomeHeight: 0.6}
	m := mustMesh(t, seated(d, plate.OpAdd))

	_, max := m.Bounds()
	// Seated on z=2 with zero eps, the apex sits at surface + total height.
	if want := 2 + d.TotalHeight(); math.Abs(max.Z-want) > 1e-9 {
		t.Errorf("apex z = %v, want %v", max.Z, want)
	}
}

func TestSeatingOverlap(t *testing.T) {
	f := plate.ConeFrustum{BaseR: 0.8, TopR: 0.6, Height: 0.8}
	m, err := Mesh(seated(f, plate.OpAdd), plate.Embossing, 32, 0.05)
	if err != nil {
		t.Fatalf("Mesh() error = %v", err)
	}
	min, _ := m.Bounds()
	// The base must sink below the surface plane z=2.
	if min.Z >= 2 {
		t.Errorf("base z = %v, want < 2", min.Z)
	}
	if math.Abs(min.Z-(2-0.05)) > 1e-9 {
		t.Errorf("base z = %v, want %v", min.Z, 2-0.05)
	}
}

func TestSeatDepthSagitta(t *testing.T) {
	// footprint 1mm on a 20mm cylinder hovers 1/(2*20) above the shell.
	if got, want := seatDepth(0.05, 1, 20), 0.05+1.0/40; math.Abs(got-want) > 1e-12 {
		t.Errorf("seatDepth = %v, want %v", got, want)
	}
	if got := seatDepth(0.05, 1, 0); got != 0.05 {
		t.Errorf("flat seatDepth = %v, want 0.05", got)
	}
}

func TestConeRecessOvershootsSurface(t *testing.T) {
	r := plate.ConeRecess{OpeningR: 0.9, TipR: 0.4, Depth: 0.8}
	m, err := Mesh(seated(r, plate.OpSubtract), plate.Counter, 32, 0.05)
	if err != nil {
		t.Fatalf("Mesh() error = %v", err)
	}
	min, max := m.Bounds()
	if max.Z <= 2 {
		t.Errorf("recess top z = %v, want > surface 2", max.Z)
	}
	if math.Abs(min.Z-(2-r.Depth)) > 1e-9 {
		t.Errorf("tip z = %v, want %v", min.Z, 2-r.Depth)
	}
}

func TestMarkerMeshes(t *testing.T) {
	markers := []plate.MarkerShape{
		plate.Triangle{ApexRight: true},
		plate.Triangle{ApexRight: false},
		plate.Rectangle{},
	}
	for _, mk := range markers {
		p := plate.Primitive{
			Dot:       -1,
			Marker:    mk,
			Op:        plate.OpAdd,
			Transform: plate.Transform{Position: plate.Vec3{Z: 2}, Normal: plate.Vec3{Z: 1}},
		}
		m, err := Mesh(p, plate.Embossing, 32, 0)
		if err != nil {
			t.Fatalf("%s: Mesh() error = %v", mk.MarkerKind(), err)
		}
		if !m.IsManifold() {
			t.Errorf("%s: mesh is not manifold", mk.MarkerKind())
		}
		if m.Volume() <= 0 {
			t.Errorf("%s: volume = %v, want > 0", mk.MarkerKind(), m.Volume())
		}
	}
}

func TestTriangleApexDirection(t *testing.T) {
	build := func(apexRight bool) solid.Mesh {
		p := plate.Primitive{
			Dot:       -1,
			Marker:    plate.Triangle{ApexRight: apexRight},
			Op:        plate.OpAdd,
			Transform: plate.Transform{Normal: plate.Vec3{Z: 1}},
		}
		m, err := Mesh(p, plate.Embossing, 32, 0)
		if err != nil {
			t.Fatalf("Mesh() error = %v", err)
		}
		return m
	}

	// The apex is the single extreme vertex along x.
	_, maxR := build(true).Bounds()
	minL, _ := build(false).Bounds()
	if maxR.X != TriangleLength/2 {
		t.Errorf("right apex x = %v, want %v", maxR.X, TriangleLength/2)
	}
	if minL.X != -TriangleLength/2 {
		t.Errorf("left apex x = %v, want %v", minL.X, -TriangleLength/2)
	}
}

func TestGlyphMesh(t *testing.T) {
	p := plate.Primitive{
		Dot:       -1,
		Marker:    plate.Character{Glyph: 'a'},
		Op:        plate.OpAdd,
		Transform: plate.Transform{Normal: plate.Vec3{Z: 1}},
	}
	m, err := Mesh(p, plate.Embossing, 32, 0)
	if err != nil {
		t.Fatalf("Mesh() error = %v", err)
	}
	if m.Volume() <= 0 {
		t.Errorf("glyph volume = %v, want > 0", m.Volume())
	}
	min, max := m.Bounds()
	if max.Y-min.Y > GlyphHeight+1e-9 {
		t.Errorf("glyph taller than %vmm: %v", GlyphHeight, max.Y-min.Y)
	}
	if max.Z != MarkerRelief || min.Z != 0 {
		t.Errorf("glyph relief spans [%v,%v], want [0,%v]", min.Z, max.Z, MarkerRelief)
	}
}

// A wall between two lit pixels would survive the boolean union as an
// internal face, so every vertical face must separate a lit pixel from
// an unlit one.
func TestGlyphWallsOnBoundaryOnly(t *testing.T) {
	for _, glyph := range []rune{'a', 'x', '8'} {
		m, err := glyphMesh(glyph, 0, MarkerRelief)
		if err != nil {
			t.Fatalf("glyphMesh(%q) error = %v", glyph, err)
		}
		rows, _ := glyphBitmap(markerFont, glyph)
		px := GlyphHeight / float64(len(rows))
		left := -float64(len(rows[0])) * px / 2
		topY := GlyphHeight / 2
		lit := func(xm, ym float64) bool {
			x := int(math.Floor((xm - left) / px))
			y := int(math.Floor((topY - ym) / px))
			return y >= 0 && y < len(rows) && x >= 0 && x < len(rows[y]) && rows[y][x]
		}

		for i, tr := range m.Triangles {
			n := tr.Normal()
			if math.Abs(n.Z) > 1e-9 {
				continue
			}
			c := tr.A.Add(tr.B).Add(tr.C).Scale(1.0 / 3.0)
			if !lit(c.X-n.X*px/2, c.Y-n.Y*px/2) {
				t.Errorf("%q wall %d faces away from an unlit pixel", glyph, i)
			}
			if lit(c.X+n.X*px/2, c.Y+n.Y*px/2) {
				t.Errorf("%q wall %d sits between two lit pixels", glyph, i)
			}
		}
	}
}

func TestGlyphMeshEnclosesBitmapVolume(t *testing.T) {
	m, err := glyphMesh('x', 0, MarkerRelief)
	if err != nil {
		t.Fatalf("glyphMesh() error = %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	rows, _ := glyphBitmap(markerFont, 'x')
	px := GlyphHeight / float64(len(rows))
	count := 0
	for _, row := range rows {
		for _, on := range row {
			if on {
				count++
			}
		}
	}
	want := float64(count) * px * px * MarkerRelief
	if v := m.Volume(); math.Abs(v-want) > 1e-9 {
		t.Errorf("volume = %v, want %v", v, want)
	}
}

func TestGlyphUnionWithSlab(t *testing.T) {
	slab := extrude(rect(-4, -4, 4, 4), -1, 0)
	glyph, err := glyphMesh('a', -0.05, MarkerRelief)
	if err != nil {
		t.Fatalf("glyphMesh() error = %v", err)
	}

	merged := solid.Union(slab, glyph)
	if err := merged.Validate(); err != nil {
		t.Fatalf("union Validate() error = %v", err)
	}
	// The overlap below z=0 must be absorbed: the union encloses the
	// slab plus only the glyph material above the slab top.
	rows, _ := glyphBitmap(markerFont, 'a')
	px := GlyphHeight / float64(len(rows))
	count := 0
	for _, row := range rows {
		for _, on := range row {
			if on {
				count++
			}
		}
	}
	want := 8*8*1 + float64(count)*px*px*MarkerRelief
	if v := merged.Volume(); math.Abs(v-want)/want > 0.001 {
		t.Errorf("union volume = %v, want ~%v", v, want)
	}
}

func TestCylindricalFrameMirrors(t *testing.T) {
	tr := plate.Transform{
		Position:      plate.Vec3{X: 20},
		Normal:        plate.Vec3{X: 1},
		Theta:         0,
		SurfaceRadius: 20,
	}
	uE, _, _ := frame(tr, plate.Embossing)
	uC, _, _ := frame(tr, plate.Counter)
	if uE != uC.Scale(-1) {
		t.Errorf("column directions do not mirror: %+v vs %+v", uE, uC)
	}
}
