package primitive

import (
	"golang.org/x/image/font/basicfont"

	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/solid"
)

// markerMesh builds the local solid for an indicator marker. Add markers
// sink eps into the shell; subtract markers overshoot the surface by eps
// and carve MarkerRelief deep.
func markerMesh(p plate.Primitive, plateType plate.PlateType, eps float64) (solid.Mesh, error) {
	switch s := p.Marker.(type) {
	case plate.Triangle:
		half := TriangleLength / 2
		poly := [][2]float64{
			{half, 0},
			{-half, TriangleWidth / 2},
			{-half, -TriangleWidth / 2},
		}
		if !s.ApexRight {
			poly = mirrorX(poly)
		}
		z0, z1 := markerSpan(p, TriangleLength/2, eps)
		return extrude(poly, z0, z1), nil

	case plate.Rectangle:
		poly := rect(-RectWidth/2, -RectHeight/2, RectWidth/2, RectHeight/2)
		z0, z1 := markerSpan(p, RectHeight/2, eps)
		return extrude(poly, z0, z1), nil

	case plate.Character:
		z0, z1 := markerSpan(p, GlyphHeight/2, eps)
		return glyphMesh(s.Glyph, z0, z1)
	}
	return solid.Mesh{}, errors.New(errors.ErrCodeInternal, "unknown marker shape %q", p.Marker.MarkerKind())
}

// markerSpan returns the local z extent of a marker solid for its
// boolean operation.
func markerSpan(p plate.Primitive, footprint, eps float64) (z0, z1 float64) {
	e := seatDepth(eps, footprint, p.Transform.SurfaceRadius)
	if p.Op == plate.OpSubtract {
		return -MarkerRelief, e
	}
	return -e, MarkerRelief
}

func rect(x0, y0, x1, y1 float64) [][2]float64 {
	return [][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// mirrorX flips the polygon across the y axis, reversing the winding
// back to counter-clockwise.
func mirrorX(poly [][2]float64) [][2]float64 {
	out := make([][2]float64, len(poly))
	for i, pt := range poly {
		out[len(poly)-1-i] = [2]float64{-pt[0], pt[1]}
	}
	return out
}

// extrude sweeps a convex counter-clockwise polygon from z0 to z1.
func extrude(poly [][2]float64, z0, z1 float64) solid.Mesh {
	n := len(poly)
	bot := make([]plate.Vec3, n)
	top := make([]plate.Vec3, n)
	for i, pt := range poly {
		bot[i] = plate.Vec3{X: pt[0], Y: pt[1], Z: z0}
		top[i] = plate.Vec3{X: pt[0], Y: pt[1], Z: z1}
	}

	var m solid.Mesh
	for i := 2; i < n; i++ {
		m.Append(solid.Triangle{A: bot[0], B: bot[i], C: bot[i-1]})
		m.Append(solid.Triangle{A: top[0], B: top[i-1], C: top[i]})
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		m.AppendQuad(bot[i], bot[j], top[j], top[i])
	}
	return m
}

// =============================================================================
// Glyph extrusion
// =============================================================================

// markerFont is the bitmap face glyph indicators are extruded from.
var markerFont = basicfont.Face7x13

// glyphMesh extrudes the glyph's bitmap as a closed prism. Every lit
// pixel contributes a top and bottom cap; side walls are emitted only
// where a lit pixel borders an unlit one, so the surface has no faces
// inside the solid and is a valid boolean input. Caps and walls share
// the per-pixel grid, so adjoining edges pair exactly.
func glyphMesh(glyph rune, z0, z1 float64) (solid.Mesh, error) {
	rows, ok := glyphBitmap(markerFont, glyph)
	if !ok {
		return solid.Mesh{}, errors.New(errors.ErrCodeInvalidInput, "glyph %q is not available in the marker font", glyph)
	}

	px := GlyphHeight / float64(len(rows))
	left := -float64(len(rows[0])) * px / 2
	topY := GlyphHeight / 2

	lit := func(y, x int) bool {
		return y >= 0 && y < len(rows) && x >= 0 && x < len(rows[y]) && rows[y][x]
	}
	gx := func(x int) float64 { return left + float64(x)*px }
	gy := func(y int) float64 { return topY - float64(y)*px }

	var m solid.Mesh
	for y, row := range rows {
		for x, on := range row {
			if !on {
				continue
			}
			// Bitmap y grows downward, so row y spans [gy(y+1), gy(y)].
			x0, x1 := gx(x), gx(x+1)
			y0, y1 := gy(y+1), gy(y)

			m.AppendQuad(
				plate.Vec3{X: x0, Y: y0, Z: z1},
				plate.Vec3{X: x1, Y: y0, Z: z1},
				plate.Vec3{X: x1, Y: y1, Z: z1},
				plate.Vec3{X: x0, Y: y1, Z: z1},
			)
			m.AppendQuad(
				plate.Vec3{X: x0, Y: y0, Z: z0},
				plate.Vec3{X: x0, Y: y1, Z: z0},
				plate.Vec3{X: x1, Y: y1, Z: z0},
				plate.Vec3{X: x1, Y: y0, Z: z0},
			)
			if !lit(y, x-1) {
				m.AppendQuad(
					plate.Vec3{X: x0, Y: y0, Z: z0},
					plate.Vec3{X: x0, Y: y0, Z: z1},
					plate.Vec3{X: x0, Y: y1, Z: z1},
					plate.Vec3{X: x0, Y: y1, Z: z0},
				)
			}
			if !lit(y, x+1) {
				m.AppendQuad(
					plate.Vec3{X: x1, Y: y0, Z: z0},
					plate.Vec3{X: x1, Y: y1, Z: z0},
					plate.Vec3{X: x1, Y: y1, Z: z1},
					plate.Vec3{X: x1, Y: y0, Z: z1},
				)
			}
			if !lit(y+1, x) {
				m.AppendQuad(
					plate.Vec3{X: x0, Y: y0, Z: z0},
					plate.Vec3{X: x1, Y: y0, Z: z0},
					plate.Vec3{X: x1, Y: y0, Z: z1},
					plate.Vec3{X: x0, Y: y0, Z: z1},
				)
			}
			if !lit(y-1, x) {
				m.AppendQuad(
					plate.Vec3{X: x0, Y: y1, Z: z0},
					plate.Vec3{X: x0, Y: y1, Z: z1},
					plate.Vec3{X: x1, Y: y1, Z: z1},
					plate.Vec3{X: x1, Y: y1, Z: z0},
				)
			}
		}
	}
	if len(m.Triangles) == 0 {
		return solid.Mesh{}, errors.New(errors.ErrCodeInvalidInput, "glyph %q has an empty bitmap", glyph)
	}
	return m, nil
}

// glyphBitmap extracts the on/off pixel grid of one glyph from a bitmap
// face. Glyphs are stacked vertically in the face's mask image.
func glyphBitmap(f *basicfont.Face, r rune) ([][]bool, bool) {
	h := f.Ascent + f.Descent
	for _, rng := range f.Ranges {
		if r < rng.Low || r >= rng.High {
			continue
		}
		idx := rng.Offset + int(r-rng.Low)
		rows := make([][]bool, h)
		for y := 0; y < h; y++ {
			rows[y] = make([]bool, f.Width)
			for x := 0; x < f.Width; x++ {
				_, _, _, a := f.Mask.At(x, idx*h+y).RGBA()
				rows[y][x] = a > 0
			}
		}
		return rows, true
	}
	return nil, false
}

// glyphAvailable reports whether the marker font carries the glyph.
func glyphAvailable(r rune) bool {
	for _, rng := range markerFont.Ranges {
		if r >= rng.Low && r < rng.High {
			return true
		}
	}
	return false
}
