// Package project maps resolved grid coordinates onto physical surfaces.
//
// The projector is a pure function: given the logical layout, the spacing
// settings, the surface and the plate type, it emits one placement per
// active dot and per marker. A placement is a world position plus the
// outward surface normal at that point; flat plates use the trivial
// (0,0,1) normal, cylinders the radial direction.
//
// # Mirroring
//
// On cylindrical surfaces the raw angle is computed identically for both
// plate types and then signed: negative for embossing, positive for
// counter. The opposite signs are what make a raised dot land inside its
// recess when paper is pressed between the paired plates - fold the sheet
// along the plates' contact plane and the grids coincide. The same sign
// rule applies to the bore seam offset (see the assembler).
package project

import (
	"math"

	"github.com/tactilab/dotplate/pkg/braille"
	"github.com/tactilab/dotplate/pkg/plate"
)

// Placement is one dot or marker located on the surface.
type Placement struct {
	Row int
	Col int
	Dot int // dot index within the cell, -1 for markers

	Marker braille.MarkerKind // empty for dots
	Glyph  rune               // character markers only

	Position plate.Vec3
	Normal   plate.Vec3
	Theta    float64 // signed angle, cylindrical surfaces only
	Radius   float64 // surface radius, cylindrical surfaces only
}

// Project places every active dot and marker of the layout on the
// surface. Placements are ordered cells-then-markers, row-major, dots in
// mask order; the order is part of the determinism contract.
func Project(layout braille.Layout, settings plate.LayoutSettings, surface plate.Surface, plateType plate.PlateType) []Placement {
	var out []Placement

	for _, cell := range layout.Cells {
		for i := 0; i < braille.DotsPerCell; i++ {
			if !cell.Mask.Dot(i) {
				continue
			}
			colOff, rowOff := dotOffsets(i, settings.DotSpacing)
			p := place(surface, settings, plateType, cell.Row, cell.Col, colOff, rowOff)
			p.Dot = i
			out = append(out, p)
		}
	}

	for _, m := range layout.Markers {
		p := place(surface, settings, plateType, m.Row, m.Col, 0, 0)
		p.Dot = -1
		p.Marker = m.Kind
		p.Glyph = m.Glyph
		out = append(out, p)
	}

	return out
}

// dotOffsets returns the fixed in-cell physical offsets for dot i:
// left/right columns sit at -/+ half the dot spacing, the three rows at
// +spacing, 0, -spacing.
func dotOffsets(i int, spacing float64) (colOff, rowOff float64) {
	rowInCell, colInCell := braille.DotPlace(i)
	if colInCell == 0 {
		colOff = -spacing / 2
	} else {
		colOff = spacing / 2
	}
	rowOff = spacing * float64(1-rowInCell)
	return colOff, rowOff
}

func place(surface plate.Surface, settings plate.LayoutSettings, plateType plate.PlateType, row, col int, colOff, rowOff float64) Placement {
	if surface.Kind == plate.SurfaceCylindrical {
		return placeCylindrical(surface, settings, plateType, row, col, colOff, rowOff)
	}
	return placeFlat(surface, settings, row, col, colOff, rowOff)
}

// margin centers count items with the given spacing inside dimension.
func margin(dimension, spacing float64, count int) float64 {
	return (dimension - float64(count-1)*spacing) / 2
}

// placeFlat projects onto the plate top face z = thickness. The grid is
// centered: column 0 sits at the left margin, row 0 at the top margin.
func placeFlat(surface plate.Surface, settings plate.LayoutSettings, row, col int, colOff, rowOff float64) Placement {
	left := margin(surface.Width, settings.CellSpacing, settings.GridColumns)
	top := margin(surface.Height, settings.LineSpacing, settings.GridRows)

	return Placement{
		Row: row,
		Col: col,
		Position: plate.Vec3{
			X: left + float64(col)*settings.CellSpacing + colOff + settings.XAdjust,
			Y: surface.Height - top - float64(row)*settings.LineSpacing + rowOff + settings.YAdjust,
			Z: surface.Thickness,
		},
		Normal: plate.Vec3{Z: 1},
	}
}

// placeCylindrical wraps the column axis around the shell: millimeter
// offsets on the angular axis become radians by dividing by the radius,
// while row offsets stay linear along the cylinder axis. The raw angle is
// identical for both plate types; only the final sign differs.
func placeCylindrical(surface plate.Surface, settings plate.LayoutSettings, plateType plate.PlateType, row, col int, colOff, rowOff float64) Placement {
	r := surface.Radius
	cellAngle := settings.CellSpacing / r
	startAngle := -float64(settings.GridColumns-1) * cellAngle / 2

	thetaRaw := startAngle + float64(col)*cellAngle + (colOff+settings.XAdjust)/r
	theta := plateType.MirrorSign() * thetaRaw

	top := margin(surface.Height, settings.LineSpacing, settings.GridRows)
	z := surface.Height - top - float64(row)*settings.LineSpacing + rowOff + settings.YAdjust

	sin, cos := math.Sincos(theta)
	return Placement{
		Row:      row,
		Col:      col,
		Position: plate.Vec3{X: r * cos, Y: r * sin, Z: z},
		Normal:   plate.Vec3{X: cos, Y: sin},
		Theta:    theta,
		Radius:   r,
	}
}
