// Package primitive turns placements into positioned boolean primitives
// and realizes them as triangle meshes.
//
// The builder is the bridge between the logical pipeline (layout,
// projection) and geometry: it binds each placement to its parametric
// solid and boolean operation. Tessellation is kept separate so the
// serialized geometry spec stays parametric; meshes are only produced
// when a solid is actually assembled or exported.
package primitive

import (
	"github.com/tactilab/dotplate/pkg/braille"
	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/project"
)

// Marker dimensions, millimeters. Markers identify plates to operators;
// they are deliberately chunky relative to braille dots.
const (
	TriangleLength = 3.0 // along the column axis
	TriangleWidth  = 3.0 // along the row axis
	RectWidth      = 2.0
	RectHeight     = 4.0
	MarkerRelief   = 0.6 // protrusion height / recess depth
	GlyphHeight    = 4.0 // extruded character height
)

// Build binds every placement to its solid and boolean operation.
// Embossing plates add material, counter plates remove it; markers
// follow the plate's operation so paired plates stay pressable against
// each other. The placement order is preserved.
func Build(placements []project.Placement, spec plate.DotSpec, plateType plate.PlateType) ([]plate.Primitive, error) {
	shape, err := spec.Shape()
	if err != nil {
		return nil, err
	}

	op := plate.OpAdd
	if plateType == plate.Counter {
		op = plate.OpSubtract
	}

	out := make([]plate.Primitive, 0, len(placements))
	for _, pl := range placements {
		prim := plate.Primitive{
			Row: pl.Row,
			Col: pl.Col,
			Dot: pl.Dot,
			Op:  op,
			Transform: plate.Transform{
				Position:      pl.Position,
				Normal:        pl.Normal,
				Theta:         pl.Theta,
				SurfaceRadius: pl.Radius,
			},
		}

		if pl.Dot >= 0 {
			prim.Shape = shape
			out = append(out, prim)
			continue
		}

		marker, err := markerShape(pl, plateType)
		if err != nil {
			return nil, err
		}
		prim.Marker = marker
		out = append(out, prim)
	}
	return out, nil
}

func markerShape(pl project.Placement, plateType plate.PlateType) (plate.MarkerShape, error) {
	switch pl.Marker {
	case braille.MarkerTriangle:
		// The apex points right on embossing plates and left on counter
		// plates so the pair visibly mirrors.
		return plate.Triangle{ApexRight: plateType == plate.Embossing}, nil
	case braille.MarkerRectangle:
		return plate.Rectangle{}, nil
	case braille.MarkerCharacter:
		if plateType == plate.Counter {
			return nil, errors.New(errors.ErrCodeInternal,
				"character indicator reached a counter plate at row %d", pl.Row)
		}
		if !glyphAvailable(pl.Glyph) {
			return plate.Rectangle{}, nil
		}
		return plate.Character{Glyph: pl.Glyph}, nil
	}
	return nil, errors.New(errors.ErrCodeInternal, "unknown marker kind %q", pl.Marker)
}
