package plate

import (
	"math"

	"github.com/tactilab/dotplate/pkg/errors"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Plate types.
const (
	Embossing PlateType = "embossing"
	Counter   PlateType = "counter"
)

// Surface kinds.
const (
	SurfaceFlat        SurfaceKind = "flat"
	SurfaceCylindrical SurfaceKind = "cylindrical"
)

// Reserved indicator columns when indicators are enabled: column 0 carries
// the row triangle, column 1 the character-or-rectangle indicator, and
// braille content starts at column 2.
const (
	TriangleColumn  = 0
	IndicatorColumn = 1
	ReservedColumns = 2
)

// PlateType selects between the raised embossing plate and the recessed
// counter plate of a pressing pair.
type PlateType string

// MirrorSign returns the sign applied to raw angular coordinates on
// cylindrical surfaces: -1 for embossing, +1 for counter. The opposite
// signs make paired plates mirror exactly, like folding a sheet along the
// plates' shared contact plane.
func (p PlateType) MirrorSign() float64 {
	if p == Embossing {
		return -1
	}
	return 1
}

// Valid reports whether p is a known plate type.
func (p PlateType) Valid() bool { return p == Embossing || p == Counter }

// SurfaceKind distinguishes flat plates from cylindrical shells.
type SurfaceKind string

// =============================================================================
// Vec3
// =============================================================================

// Vec3 is a point or direction in the canonical frame (millimeters,
// right-handed, z up for flat plates / z axial for cylinders).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Len returns the euclidean length of v.
func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// =============================================================================
// LayoutSettings
// =============================================================================

// LayoutSettings controls the logical grid and its physical spacing.
type LayoutSettings struct {
	GridRows    int     `json:"grid_rows"`
	GridColumns int     `json:"grid_columns"`
	CellSpacing float64 `json:"cell_spacing"` // center-to-center between cells, mm
	LineSpacing float64 `json:"line_spacing"` // center-to-center between rows, mm
	DotSpacing  float64 `json:"dot_spacing"`  // between dots within a cell, mm
	XAdjust     float64 `json:"x_adjust"`     // fine adjustment along the column axis, mm
	YAdjust     float64 `json:"y_adjust"`     // fine adjustment along the row axis, mm
	Indicators  bool    `json:"indicators"`   // reserve columns 0 and 1 for markers
}

// DefaultLayoutSettings returns BANA-flavored spacing on a 4x13 grid.
func DefaultLayoutSettings() LayoutSettings {
	return LayoutSettings{
		GridRows:    4,
		GridColumns: 13,
		CellSpacing: 6.0,
		LineSpacing: 10.0,
		DotSpacing:  2.5,
		Indicators:  true,
	}
}

// UsableColumns returns the number of columns available for braille
// content. With indicators enabled the first two columns are reserved.
func (s LayoutSettings) UsableColumns() int {
	if s.Indicators {
		return s.GridColumns - ReservedColumns
	}
	return s.GridColumns
}

// ContentColumn maps a content index to its grid column.
func (s LayoutSettings) ContentColumn(i int) int {
	if s.Indicators {
		return i + ReservedColumns
	}
	return i
}

// Validate rejects non-positive spacings and grids too small to hold any
// content.
func (s LayoutSettings) Validate() error {
	switch {
	case s.GridRows < 1:
		return errors.New(errors.ErrCodeConfiguration, "grid_rows must be >= 1, got %d", s.GridRows)
	case s.GridColumns < 1:
		return errors.New(errors.ErrCodeConfiguration, "grid_columns must be >= 1, got %d", s.GridColumns)
	case s.CellSpacing <= 0:
		return errors.New(errors.ErrCodeConfiguration, "cell_spacing must be > 0, got %g", s.CellSpacing)
	case s.LineSpacing <= 0:
		return errors.New(errors.ErrCodeConfiguration, "line_spacing must be > 0, got %g", s.LineSpacing)
	case s.DotSpacing <= 0:
		return errors.New(errors.ErrCodeConfiguration, "dot_spacing must be > 0, got %g", s.DotSpacing)
	}
	if s.Indicators && s.GridColumns <= ReservedColumns {
		return errors.New(errors.ErrCodeConfiguration,
			"grid_columns must exceed %d when indicators are enabled, got %d", ReservedColumns, s.GridColumns)
	}
	return nil
}

// =============================================================================
// Surface
// =============================================================================

// Bore describes an optional polygonal bore through a cylindrical shell.
// Radius is the cutout radius (the inscribed circle of the prism); the
// prism's circumscribed radius is derived as radius / cos(pi/sides).
// A zero radius disables the bore.
type Bore struct {
	Radius        float64 `json:"radius"`
	Sides         int     `json:"sides"`
	SeamOffsetDeg float64 `json:"seam_offset_deg"`
}

// Enabled reports whether the bore should be cut at all.
func (b *Bore) Enabled() bool { return b != nil && b.Radius > 0 }

// CircumscribedRadius returns the prism's corner radius for the requested
// cutout radius.
func (b *Bore) CircumscribedRadius() float64 {
	return b.Radius / math.Cos(math.Pi/float64(b.Sides))
}

// Surface is the tagged union of supported plate surfaces. Exactly the
// fields for the active Kind are meaningful; use [Flat] and [Cylindrical]
// to construct values.
type Surface struct {
	Kind      SurfaceKind `json:"kind"`
	Width     float64     `json:"width,omitempty"`     // flat only
	Height    float64     `json:"height"`              // flat: plate height; cylindrical: axial extent
	Thickness float64     `json:"thickness,omitempty"` // flat only
	Radius    float64     `json:"radius,omitempty"`    // cylindrical only
	Bore      *Bore       `json:"bore,omitempty"`      // cylindrical only
}

// Flat constructs a flat plate surface.
func Flat(width, height, thickness float64) Surface {
	return Surface{Kind: SurfaceFlat, Width: width, Height: height, Thickness: thickness}
}

// Cylindrical constructs a cylindrical shell surface. bore may be nil.
func Cylindrical(radius, height float64, bore *Bore) Surface {
	return Surface{Kind: SurfaceCylindrical, Radius: radius, Height: height, Bore: bore}
}

// Validate rejects non-positive dimensions and malformed bores before any
// geometry is built.
func (s Surface) Validate() error {
	switch s.Kind {
	case SurfaceFlat:
		switch {
		case s.Width <= 0:
			return errors.New(errors.ErrCodeConfiguration, "width must be > 0, got %g", s.Width)
		case s.Height <= 0:
			return errors.New(errors.ErrCodeConfiguration, "height must be > 0, got %g", s.Height)
		case s.Thickness <= 0:
			return errors.New(errors.ErrCodeConfiguration, "thickness must be > 0, got %g", s.Thickness)
		}
	case SurfaceCylindrical:
		switch {
		case s.Radius <= 0:
			return errors.New(errors.ErrCodeConfiguration, "radius must be > 0, got %g", s.Radius)
		case s.Height <= 0:
			return errors.New(errors.ErrCodeConfiguration, "height must be > 0, got %g", s.Height)
		}
		if s.Bore.Enabled() && s.Bore.Sides < 3 {
			return errors.New(errors.ErrCodeConfiguration, "bore sides must be >= 3 when bore radius > 0, got %d", s.Bore.Sides)
		}
	default:
		return errors.New(errors.ErrCodeConfiguration, "unknown surface kind %q", s.Kind)
	}
	return nil
}

// =============================================================================
// DotSpec
// =============================================================================

// Dot profiles. Frustum and dome raise material on embossing plates;
// hemisphere, bowl and recess carve it on counter plates.
const (
	ProfileFrustum    DotProfile = "frustum"
	ProfileDome       DotProfile = "dome"
	ProfileHemisphere DotProfile = "hemisphere"
	ProfileBowl       DotProfile = "bowl"
	ProfileRecess     DotProfile = "recess"
)

// DotProfile names a dot shape family.
type DotProfile string

// DotSpec describes the physical dot shape independent of grid placement.
type DotSpec struct {
	Profile      DotProfile `json:"profile"`
	BaseDiameter float64    `json:"base_diameter"`         // diameter at the plate surface, mm
	TopDiameter  float64    `json:"top_diameter,omitempty"` // frustum top / dome opening / recess tip, mm
	Height       float64    `json:"height"`                 // relief height or recess depth, mm
	DomeHeight   float64    `json:"dome_height,omitempty"`  // dome profile: spherical cap height, mm
}

// DefaultDotSpec returns the default dot shape for the given plate type.
func DefaultDotSpec(p PlateType) DotSpec {
	if p == Counter {
		return DotSpec{Profile: ProfileBowl, BaseDiameter: 1.8, Height: 0.8}
	}
	return DotSpec{Profile: ProfileDome, BaseDiameter: 1.6, TopDiameter: 1.5, Height: 0.8, DomeHeight: 0.6}
}

// CompatibleWith reports whether the profile belongs to the plate type's
// shape family.
func (d DotSpec) CompatibleWith(p PlateType) bool {
	switch d.Profile {
	case ProfileFrustum, ProfileDome:
		return p == Embossing
	case ProfileHemisphere, ProfileBowl, ProfileRecess:
		return p == Counter
	}
	return false
}

// Validate rejects dimensions that would collapse the dot or overlap its
// neighbors. The dot footprint must fit within the in-cell dot spacing,
// otherwise adjacent primitives intersect and boolean results are
// undefined.
func (d DotSpec) Validate(p PlateType, dotSpacing float64) error {
	if !d.CompatibleWith(p) {
		return errors.New(errors.ErrCodeConfiguration, "dot profile %q is not valid for %s plates", d.Profile, p)
	}
	if d.BaseDiameter <= 0 {
		return errors.New(errors.ErrCodeConfiguration, "base_diameter must be > 0, got %g", d.BaseDiameter)
	}
	if d.Height <= 0 {
		return errors.New(errors.ErrCodeConfiguration, "height must be > 0, got %g", d.Height)
	}
	switch d.Profile {
	case ProfileFrustum, ProfileRecess:
		if d.TopDiameter <= 0 {
			return errors.New(errors.ErrCodeConfiguration, "top_diameter must be > 0 for %s dots, got %g", d.Profile, d.TopDiameter)
		}
	case ProfileDome:
		if d.TopDiameter <= 0 {
			return errors.New(errors.ErrCodeConfiguration, "top_diameter must be > 0 for dome dots, got %g", d.TopDiameter)
		}
		if d.DomeHeight <= 0 || d.DomeHeight >= d.Height {
			return errors.New(errors.ErrCodeConfiguration,
				"dome_height must be > 0 and < height, got dome_height=%g height=%g", d.DomeHeight, d.Height)
		}
	}
	if d.BaseDiameter > dotSpacing {
		return errors.New(errors.ErrCodeConfiguration,
			"base_diameter %g exceeds dot_spacing %g; adjacent dots would overlap", d.BaseDiameter, dotSpacing)
	}
	return nil
}
