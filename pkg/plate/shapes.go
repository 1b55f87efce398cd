package plate

import (
	"github.com/tactilab/dotplate/pkg/errors"
)

// Shape kind names used in the GeometrySpec document. These strings are a
// wire contract shared with every downstream realizer.
const (
	KindConeFrustum = "cone_frustum"
	KindRoundedDome = "rounded_dome"
	KindHemisphere  = "hemisphere"
	KindBowl        = "bowl"
	KindConeRecess  = "cone_recess"

	KindTriangle  = "triangle"
	KindRectangle = "rectangle"
	KindCharacter = "character"
)

// DotShape is the closed set of parametric dot solids. Implementations
// are value types; all dimensions are millimeters in the local frame.
//
// Every shape is realized on its local z axis spanning [0, H] where
// H = TotalHeight(), with z pointing along the outward surface normal
// from the placement point. Downstream placement relies on this: a
// protrusion positioned on the surface has its flush face exactly there
// and its apex at surface + normal*H.
type DotShape interface {
	ShapeKind() string
	// TotalHeight is the local z extent of the realized solid.
	TotalHeight() float64
	// Validate rejects parameters that collapse the shape to zero volume.
	Validate() error
}

// MarkerShape is the closed set of marker solids placed in the reserved
// indicator columns.
type MarkerShape interface {
	MarkerKind() string
}

// capSphereRadius is the single implementation of the spherical-cap
// radius formula R = (r^2 + h^2) / (2h) for a cap of opening radius r and
// height h. Both the dome crown and the bowl recess derive from it.
func capSphereRadius(r, h float64) float64 {
	return (r*r + h*h) / (2 * h)
}

// =============================================================================
// Embossing shapes (protrusions)
// =============================================================================

// ConeFrustum is a right circular frustum: radius BaseR at the flush face,
// radius TopR at height Height.
type ConeFrustum struct {
	BaseR  float64 `json:"base_r"`
	TopR   float64 `json:"top_r"`
	Height float64 `json:"height"`
}

func (f ConeFrustum) ShapeKind() string    { return KindConeFrustum }
func (f ConeFrustum) TotalHeight() float64 { return f.Height }

func (f ConeFrustum) Validate() error {
	if f.BaseR <= 0 || f.TopR <= 0 || f.Height <= 0 {
		return errors.New(errors.ErrCodeDegeneratePrimitive,
			"cone frustum requires positive dimensions, got base_r=%g top_r=%g height=%g", f.BaseR, f.TopR, f.Height)
	}
	if f.TopR > f.BaseR {
		return errors.New(errors.ErrCodeDegeneratePrimitive,
			"cone frustum top radius %g exceeds base radius %g; protrusions taper toward the tip", f.TopR, f.BaseR)
	}
	return nil
}

// RoundedDome is a frustum pedestal capped by a spherical crown. The
// frustum runs from BaseR to DomeR over BaseHeight; the crown has opening
// radius DomeR and height DomeHeight.
type RoundedDome struct {
	BaseR      float64 `json:"base_r"`
	DomeR      float64 `json:"dome_r"`
	BaseHeight float64 `json:"base_height"`
	DomeHeight float64 `json:"dome_height"`
}

func (d RoundedDome) ShapeKind() string    { return KindRoundedDome }
func (d RoundedDome) TotalHeight() float64 { return d.BaseHeight + d.DomeHeight }

// CapSphereRadius returns the radius of the sphere whose cap forms the
// crown: R = (dome_r^2 + dome_h^2) / (2 * dome_h).
func (d RoundedDome) CapSphereRadius() float64 {
	return capSphereRadius(d.DomeR, d.DomeHeight)
}

func (d RoundedDome) Validate() error {
	if d.BaseR <= 0 || d.DomeR <= 0 || d.BaseHeight <= 0 || d.DomeHeight <= 0 {
		return errors.New(errors.ErrCodeDegeneratePrimitive,
			"rounded dome requires positive dimensions, got base_r=%g dome_r=%g base_height=%g dome_height=%g",
			d.BaseR, d.DomeR, d.BaseHeight, d.DomeHeight)
	}
	if d.DomeR > d.BaseR {
		return errors.New(errors.ErrCodeDegeneratePrimitive,
			"rounded dome crown radius %g exceeds base radius %g", d.DomeR, d.BaseR)
	}
	return nil
}

// =============================================================================
// Counter shapes (recesses)
// =============================================================================

// Hemisphere is a recess carved by a full sphere of radius R whose
// equator sits on the surface. Only the inward half ever intersects
// material; the full sphere keeps the boolean subtraction away from
// coincident-face degeneracy.
type Hemisphere struct {
	R float64 `json:"r"`
}

func (h Hemisphere) ShapeKind() string    { return KindHemisphere }
func (h Hemisphere) TotalHeight() float64 { return 2 * h.R }

func (h Hemisphere) Validate() error {
	if h.R <= 0 {
		return errors.New(errors.ErrCodeDegeneratePrimitive, "hemisphere requires positive radius, got %g", h.R)
	}
	return nil
}

// Bowl is a spherical-cap recess: opening radius OpeningR at the surface,
// lowest point Depth below it.
type Bowl struct {
	OpeningR float64 `json:"opening_r"`
	Depth    float64 `json:"depth"`
}

func (b Bowl) ShapeKind() string    { return KindBowl }
func (b Bowl) TotalHeight() float64 { return b.Depth }

// CapSphereRadius returns the carving sphere radius
// R = (opening_r^2 + depth^2) / (2 * depth).
func (b Bowl) CapSphereRadius() float64 {
	return capSphereRadius(b.OpeningR, b.Depth)
}

func (b Bowl) Validate() error {
	if b.OpeningR <= 0 || b.Depth <= 0 {
		return errors.New(errors.ErrCodeDegeneratePrimitive,
			"bowl requires positive dimensions, got opening_r=%g depth=%g", b.OpeningR, b.Depth)
	}
	if b.Depth > b.OpeningR {
		return errors.New(errors.ErrCodeDegeneratePrimitive,
			"bowl depth %g exceeds opening radius %g; cap would exceed a hemisphere", b.Depth, b.OpeningR)
	}
	return nil
}

// ConeRecess is a frustum-shaped recess with the radii swapped relative
// to a protrusion: the larger OpeningR sits at the surface and the
// smaller TipR at depth, because material is removed rather than added.
// The ordering is validated; realizing a recess with protrusion radius
// ordering produces an inverted void.
type ConeRecess struct {
	OpeningR float64 `json:"opening_r"`
	TipR     float64 `json:"tip_r"`
	Depth    float64 `json:"depth"`
}

func (c ConeRecess) ShapeKind() string    { return KindConeRecess }
func (c ConeRecess) TotalHeight() float64 { return c.Depth }

func (c ConeRecess) Validate() error {
	if c.OpeningR <= 0 || c.TipR <= 0 || c.Depth <= 0 {
		return errors.New(errors.ErrCodeDegeneratePrimitive,
			"cone recess requires positive dimensions, got opening_r=%g tip_r=%g depth=%g", c.OpeningR, c.TipR, c.Depth)
	}
	if c.TipR >= c.OpeningR {
		return errors.New(errors.ErrCodeDegeneratePrimitive,
			"cone recess tip radius %g must be smaller than opening radius %g", c.TipR, c.OpeningR)
	}
	return nil
}

// =============================================================================
// Markers
// =============================================================================

// Triangle is the row marker placed in column 0. The apex points right on
// embossing plates and left (rotated 180 degrees) on counter plates.
type Triangle struct {
	ApexRight bool `json:"apex_right"`
}

func (t Triangle) MarkerKind() string { return KindTriangle }

// Rectangle is the fixed-size indicator fallback for column 1.
type Rectangle struct{}

func (r Rectangle) MarkerKind() string { return KindRectangle }

// Character is an extruded bitmap glyph indicator. Only embossing plates
// ever use it; counter plates always fall back to Rectangle.
type Character struct {
	Glyph rune `json:"glyph"`
}

func (c Character) MarkerKind() string { return KindCharacter }

// =============================================================================
// DotSpec -> DotShape
// =============================================================================

// Shape materializes the spec's dot shape family for its profile.
func (d DotSpec) Shape() (DotShape, error) {
	var s DotShape
	switch d.Profile {
	case ProfileFrustum:
		s = ConeFrustum{BaseR: d.BaseDiameter / 2, TopR: d.TopDiameter / 2, Height: d.Height}
	case ProfileDome:
		s = RoundedDome{
			BaseR:      d.BaseDiameter / 2,
			DomeR:      d.TopDiameter / 2,
			BaseHeight: d.Height - d.DomeHeight,
			DomeHeight: d.DomeHeight,
		}
	case ProfileHemisphere:
		s = Hemisphere{R: d.BaseDiameter / 2}
	case ProfileBowl:
		s = Bowl{OpeningR: d.BaseDiameter / 2, Depth: d.Height}
	case ProfileRecess:
		s = ConeRecess{OpeningR: d.BaseDiameter / 2, TipR: d.TopDiameter / 2, Depth: d.Height}
	default:
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown dot profile %q", d.Profile)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
