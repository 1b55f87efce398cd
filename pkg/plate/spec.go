package plate

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/tactilab/dotplate/pkg/errors"
)

// Precision is the fixed number of decimals every numeric value carries
// in the serialized document. Rounding once, here, is what lets multiple
// independent realizers reproduce the spec bit-for-bit.
const Precision = 5

// Round rounds v to the document precision.
func Round(v float64) float64 {
	const scale = 1e5 // 10^Precision
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}

// Num is a float64 that serializes at the fixed document precision with
// a stable textual form.
type Num float64

// MarshalJSON implements json.Marshaler.
func (n Num) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(Round(float64(n)), 'f', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Num) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*n = Num(v)
	return nil
}

func num(v float64) *Num {
	n := Num(v)
	return &n
}

// =============================================================================
// Document - the canonical interchange contract
// =============================================================================

// Document is the canonical GeometrySpec interchange document. Field
// names and units (millimeters, radians) are fixed contracts; every
// consuming realizer interprets them identically. Dot and marker
// positions are the seat points on the surface: each solid extends from
// its position along the outward normal, never centered across it.
type Document struct {
	ShapeType string      `json:"shape_type"`
	PlateType string      `json:"plate_type"`
	Surface   SurfaceDoc  `json:"surface"`
	Dots      []DotDoc    `json:"dots"`
	Markers   []MarkerDoc `json:"markers"`
}

// SurfaceDoc serializes the surface union; only the active kind's fields
// appear.
type SurfaceDoc struct {
	Width     *Num     `json:"width,omitempty"`
	Height    Num      `json:"height"`
	Thickness *Num     `json:"thickness,omitempty"`
	Radius    *Num     `json:"radius,omitempty"`
	Bore      *BoreDoc `json:"bore,omitempty"`
}

// BoreDoc carries both the requested cutout radius and the derived prism
// corner radius so realizers never re-derive the cos(pi/sides) division.
type BoreDoc struct {
	Radius              Num `json:"radius"`
	CircumscribedRadius Num `json:"circumscribed_radius"`
	Sides               int `json:"sides"`
	SeamOffsetDeg       Num `json:"seam_offset_deg"`
}

// DotDoc is one positioned dot primitive. Theta and Radius are present
// only for cylindrical surfaces.
type DotDoc struct {
	X      Num    `json:"x"`
	Y      Num    `json:"y"`
	Z      Num    `json:"z"`
	Theta  *Num   `json:"theta,omitempty"`
	Radius *Num   `json:"radius,omitempty"`
	Shape  string `json:"shape"`
	Params Params `json:"params"`
}

// MarkerDoc is one positioned marker.
type MarkerDoc struct {
	Type   string `json:"type"`
	X      Num    `json:"x"`
	Y      Num    `json:"y"`
	Z      Num    `json:"z"`
	Theta  *Num   `json:"theta,omitempty"`
	Params Params `json:"params"`
}

// Params is the union of shape parameters. Only the fields of the
// emitting shape family are set; field order is fixed for byte-stable
// encoding.
type Params struct {
	BaseR      *Num   `json:"base_r,omitempty"`
	TopR       *Num   `json:"top_r,omitempty"`
	Height     *Num   `json:"height,omitempty"`
	DomeR      *Num   `json:"dome_r,omitempty"`
	BaseHeight *Num   `json:"base_height,omitempty"`
	DomeHeight *Num   `json:"dome_height,omitempty"`
	R          *Num   `json:"r,omitempty"`
	OpeningR   *Num   `json:"opening_r,omitempty"`
	TipR       *Num   `json:"tip_r,omitempty"`
	Depth      *Num   `json:"depth,omitempty"`
	ApexRight  *bool  `json:"apex_right,omitempty"`
	Glyph      string `json:"glyph,omitempty"`
}

// =============================================================================
// Serialization
// =============================================================================

// NewDocument converts a GeometrySpec into its canonical document form.
// Primitive order is preserved.
func NewDocument(spec GeometrySpec) Document {
	doc := Document{
		ShapeType: string(spec.Surface.Kind),
		PlateType: string(spec.PlateType),
		Surface:   newSurfaceDoc(spec.Surface),
		Dots:      []DotDoc{},
		Markers:   []MarkerDoc{},
	}

	cylindrical := spec.Surface.Kind == SurfaceCylindrical
	for _, p := range spec.Primitives {
		if p.IsMarker() {
			m := MarkerDoc{
				Type:   p.Marker.MarkerKind(),
				X:      Num(p.Transform.Position.X),
				Y:      Num(p.Transform.Position.Y),
				Z:      Num(p.Transform.Position.Z),
				Params: markerParams(p.Marker),
			}
			if cylindrical {
				m.Theta = num(p.Transform.Theta)
			}
			doc.Markers = append(doc.Markers, m)
			continue
		}
		d := DotDoc{
			X:      Num(p.Transform.Position.X),
			Y:      Num(p.Transform.Position.Y),
			Z:      Num(p.Transform.Position.Z),
			Shape:  p.Shape.ShapeKind(),
			Params: shapeParams(p.Shape),
		}
		if cylindrical {
			d.Theta = num(p.Transform.Theta)
			d.Radius = num(p.Transform.SurfaceRadius)
		}
		doc.Dots = append(doc.Dots, d)
	}
	return doc
}

// Marshal serializes a GeometrySpec to its canonical JSON bytes. Running
// the pipeline twice on identical inputs yields byte-identical output.
func Marshal(spec GeometrySpec) ([]byte, error) {
	data, err := json.Marshal(NewDocument(spec))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode geometry spec")
	}
	return data, nil
}

// UnmarshalDocument parses canonical JSON bytes back into a Document.
func UnmarshalDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode geometry spec")
	}
	return doc, nil
}

func newSurfaceDoc(s Surface) SurfaceDoc {
	doc := SurfaceDoc{Height: Num(s.Height)}
	switch s.Kind {
	case SurfaceFlat:
		doc.Width = num(s.Width)
		doc.Thickness = num(s.Thickness)
	case SurfaceCylindrical:
		doc.Radius = num(s.Radius)
		if s.Bore.Enabled() {
			doc.Bore = &BoreDoc{
				Radius:              Num(s.Bore.Radius),
				CircumscribedRadius: Num(s.Bore.CircumscribedRadius()),
				Sides:               s.Bore.Sides,
				SeamOffsetDeg:       Num(s.Bore.SeamOffsetDeg),
			}
		}
	}
	return doc
}

func shapeParams(s DotShape) Params {
	switch v := s.(type) {
	case ConeFrustum:
		return Params{BaseR: num(v.BaseR), TopR: num(v.TopR), Height: num(v.Height)}
	case RoundedDome:
		return Params{
			BaseR:      num(v.BaseR),
			DomeR:      num(v.DomeR),
			BaseHeight: num(v.BaseHeight),
			DomeHeight: num(v.DomeHeight),
		}
	case Hemisphere:
		return Params{R: num(v.R)}
	case Bowl:
		return Params{OpeningR: num(v.OpeningR), Depth: num(v.Depth)}
	case ConeRecess:
		return Params{OpeningR: num(v.OpeningR), TipR: num(v.TipR), Depth: num(v.Depth)}
	}
	return Params{}
}

func markerParams(m MarkerShape) Params {
	switch v := m.(type) {
	case Triangle:
		apex := v.ApexRight
		return Params{ApexRight: &apex}
	case Character:
		return Params{Glyph: string(v.Glyph)}
	}
	return Params{}
}
