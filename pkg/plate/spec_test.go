package plate

import (
	"bytes"
	"strings"
	"testing"
)

func sampleSpec(kind SurfaceKind) GeometrySpec {
	surf := Flat(85, 54, 2)
	var theta, radius float64
	if kind == SurfaceCylindrical {
		surf = Cylindrical(20, 60, &Bore{Radius: 5, Sides: 6, SeamOffsetDeg: 30})
		theta, radius = -0.31415926, 20
	}
	return GeometrySpec{
		Surface:   surf,
		PlateType: Embossing,
		Primitives: []Primitive{
			{
				Row: 0, Col: 2, Dot: 0,
				Shape: RoundedDome{BaseR: 0.8, DomeR: 0.75, BaseHeight: 0.2, DomeHeight: 0.6},
				Op:    OpAdd,
				Transform: Transform{
					Position:      Vec3{X: 10.123456789, Y: 20.5, Z: 2},
					Normal:        Vec3{Z: 1},
					Theta:         theta,
					SurfaceRadius: radius,
				},
			},
			{
				Row: 0, Col: 0, Dot: -1,
				Marker: Triangle{ApexRight: true},
				Op:     OpAdd,
				Transform: Transform{
					Position: Vec3{X: 4, Y: 20.5, Z: 2},
					Normal:   Vec3{Z: 1},
					Theta:    theta,
				},
			},
		},
	}
}

func TestMarshalDeterministic(t *testing.T) {
	spec := sampleSpec(SurfaceFlat)

	a, err := Marshal(spec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	b, err := Marshal(spec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("repeated Marshal() produced different bytes")
	}
}

func TestMarshalPrecision(t *testing.T) {
	data, err := Marshal(sampleSpec(SurfaceFlat))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	// 10.123456789 rounds to 5 decimals.
	if !strings.Contains(s, `"x":10.12346`) {
		t.Errorf("output missing rounded x coordinate: %s", s)
	}
	if strings.Contains(s, "10.123456789") {
		t.Error("output contains unrounded coordinate")
	}
}

func TestMarshalFlatOmitsCylindricalFields(t *testing.T) {
	data, err := Marshal(sampleSpec(SurfaceFlat))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if strings.Contains(s, `"theta"`) || strings.Contains(s, `"radius"`) {
		t.Errorf("flat document must not carry cylindrical coordinates: %s", s)
	}
	if !strings.Contains(s, `"shape_type":"flat"`) {
		t.Errorf("missing shape_type: %s", s)
	}
}

func TestMarshalCylindricalRoundTrip(t *testing.T) {
	data, err := Marshal(sampleSpec(SurfaceCylindrical))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	doc, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("UnmarshalDocument() error = %v", err)
	}
	if doc.ShapeType != "cylindrical" {
		t.Errorf("ShapeType = %q, want cylindrical", doc.ShapeType)
	}
	if len(doc.Dots) != 1 || len(doc.Markers) != 1 {
		t.Fatalf("dots/markers = %d/%d, want 1/1", len(doc.Dots), len(doc.Markers))
	}
	if doc.Dots[0].Theta == nil || doc.Dots[0].Radius == nil {
		t.Fatal("cylindrical dot must carry theta and radius")
	}
	if got, want := float64(*doc.Dots[0].Theta), Round(-0.31415926); got != want {
		t.Errorf("theta = %v, want %v", got, want)
	}
	if doc.Surface.Bore == nil {
		t.Fatal("bore missing from surface document")
	}
	if doc.Surface.Bore.Sides != 6 {
		t.Errorf("bore sides = %d, want 6", doc.Surface.Bore.Sides)
	}
	// circumscribed = 5 / cos(pi/6)
	if got := float64(doc.Surface.Bore.CircumscribedRadius); got < 5.7734 || got > 5.7736 {
		t.Errorf("circumscribed radius = %v, want ~5.7735", got)
	}
}

func TestRoundNormalizesNegativeZero(t *testing.T) {
	if got := Round(-0.0000001); got != 0 {
		t.Errorf("Round(-1e-7) = %v, want 0", got)
	}
	n := Num(-0.0000001)
	data, err := n.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != "0" {
		t.Errorf("MarshalJSON() = %s, want 0", data)
	}
}
