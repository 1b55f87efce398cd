package assemble

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/tactilab/dotplate/pkg/braille"
	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/primitive"
	"github.com/tactilab/dotplate/pkg/project"
	"github.com/tactilab/dotplate/pkg/solid"
)

func buildSpec(t *testing.T, rows []braille.Row, surface plate.Surface, plateType plate.PlateType) plate.GeometrySpec {
	t.Helper()
	settings := plate.DefaultLayoutSettings()
	layout, err := braille.Resolve(rows, settings, plateType, false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	placements := project.Project(layout, settings, surface, plateType)
	prims, err := primitive.Build(placements, plate.DefaultDotSpec(plateType), plateType)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return plate.GeometrySpec{Surface: surface, PlateType: plateType, Primitives: prims}
}

func TestAssembleEmbossingPlateAddsMaterial(t *testing.T) {
	surface := plate.Flat(90, 50, 2)
	spec := buildSpec(t, []braille.Row{{Braille: "⠁", Indicator: 'a'}}, surface, plate.Embossing)

	m, err := Assemble(context.Background(), spec, Options{Segments: 12})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	base := surface.Width * surface.Height * surface.Thickness
	if v := m.Volume(); v <= base {
		t.Errorf("volume = %v, want > bare shell %v", v, base)
	}
}

func TestAssembleCounterPlateRemovesMaterial(t *testing.T) {
	surface := plate.Flat(90, 50, 2)
	spec := buildSpec(t, []braille.Row{{Braille: "⠁", Indicator: 'a'}}, surface, plate.Counter)

	m, err := Assemble(context.Background(), spec, Options{Segments: 12})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	base := surface.Width * surface.Height * surface.Thickness
	if v := m.Volume(); v >= base {
		t.Errorf("volume = %v, want < bare shell %v", v, base)
	}
}

func TestAssembleBareShell(t *testing.T) {
	surface := plate.Flat(10, 20, 2)
	spec := plate.GeometrySpec{Surface: surface, PlateType: plate.Embossing}

	m, err := Assemble(context.Background(), spec, Options{})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if v := m.Volume(); math.Abs(v-400) > 1e-9 {
		t.Errorf("volume = %v, want 400", v)
	}
	if !m.IsManifold() {
		t.Error("bare box shell is not manifold")
	}
}

func TestCylinderShellWithoutBore(t *testing.T) {
	const segments = 24
	surface := plate.Cylindrical(20, 60, &plate.Bore{Radius: 0, Sides: 6})
	spec := plate.GeometrySpec{Surface: surface, PlateType: plate.Embossing}

	m, err := Assemble(context.Background(), spec, Options{Segments: segments})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	// A zero bore radius means a solid cylinder: the tessellated volume
	// is the inscribed n-gon prism, exactly.
	want := 0.5 * segments * 20 * 20 * math.Sin(2*math.Pi/segments) * 60
	if v := m.Volume(); math.Abs(v-want) > 1e-6 {
		t.Errorf("volume = %v, want %v", v, want)
	}
}

func TestCylinderBoreCutsThrough(t *testing.T) {
	solidShell, err := buildShell(plate.Cylindrical(20, 60, nil), plate.Embossing, 24)
	if err != nil {
		t.Fatalf("buildShell() error = %v", err)
	}
	bored, err := buildShell(plate.Cylindrical(20, 60, &plate.Bore{Radius: 5, Sides: 6, SeamOffsetDeg: 15}), plate.Embossing, 24)
	if err != nil {
		t.Fatalf("buildShell() error = %v", err)
	}

	if bored.Volume() >= solidShell.Volume() {
		t.Errorf("bore removed nothing: %v vs %v", bored.Volume(), solidShell.Volume())
	}
	// The prism corner radius exceeds the cutout radius.
	b := &plate.Bore{Radius: 5, Sides: 6}
	if got, want := b.CircumscribedRadius(), 5/math.Cos(math.Pi/6); math.Abs(got-want) > 1e-12 {
		t.Errorf("circumscribed radius = %v, want %v", got, want)
	}
}

func TestBoreSeamMirrors(t *testing.T) {
	// The same seam offset rotates opposite ways on the two plate types,
	// so the shells mirror across the xz plane.
	surf := plate.Cylindrical(20, 10, &plate.Bore{Radius: 5, Sides: 3, SeamOffsetDeg: 20})
	emb, err := buildShell(surf, plate.Embossing, 24)
	if err != nil {
		t.Fatalf("buildShell() error = %v", err)
	}
	cnt, err := buildShell(surf, plate.Counter, 24)
	if err != nil {
		t.Fatalf("buildShell() error = %v", err)
	}

	mirrored := cnt.Transform(func(v plate.Vec3) plate.Vec3 {
		return plate.Vec3{X: v.X, Y: -v.Y, Z: v.Z}
	})
	// Mirroring flips orientation; compare volumes by magnitude.
	if math.Abs(math.Abs(mirrored.Volume())-emb.Volume()) > 1e-6 {
		t.Errorf("mirrored volumes differ: %v vs %v", math.Abs(mirrored.Volume()), emb.Volume())
	}
	embMin, embMax := emb.Bounds()
	cntMin, cntMax := cnt.Bounds()
	if math.Abs(embMin.Y+cntMax.Y) > 1e-9 || math.Abs(embMax.Y+cntMin.Y) > 1e-9 {
		t.Errorf("bounds do not mirror: %v..%v vs %v..%v", embMin.Y, embMax.Y, cntMin.Y, cntMax.Y)
	}
}

func TestAssembleCylindricalCounter(t *testing.T) {
	surface := plate.Cylindrical(20, 60, &plate.Bore{Radius: 5, Sides: 6})
	spec := buildSpec(t, []braille.Row{{Braille: "⠁"}}, surface, plate.Counter)

	m, err := Assemble(context.Background(), spec, Options{Segments: 16})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestPreflightRejectsOverlap(t *testing.T) {
	shape := plate.ConeFrustum{BaseR: 1, TopR: 0.8, Height: 0.8}
	at := plate.Transform{Position: plate.Vec3{X: 5, Y: 5, Z: 2}, Normal: plate.Vec3{Z: 1}}
	spec := plate.GeometrySpec{
		Surface:   plate.Flat(20, 20, 2),
		PlateType: plate.Embossing,
		Primitives: []plate.Primitive{
			{Shape: shape, Op: plate.OpAdd, Transform: at},
			{Shape: shape, Op: plate.OpAdd, Transform: at},
		},
	}

	_, err := Assemble(context.Background(), spec, Options{})
	if !errors.Is(err, errors.ErrCodeAssemblyFailure) {
		t.Fatalf("error = %v, want ASSEMBLY_FAILURE", err)
	}
	if !strings.Contains(err.Error(), "0 and 1") {
		t.Errorf("error does not name the offending indices: %v", err)
	}
}

func TestAssembleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	surface := plate.Flat(90, 50, 2)
	spec := buildSpec(t, []braille.Row{{Braille: "⠁"}}, surface, plate.Embossing)
	if _, err := Assemble(ctx, spec, Options{}); err == nil {
		t.Error("Assemble() ignored a canceled context")
	}
}

func TestReduceUnionSingle(t *testing.T) {
	m := box(1, 1, 1)
	got := reduceUnion([]solid.Mesh{m})
	if got.Volume() != m.Volume() {
		t.Errorf("volume = %v, want %v", got.Volume(), m.Volume())
	}
}
