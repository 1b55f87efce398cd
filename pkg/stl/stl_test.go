package stl

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/solid"
)

func testMesh() solid.Mesh {
	var m solid.Mesh
	m.AppendQuad(
		plate.Vec3{},
		plate.Vec3{X: 2},
		plate.Vec3{X: 2, Y: 3},
		plate.Vec3{Y: 3},
	)
	return m
}

func TestEncodeSize(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testMesh(), "dotplate"); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if want := 80 + 4 + 2*50; buf.Len() != want {
		t.Errorf("encoded size = %d, want %d", buf.Len(), want)
	}
	if !strings.HasPrefix(buf.String(), "dotplate") {
		t.Error("header does not carry the model name")
	}
}

func TestRoundTrip(t *testing.T) {
	m := testMesh()
	var buf bytes.Buffer
	if err := Encode(&buf, m, "plate"); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.Triangles) != len(m.Triangles) {
		t.Fatalf("triangles = %d, want %d", len(got.Triangles), len(m.Triangles))
	}
	for i := range m.Triangles {
		for _, pair := range [][2]plate.Vec3{
			{got.Triangles[i].A, m.Triangles[i].A},
			{got.Triangles[i].B, m.Triangles[i].B},
			{got.Triangles[i].C, m.Triangles[i].C},
		} {
			if pair[0].Sub(pair[1]).Len() > 1e-6 {
				t.Errorf("triangle %d vertex drifted: %+v vs %+v", i, pair[0], pair[1])
			}
		}
	}
}

func TestRoundTripPreservesVolume(t *testing.T) {
	// Float32 quantization must not meaningfully change the enclosed
	// volume of a millimeter-scale solid.
	var m solid.Mesh
	m.AppendQuad(plate.Vec3{}, plate.Vec3{Y: 1}, plate.Vec3{X: 1, Y: 1}, plate.Vec3{X: 1})             // bottom
	m.AppendQuad(plate.Vec3{Z: 1}, plate.Vec3{X: 1, Z: 1}, plate.Vec3{X: 1, Y: 1, Z: 1}, plate.Vec3{Y: 1, Z: 1}) // top
	m.AppendQuad(plate.Vec3{}, plate.Vec3{X: 1}, plate.Vec3{X: 1, Z: 1}, plate.Vec3{Z: 1})
	m.AppendQuad(plate.Vec3{X: 1}, plate.Vec3{X: 1, Y: 1}, plate.Vec3{X: 1, Y: 1, Z: 1}, plate.Vec3{X: 1, Z: 1})
	m.AppendQuad(plate.Vec3{X: 1, Y: 1}, plate.Vec3{Y: 1}, plate.Vec3{Y: 1, Z: 1}, plate.Vec3{X: 1, Y: 1, Z: 1})
	m.AppendQuad(plate.Vec3{Y: 1}, plate.Vec3{}, plate.Vec3{Z: 1}, plate.Vec3{Y: 1, Z: 1})

	var buf bytes.Buffer
	if err := Encode(&buf, m, ""); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if math.Abs(got.Volume()-1) > 1e-5 {
		t.Errorf("volume = %v, want 1", got.Volume())
	}
}

func TestDecodeTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testMesh(), ""); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-10])
	if _, err := Decode(truncated); err == nil {
		t.Error("Decode() accepted a truncated stream")
	}
}

func TestDecodeHugeDeclaredCount(t *testing.T) {
	// A header declaring four billion triangles over an empty body must
	// fail on the missing records, not reserve memory for the claim.
	data := make([]byte, headerSize+4)
	binary.LittleEndian.PutUint32(data[headerSize:], math.MaxUint32)

	if _, err := Decode(bytes.NewReader(data)); err == nil {
		t.Error("Decode() accepted a count with no records")
	}
}
