// Package stl reads and writes binary STL.
//
// Binary STL is an 80-byte header, a little-endian uint32 triangle
// count, then 50 bytes per triangle: normal, three vertices (all
// float32 triplets) and a two-byte attribute word. Coordinates are
// written in millimeters straight from the canonical frame.
package stl

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/solid"
)

const (
	headerSize = 80
	recordSize = 50

	// maxPrealloc bounds the triangle slice capacity reserved up front
	// when decoding. The declared count is untrusted input; beyond the
	// bound the slice grows as records actually arrive.
	maxPrealloc = 1 << 16
)

// Encode writes the mesh as binary STL. The header carries the given
// name truncated to the 80-byte field.
func Encode(w io.Writer, m solid.Mesh, name string) error {
	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[:], name)
	if _, err := bw.Write(header[:]); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write stl header")
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write stl triangle count")
	}

	var rec [recordSize]byte
	for _, t := range m.Triangles {
		putVec(rec[0:], t.Normal())
		putVec(rec[12:], t.A)
		putVec(rec[24:], t.B)
		putVec(rec[36:], t.C)
		rec[48], rec[49] = 0, 0
		if _, err := bw.Write(rec[:]); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write stl triangle")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "flush stl")
	}
	return nil
}

// Decode reads a binary STL stream back into a mesh. Stored normals are
// discarded; they are recomputed from vertex order on demand.
func Decode(r io.Reader) (solid.Mesh, error) {
	br := bufio.NewReader(r)

	var header [headerSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return solid.Mesh{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stl header")
	}

	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return solid.Mesh{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stl triangle count")
	}

	m := solid.Mesh{Triangles: make([]solid.Triangle, 0, min(count, maxPrealloc))}
	var rec [recordSize]byte
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(br, rec[:]); err != nil {
			return solid.Mesh{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stl triangle %d of %d", i, count)
		}
		m.Append(solid.Triangle{
			A: getVec(rec[12:]),
			B: getVec(rec[24:]),
			C: getVec(rec[36:]),
		})
	}
	return m, nil
}

func putVec(b []byte, v plate.Vec3) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}

func getVec(b []byte) plate.Vec3 {
	return plate.Vec3{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	}
}
