// Package braille decodes Unicode braille into dot bitmasks and resolves
// per-row text into the logical cell grid with its indicator markers.
//
// # Decoding
//
// Braille code points map directly onto bitmasks: for a code point c in
// [U+2800, U+28FF], bits = c - 0x2800, and dot i is raised iff bit i is
// set. The dot order is the fixed six-dot convention: dots 0..2 run down
// the left column of the cell, dots 3..5 down the right.
//
// The Unicode range bounds live here and only here; every other package
// imports them rather than re-declaring the constants.
//
// # Counter plates
//
// Counter plates carve the full six-dot recess grid for every occupied
// cell regardless of the source text, so decoded masks are replaced by
// [FullMask] during resolution.
package braille

import (
	"unicode"

	"github.com/tactilab/dotplate/pkg/errors"
)

// Unicode braille block bounds - single source of truth.
const (
	RuneMin rune = 0x2800
	RuneMax rune = 0x28FF
)

// DotsPerCell is the number of dots in one six-dot braille cell.
const DotsPerCell = 6

// FullMask has all six dots raised.
const FullMask Mask = 0x3F

// Mask is a 6-bit dot pattern for one cell. Bit i corresponds to dot i
// in [DotPlace] order.
type Mask uint8

// dotPlaces is the fixed dot order mapping: index is the dot number,
// value is {row within cell, column within cell}.
var dotPlaces = [DotsPerCell][2]int{
	{0, 0}, {1, 0}, {2, 0},
	{0, 1}, {1, 1}, {2, 1},
}

// DotPlace returns the in-cell (row, col) of dot i. Rows run top to
// bottom (0..2), columns left to right (0..1).
func DotPlace(i int) (row, col int) {
	return dotPlaces[i][0], dotPlaces[i][1]
}

// Decode converts one character into its dot mask. A plain space yields
// the all-zero mask. Any rune outside the braille block (other than
// space) is rejected; upstream translation is expected to have validated
// its output, so this is a defensive check only.
func Decode(r rune) (Mask, error) {
	if r == ' ' {
		return 0, nil
	}
	if r < RuneMin || r > RuneMax {
		return 0, errors.New(errors.ErrCodeInvalidInput,
			"character %q (U+%04X) is not braille or space", r, r)
	}
	// Eight-dot code points carry dots 7 and 8 in the high bits; only the
	// six-dot pattern is kept.
	return Mask(r-RuneMin) & FullMask, nil
}

// Encode converts a dot mask back to its braille code point.
// Encode(Decode(c)) == c for every six-dot braille character.
func Encode(m Mask) rune {
	return RuneMin + rune(m&FullMask)
}

// Dot reports whether dot i is raised.
func (m Mask) Dot(i int) bool {
	return m&(1<<uint(i)) != 0
}

// Empty reports whether no dots are raised.
func (m Mask) Empty() bool { return m&FullMask == 0 }

// IndicatorGlyph reports whether r can be realized as an extruded
// character marker. Only basic alphanumerics have bitmap glyphs; anything
// else falls back to a rectangle.
func IndicatorGlyph(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
