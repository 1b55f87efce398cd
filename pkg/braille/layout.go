package braille

import (
	"encoding/json"

	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/plate"
)

// Row is one line of pre-translated input: validated Unicode braille (or
// spaces) plus the optional indicator character shown next to the row.
type Row struct {
	Braille   string `json:"braille"`
	Indicator rune   `json:"indicator,omitempty"`
}

// rowJSON is the wire form of Row. The indicator travels as a string so
// API clients write "1" instead of the rune's code point.
type rowJSON struct {
	Braille   string `json:"braille"`
	Indicator string `json:"indicator,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Row) MarshalJSON() ([]byte, error) {
	out := rowJSON{Braille: r.Braille}
	if r.Indicator != 0 {
		out.Indicator = string(r.Indicator)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. The indicator must be empty
// or a single character.
func (r *Row) UnmarshalJSON(data []byte) error {
	var in rowJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Braille = in.Braille
	r.Indicator = 0
	switch runes := []rune(in.Indicator); len(runes) {
	case 0:
	case 1:
		r.Indicator = runes[0]
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"indicator must be a single character, got %q", in.Indicator)
	}
	return nil
}

// Cell is one resolved grid cell with its dot pattern.
type Cell struct {
	Row    int
	Col    int
	Mask   Mask
	Source rune // the character the mask was decoded from, 0 for forced cells
}

// Marker kinds assigned during resolution.
const (
	MarkerTriangle  MarkerKind = "triangle"
	MarkerRectangle MarkerKind = "rectangle"
	MarkerCharacter MarkerKind = "character"
)

// MarkerKind names an indicator marker family.
type MarkerKind string

// Marker is one resolved indicator marker.
type Marker struct {
	Row   int
	Col   int
	Kind  MarkerKind
	Glyph rune // set for MarkerCharacter only
}

// Layout is the resolved logical grid: cells with dot masks plus the
// indicator markers, before any physical projection.
type Layout struct {
	Cells   []Cell
	Markers []Marker
	// Truncated counts content characters dropped because a row exceeded
	// the usable columns or fell beyond the grid's last row. Truncation is
	// the defined non-fatal policy; callers may escalate via the strict flag.
	Truncated int
}

// Resolve decodes per-row braille strings into the logical grid.
//
// Rows beyond the grid and columns beyond the usable limit are truncated
// and counted: upstream line fitting is expected to have wrapped text to
// the grid already, so truncation is a fallback. With strict set,
// overflow is a GRID_OVERFLOW error instead.
//
// For counter plates every occupied cell gets the full six-dot mask and
// the indicator is always a rectangle, never a character.
func Resolve(rows []Row, settings plate.LayoutSettings, plateType plate.PlateType, strict bool) (Layout, error) {
	var out Layout
	if len(rows) > settings.GridRows {
		if strict {
			return Layout{}, errors.New(errors.ErrCodeGridOverflow,
				"%d rows exceed the %d-row grid", len(rows), settings.GridRows)
		}
		for _, row := range rows[settings.GridRows:] {
			out.Truncated += len([]rune(row.Braille))
		}
		rows = rows[:settings.GridRows]
	}

	usable := settings.UsableColumns()

	for rowIdx, row := range rows {
		chars := []rune(row.Braille)
		if len(chars) > usable {
			over := len(chars) - usable
			if strict {
				return Layout{}, errors.New(errors.ErrCodeGridOverflow,
					"row %d has %d cells but only %d columns are usable", rowIdx, len(chars), usable)
			}
			out.Truncated += over
			chars = chars[:usable]
		}

		occupied := false
		for i, r := range chars {
			mask, err := Decode(r)
			if err != nil {
				return Layout{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "row %d column %d", rowIdx, i)
			}
			if mask.Empty() && plateType != plate.Counter {
				continue
			}
			if r == ' ' {
				// Spaces stay empty on counter plates too; only translated
				// cells get the forced full recess grid.
				continue
			}
			occupied = true
			cell := Cell{Row: rowIdx, Col: settings.ContentColumn(i), Mask: mask, Source: r}
			if plateType == plate.Counter {
				cell.Mask = FullMask
			}
			out.Cells = append(out.Cells, cell)
		}

		if !occupied || !settings.Indicators {
			continue
		}

		out.Markers = append(out.Markers, Marker{
			Row:  rowIdx,
			Col:  plate.TriangleColumn,
			Kind: MarkerTriangle,
		})
		out.Markers = append(out.Markers, resolveIndicator(rowIdx, row.Indicator, plateType))
	}

	return out, nil
}

// resolveIndicator picks the column-1 marker: a character when the glyph
// is printable and the plate is embossing, otherwise a rectangle.
func resolveIndicator(row int, glyph rune, plateType plate.PlateType) Marker {
	m := Marker{Row: row, Col: plate.IndicatorColumn, Kind: MarkerRectangle}
	if plateType == plate.Counter {
		return m
	}
	if IndicatorGlyph(glyph) {
		m.Kind = MarkerCharacter
		m.Glyph = glyph
	}
	return m
}
