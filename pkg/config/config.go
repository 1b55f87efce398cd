// Package config loads plate definitions from dotplate.toml files.
//
// A definition file carries the braille content plus any layout, surface,
// dot and assembly overrides. Everything except the content rows and the
// surface is optional; omitted values fall back to the pipeline defaults.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tactilab/dotplate/pkg/braille"
	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/pipeline"
	"github.com/tactilab/dotplate/pkg/plate"
)

// File is the top-level structure of a dotplate.toml plate definition.
type File struct {
	PlateType string   `toml:"plate_type"`
	Formats   []string `toml:"formats"`

	Rows    []Row    `toml:"row"`
	Layout  *Layout  `toml:"layout"`
	Surface *Surface `toml:"surface"`
	Dot     *Dot     `toml:"dot"`

	Assembly Assembly `toml:"assembly"`
	Cache    Cache    `toml:"cache"`
}

// Row is one line of braille content with an optional indicator glyph.
type Row struct {
	Braille   string `toml:"braille"`
	Indicator string `toml:"indicator"`
}

// Layout overrides the grid and spacing defaults. Pointer fields
// distinguish "not set" from an explicit zero or false.
type Layout struct {
	GridRows    *int     `toml:"grid_rows"`
	GridColumns *int     `toml:"grid_columns"`
	CellSpacing *float64 `toml:"cell_spacing"`
	LineSpacing *float64 `toml:"line_spacing"`
	DotSpacing  *float64 `toml:"dot_spacing"`
	XAdjust     *float64 `toml:"x_adjust"`
	YAdjust     *float64 `toml:"y_adjust"`
	Indicators  *bool    `toml:"indicators"`
}

// Surface selects the plate surface. Kind is "flat" or "cylindrical".
type Surface struct {
	Kind      string  `toml:"kind"`
	Width     float64 `toml:"width"`
	Height    float64 `toml:"height"`
	Thickness float64 `toml:"thickness"`
	Radius    float64 `toml:"radius"`
	Bore      *Bore   `toml:"bore"`
}

// Bore describes the polygonal bore of a cylindrical shell.
type Bore struct {
	Radius        float64 `toml:"radius"`
	Sides         int     `toml:"sides"`
	SeamOffsetDeg float64 `toml:"seam_offset_deg"`
}

// Dot overrides the plate type's default dot shape.
type Dot struct {
	Profile      string  `toml:"profile"`
	BaseDiameter float64 `toml:"base_diameter"`
	TopDiameter  float64 `toml:"top_diameter"`
	Height       float64 `toml:"height"`
	DomeHeight   float64 `toml:"dome_height"`
}

// Assembly carries tessellation and boolean options.
type Assembly struct {
	Segments       int     `toml:"segments"`
	Epsilon        float64 `toml:"epsilon"`
	StrictOverflow bool    `toml:"strict_overflow"`
}

// Cache configures where pipeline products are cached. Dir selects a file
// cache; URL selects Redis. Setting both is a configuration error that the
// CLI reports when wiring the cache, not here.
type Cache struct {
	Dir string `toml:"dir"`
	URL string `toml:"url"`
}

// Load reads and decodes a plate definition file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "reading %s", path)
	}
	return Parse(data)
}

// Parse decodes a plate definition from TOML bytes.
func Parse(data []byte) (*File, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "decoding plate definition")
	}
	return &f, nil
}

// Options converts the definition into pipeline options. Validation of
// the resulting values is left to the pipeline.
func (f *File) Options() (pipeline.Options, error) {
	opts := pipeline.Options{
		PlateType:      plate.PlateType(f.PlateType),
		Formats:        f.Formats,
		StrictOverflow: f.Assembly.StrictOverflow,
		Segments:       f.Assembly.Segments,
		Epsilon:        f.Assembly.Epsilon,
	}

	for i, r := range f.Rows {
		row := braille.Row{Braille: r.Braille}
		switch runes := []rune(r.Indicator); len(runes) {
		case 0:
		case 1:
			row.Indicator = runes[0]
		default:
			return pipeline.Options{}, errors.New(errors.ErrCodeConfiguration,
				"row %d: indicator must be a single character, got %q", i, r.Indicator)
		}
		opts.Rows = append(opts.Rows, row)
	}

	if f.Layout != nil {
		opts.Settings = f.Layout.apply(plate.DefaultLayoutSettings())
	}

	if f.Surface != nil {
		s, err := f.Surface.surface()
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Surface = s
	}

	if f.Dot != nil {
		opts.Dot = &plate.DotSpec{
			Profile:      plate.DotProfile(f.Dot.Profile),
			BaseDiameter: f.Dot.BaseDiameter,
			TopDiameter:  f.Dot.TopDiameter,
			Height:       f.Dot.Height,
			DomeHeight:   f.Dot.DomeHeight,
		}
	}

	return opts, nil
}

func (l *Layout) apply(s plate.LayoutSettings) plate.LayoutSettings {
	if l.GridRows != nil {
		s.GridRows = *l.GridRows
	}
	if l.GridColumns != nil {
		s.GridColumns = *l.GridColumns
	}
	if l.CellSpacing != nil {
		s.CellSpacing = *l.CellSpacing
	}
	if l.LineSpacing != nil {
		s.LineSpacing = *l.LineSpacing
	}
	if l.DotSpacing != nil {
		s.DotSpacing = *l.DotSpacing
	}
	if l.XAdjust != nil {
		s.XAdjust = *l.XAdjust
	}
	if l.YAdjust != nil {
		s.YAdjust = *l.YAdjust
	}
	if l.Indicators != nil {
		s.Indicators = *l.Indicators
	}
	return s
}

func (s *Surface) surface() (plate.Surface, error) {
	switch plate.SurfaceKind(s.Kind) {
	case plate.SurfaceFlat:
		return plate.Flat(s.Width, s.Height, s.Thickness), nil
	case plate.SurfaceCylindrical:
		var bore *plate.Bore
		if s.Bore != nil {
			bore = &plate.Bore{
				Radius:        s.Bore.Radius,
				Sides:         s.Bore.Sides,
				SeamOffsetDeg: s.Bore.SeamOffsetDeg,
			}
		}
		return plate.Cylindrical(s.Radius, s.Height, bore), nil
	default:
		return plate.Surface{}, errors.New(errors.ErrCodeConfiguration,
			"unknown surface kind %q (must be flat or cylindrical)", s.Kind)
	}
}
