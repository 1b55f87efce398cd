// Package pipeline provides the core geometry pipeline for dotplate.
//
// This package implements the complete resolve → project → build →
// assemble → encode pipeline used by both the CLI and the HTTP API. By
// centralizing this logic, we ensure consistent behavior across all
// entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of two cacheable products:
//
//  1. Spec: the canonical GeometrySpec JSON document, a pure function of
//     the request inputs
//  2. Mesh: the assembled solid encoded as binary STL, a pure function
//     of the spec document plus tessellation options
//
// Resolution, projection and primitive construction are cheap and run
// on every request; only their serialized products are cached.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Rows:      []braille.Row{{Braille: "⠓⠑⠇⠇⠕", Indicator: '1'}},
//	    Surface:   plate.Flat(120, 60, 2),
//	    PlateType: plate.Embossing,
//	    Formats:   []string{"json", "stl"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stl := result.Artifacts["stl"]
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tactilab/dotplate/pkg/assemble"
	"github.com/tactilab/dotplate/pkg/braille"
	"github.com/tactilab/dotplate/pkg/cache"
	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/primitive"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSTL  = "stl"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSTL:  true,
}

// Cache TTLs per artifact kind. Both products are pure functions of
// their keys; the TTLs only bound disk usage.
const (
	TTLSpec = 7 * 24 * time.Hour
	TTLMesh = 7 * 24 * time.Hour
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the geometry pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Content
	Rows []braille.Row `json:"rows"`

	// Layout. The zero value selects the default grid and spacing.
	Settings plate.LayoutSettings `json:"settings,omitzero"`

	// Geometry
	Surface   plate.Surface   `json:"surface"`
	PlateType plate.PlateType `json:"plate_type"`
	Dot       *plate.DotSpec  `json:"dot,omitempty"` // nil selects the plate type's default

	// StrictOverflow escalates grid overflow from silent truncation to a
	// GRID_OVERFLOW error.
	StrictOverflow bool `json:"strict_overflow,omitempty"`

	// Assembly
	Segments int     `json:"segments,omitempty"`
	Epsilon  float64 `json:"epsilon,omitempty"`

	// Output
	Formats []string `json:"formats,omitempty"`
	Refresh bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Spec is the built geometry spec.
	Spec plate.GeometrySpec

	// Document is the canonical spec JSON, byte-identical across reruns.
	Document []byte

	// SpecHash is the content hash of Document.
	SpecHash string

	// Artifacts contains outputs keyed by format ("json", "stl").
	Artifacts map[string][]byte

	// Truncated counts content cells dropped by grid overflow.
	Truncated int

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which products came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CellCount      int
	PrimitiveCount int
	TriangleCount  int
	ResolveTime    time.Duration
	BuildTime      time.Duration
	AssembleTime   time.Duration
	EncodeTime     time.Duration
}

// CacheInfo tracks cache hits for each pipeline product.
type CacheInfo struct {
	SpecHit bool // Whether the spec document came from cache
	MeshHit bool // Whether the STL came from cache
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeConfiguration,
			"invalid format: %q (must be one of: json, stl)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.PlateType == "" {
		o.PlateType = plate.Embossing
	}
	if !o.PlateType.Valid() {
		return errors.New(errors.ErrCodeConfiguration, "unknown plate type %q", o.PlateType)
	}

	if o.Settings == (plate.LayoutSettings{}) {
		o.Settings = plate.DefaultLayoutSettings()
	}
	if err := o.Settings.Validate(); err != nil {
		return err
	}

	if o.Surface.Kind == "" {
		return errors.New(errors.ErrCodeConfiguration, "surface is required")
	}
	if err := o.Surface.Validate(); err != nil {
		return err
	}

	if o.Dot == nil {
		d := plate.DefaultDotSpec(o.PlateType)
		o.Dot = &d
	}
	if err := o.Dot.Validate(o.PlateType, o.Settings.DotSpacing); err != nil {
		return err
	}

	if o.Segments == 0 {
		o.Segments = primitive.DefaultSegments
	}
	if o.Epsilon == 0 {
		o.Epsilon = assemble.DefaultEpsilon
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// WantsMesh reports whether the STL product is requested.
func (o *Options) WantsMesh() bool {
	for _, f := range o.Formats {
		if f == FormatSTL {
			return true
		}
	}
	return false
}

// InputHash returns the content hash of everything the spec document
// depends on.
func (o *Options) InputHash() string {
	inputs := struct {
		Rows     []braille.Row        `json:"rows"`
		Settings plate.LayoutSettings `json:"settings"`
		Surface  plate.Surface        `json:"surface"`
		Dot      *plate.DotSpec       `json:"dot"`
	}{o.Rows, o.Settings, o.Surface, o.Dot}

	data, _ := json.Marshal(inputs)
	return cache.Hash(data)
}

// SpecKeyOpts returns cache key options for the spec document.
func (o *Options) SpecKeyOpts() cache.SpecKeyOpts {
	return cache.SpecKeyOpts{
		PlateType: string(o.PlateType),
		Strict:    o.StrictOverflow,
	}
}

// MeshKeyOpts returns cache key options for the assembled mesh.
func (o *Options) MeshKeyOpts() cache.MeshKeyOpts {
	return cache.MeshKeyOpts{
		Segments: o.Segments,
		Epsilon:  o.Epsilon,
	}
}
