package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tactilab/dotplate/pkg/assemble"
	"github.com/tactilab/dotplate/pkg/braille"
	"github.com/tactilab/dotplate/pkg/cache"
	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/observability"
	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/primitive"
	"github.com/tactilab/dotplate/pkg/project"
	"github.com/tactilab/dotplate/pkg/stl"
)

// stlHeader is the model name written into STL headers.
const stlHeader = "dotplate"

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete resolve → build → assemble → encode
// pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "invalid options")
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: build the geometry spec. Resolution, projection and
	// primitive construction are cheap enough to run on every request.
	spec, err := r.BuildSpec(ctx, opts, result)
	if err != nil {
		return nil, err
	}
	result.Spec = spec

	// Stage 2: canonical document, cached by input hash.
	encodeStart := time.Now()
	doc, specHit, err := r.SerializeWithCacheInfo(ctx, spec, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.EncodeTime = time.Since(encodeStart)
	result.Document = doc
	result.SpecHash = cache.Hash(doc)
	result.CacheInfo.SpecHit = specHit
	result.Artifacts[FormatJSON] = doc

	opts.Logger.Info("built geometry spec",
		"primitives", result.Stats.PrimitiveCount,
		"hash", result.SpecHash[:12],
		"cached", specHit)

	if !opts.WantsMesh() {
		return result, nil
	}

	// Stage 3: assembled mesh, cached by spec hash.
	assembleStart := time.Now()
	data, meshHit, err := r.AssembleWithCacheInfo(ctx, spec, result.SpecHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts[FormatSTL] = data
	result.Stats.AssembleTime = time.Since(assembleStart)
	result.Stats.TriangleCount = stlTriangleCount(data)
	result.CacheInfo.MeshHit = meshHit

	opts.Logger.Info("assembled solid",
		"triangles", result.Stats.TriangleCount,
		"duration", result.Stats.AssembleTime,
		"cached", meshHit)

	return result, nil
}

// BuildSpec runs the pure stages: resolve the layout, project it onto
// the surface, and bind primitives. Stats are recorded on result when
// it is non-nil.
func (r *Runner) BuildSpec(ctx context.Context, opts Options, result *Result) (plate.GeometrySpec, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return plate.GeometrySpec{}, err
	}
	r.applyLogger(&opts)

	resolveStart := time.Now()
	observability.Pipeline().OnResolveStart(ctx, string(opts.PlateType), len(opts.Rows))
	layout, err := braille.Resolve(opts.Rows, opts.Settings, opts.PlateType, opts.StrictOverflow)
	observability.Pipeline().OnResolveComplete(ctx, string(opts.PlateType), len(layout.Cells), time.Since(resolveStart), err)
	if err != nil {
		return plate.GeometrySpec{}, err
	}
	if layout.Truncated > 0 {
		opts.Logger.Warn("content truncated to grid", "cells", layout.Truncated)
	}

	buildStart := time.Now()
	placements := project.Project(layout, opts.Settings, opts.Surface, opts.PlateType)
	observability.Pipeline().OnBuildStart(ctx, string(opts.Surface.Kind), len(placements))
	prims, err := primitive.Build(placements, *opts.Dot, opts.PlateType)
	observability.Pipeline().OnBuildComplete(ctx, string(opts.Surface.Kind), len(prims), time.Since(buildStart), err)
	if err != nil {
		return plate.GeometrySpec{}, err
	}

	if result != nil {
		result.Truncated = layout.Truncated
		result.Stats.CellCount = len(layout.Cells)
		result.Stats.PrimitiveCount = len(prims)
		result.Stats.ResolveTime = time.Since(resolveStart)
		result.Stats.BuildTime = time.Since(buildStart)
	}

	return plate.GeometrySpec{
		Surface:    opts.Surface,
		PlateType:  opts.PlateType,
		Primitives: prims,
	}, nil
}

// SerializeWithCacheInfo returns the canonical spec document, serving
// it from cache when possible. Serialization is deterministic, so the
// cached bytes equal a fresh marshal; the cache exists for API callers
// that fetch the document repeatedly.
func (r *Runner) SerializeWithCacheInfo(ctx context.Context, spec plate.GeometrySpec, opts Options) ([]byte, bool, error) {
	key := r.Keyer.SpecKey(opts.InputHash(), opts.SpecKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "spec")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "spec")
	}

	encodeStart := time.Now()
	observability.Pipeline().OnEncodeStart(ctx, []string{FormatJSON})
	data, err := plate.Marshal(spec)
	observability.Pipeline().OnEncodeComplete(ctx, []string{FormatJSON}, time.Since(encodeStart), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, TTLSpec); err == nil {
		observability.Cache().OnCacheSet(ctx, "spec", len(data))
	}
	return data, false, nil
}

// AssembleWithCacheInfo returns the binary STL for the spec, serving it
// from cache when possible.
func (r *Runner) AssembleWithCacheInfo(ctx context.Context, spec plate.GeometrySpec, specHash string, opts Options) ([]byte, bool, error) {
	key := r.Keyer.MeshKey(specHash, opts.MeshKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "mesh")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "mesh")
	}

	observability.Pipeline().OnAssembleStart(ctx, len(spec.Primitives))
	assembleStart := time.Now()
	mesh, err := assemble.Assemble(ctx, spec, assemble.Options{
		Segments: opts.Segments,
		Epsilon:  opts.Epsilon,
	})
	observability.Pipeline().OnAssembleComplete(ctx, len(mesh.Triangles), time.Since(assembleStart), err)
	if err != nil {
		return nil, false, err
	}

	encodeStart := time.Now()
	observability.Pipeline().OnEncodeStart(ctx, []string{FormatSTL})
	var buf bytes.Buffer
	err = stl.Encode(&buf, mesh, stlHeader)
	observability.Pipeline().OnEncodeComplete(ctx, []string{FormatSTL}, time.Since(encodeStart), err)
	if err != nil {
		return nil, false, err
	}
	data := buf.Bytes()

	if err := r.Cache.Set(ctx, key, data, TTLMesh); err == nil {
		observability.Cache().OnCacheSet(ctx, "mesh", len(data))
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// stlTriangleCount derives the triangle count from the fixed binary
// layout: 80-byte header, 4-byte count, 50 bytes per triangle.
func stlTriangleCount(data []byte) int {
	if len(data) < 84 {
		return 0
	}
	return (len(data) - 84) / 50
}
