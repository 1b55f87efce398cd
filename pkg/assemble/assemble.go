// Package assemble composes a geometry spec into one watertight solid.
//
// The assembler builds the base shell for the spec's surface, realizes
// every primitive as a mesh, unions the additions and subtracts the
// recesses. It is all-or-nothing: it returns either a validated closed
// solid or an error, never a partial mesh.
//
// Add primitives never overlap each other (checked up front), so the
// union reduction is order-free and runs pairwise in parallel. Subtract
// solids are equally disjoint and are carved as one merged soup in a
// single boolean pass.
package assemble

import (
	"context"
	"math"
	"sync"

	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/primitive"
	"github.com/tactilab/dotplate/pkg/solid"
)

// DefaultEpsilon is the default seating overlap in millimeters.
const DefaultEpsilon = 0.05

// Options tunes the assembly. The zero value selects the defaults.
type Options struct {
	// Segments is the angular tessellation of revolved solids and the
	// cylindrical shell. Defaults to primitive.DefaultSegments.
	Segments int
	// Epsilon is the seating overlap. Defaults to DefaultEpsilon. On
	// assembly failure one retry runs with the value doubled.
	Epsilon float64
}

func (o Options) withDefaults() Options {
	if o.Segments < 3 {
		o.Segments = primitive.DefaultSegments
	}
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	return o
}

// Assemble builds the final solid for the spec. On boolean failure it
// retries once with a doubled seating epsilon before giving up.
func Assemble(ctx context.Context, spec plate.GeometrySpec, opts Options) (solid.Mesh, error) {
	opts = opts.withDefaults()

	if err := spec.Surface.Validate(); err != nil {
		return solid.Mesh{}, err
	}
	if err := preflight(spec.Primitives); err != nil {
		return solid.Mesh{}, err
	}

	m, err := attempt(ctx, spec, opts, opts.Epsilon)
	if err == nil {
		return m, nil
	}
	if ctx.Err() != nil {
		return solid.Mesh{}, errors.Wrap(errors.ErrCodeInternal, ctx.Err(), "assembly canceled")
	}

	// Doubled epsilon resolves near-tangent boolean inputs.
	m, retryErr := attempt(ctx, spec, opts, 2*opts.Epsilon)
	if retryErr == nil {
		return m, nil
	}
	if ctx.Err() != nil {
		return solid.Mesh{}, errors.Wrap(errors.ErrCodeInternal, ctx.Err(), "assembly canceled")
	}
	return diagnose(ctx, spec, opts, 2*opts.Epsilon)
}

// preflight rejects specs whose primitive footprints overlap on the
// surface; boolean results for intersecting primitives are undefined.
func preflight(prims []plate.Primitive) error {
	for i := 0; i < len(prims); i++ {
		ri := primitive.Footprint(prims[i])
		for j := i + 1; j < len(prims); j++ {
			d := prims[j].Transform.Position.Sub(prims[i].Transform.Position).Len()
			if d < ri+primitive.Footprint(prims[j]) {
				return errors.New(errors.ErrCodeAssemblyFailure,
					"primitives %d and %d overlap: centers %.3fmm apart with footprints %.3fmm and %.3fmm",
					i, j, d, ri, primitive.Footprint(prims[j]))
			}
		}
	}
	return nil
}

// attempt runs the fast path: tessellate everything, reduce the adds
// pairwise in parallel, then a single union and a single subtraction.
func attempt(ctx context.Context, spec plate.GeometrySpec, opts Options, eps float64) (solid.Mesh, error) {
	shell, err := buildShell(spec.Surface, spec.PlateType, opts.Segments)
	if err != nil {
		return solid.Mesh{}, err
	}

	meshes, err := tessellateAll(ctx, spec, opts.Segments, eps)
	if err != nil {
		return solid.Mesh{}, err
	}

	var adds, subs []solid.Mesh
	for i, p := range spec.Primitives {
		if p.Op == plate.OpSubtract {
			subs = append(subs, meshes[i])
		} else {
			adds = append(adds, meshes[i])
		}
	}

	if err := ctx.Err(); err != nil {
		return solid.Mesh{}, err
	}

	result := shell
	if len(adds) > 0 {
		result = solid.Union(result, reduceUnion(adds))
	}
	if err := ctx.Err(); err != nil {
		return solid.Mesh{}, err
	}
	if len(subs) > 0 {
		// Disjoint recess solids carve correctly as one merged soup.
		var carve solid.Mesh
		for _, s := range subs {
			carve.Merge(s)
		}
		result = solid.Subtract(result, carve)
	}

	if err := result.Validate(); err != nil {
		return solid.Mesh{}, err
	}
	return result, nil
}

// tessellateAll realizes every primitive mesh concurrently, preserving
// primitive order.
func tessellateAll(ctx context.Context, spec plate.GeometrySpec, segments int, eps float64) ([]solid.Mesh, error) {
	meshes := make([]solid.Mesh, len(spec.Primitives))
	errs := make([]error, len(spec.Primitives))

	var wg sync.WaitGroup
	for i, p := range spec.Primitives {
		wg.Add(1)
		go func(i int, p plate.Primitive) {
			defer wg.Done()
			m, err := primitive.Mesh(p, spec.PlateType, segments, eps)
			if err != nil {
				errs[i] = errors.Wrap(errors.GetCode(err), err,
					"primitive %d at (%d,%d)", i, p.Row, p.Col)
				return
			}
			meshes[i] = m
		}(i, p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return meshes, nil
}

// reduceUnion folds disjoint solids pairwise; every round halves the
// slice, with each pair unioned on its own goroutine.
func reduceUnion(meshes []solid.Mesh) solid.Mesh {
	for len(meshes) > 1 {
		next := make([]solid.Mesh, (len(meshes)+1)/2)
		var wg sync.WaitGroup
		for i := 0; i+1 < len(meshes); i += 2 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				next[i/2] = solid.Union(meshes[i], meshes[i+1])
			}(i)
		}
		if len(meshes)%2 == 1 {
			next[len(next)-1] = meshes[len(meshes)-1]
		}
		wg.Wait()
		meshes = next
	}
	return meshes[0]
}

// diagnose replays the composition one primitive at a time to name the
// first one that corrupts the solid. The replay can also succeed where
// the batched path failed; in that case its result is returned.
func diagnose(ctx context.Context, spec plate.GeometrySpec, opts Options, eps float64) (solid.Mesh, error) {
	shell, err := buildShell(spec.Surface, spec.PlateType, opts.Segments)
	if err != nil {
		return solid.Mesh{}, err
	}

	result := shell
	for i, p := range spec.Primitives {
		if err := ctx.Err(); err != nil {
			return solid.Mesh{}, errors.Wrap(errors.ErrCodeInternal, err, "assembly canceled")
		}
		m, err := primitive.Mesh(p, spec.PlateType, opts.Segments, eps)
		if err != nil {
			return solid.Mesh{}, err
		}
		if p.Op == plate.OpSubtract {
			result = solid.Subtract(result, m)
		} else {
			result = solid.Union(result, m)
		}
		if err := result.Validate(); err != nil {
			return solid.Mesh{}, errors.Wrap(errors.ErrCodeAssemblyFailure, err,
				"boolean composition failed at primitive %d (row %d, col %d, dot %d) after epsilon retry",
				i, p.Row, p.Col, p.Dot)
		}
	}
	return result, nil
}

// boreOvershoot extends the bore prism past both cylinder ends so the
// subtraction never produces coplanar caps.
const boreOvershoot = 1.0

func buildShell(surface plate.Surface, plateType plate.PlateType, segments int) (solid.Mesh, error) {
	switch surface.Kind {
	case plate.SurfaceFlat:
		return box(surface.Width, surface.Height, surface.Thickness), nil
	case plate.SurfaceCylindrical:
		shell := cylinder(surface.Radius, surface.Height, segments)
		if !surface.Bore.Enabled() {
			return shell, nil
		}
		seam := plateType.MirrorSign() * surface.Bore.SeamOffsetDeg * math.Pi / 180
		bore := prism(surface.Bore.CircumscribedRadius(), surface.Bore.Sides, seam,
			-boreOvershoot, surface.Height+boreOvershoot)
		out := solid.Subtract(shell, bore)
		if err := out.Validate(); err != nil {
			return solid.Mesh{}, errors.Wrap(errors.ErrCodeAssemblyFailure, err,
				"bore subtraction (radius %g, %d sides)", surface.Bore.Radius, surface.Bore.Sides)
		}
		return out, nil
	}
	return solid.Mesh{}, errors.New(errors.ErrCodeConfiguration, "unknown surface kind %q", surface.Kind)
}
