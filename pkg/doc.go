// Package pkg provides the core libraries for dotplate braille plate generation.
//
// # Overview
//
// Dotplate turns pre-translated braille content into 3D-printable plate
// geometry: embossing plates with raised dots and matching counter plates
// with recessed dots, on flat sheets or cylindrical shells. The pkg
// directory is organized along the pipeline:
//
//	Braille rows + settings
//	         ↓
//	    [braille] package (resolve the logical grid)
//	         ↓
//	    [project] package (project cells onto the surface)
//	         ↓
//	    [primitive] package (bind dot shapes and markers)
//	         ↓
//	    [assemble] package (tessellate + boolean composition)
//	         ↓
//	    [stl] / [plate] output (binary STL, canonical spec JSON)
//
// # Main Packages
//
// [plate] - Shared geometry types: surfaces, dot specs, primitives, and the
// canonical GeometrySpec interchange document.
//
// [braille] - Layout resolution: decodes Unicode braille into dot masks,
// places cells on the grid, and assigns indicator markers.
//
// [project] - Coordinate projection: maps grid positions onto flat or
// cylindrical surfaces with per-placement local frames.
//
// [primitive] - Primitive construction and tessellation: dot solids as
// surfaces of revolution, triangle/rectangle/character markers.
//
// [solid] - Triangle meshes and BSP-based CSG booleans.
//
// [assemble] - Solid assembly: shell construction, parallel tessellation,
// boolean composition with epsilon retry and failure diagnosis.
//
// [stl] - Binary STL encoding and decoding.
//
// [pipeline] - Orchestration used by CLI and API, with caching of the two
// serialized products (spec document, STL bytes).
//
// [cache] - Cache backends (file, Redis, null) and content-hash keying.
//
// [config] - dotplate.toml plate definition loading.
//
// [errors] - Structured errors with machine-readable codes.
//
// [observability] - Optional hooks for metrics and tracing backends.
//
// [braille]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/braille
// [project]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/project
// [primitive]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/primitive
// [solid]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/solid
// [assemble]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/assemble
// [stl]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/stl
// [plate]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/plate
// [pipeline]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/cache
// [config]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/config
// [errors]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/errors
// [observability]: https://pkg.go.dev/github.com/tactilab/dotplate/pkg/observability
package pkg
