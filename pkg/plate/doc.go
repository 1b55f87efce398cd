// Package plate defines the data model for braille plate geometry.
//
// This package is the single source of truth for the types that flow
// through the generation pipeline: layout settings, surface descriptions,
// dot and marker shape parameters, positioned primitives, and the
// canonical GeometrySpec interchange document.
//
// # Design
//
// Every downstream realizer (the built-in mesh assembler, external
// client-side renderers) consumes the same GeometrySpec document, so the
// shape families and their closed-form formulas live here exactly once.
// The spherical-cap radius formula in particular must never be re-derived
// by a consumer; use [RoundedDome.CapSphereRadius] and
// [Bowl.CapSphereRadius].
//
// # Validation
//
// Inputs are validated once at ingestion via [LayoutSettings.Validate],
// [Surface.Validate], and [DotSpec.Validate]. Geometry code downstream
// assumes validated values.
//
// # Units
//
// All lengths are millimeters, all angles radians, except
// [Bore.SeamOffsetDeg] which is degrees by contract with the upstream UI.
package plate
