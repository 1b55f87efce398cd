package primitive

import (
	"math"

	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/solid"
)

// DefaultSegments is the angular tessellation used when the caller does
// not override it.
const DefaultSegments = 32

// Mesh realizes the primitive as a world-positioned triangle mesh ready
// for boolean composition. eps is the seating overlap: protrusions sink
// that far into the shell and recess solids overshoot the surface by it,
// keeping boolean inputs away from coincident-face degeneracy.
func Mesh(p plate.Primitive, plateType plate.PlateType, segments int, eps float64) (solid.Mesh, error) {
	if segments < 3 {
		segments = DefaultSegments
	}

	var m solid.Mesh
	var err error
	switch {
	case p.Shape != nil:
		m, err = dotMesh(p, segments, eps)
	case p.Marker != nil:
		m, err = markerMesh(p, plateType, eps)
	default:
		err = errors.New(errors.ErrCodeInternal, "primitive at (%d,%d) has neither shape nor marker", p.Row, p.Col)
	}
	if err != nil {
		return solid.Mesh{}, err
	}

	u, v, n := frame(p.Transform, plateType)
	origin := p.Transform.Position
	return m.Transform(func(l plate.Vec3) plate.Vec3 {
		return origin.Add(u.Scale(l.X)).Add(v.Scale(l.Y)).Add(n.Scale(l.Z))
	}), nil
}

// frame returns the local basis at the primitive's seat: u along
// increasing column, v along increasing row height (toward row 0), n the
// outward normal. On cylinders the column direction carries the plate
// type's mirror sign, so glyphs and apexes mirror between paired plates.
func frame(t plate.Transform, plateType plate.PlateType) (u, v, n plate.Vec3) {
	n = t.Normal
	if t.SurfaceRadius > 0 {
		sin, cos := math.Sincos(t.Theta)
		u = plate.Vec3{X: -sin, Y: cos}.Scale(plateType.MirrorSign())
		v = plate.Vec3{Z: 1}
		return u, v, n
	}
	return plate.Vec3{X: 1}, plate.Vec3{Y: 1}, n
}

// Footprint returns the radius of the primitive's surface footprint,
// the circle enclosing everything the solid touches at the seat plane.
// The assembler uses it to detect overlapping primitives before any
// boolean runs.
func Footprint(p plate.Primitive) float64 {
	switch s := p.Shape.(type) {
	case plate.ConeFrustum:
		return s.BaseR
	case plate.RoundedDome:
		return s.BaseR
	case plate.Hemisphere:
		return s.R
	case plate.Bowl:
		return s.OpeningR
	case plate.ConeRecess:
		return s.OpeningR
	}
	switch p.Marker.(type) {
	case plate.Triangle:
		return math.Hypot(TriangleLength/2, TriangleWidth/2)
	case plate.Rectangle:
		return math.Hypot(RectWidth/2, RectHeight/2)
	case plate.Character:
		w := GlyphHeight * float64(markerFont.Width) / float64(markerFont.Ascent+markerFont.Descent)
		return math.Hypot(w/2, GlyphHeight/2)
	}
	return 0
}

// seatDepth widens the seating overlap with the flat-base sagitta on
// curved surfaces: a flat footprint of radius rho seated tangentially on
// a cylinder of radius R hovers up to rho^2/(2R) above the shell.
func seatDepth(eps, footprint, surfaceRadius float64) float64 {
	if surfaceRadius > 0 {
		return eps + footprint*footprint/(2*surfaceRadius)
	}
	return eps
}

// =============================================================================
// Dot solids
// =============================================================================

func dotMesh(p plate.Primitive, segments int, eps float64) (solid.Mesh, error) {
	switch s := p.Shape.(type) {
	case plate.ConeFrustum:
		e := seatDepth(eps, s.BaseR, p.Transform.SurfaceRadius)
		// Extend the base below the surface along the cone slope so the
		// radius at z=0 stays exactly BaseR.
		slope := (s.BaseR - s.TopR) / s.Height
		return revolve([]profilePoint{
			{s.BaseR + e*slope, -e},
			{s.TopR, s.Height},
		}, segments), nil

	case plate.RoundedDome:
		e := seatDepth(eps, s.BaseR, p.Transform.SurfaceRadius)
		slope := (s.BaseR - s.DomeR) / s.BaseHeight
		profile := []profilePoint{
			{s.BaseR + e*slope, -e},
			{s.DomeR, s.BaseHeight},
		}
		profile = append(profile, capProfile(s.DomeR, s.DomeHeight, s.BaseHeight, segments)...)
		return revolve(profile, segments), nil

	case plate.Hemisphere:
		// The full sphere crosses the surface transversally; no seating
		// shift is needed.
		return sphere(plate.Vec3{}, s.R, segments), nil

	case plate.Bowl:
		// The carving sphere's cap reaches Depth below the surface. The
		// whole sphere is shifted outward by eps so it never grazes the
		// shell tangentially at the opening rim.
		r := s.CapSphereRadius()
		return sphere(plate.Vec3{Z: r - s.Depth + eps}, r, segments), nil

	case plate.ConeRecess:
		// Overshoot the opening along the cone slope so the carving solid
		// protrudes past the surface while keeping the opening radius
		// exact at z=0.
		slope := (s.OpeningR - s.TipR) / s.Depth
		return revolve([]profilePoint{
			{s.TipR, -s.Depth},
			{s.OpeningR + eps*slope, eps},
		}, segments), nil
	}
	return solid.Mesh{}, errors.New(errors.ErrCodeInternal, "unknown dot shape %q", p.Shape.ShapeKind())
}

// capProfile samples the spherical crown of opening radius r and height
// h starting at base z0, apex included.
func capProfile(r, h, z0 float64, segments int) []profilePoint {
	sphereR := (r*r + h*h) / (2 * h)
	center := z0 + h - sphereR

	stacks := segments / 4
	if stacks < 3 {
		stacks = 3
	}
	out := make([]profilePoint, 0, stacks)
	for i := 1; i <= stacks; i++ {
		z := z0 + h*float64(i)/float64(stacks)
		d := z - center
		rho := math.Sqrt(math.Max(0, sphereR*sphereR-d*d))
		out = append(out, profilePoint{rho, z})
	}
	// Force an exact apex; the last sample is already numerically zero.
	out[len(out)-1] = profilePoint{0, z0 + h}
	return out
}

// =============================================================================
// Surfaces of revolution
// =============================================================================

// profilePoint is one (radius, z) sample of a revolution profile,
// ordered bottom to top. A zero radius marks an apex.
type profilePoint struct {
	rho, z float64
}

func ringPoints(rho, z float64, segments int) []plate.Vec3 {
	pts := make([]plate.Vec3, segments)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		sin, cos := math.Sincos(a)
		pts[i] = plate.Vec3{X: rho * cos, Y: rho * sin, Z: z}
	}
	return pts
}

// revolve lathes the profile around the local z axis into a closed
// solid. Non-apex ends get flat caps.
func revolve(profile []profilePoint, segments int) solid.Mesh {
	rings := make([][]plate.Vec3, len(profile))
	for i, p := range profile {
		if p.rho > 0 {
			rings[i] = ringPoints(p.rho, p.z, segments)
		}
	}

	var m solid.Mesh

	if first := profile[0]; first.rho > 0 {
		c := plate.Vec3{Z: first.z}
		r := rings[0]
		for i := 0; i < segments; i++ {
			m.Append(solid.Triangle{A: c, B: r[(i+1)%segments], C: r[i]})
		}
	}
	if last := profile[len(profile)-1]; last.rho > 0 {
		c := plate.Vec3{Z: last.z}
		r := rings[len(rings)-1]
		for i := 0; i < segments; i++ {
			m.Append(solid.Triangle{A: c, B: r[i], C: r[(i+1)%segments]})
		}
	}

	for k := 0; k+1 < len(profile); k++ {
		b, t := rings[k], rings[k+1]
		switch {
		case b == nil && t == nil:
		case b == nil:
			apex := plate.Vec3{Z: profile[k].z}
			for i := 0; i < segments; i++ {
				m.Append(solid.Triangle{A: apex, B: t[(i+1)%segments], C: t[i]})
			}
		case t == nil:
			apex := plate.Vec3{Z: profile[k+1].z}
			for i := 0; i < segments; i++ {
				m.Append(solid.Triangle{A: b[i], B: b[(i+1)%segments], C: apex})
			}
		default:
			for i := 0; i < segments; i++ {
				j := (i + 1) % segments
				m.AppendQuad(b[i], b[j], t[j], t[i])
			}
		}
	}
	return m
}

// sphere builds a full UV sphere centered at c.
func sphere(c plate.Vec3, r float64, segments int) solid.Mesh {
	stacks := segments / 2
	if stacks < 4 {
		stacks = 4
	}
	profile := make([]profilePoint, 0, stacks+1)
	for i := 0; i <= stacks; i++ {
		phi := -math.Pi/2 + math.Pi*float64(i)/float64(stacks)
		sin, cos := math.Sincos(phi)
		profile = append(profile, profilePoint{r * cos, r * sin})
	}
	// Exact poles.
	profile[0] = profilePoint{0, -r}
	profile[stacks] = profilePoint{0, r}
	return revolve(profile, segments).Translate(c)
}
