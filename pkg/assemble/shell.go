package assemble

import (
	"math"

	"github.com/tactilab/dotplate/pkg/plate"
	"github.com/tactilab/dotplate/pkg/solid"
)

// box builds the flat plate shell spanning [0,w] x [0,h] x [0,t].
func box(w, h, t float64) solid.Mesh {
	v := func(x, y, z float64) plate.Vec3 { return plate.Vec3{X: x, Y: y, Z: z} }

	var m solid.Mesh
	m.AppendQuad(v(0, 0, 0), v(0, h, 0), v(w, h, 0), v(w, 0, 0)) // bottom
	m.AppendQuad(v(0, 0, t), v(w, 0, t), v(w, h, t), v(0, h, t)) // top
	m.AppendQuad(v(0, 0, 0), v(w, 0, 0), v(w, 0, t), v(0, 0, t)) // front
	m.AppendQuad(v(w, 0, 0), v(w, h, 0), v(w, h, t), v(w, 0, t)) // right
	m.AppendQuad(v(w, h, 0), v(0, h, 0), v(0, h, t), v(w, h, t)) // back
	m.AppendQuad(v(0, h, 0), v(0, 0, 0), v(0, 0, t), v(0, h, t)) // left
	return m
}

// cylinder builds a solid cylinder of the given radius, z in [0, h].
func cylinder(radius, h float64, segments int) solid.Mesh {
	return prism(radius, segments, 0, 0, h)
}

// prism builds a regular n-gon extrusion with corners at the
// circumscribed radius, first corner at angle seam, z in [z0, z1].
func prism(circumR float64, sides int, seam, z0, z1 float64) solid.Mesh {
	bot := make([]plate.Vec3, sides)
	top := make([]plate.Vec3, sides)
	for i := 0; i < sides; i++ {
		a := seam + 2*math.Pi*float64(i)/float64(sides)
		sin, cos := math.Sincos(a)
		bot[i] = plate.Vec3{X: circumR * cos, Y: circumR * sin, Z: z0}
		top[i] = plate.Vec3{X: circumR * cos, Y: circumR * sin, Z: z1}
	}

	var m solid.Mesh
	cb := plate.Vec3{Z: z0}
	ct := plate.Vec3{Z: z1}
	for i := 0; i < sides; i++ {
		j := (i + 1) % sides
		m.Append(solid.Triangle{A: cb, B: bot[j], C: bot[i]})
		m.Append(solid.Triangle{A: ct, B: top[i], C: top[j]})
		m.AppendQuad(bot[i], bot[j], top[j], top[i])
	}
	return m
}
