package plate

// Boolean operations against the running solid.
const (
	OpAdd      Op = "add"
	OpSubtract Op = "subtract"
)

// Op is the boolean operation a primitive applies to the base shell.
type Op string

// Transform places a primitive's local frame in the world: Position is
// the surface point the primitive is seated on and Normal the outward
// surface normal there. Theta and SurfaceRadius carry the cylindrical
// coordinates that produced the position; they are zero on flat surfaces.
type Transform struct {
	Position      Vec3    `json:"position"`
	Normal        Vec3    `json:"normal"`
	Theta         float64 `json:"theta,omitempty"`
	SurfaceRadius float64 `json:"surface_radius,omitempty"`
}

// Primitive is one positioned dot or marker solid. Exactly one of Shape
// and Marker is non-nil. Primitives are value types produced once per
// request and consumed immutably by the assembler.
type Primitive struct {
	Row int // logical grid row
	Col int // logical grid column
	Dot int // dot index within the cell, or -1 for markers

	Shape     DotShape
	Marker    MarkerShape
	Op        Op
	Transform Transform
}

// IsMarker reports whether the primitive is an indicator marker rather
// than a braille dot.
func (p Primitive) IsMarker() bool { return p.Marker != nil }

// GeometrySpec is the single serializable artifact of the pipeline: the
// surface, the plate type, and the ordered primitive list. It is a pure
// function of its inputs and carries no lifecycle beyond the request that
// produced it.
type GeometrySpec struct {
	Surface    Surface
	PlateType  PlateType
	Primitives []Primitive
}
