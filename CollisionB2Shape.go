package box2d

// This holds the mass data computed for a shape.
type B2MassData struct {
	// The mass of the shape, usually in kilograms.
	Mass float64

	// The position of the shape's centroid relative to the shape's origin.
	Center B2Vec2

	// The rotational inertia of the shape about the local origin.
	I float64
}

type B2ShapeType uint8

const (
	B2Shape_Type_Circle B2ShapeType = iota
	B2Shape_Type_Edge
	B2Shape_Type_Polygon
	b2Shape_Type_Count
)

func (t B2ShapeType) String() string {
	switch t {
	case B2Shape_Type_Circle:
		return "circle"
	case B2Shape_Type_Edge:
		return "edge"
	case B2Shape_Type_Polygon:
		return "polygon"
	}
	return "unknown"
}

// B2Shape is used for collision detection. The set of shapes is closed:
// circles, edges and convex polygons. Shapes are immutable once built and
// are copied into fixtures on creation.
type B2Shape interface {
	// Clone returns a deep copy of the shape.
	Clone() B2Shape

	// GetType returns the concrete kind. Use it to down cast.
	GetType() B2ShapeType

	// GetRadius returns the rounding radius used by the narrow phase.
	GetRadius() float64

	// GetChildCount returns the number of child primitives. Always 1 for
	// the convex shapes in this package.
	GetChildCount() int

	// TestPoint tests a point in world coordinates for containment.
	TestPoint(xf B2Transform, p B2Vec2) bool

	// RayCast casts a ray against a child shape placed at xf.
	RayCast(input B2RayCastInput, xf B2Transform, childIndex int) (B2RayCastOutput, bool)

	// ComputeAABB computes the world bounding box of a child shape.
	ComputeAABB(xf B2Transform, childIndex int) B2AABB

	// ComputeMass computes the mass properties using the shape dimensions
	// and a density in kilograms per meter squared. The inertia is about
	// the local origin.
	ComputeMass(density float64) B2MassData

	sealedShape()
}
