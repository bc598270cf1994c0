package box2d

import "fmt"

// A line segment (edge) shape. These can be connected in chains or loops
// to other edge shapes. Edges created with ghost vertices are one-sided:
// they collide only on the right of v1→v2 and use the adjacent vertices for
// smooth collision.
type B2EdgeShape struct {
	// These are the edge vertices
	vertex1, vertex2 B2Vec2

	// Optional adjacent vertices. These are used for smooth collision.
	vertex0, vertex3 B2Vec2

	// Uses vertex0 and vertex3 to create smooth collision.
	oneSided bool
}

// NewB2EdgeShape builds a two-sided segment.
func NewB2EdgeShape(v1, v2 B2Vec2) (*B2EdgeShape, error) {
	if err := validateEdge(v1, v2); err != nil {
		return nil, err
	}

	return &B2EdgeShape{
		vertex0: v1,
		vertex1: v1,
		vertex2: v2,
		vertex3: v2,
	}, nil
}

// NewB2OneSidedEdgeShape builds a one-sided segment v1→v2 with ghost
// vertices v0 and v3 from the neighbouring edges.
func NewB2OneSidedEdgeShape(v0, v1, v2, v3 B2Vec2) (*B2EdgeShape, error) {
	if err := validateEdge(v1, v2); err != nil {
		return nil, err
	}
	if !v0.IsValid() || !v3.IsValid() {
		return nil, fmt.Errorf("edge ghost vertices: %w", ErrDegenerateEdge)
	}

	return &B2EdgeShape{
		vertex0:  v0,
		vertex1:  v1,
		vertex2:  v2,
		vertex3:  v3,
		oneSided: true,
	}, nil
}

func validateEdge(v1, v2 B2Vec2) error {
	if !v1.IsValid() || !v2.IsValid() {
		return fmt.Errorf("edge vertices %v %v: %w", v1, v2, ErrDegenerateEdge)
	}
	if B2Vec2DistanceSquared(v1, v2) <= B2_linearSlop*B2_linearSlop {
		return fmt.Errorf("edge length %v: %w", B2Vec2Distance(v1, v2), ErrDegenerateEdge)
	}
	return nil
}

func (edge *B2EdgeShape) sealedShape() {}

func (edge *B2EdgeShape) Clone() B2Shape {
	clone := *edge
	return &clone
}

func (edge *B2EdgeShape) GetType() B2ShapeType {
	return B2Shape_Type_Edge
}

func (edge *B2EdgeShape) GetRadius() float64 {
	return B2_polygonRadius
}

func (edge *B2EdgeShape) GetVertex0() B2Vec2 { return edge.vertex0 }
func (edge *B2EdgeShape) GetVertex1() B2Vec2 { return edge.vertex1 }
func (edge *B2EdgeShape) GetVertex2() B2Vec2 { return edge.vertex2 }
func (edge *B2EdgeShape) GetVertex3() B2Vec2 { return edge.vertex3 }

func (edge *B2EdgeShape) IsOneSided() bool {
	return edge.oneSided
}

func (edge *B2EdgeShape) GetChildCount() int {
	return 1
}

// TestPoint always fails: an edge has no area.
func (edge *B2EdgeShape) TestPoint(xf B2Transform, p B2Vec2) bool {
	return false
}

// p = p1 + t * d
// v = v1 + s * e
// p1 + t * d = v1 + s * e
// s * e - t * d = p1 - v1
func (edge *B2EdgeShape) RayCast(input B2RayCastInput, xf B2Transform, childIndex int) (B2RayCastOutput, bool) {
	var output B2RayCastOutput

	// Put the ray into the edge's frame of reference.
	p1 := B2RotVec2MulT(xf.Q, B2Vec2Sub(input.P1, xf.P))
	p2 := B2RotVec2MulT(xf.Q, B2Vec2Sub(input.P2, xf.P))
	d := B2Vec2Sub(p2, p1)

	v1 := edge.vertex1
	v2 := edge.vertex2
	e := B2Vec2Sub(v2, v1)

	// Normal points to the right, looking from v1 at v2
	normal := MakeB2Vec2(e.Y, -e.X)
	normal.Normalize()

	// q = p1 + t * d
	// dot(normal, q - v1) = 0
	// dot(normal, p1 - v1) + t * dot(normal, d) = 0
	numerator := B2Vec2Dot(normal, B2Vec2Sub(v1, p1))
	if edge.oneSided && numerator > 0.0 {
		return output, false
	}

	denominator := B2Vec2Dot(normal, d)
	if denominator == 0.0 {
		return output, false
	}

	t := numerator / denominator
	if t < 0.0 || input.MaxFraction < t {
		return output, false
	}

	q := B2Vec2Add(p1, B2Vec2MulScalar(t, d))

	// q = v1 + s * r
	// s = dot(q - v1, r) / dot(r, r)
	r := B2Vec2Sub(v2, v1)
	rr := B2Vec2Dot(r, r)
	if rr == 0.0 {
		return output, false
	}

	s := B2Vec2Dot(B2Vec2Sub(q, v1), r) / rr
	if s < 0.0 || 1.0 < s {
		return output, false
	}

	output.Fraction = t
	if numerator > 0.0 {
		output.Normal = B2RotVec2Mul(xf.Q, normal).OperatorNegate()
	} else {
		output.Normal = B2RotVec2Mul(xf.Q, normal)
	}
	return output, true
}

func (edge *B2EdgeShape) ComputeAABB(xf B2Transform, childIndex int) B2AABB {
	v1 := B2TransformVec2Mul(xf, edge.vertex1)
	v2 := B2TransformVec2Mul(xf, edge.vertex2)

	lower := B2Vec2Min(v1, v2)
	upper := B2Vec2Max(v1, v2)

	r := MakeB2Vec2(B2_polygonRadius, B2_polygonRadius)
	return B2AABB{
		LowerBound: B2Vec2Sub(lower, r),
		UpperBound: B2Vec2Add(upper, r),
	}
}

func (edge *B2EdgeShape) ComputeMass(density float64) B2MassData {
	return B2MassData{
		Mass:   0.0,
		Center: B2Vec2MulScalar(0.5, B2Vec2Add(edge.vertex1, edge.vertex2)),
		I:      0.0,
	}
}
