package box2d

import (
	"fmt"
	"math"
)

// A solid convex polygon. It is assumed that the interior of the polygon is to
// the left of each edge.
// Polygons have a maximum number of vertices equal to B2_maxPolygonVertices.
// In most cases you should not need many vertices for a convex polygon.
type B2PolygonShape struct {
	centroid B2Vec2
	vertices [B2_maxPolygonVertices]B2Vec2
	normals  [B2_maxPolygonVertices]B2Vec2
	count    int
}

// NewB2PolygonShape creates a convex hull from the given points. Points
// closer than half the linear slop are welded. The hull must keep at least
// three points and enclose a non-zero area.
func NewB2PolygonShape(points []B2Vec2) (*B2PolygonShape, error) {
	n := len(points)
	if n > B2_maxPolygonVertices {
		return nil, fmt.Errorf("polygon with %d points: %w", n, ErrTooManyVertices)
	}
	if n < 3 {
		return nil, fmt.Errorf("polygon with %d points: %w", n, ErrDegeneratePolygon)
	}

	// Perform welding and copy vertices into local buffer.
	var ps [B2_maxPolygonVertices]B2Vec2
	tempCount := 0
	for _, v := range points {
		if !v.IsValid() {
			return nil, fmt.Errorf("polygon vertex %v: %w", v, ErrDegeneratePolygon)
		}

		unique := true
		for j := 0; j < tempCount; j++ {
			if B2Vec2DistanceSquared(v, ps[j]) < (0.5*B2_linearSlop)*(0.5*B2_linearSlop) {
				unique = false
				break
			}
		}

		if unique {
			ps[tempCount] = v
			tempCount++
		}
	}

	n = tempCount
	if n < 3 {
		// Polygon is degenerate.
		return nil, fmt.Errorf("polygon welded to %d points: %w", n, ErrDegeneratePolygon)
	}

	// Create the convex hull using the Gift wrapping algorithm
	// http://en.wikipedia.org/wiki/Gift_wrapping_algorithm

	// Find the right most point on the hull
	i0 := 0
	x0 := ps[0].X
	for i := 1; i < n; i++ {
		x := ps[i].X
		if x > x0 || (x == x0 && ps[i].Y < ps[i0].Y) {
			i0 = i
			x0 = x
		}
	}

	var hull [B2_maxPolygonVertices]int
	m := 0
	ih := i0

	for {
		if m >= n {
			return nil, fmt.Errorf("polygon hull did not close: %w", ErrDegeneratePolygon)
		}
		hull[m] = ih

		ie := 0
		for j := 1; j < n; j++ {
			if ie == ih {
				ie = j
				continue
			}

			r := B2Vec2Sub(ps[ie], ps[hull[m]])
			v := B2Vec2Sub(ps[j], ps[hull[m]])
			c := B2Vec2Cross(r, v)
			if c < 0.0 {
				ie = j
			}

			// Collinearity check
			if c == 0.0 && v.LengthSquared() > r.LengthSquared() {
				ie = j
			}
		}

		m++
		ih = ie

		if ie == i0 {
			break
		}
	}

	if m < 3 {
		// Polygon is degenerate.
		return nil, fmt.Errorf("polygon hull with %d points: %w", m, ErrDegeneratePolygon)
	}

	poly := &B2PolygonShape{count: m}

	// Copy vertices.
	for i := 0; i < m; i++ {
		poly.vertices[i] = ps[hull[i]]
	}

	// Compute normals. Ensure the edges have non-zero length.
	for i := 0; i < m; i++ {
		i1 := i
		i2 := 0
		if i+1 < m {
			i2 = i + 1
		}

		edge := B2Vec2Sub(poly.vertices[i2], poly.vertices[i1])
		if edge.LengthSquared() <= B2_epsilon*B2_epsilon {
			return nil, fmt.Errorf("polygon edge %d: %w", i, ErrDegeneratePolygon)
		}
		poly.normals[i] = B2Vec2CrossVectorScalar(edge, 1.0)
		poly.normals[i].Normalize()
	}

	centroid, area := computePolygonCentroid(poly.vertices[:m])
	if area <= B2_epsilon {
		return nil, fmt.Errorf("polygon area %v: %w", area, ErrDegeneratePolygon)
	}
	poly.centroid = centroid

	return poly, nil
}

// newB2PolygonFromHull builds a polygon keeping the vertex order when the
// points already form a strictly convex counter-clockwise hull. Other
// point sets go through NewB2PolygonShape.
func newB2PolygonFromHull(points []B2Vec2) (*B2PolygonShape, error) {
	n := len(points)
	if n < 3 || n > B2_maxPolygonVertices {
		return NewB2PolygonShape(points)
	}

	poly := &B2PolygonShape{count: n}
	for i := 0; i < n; i++ {
		i2 := (i + 1) % n
		edge := B2Vec2Sub(points[i2], points[i])
		if !points[i].IsValid() || edge.LengthSquared() <= B2_epsilon*B2_epsilon {
			return NewB2PolygonShape(points)
		}

		for j := 0; j < n; j++ {
			if j == i || j == i2 {
				continue
			}
			if B2Vec2Cross(edge, B2Vec2Sub(points[j], points[i])) <= 0.0 {
				return NewB2PolygonShape(points)
			}
		}

		poly.vertices[i] = points[i]
		poly.normals[i] = B2Vec2CrossVectorScalar(edge, 1.0)
		poly.normals[i].Normalize()
	}

	centroid, area := computePolygonCentroid(poly.vertices[:n])
	if area <= B2_epsilon {
		return nil, fmt.Errorf("polygon area %v: %w", area, ErrDegeneratePolygon)
	}
	poly.centroid = centroid

	return poly, nil
}

// NewB2BoxShape builds an axis aligned box centered on the body origin.
func NewB2BoxShape(hx, hy float64) (*B2PolygonShape, error) {
	if !B2IsValid(hx) || !B2IsValid(hy) || hx <= B2_linearSlop || hy <= B2_linearSlop {
		return nil, fmt.Errorf("box extents %v x %v: %w", hx, hy, ErrDegeneratePolygon)
	}

	poly := &B2PolygonShape{count: 4}
	poly.vertices[0].Set(-hx, -hy)
	poly.vertices[1].Set(hx, -hy)
	poly.vertices[2].Set(hx, hy)
	poly.vertices[3].Set(-hx, hy)
	poly.normals[0].Set(0.0, -1.0)
	poly.normals[1].Set(1.0, 0.0)
	poly.normals[2].Set(0.0, 1.0)
	poly.normals[3].Set(-1.0, 0.0)
	poly.centroid.SetZero()
	return poly, nil
}

// NewB2OrientedBoxShape builds a box with half extents hx, hy centered on
// a body-local point and rotated by angle.
func NewB2OrientedBoxShape(hx, hy float64, center B2Vec2, angle float64) (*B2PolygonShape, error) {
	poly, err := NewB2BoxShape(hx, hy)
	if err != nil {
		return nil, err
	}
	if !center.IsValid() || !B2IsValid(angle) {
		return nil, fmt.Errorf("box placement %v %v: %w", center, angle, ErrDegeneratePolygon)
	}

	poly.centroid = center

	var xf B2Transform
	xf.P = center
	xf.Q.Set(angle)

	// Transform vertices and normals.
	for i := 0; i < poly.count; i++ {
		poly.vertices[i] = B2TransformVec2Mul(xf, poly.vertices[i])
		poly.normals[i] = B2RotVec2Mul(xf.Q, poly.normals[i])
	}
	return poly, nil
}

func computePolygonCentroid(vs []B2Vec2) (B2Vec2, float64) {
	count := len(vs)

	c := MakeB2Vec2(0.0, 0.0)
	area := 0.0

	// Get a reference point for forming triangles.
	// Use the first vertex to reduce round-off errors.
	s := vs[0]

	const inv3 = 1.0 / 3.0

	for i := 0; i < count; i++ {
		// Triangle vertices.
		p1 := B2Vec2Sub(vs[0], s)
		p2 := B2Vec2Sub(vs[i], s)
		p3 := B2Vec2Sub(vs[0], s)
		if i+1 < count {
			p3 = B2Vec2Sub(vs[i+1], s)
		}

		e1 := B2Vec2Sub(p2, p1)
		e2 := B2Vec2Sub(p3, p1)

		D := B2Vec2Cross(e1, e2)

		triangleArea := 0.5 * D
		area += triangleArea

		// Area weighted centroid
		c.OperatorPlusInplace(B2Vec2MulScalar(triangleArea*inv3, B2Vec2Add(B2Vec2Add(p1, p2), p3)))
	}

	if area <= B2_epsilon {
		return s, area
	}

	// Centroid
	c = B2Vec2Add(B2Vec2MulScalar(1.0/area, c), s)
	return c, area
}

func (poly *B2PolygonShape) sealedShape() {}

func (poly *B2PolygonShape) Clone() B2Shape {
	clone := *poly
	return &clone
}

func (poly *B2PolygonShape) GetType() B2ShapeType {
	return B2Shape_Type_Polygon
}

func (poly *B2PolygonShape) GetRadius() float64 {
	return B2_polygonRadius
}

func (poly *B2PolygonShape) GetChildCount() int {
	return 1
}

func (poly *B2PolygonShape) GetVertexCount() int {
	return poly.count
}

// GetVertices returns a copy of the hull in counter-clockwise order.
func (poly *B2PolygonShape) GetVertices() []B2Vec2 {
	return append([]B2Vec2(nil), poly.vertices[:poly.count]...)
}

func (poly *B2PolygonShape) GetNormals() []B2Vec2 {
	return append([]B2Vec2(nil), poly.normals[:poly.count]...)
}

func (poly *B2PolygonShape) GetCentroid() B2Vec2 {
	return poly.centroid
}

func (poly *B2PolygonShape) TestPoint(xf B2Transform, p B2Vec2) bool {
	pLocal := B2RotVec2MulT(xf.Q, B2Vec2Sub(p, xf.P))

	for i := 0; i < poly.count; i++ {
		dot := B2Vec2Dot(poly.normals[i], B2Vec2Sub(pLocal, poly.vertices[i]))
		if dot > 0.0 {
			return false
		}
	}

	return true
}

func (poly *B2PolygonShape) RayCast(input B2RayCastInput, xf B2Transform, childIndex int) (B2RayCastOutput, bool) {
	var output B2RayCastOutput

	// Put the ray into the polygon's frame of reference.
	p1 := B2RotVec2MulT(xf.Q, B2Vec2Sub(input.P1, xf.P))
	p2 := B2RotVec2MulT(xf.Q, B2Vec2Sub(input.P2, xf.P))
	d := B2Vec2Sub(p2, p1)

	lower := 0.0
	upper := input.MaxFraction

	index := -1

	for i := 0; i < poly.count; i++ {
		// p = p1 + a * d
		// dot(normal, p - v) = 0
		// dot(normal, p1 - v) + a * dot(normal, d) = 0
		numerator := B2Vec2Dot(poly.normals[i], B2Vec2Sub(poly.vertices[i], p1))
		denominator := B2Vec2Dot(poly.normals[i], d)

		if denominator == 0.0 {
			if numerator < 0.0 {
				return output, false
			}
		} else {
			// Note: we want this predicate without division:
			// lower < numerator / denominator, where denominator < 0
			// Since denominator < 0, we have to flip the inequality:
			// lower < numerator / denominator <==> denominator * lower > numerator.
			if denominator < 0.0 && numerator < lower*denominator {
				// Increase lower.
				// The segment enters this half-space.
				lower = numerator / denominator
				index = i
			} else if denominator > 0.0 && numerator < upper*denominator {
				// Decrease upper.
				// The segment exits this half-space.
				upper = numerator / denominator
			}
		}

		if upper < lower {
			return output, false
		}
	}

	B2Assert(0.0 <= lower && lower <= input.MaxFraction)

	if index >= 0 {
		output.Fraction = lower
		output.Normal = B2RotVec2Mul(xf.Q, poly.normals[index])
		return output, true
	}

	return output, false
}

func (poly *B2PolygonShape) ComputeAABB(xf B2Transform, childIndex int) B2AABB {
	lower := B2TransformVec2Mul(xf, poly.vertices[0])
	upper := lower

	for i := 1; i < poly.count; i++ {
		v := B2TransformVec2Mul(xf, poly.vertices[i])
		lower = B2Vec2Min(lower, v)
		upper = B2Vec2Max(upper, v)
	}

	r := MakeB2Vec2(B2_polygonRadius, B2_polygonRadius)
	return B2AABB{
		LowerBound: B2Vec2Sub(lower, r),
		UpperBound: B2Vec2Add(upper, r),
	}
}

// ComputeMass integrates over the triangles fanned from the first vertex.
//
// The rotational inertia of a triangle with vertices (0,0), e1, e2 about
// the origin is
//
//	I = density/12 * cross(e1, e2) * (e1.x^2 + e1.x*e2.x + e2.x^2 + same for y)
//
// and the polygon inertia is shifted to the local origin with the parallel
// axis theorem.
func (poly *B2PolygonShape) ComputeMass(density float64) B2MassData {
	var massData B2MassData

	B2Assert(poly.count >= 3)

	center := MakeB2Vec2(0.0, 0.0)
	area := 0.0
	I := 0.0

	// Get a reference point for forming triangles.
	// Use the first vertex to reduce round-off errors.
	s := poly.vertices[0]

	const k_inv3 = 1.0 / 3.0

	for i := 0; i < poly.count; i++ {
		// Triangle vertices.
		e1 := B2Vec2Sub(poly.vertices[i], s)
		e2 := B2Vec2Sub(poly.vertices[0], s)
		if i+1 < poly.count {
			e2 = B2Vec2Sub(poly.vertices[i+1], s)
		}

		D := B2Vec2Cross(e1, e2)

		triangleArea := 0.5 * D
		area += triangleArea

		// Area weighted centroid
		center.OperatorPlusInplace(B2Vec2MulScalar(triangleArea*k_inv3, B2Vec2Add(e1, e2)))

		ex1, ey1 := e1.X, e1.Y
		ex2, ey2 := e2.X, e2.Y

		intx2 := ex1*ex1 + ex2*ex1 + ex2*ex2
		inty2 := ey1*ey1 + ey2*ey1 + ey2*ey2

		I += (0.25 * k_inv3 * D) * (intx2 + inty2)
	}

	// Total mass
	massData.Mass = density * area

	// Center of mass
	B2Assert(area > B2_epsilon)
	center.OperatorScalarMulInplace(1.0 / area)
	massData.Center = B2Vec2Add(center, s)

	// Inertia tensor relative to the local origin (point s).
	massData.I = density * I

	// Shift to center of mass then to original body origin.
	massData.I += massData.Mass * (B2Vec2Dot(massData.Center, massData.Center) - B2Vec2Dot(center, center))
	return massData
}

// Validate checks convexity. This is O(n^2).
func (poly *B2PolygonShape) Validate() bool {
	for i := 0; i < poly.count; i++ {
		i1 := i
		i2 := 0
		if i < poly.count-1 {
			i2 = i1 + 1
		}

		p := poly.vertices[i1]
		e := B2Vec2Sub(poly.vertices[i2], p)
		if e.LengthSquared() <= B2_epsilon*B2_epsilon {
			return false
		}

		for j := 0; j < poly.count; j++ {
			if j == i1 || j == i2 {
				continue
			}

			v := B2Vec2Sub(poly.vertices[j], p)
			c := B2Vec2Cross(e, v)
			if c < 0.0 {
				return false
			}
		}
	}

	return !math.IsNaN(poly.centroid.X) && !math.IsNaN(poly.centroid.Y)
}
