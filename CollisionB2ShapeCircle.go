package box2d

import (
	"fmt"
	"math"
)

// A solid circle shape.
type B2CircleShape struct {
	p      B2Vec2
	radius float64
}

// NewB2CircleShape builds a circle centered at a body-local point.
func NewB2CircleShape(center B2Vec2, radius float64) (*B2CircleShape, error) {
	if !B2IsValid(radius) || radius <= 0.0 {
		return nil, fmt.Errorf("circle radius %v: %w", radius, ErrInvalidRadius)
	}
	if !center.IsValid() {
		return nil, fmt.Errorf("circle center %v: %w", center, ErrInvalidRadius)
	}

	return &B2CircleShape{p: center, radius: radius}, nil
}

func (shape *B2CircleShape) sealedShape() {}

func (shape *B2CircleShape) Clone() B2Shape {
	clone := *shape
	return &clone
}

func (shape *B2CircleShape) GetType() B2ShapeType {
	return B2Shape_Type_Circle
}

func (shape *B2CircleShape) GetRadius() float64 {
	return shape.radius
}

// GetPosition returns the body-local center.
func (shape *B2CircleShape) GetPosition() B2Vec2 {
	return shape.p
}

func (shape *B2CircleShape) GetChildCount() int {
	return 1
}

func (shape *B2CircleShape) TestPoint(transform B2Transform, p B2Vec2) bool {
	center := B2Vec2Add(transform.P, B2RotVec2Mul(transform.Q, shape.p))
	d := B2Vec2Sub(p, center)
	return B2Vec2Dot(d, d) <= shape.radius*shape.radius
}

// Collision Detection in Interactive 3D Environments by Gino van den Bergen
// From Section 3.1.2
// x = s + a * r
// norm(x) = radius
func (shape *B2CircleShape) RayCast(input B2RayCastInput, transform B2Transform, childIndex int) (B2RayCastOutput, bool) {
	var output B2RayCastOutput

	position := B2Vec2Add(transform.P, B2RotVec2Mul(transform.Q, shape.p))
	s := B2Vec2Sub(input.P1, position)
	b := B2Vec2Dot(s, s) - shape.radius*shape.radius

	// Solve quadratic equation.
	r := B2Vec2Sub(input.P2, input.P1)
	c := B2Vec2Dot(s, r)
	rr := B2Vec2Dot(r, r)
	sigma := c*c - rr*b

	// Check for negative discriminant and short segment.
	if sigma < 0.0 || rr < B2_epsilon {
		return output, false
	}

	// Find the point of intersection of the line with the circle.
	a := -(c + math.Sqrt(sigma))

	// Is the intersection point on the segment?
	if 0.0 <= a && a <= input.MaxFraction*rr {
		a /= rr
		output.Fraction = a
		output.Normal = B2Vec2Add(s, B2Vec2MulScalar(a, r))
		output.Normal.Normalize()
		return output, true
	}

	return output, false
}

func (shape *B2CircleShape) ComputeAABB(transform B2Transform, childIndex int) B2AABB {
	p := B2Vec2Add(transform.P, B2RotVec2Mul(transform.Q, shape.p))
	return B2AABB{
		LowerBound: MakeB2Vec2(p.X-shape.radius, p.Y-shape.radius),
		UpperBound: MakeB2Vec2(p.X+shape.radius, p.Y+shape.radius),
	}
}

func (shape *B2CircleShape) ComputeMass(density float64) B2MassData {
	var massData B2MassData
	massData.Mass = density * B2_pi * shape.radius * shape.radius
	massData.Center = shape.p

	// inertia about the local origin
	massData.I = massData.Mass * (0.5*shape.radius*shape.radius + B2Vec2Dot(shape.p, shape.p))
	return massData
}
