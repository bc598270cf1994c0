package box2d

import (
	"math"
)

const (
	B2ContactFeature_Type_Vertex uint8 = 0
	B2ContactFeature_Type_Face   uint8 = 1
)

// The features that intersect to form the contact point.
type B2ContactFeature struct {
	IndexA uint8 // Feature index on shapeA
	IndexB uint8 // Feature index on shapeB
	TypeA  uint8 // The feature type on shapeA
	TypeB  uint8 // The feature type on shapeB
}

// Key packs the features into a single value used to match contact points
// across steps.
func (cf B2ContactFeature) Key() uint32 {
	return uint32(cf.IndexA) | uint32(cf.IndexB)<<8 | uint32(cf.TypeA)<<16 | uint32(cf.TypeB)<<24
}

func (cf B2ContactFeature) swapped() B2ContactFeature {
	return B2ContactFeature{
		IndexA: cf.IndexB,
		IndexB: cf.IndexA,
		TypeA:  cf.TypeB,
		TypeB:  cf.TypeA,
	}
}

// A manifold point is a contact point belonging to a contact
// manifold. It holds details related to the geometry and dynamics
// of the contact points.
// The local point usage depends on the manifold type:
// -e_circles: the local center of circleB
// -e_faceA: the local center of cirlceB or the clip point of polygonB
// -e_faceB: the clip point of polygonA
// This structure is stored across time steps, so we keep it small.
// Note: the impulses are used for internal caching and may not
// provide reliable contact forces, especially for high speed collisions.
type B2ManifoldPoint struct {
	LocalPoint     B2Vec2           // usage depends on manifold type
	NormalImpulse  float64          // the non-penetration impulse
	TangentImpulse float64          // the friction impulse
	Id             B2ContactFeature // uniquely identifies a contact point between two shapes
}

const (
	B2Manifold_Type_Circles uint8 = 0
	B2Manifold_Type_FaceA   uint8 = 1
	B2Manifold_Type_FaceB   uint8 = 2
)

// A manifold for two touching convex shapes.
// Box2D supports multiple types of contact:
// - clip point versus plane with radius
// - point versus point with radius (circles)
// The local point usage depends on the manifold type:
// -e_circles: the local center of circleA
// -e_faceA: the center of faceA
// -e_faceB: the center of faceB
// Similarly the local normal usage:
// -e_circles: not used
// -e_faceA: the normal on polygonA
// -e_faceB: the normal on polygonB
// We store contacts in this way so that position correction can
// account for movement, which is critical for continuous physics.
// All contact scenarios must be expressed in one of these types.
type B2Manifold struct {
	Points      [B2_maxManifoldPoints]B2ManifoldPoint
	LocalNormal B2Vec2
	LocalPoint  B2Vec2
	Type        uint8
	PointCount  int
}

// This is used to compute the current state of a contact manifold.
type B2WorldManifold struct {
	Normal      B2Vec2                               // world vector pointing from A to B
	Points      [B2_maxManifoldPoints]B2Vec2         // world contact point (point of intersection)
	Separations [B2_maxManifoldPoints]float64        // a negative value indicates overlap, in meters
}

// Initialize evaluates the manifold with supplied transforms. This assumes
// modest motion from the original state. This does not change the
// point count, impulses, etc. The radii must come from the shapes
// that generated the manifold.
func (wm *B2WorldManifold) Initialize(manifold *B2Manifold, xfA B2Transform, radiusA float64, xfB B2Transform, radiusB float64) {
	if manifold.PointCount == 0 {
		return
	}

	switch manifold.Type {
	case B2Manifold_Type_Circles:
		wm.Normal.Set(1.0, 0.0)
		pointA := B2TransformVec2Mul(xfA, manifold.LocalPoint)
		pointB := B2TransformVec2Mul(xfB, manifold.Points[0].LocalPoint)
		if B2Vec2DistanceSquared(pointA, pointB) > B2_epsilon*B2_epsilon {
			wm.Normal = B2Vec2Sub(pointB, pointA)
			wm.Normal.Normalize()
		}

		cA := B2Vec2Add(pointA, B2Vec2MulScalar(radiusA, wm.Normal))
		cB := B2Vec2Sub(pointB, B2Vec2MulScalar(radiusB, wm.Normal))
		wm.Points[0] = B2Vec2MulScalar(0.5, B2Vec2Add(cA, cB))
		wm.Separations[0] = B2Vec2Dot(B2Vec2Sub(cB, cA), wm.Normal)

	case B2Manifold_Type_FaceA:
		wm.Normal = B2RotVec2Mul(xfA.Q, manifold.LocalNormal)
		planePoint := B2TransformVec2Mul(xfA, manifold.LocalPoint)

		for i := 0; i < manifold.PointCount; i++ {
			clipPoint := B2TransformVec2Mul(xfB, manifold.Points[i].LocalPoint)
			cA := B2Vec2Add(clipPoint, B2Vec2MulScalar(radiusA-B2Vec2Dot(B2Vec2Sub(clipPoint, planePoint), wm.Normal), wm.Normal))
			cB := B2Vec2Sub(clipPoint, B2Vec2MulScalar(radiusB, wm.Normal))
			wm.Points[i] = B2Vec2MulScalar(0.5, B2Vec2Add(cA, cB))
			wm.Separations[i] = B2Vec2Dot(B2Vec2Sub(cB, cA), wm.Normal)
		}

	case B2Manifold_Type_FaceB:
		wm.Normal = B2RotVec2Mul(xfB.Q, manifold.LocalNormal)
		planePoint := B2TransformVec2Mul(xfB, manifold.LocalPoint)

		for i := 0; i < manifold.PointCount; i++ {
			clipPoint := B2TransformVec2Mul(xfA, manifold.Points[i].LocalPoint)
			cB := B2Vec2Add(clipPoint, B2Vec2MulScalar(radiusB-B2Vec2Dot(B2Vec2Sub(clipPoint, planePoint), wm.Normal), wm.Normal))
			cA := B2Vec2Sub(clipPoint, B2Vec2MulScalar(radiusA, wm.Normal))
			wm.Points[i] = B2Vec2MulScalar(0.5, B2Vec2Add(cA, cB))
			wm.Separations[i] = B2Vec2Dot(B2Vec2Sub(cA, cB), wm.Normal)
		}

		// Ensure normal points from A to B.
		wm.Normal = wm.Normal.OperatorNegate()
	}
}

// This is used for determining the state of contact points.
type B2PointState uint8

const (
	B2_nullState    B2PointState = iota // point does not exist
	B2_addState                         // point was added in the update
	B2_persistState                     // point persisted across the update
	B2_removeState                      // point was removed in the update
)

// B2GetPointStates computes the point states given two manifolds. The states
// pertain to the transition from manifold1 to manifold2. So state1 is either
// persist or remove while state2 is either add or persist.
func B2GetPointStates(manifold1, manifold2 *B2Manifold) (state1, state2 [B2_maxManifoldPoints]B2PointState) {
	// Detect persists and removes.
	for i := 0; i < manifold1.PointCount; i++ {
		key := manifold1.Points[i].Id.Key()
		state1[i] = B2_removeState

		for j := 0; j < manifold2.PointCount; j++ {
			if manifold2.Points[j].Id.Key() == key {
				state1[i] = B2_persistState
				break
			}
		}
	}

	// Detect persists and adds.
	for i := 0; i < manifold2.PointCount; i++ {
		key := manifold2.Points[i].Id.Key()
		state2[i] = B2_addState

		for j := 0; j < manifold1.PointCount; j++ {
			if manifold1.Points[j].Id.Key() == key {
				state2[i] = B2_persistState
				break
			}
		}
	}

	return state1, state2
}

// Used for computing contact manifolds.
type B2ClipVertex struct {
	V  B2Vec2
	Id B2ContactFeature
}

// Ray-cast input data. The ray extends from p1 to p1 + maxFraction * (p2 - p1).
type B2RayCastInput struct {
	P1, P2      B2Vec2
	MaxFraction float64
}

// Ray-cast output data. The ray hits at p1 + fraction * (p2 - p1), where p1 and p2
// come from b2RayCastInput.
type B2RayCastOutput struct {
	Normal   B2Vec2
	Fraction float64
}

// An axis aligned bounding box.
type B2AABB struct {
	LowerBound B2Vec2
	UpperBound B2Vec2
}

func MakeB2AABB(lower, upper B2Vec2) B2AABB {
	return B2AABB{LowerBound: lower, UpperBound: upper}
}

// IsValid verifies that the bounds are sorted.
func (bb B2AABB) IsValid() bool {
	d := B2Vec2Sub(bb.UpperBound, bb.LowerBound)
	valid := d.X >= 0.0 && d.Y >= 0.0
	return valid && bb.LowerBound.IsValid() && bb.UpperBound.IsValid()
}

func (bb B2AABB) GetCenter() B2Vec2 {
	return B2Vec2MulScalar(0.5, B2Vec2Add(bb.LowerBound, bb.UpperBound))
}

// GetExtents returns the half-widths.
func (bb B2AABB) GetExtents() B2Vec2 {
	return B2Vec2MulScalar(0.5, B2Vec2Sub(bb.UpperBound, bb.LowerBound))
}

func (bb B2AABB) GetPerimeter() float64 {
	wx := bb.UpperBound.X - bb.LowerBound.X
	wy := bb.UpperBound.Y - bb.LowerBound.Y
	return 2.0 * (wx + wy)
}

func (bb *B2AABB) Combine(aabb B2AABB) {
	bb.LowerBound = B2Vec2Min(bb.LowerBound, aabb.LowerBound)
	bb.UpperBound = B2Vec2Max(bb.UpperBound, aabb.UpperBound)
}

func (bb *B2AABB) CombineTwo(aabb1, aabb2 B2AABB) {
	bb.LowerBound = B2Vec2Min(aabb1.LowerBound, aabb2.LowerBound)
	bb.UpperBound = B2Vec2Max(aabb1.UpperBound, aabb2.UpperBound)
}

// Contains reports whether this AABB contains the provided AABB.
func (bb B2AABB) Contains(aabb B2AABB) bool {
	return bb.LowerBound.X <= aabb.LowerBound.X &&
		bb.LowerBound.Y <= aabb.LowerBound.Y &&
		aabb.UpperBound.X <= bb.UpperBound.X &&
		aabb.UpperBound.Y <= bb.UpperBound.Y
}

// RayCast intersects the ray with the box using the slab method.
func (bb B2AABB) RayCast(input B2RayCastInput) (B2RayCastOutput, bool) {
	var output B2RayCastOutput
	tmin := -B2_maxFloat
	tmax := B2_maxFloat

	p := input.P1
	d := B2Vec2Sub(input.P2, input.P1)
	absD := B2Vec2Abs(d)

	var normal B2Vec2

	for i := 0; i < 2; i++ {
		pi, di, absDi, lower, upper := p.X, d.X, absD.X, bb.LowerBound.X, bb.UpperBound.X
		if i == 1 {
			pi, di, absDi, lower, upper = p.Y, d.Y, absD.Y, bb.LowerBound.Y, bb.UpperBound.Y
		}

		if absDi < B2_epsilon {
			// Parallel.
			if pi < lower || upper < pi {
				return output, false
			}
			continue
		}

		inv_d := 1.0 / di
		t1 := (lower - pi) * inv_d
		t2 := (upper - pi) * inv_d

		// Sign of the normal vector.
		s := -1.0

		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}

		// Push the min up
		if t1 > tmin {
			normal.SetZero()
			if i == 0 {
				normal.X = s
			} else {
				normal.Y = s
			}
			tmin = t1
		}

		// Pull the max down
		tmax = math.Min(tmax, t2)

		if tmin > tmax {
			return output, false
		}
	}

	// Does the ray start inside the box?
	// Does the ray intersect beyond the max fraction?
	if tmin < 0.0 || input.MaxFraction < tmin {
		return output, false
	}

	// Intersection.
	output.Fraction = tmin
	output.Normal = normal
	return output, true
}

func B2TestOverlapAABB(a, b B2AABB) bool {
	d1 := B2Vec2Sub(b.LowerBound, a.UpperBound)
	d2 := B2Vec2Sub(a.LowerBound, b.UpperBound)

	if d1.X > 0.0 || d1.Y > 0.0 {
		return false
	}

	if d2.X > 0.0 || d2.Y > 0.0 {
		return false
	}

	return true
}

// B2ClipSegmentToLine implements Sutherland-Hodgman clipping of a segment
// against a half-plane.
func B2ClipSegmentToLine(vOut *[2]B2ClipVertex, vIn [2]B2ClipVertex, normal B2Vec2, offset float64, vertexIndexA int) int {
	// Start with no output points
	count := 0

	// Calculate the distance of end points to the line
	distance0 := B2Vec2Dot(normal, vIn[0].V) - offset
	distance1 := B2Vec2Dot(normal, vIn[1].V) - offset

	// If the points are behind the plane
	if distance0 <= 0.0 {
		vOut[count] = vIn[0]
		count++
	}

	if distance1 <= 0.0 {
		vOut[count] = vIn[1]
		count++
	}

	// If the points are on different sides of the plane
	if distance0*distance1 < 0.0 {
		// Find intersection point of edge and plane
		interp := distance0 / (distance0 - distance1)
		vOut[count].V = B2Vec2Add(vIn[0].V, B2Vec2MulScalar(interp, B2Vec2Sub(vIn[1].V, vIn[0].V)))

		// VertexA is hitting edgeB.
		vOut[count].Id.IndexA = uint8(vertexIndexA)
		vOut[count].Id.IndexB = vIn[0].Id.IndexB
		vOut[count].Id.TypeA = B2ContactFeature_Type_Vertex
		vOut[count].Id.TypeB = B2ContactFeature_Type_Face
		count++
	}

	return count
}

// B2TestOverlapShapes determines if two generic shapes overlap.
func B2TestOverlapShapes(shapeA B2Shape, indexA int, shapeB B2Shape, indexB int, xfA, xfB B2Transform) bool {
	var input B2DistanceInput
	input.ProxyA = MakeB2DistanceProxy(shapeA, indexA)
	input.ProxyB = MakeB2DistanceProxy(shapeB, indexB)
	input.TransformA = xfA
	input.TransformB = xfB
	input.UseRadii = true

	var cache B2SimplexCache
	output := B2Distance(&cache, &input)

	return output.Distance < 10.0*B2_epsilon
}
