package box2d

// A distance proxy is used by the GJK algorithm.
// It encapsulates any shape.
type B2DistanceProxy struct {
	vertices [B2_maxPolygonVertices]B2Vec2
	count    int
	radius   float64
}

// MakeB2DistanceProxy initializes the proxy using the given shape. The shape
// must remain in scope while the proxy is in use.
func MakeB2DistanceProxy(shape B2Shape, index int) B2DistanceProxy {
	var p B2DistanceProxy

	switch s := shape.(type) {
	case *B2CircleShape:
		p.vertices[0] = s.p
		p.count = 1
		p.radius = s.radius

	case *B2PolygonShape:
		p.vertices = s.vertices
		p.count = s.count
		p.radius = B2_polygonRadius

	case *B2EdgeShape:
		p.vertices[0] = s.vertex1
		p.vertices[1] = s.vertex2
		p.count = 2
		p.radius = B2_polygonRadius

	default:
		B2Assert(false)
	}

	return p
}

func (p *B2DistanceProxy) GetVertexCount() int {
	return p.count
}

func (p *B2DistanceProxy) GetVertex(index int) B2Vec2 {
	B2Assert(0 <= index && index < p.count)
	return p.vertices[index]
}

// GetSupport returns the supporting vertex index in the given direction.
func (p *B2DistanceProxy) GetSupport(d B2Vec2) int {
	bestIndex := 0
	bestValue := B2Vec2Dot(p.vertices[0], d)
	for i := 1; i < p.count; i++ {
		value := B2Vec2Dot(p.vertices[i], d)
		if value > bestValue {
			bestIndex = i
			bestValue = value
		}
	}

	return bestIndex
}

func (p *B2DistanceProxy) GetSupportVertex(d B2Vec2) B2Vec2 {
	return p.vertices[p.GetSupport(d)]
}

// Used to warm start B2Distance.
// Set count to zero on first call.
type B2SimplexCache struct {
	Metric float64 // length or area
	Count  int
	IndexA [3]int // vertices on shape A
	IndexB [3]int // vertices on shape B
}

// Input for B2Distance.
// You have to option to use the shape radii in the computation.
type B2DistanceInput struct {
	ProxyA     B2DistanceProxy
	ProxyB     B2DistanceProxy
	TransformA B2Transform
	TransformB B2Transform
	UseRadii   bool
}

// Output for B2Distance.
type B2DistanceOutput struct {
	PointA     B2Vec2 // closest point on shapeA
	PointB     B2Vec2 // closest point on shapeB
	Distance   float64
	Iterations int // number of GJK iterations used
}

type b2SimplexVertex struct {
	wA     B2Vec2  // support point in proxyA
	wB     B2Vec2  // support point in proxyB
	w      B2Vec2  // wB - wA
	a      float64 // barycentric coordinate for closest point
	indexA int     // wA index
	indexB int     // wB index
}

type b2Simplex struct {
	vs    [3]b2SimplexVertex
	count int
}

func (simplex *b2Simplex) readCache(cache *B2SimplexCache, proxyA *B2DistanceProxy, transformA B2Transform, proxyB *B2DistanceProxy, transformB B2Transform) {
	B2Assert(cache.Count <= 3)

	// Copy data from cache.
	simplex.count = cache.Count
	for i := 0; i < simplex.count; i++ {
		v := &simplex.vs[i]
		v.indexA = cache.IndexA[i]
		v.indexB = cache.IndexB[i]
		v.wA = B2TransformVec2Mul(transformA, proxyA.GetVertex(v.indexA))
		v.wB = B2TransformVec2Mul(transformB, proxyB.GetVertex(v.indexB))
		v.w = B2Vec2Sub(v.wB, v.wA)
		v.a = 0.0
	}

	// Compute the new simplex metric, if it is substantially different than
	// old metric then flush the simplex.
	if simplex.count > 1 {
		metric1 := cache.Metric
		metric2 := simplex.getMetric()
		if metric2 < 0.5*metric1 || 2.0*metric1 < metric2 || metric2 < B2_epsilon {
			// Reset the simplex.
			simplex.count = 0
		}
	}

	// If the cache is empty or invalid ...
	if simplex.count == 0 {
		v := &simplex.vs[0]
		v.indexA = 0
		v.indexB = 0
		v.wA = B2TransformVec2Mul(transformA, proxyA.GetVertex(0))
		v.wB = B2TransformVec2Mul(transformB, proxyB.GetVertex(0))
		v.w = B2Vec2Sub(v.wB, v.wA)
		v.a = 1.0
		simplex.count = 1
	}
}

func (simplex *b2Simplex) writeCache(cache *B2SimplexCache) {
	cache.Metric = simplex.getMetric()
	cache.Count = simplex.count
	for i := 0; i < simplex.count; i++ {
		cache.IndexA[i] = simplex.vs[i].indexA
		cache.IndexB[i] = simplex.vs[i].indexB
	}
}

func (simplex *b2Simplex) getSearchDirection() B2Vec2 {
	switch simplex.count {
	case 1:
		return simplex.vs[0].w.OperatorNegate()

	case 2:
		e12 := B2Vec2Sub(simplex.vs[1].w, simplex.vs[0].w)
		sgn := B2Vec2Cross(e12, simplex.vs[0].w.OperatorNegate())
		if sgn > 0.0 {
			// Origin is left of e12.
			return B2Vec2CrossScalarVector(1.0, e12)
		}
		// Origin is right of e12.
		return B2Vec2CrossVectorScalar(e12, 1.0)
	}

	B2Assert(false)
	return B2Vec2{}
}

func (simplex *b2Simplex) getWitnessPoints() (pA, pB B2Vec2) {
	vs := &simplex.vs

	switch simplex.count {
	case 1:
		return vs[0].wA, vs[0].wB

	case 2:
		pA = B2Vec2Add(B2Vec2MulScalar(vs[0].a, vs[0].wA), B2Vec2MulScalar(vs[1].a, vs[1].wA))
		pB = B2Vec2Add(B2Vec2MulScalar(vs[0].a, vs[0].wB), B2Vec2MulScalar(vs[1].a, vs[1].wB))
		return pA, pB

	case 3:
		pA = B2Vec2Add(
			B2Vec2Add(B2Vec2MulScalar(vs[0].a, vs[0].wA), B2Vec2MulScalar(vs[1].a, vs[1].wA)),
			B2Vec2MulScalar(vs[2].a, vs[2].wA),
		)
		return pA, pA
	}

	B2Assert(false)
	return pA, pB
}

func (simplex *b2Simplex) getMetric() float64 {
	switch simplex.count {
	case 1:
		return 0.0

	case 2:
		return B2Vec2Distance(simplex.vs[0].w, simplex.vs[1].w)

	case 3:
		return B2Vec2Cross(
			B2Vec2Sub(simplex.vs[1].w, simplex.vs[0].w),
			B2Vec2Sub(simplex.vs[2].w, simplex.vs[0].w),
		)
	}

	B2Assert(false)
	return 0.0
}

// Solve a line segment using barycentric coordinates.
//
// p = a1 * w1 + a2 * w2
// a1 + a2 = 1
//
// The vector from the origin to the closest point on the line is
// perpendicular to the line.
// e12 = w2 - w1
// dot(p, e) = 0
// a1 * dot(w1, e) + a2 * dot(w2, e) = 0
//
// 2-by-2 linear system
// [1      1     ][a1] = [1]
// [w1.e12 w2.e12][a2] = [0]
//
// Define
// d12_1 =  dot(w2, e12)
// d12_2 = -dot(w1, e12)
// d12 = d12_1 + d12_2
//
// Solution
// a1 = d12_1 / d12
// a2 = d12_2 / d12
func (simplex *b2Simplex) solve2() {
	w1 := simplex.vs[0].w
	w2 := simplex.vs[1].w
	e12 := B2Vec2Sub(w2, w1)

	// w1 region
	d12_2 := -B2Vec2Dot(w1, e12)
	if d12_2 <= 0.0 {
		// a2 <= 0, so we clamp it to 0
		simplex.vs[0].a = 1.0
		simplex.count = 1
		return
	}

	// w2 region
	d12_1 := B2Vec2Dot(w2, e12)
	if d12_1 <= 0.0 {
		// a1 <= 0, so we clamp it to 0
		simplex.vs[1].a = 1.0
		simplex.count = 1
		simplex.vs[0] = simplex.vs[1]
		return
	}

	// Must be in e12 region.
	inv_d12 := 1.0 / (d12_1 + d12_2)
	simplex.vs[0].a = d12_1 * inv_d12
	simplex.vs[1].a = d12_2 * inv_d12
	simplex.count = 2
}

// Possible regions:
// - points[2]
// - edge points[0]-points[2]
// - edge points[1]-points[2]
// - inside the triangle
func (simplex *b2Simplex) solve3() {
	w1 := simplex.vs[0].w
	w2 := simplex.vs[1].w
	w3 := simplex.vs[2].w

	// Edge12
	e12 := B2Vec2Sub(w2, w1)
	d12_1 := B2Vec2Dot(w2, e12)
	d12_2 := -B2Vec2Dot(w1, e12)

	// Edge13
	e13 := B2Vec2Sub(w3, w1)
	d13_1 := B2Vec2Dot(w3, e13)
	d13_2 := -B2Vec2Dot(w1, e13)

	// Edge23
	e23 := B2Vec2Sub(w3, w2)
	d23_1 := B2Vec2Dot(w3, e23)
	d23_2 := -B2Vec2Dot(w2, e23)

	// Triangle123
	n123 := B2Vec2Cross(e12, e13)

	d123_1 := n123 * B2Vec2Cross(w2, w3)
	d123_2 := n123 * B2Vec2Cross(w3, w1)
	d123_3 := n123 * B2Vec2Cross(w1, w2)

	switch {
	// w1 region
	case d12_2 <= 0.0 && d13_2 <= 0.0:
		simplex.vs[0].a = 1.0
		simplex.count = 1

	// e12
	case d12_1 > 0.0 && d12_2 > 0.0 && d123_3 <= 0.0:
		inv_d12 := 1.0 / (d12_1 + d12_2)
		simplex.vs[0].a = d12_1 * inv_d12
		simplex.vs[1].a = d12_2 * inv_d12
		simplex.count = 2

	// e13
	case d13_1 > 0.0 && d13_2 > 0.0 && d123_2 <= 0.0:
		inv_d13 := 1.0 / (d13_1 + d13_2)
		simplex.vs[0].a = d13_1 * inv_d13
		simplex.vs[2].a = d13_2 * inv_d13
		simplex.count = 2
		simplex.vs[1] = simplex.vs[2]

	// w2 region
	case d12_1 <= 0.0 && d23_2 <= 0.0:
		simplex.vs[1].a = 1.0
		simplex.count = 1
		simplex.vs[0] = simplex.vs[1]

	// w3 region
	case d13_1 <= 0.0 && d23_1 <= 0.0:
		simplex.vs[2].a = 1.0
		simplex.count = 1
		simplex.vs[0] = simplex.vs[2]

	// e23
	case d23_1 > 0.0 && d23_2 > 0.0 && d123_1 <= 0.0:
		inv_d23 := 1.0 / (d23_1 + d23_2)
		simplex.vs[1].a = d23_1 * inv_d23
		simplex.vs[2].a = d23_2 * inv_d23
		simplex.count = 2
		simplex.vs[0] = simplex.vs[2]

	// Must be in triangle123
	default:
		inv_d123 := 1.0 / (d123_1 + d123_2 + d123_3)
		simplex.vs[0].a = d123_1 * inv_d123
		simplex.vs[1].a = d123_2 * inv_d123
		simplex.vs[2].a = d123_3 * inv_d123
		simplex.count = 3
	}
}

// B2Distance computes the closest points between two shapes. Supports any
// combination of circles, edges and polygons. The simplex cache is
// input/output. On the first call set B2SimplexCache.Count to zero.
//
// GJK using Voronoi regions (Christer Ericson) and Barycentric coordinates.
func B2Distance(cache *B2SimplexCache, input *B2DistanceInput) B2DistanceOutput {
	var output B2DistanceOutput

	proxyA := &input.ProxyA
	proxyB := &input.ProxyB

	transformA := input.TransformA
	transformB := input.TransformB

	// Initialize the simplex.
	var simplex b2Simplex
	simplex.readCache(cache, proxyA, transformA, proxyB, transformB)

	// Get simplex vertices as an array.
	vertices := &simplex.vs
	const k_maxIters = 20

	// These store the vertices of the last simplex so that we
	// can check for duplicates and prevent cycling.
	var saveA, saveB [3]int

	// Main iteration loop.
	iter := 0
	for iter < k_maxIters {
		// Copy simplex so we can identify duplicates.
		saveCount := simplex.count
		for i := 0; i < saveCount; i++ {
			saveA[i] = vertices[i].indexA
			saveB[i] = vertices[i].indexB
		}

		switch simplex.count {
		case 1:
		case 2:
			simplex.solve2()
		case 3:
			simplex.solve3()
		default:
			B2Assert(false)
		}

		// If we have 3 points, then the origin is in the corresponding triangle.
		if simplex.count == 3 {
			break
		}

		// Get search direction.
		d := simplex.getSearchDirection()

		// Ensure the search direction is numerically fit.
		if d.LengthSquared() < B2_epsilon*B2_epsilon {
			// The origin is probably contained by a line segment
			// or triangle. Thus the shapes are overlapped.

			// We can't return zero here even though there may be overlap.
			// In case the simplex is a point, segment, or triangle it is difficult
			// to determine if the origin is contained in the CSO or very close to it.
			break
		}

		// Compute a tentative new simplex vertex using support points.
		vertex := &vertices[simplex.count]
		vertex.indexA = proxyA.GetSupport(B2RotVec2MulT(transformA.Q, d.OperatorNegate()))
		vertex.wA = B2TransformVec2Mul(transformA, proxyA.GetVertex(vertex.indexA))
		vertex.indexB = proxyB.GetSupport(B2RotVec2MulT(transformB.Q, d))
		vertex.wB = B2TransformVec2Mul(transformB, proxyB.GetVertex(vertex.indexB))
		vertex.w = B2Vec2Sub(vertex.wB, vertex.wA)

		// Iteration count is equated to the number of support point calls.
		iter++

		// Check for duplicate support points. This is the main termination criteria.
		duplicate := false
		for i := 0; i < saveCount; i++ {
			if vertex.indexA == saveA[i] && vertex.indexB == saveB[i] {
				duplicate = true
				break
			}
		}

		// If we found a duplicate support point we must exit to avoid cycling.
		if duplicate {
			break
		}

		// New vertex is ok and needed.
		simplex.count++
	}

	// Prepare output.
	output.PointA, output.PointB = simplex.getWitnessPoints()
	output.Distance = B2Vec2Distance(output.PointA, output.PointB)
	output.Iterations = iter

	// Cache the simplex.
	simplex.writeCache(cache)

	// Apply radii if requested.
	if input.UseRadii {
		rA := proxyA.radius
		rB := proxyB.radius

		if output.Distance > rA+rB && output.Distance > B2_epsilon {
			// Shapes are still no overlapped.
			// Move the witness points to the outer surface.
			output.Distance -= rA + rB
			normal := B2Vec2Sub(output.PointB, output.PointA)
			normal.Normalize()
			output.PointA.OperatorPlusInplace(B2Vec2MulScalar(rA, normal))
			output.PointB.OperatorMinusInplace(B2Vec2MulScalar(rB, normal))
		} else {
			// Shapes are overlapped when radii are considered.
			// Move the witness points to the middle.
			p := B2Vec2MulScalar(0.5, B2Vec2Add(output.PointA, output.PointB))
			output.PointA = p
			output.PointB = p
			output.Distance = 0.0
		}
	}

	return output
}
