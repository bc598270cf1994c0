package box2d

// B2CollideEdgeAndCircle computes contact points for edge versus circle.
// This accounts for edge connectivity when the edge is one-sided.
func B2CollideEdgeAndCircle(manifold *B2Manifold, edgeA *B2EdgeShape, xfA B2Transform, circleB *B2CircleShape, xfB B2Transform) {
	manifold.PointCount = 0

	// Compute circle in frame of edge
	Q := B2TransformVec2MulT(xfA, B2TransformVec2Mul(xfB, circleB.p))

	A := edgeA.vertex1
	B := edgeA.vertex2
	e := B2Vec2Sub(B, A)

	// Normal points to the right for a CCW winding
	n := MakeB2Vec2(e.Y, -e.X)
	offset := B2Vec2Dot(n, B2Vec2Sub(Q, A))

	oneSided := edgeA.oneSided
	if oneSided && offset < 0.0 {
		return
	}

	// Barycentric coordinates
	u := B2Vec2Dot(e, B2Vec2Sub(B, Q))
	v := B2Vec2Dot(e, B2Vec2Sub(Q, A))

	radius := B2_polygonRadius + circleB.radius

	var cf B2ContactFeature
	cf.IndexB = 0
	cf.TypeB = B2ContactFeature_Type_Vertex

	// Region A
	if v <= 0.0 {
		P := A
		d := B2Vec2Sub(Q, P)
		dd := B2Vec2Dot(d, d)
		if dd > radius*radius {
			return
		}

		// Is there an edge connected to A?
		if oneSided {
			A1 := edgeA.vertex0
			B1 := A
			e1 := B2Vec2Sub(B1, A1)
			u1 := B2Vec2Dot(e1, B2Vec2Sub(B1, Q))

			// Is the circle in Region AB of the previous edge?
			if u1 > 0.0 {
				return
			}
		}

		cf.IndexA = 0
		cf.TypeA = B2ContactFeature_Type_Vertex
		manifold.PointCount = 1
		manifold.Type = B2Manifold_Type_Circles
		manifold.LocalNormal.SetZero()
		manifold.LocalPoint = P
		manifold.Points[0].Id = cf
		manifold.Points[0].LocalPoint = circleB.p
		return
	}

	// Region B
	if u <= 0.0 {
		P := B
		d := B2Vec2Sub(Q, P)
		dd := B2Vec2Dot(d, d)
		if dd > radius*radius {
			return
		}

		// Is there an edge connected to B?
		if oneSided {
			B2 := edgeA.vertex3
			A2 := B
			e2 := B2Vec2Sub(B2, A2)
			v2 := B2Vec2Dot(e2, B2Vec2Sub(Q, A2))

			// Is the circle in Region AB of the next edge?
			if v2 > 0.0 {
				return
			}
		}

		cf.IndexA = 1
		cf.TypeA = B2ContactFeature_Type_Vertex
		manifold.PointCount = 1
		manifold.Type = B2Manifold_Type_Circles
		manifold.LocalNormal.SetZero()
		manifold.LocalPoint = P
		manifold.Points[0].Id = cf
		manifold.Points[0].LocalPoint = circleB.p
		return
	}

	// Region AB
	den := B2Vec2Dot(e, e)
	if den <= B2_epsilon {
		return
	}
	P := B2Vec2MulScalar(1.0/den, B2Vec2Add(B2Vec2MulScalar(u, A), B2Vec2MulScalar(v, B)))
	d := B2Vec2Sub(Q, P)
	dd := B2Vec2Dot(d, d)
	if dd > radius*radius {
		return
	}

	if offset < 0.0 {
		n.Set(-n.X, -n.Y)
	}
	n.Normalize()

	cf.IndexA = 0
	cf.TypeA = B2ContactFeature_Type_Face
	manifold.PointCount = 1
	manifold.Type = B2Manifold_Type_FaceA
	manifold.LocalNormal = n
	manifold.LocalPoint = A
	manifold.Points[0].Id = cf
	manifold.Points[0].LocalPoint = circleB.p
}

type b2EPAxisType uint8

const (
	b2EPAxis_unknown b2EPAxisType = iota
	b2EPAxis_edgeA
	b2EPAxis_edgeB
)

// This structure is used to keep track of the best separating axis.
type b2EPAxis struct {
	normal     B2Vec2
	axisType   b2EPAxisType
	index      int
	separation float64
}

// This holds polygon B expressed in frame A.
type b2TempPolygon struct {
	vertices [B2_maxPolygonVertices]B2Vec2
	normals  [B2_maxPolygonVertices]B2Vec2
	count    int
}

// Reference face used for clipping
type b2ReferenceFace struct {
	i1, i2 int
	v1, v2 B2Vec2
	normal B2Vec2

	sideNormal1 B2Vec2
	sideOffset1 float64

	sideNormal2 B2Vec2
	sideOffset2 float64
}

func b2ComputeEdgeSeparation(polygonB *b2TempPolygon, v1 B2Vec2, normal1 B2Vec2) b2EPAxis {
	axis := b2EPAxis{
		axisType:   b2EPAxis_edgeA,
		index:      -1,
		separation: -B2_maxFloat,
	}

	axes := [2]B2Vec2{normal1, normal1.OperatorNegate()}

	// Find axis with least overlap (min-max problem)
	for j := 0; j < 2; j++ {
		sj := B2_maxFloat

		// Find deepest polygon vertex along axis j
		for i := 0; i < polygonB.count; i++ {
			si := B2Vec2Dot(axes[j], B2Vec2Sub(polygonB.vertices[i], v1))
			if si < sj {
				sj = si
			}
		}

		if sj > axis.separation {
			axis.index = j
			axis.separation = sj
			axis.normal = axes[j]
		}
	}

	return axis
}

func b2ComputePolygonSeparation(polygonB *b2TempPolygon, v1, v2 B2Vec2) b2EPAxis {
	axis := b2EPAxis{
		axisType:   b2EPAxis_unknown,
		index:      -1,
		separation: -B2_maxFloat,
	}

	for i := 0; i < polygonB.count; i++ {
		n := polygonB.normals[i].OperatorNegate()

		s1 := B2Vec2Dot(n, B2Vec2Sub(polygonB.vertices[i], v1))
		s2 := B2Vec2Dot(n, B2Vec2Sub(polygonB.vertices[i], v2))
		s := s1
		if s2 < s {
			s = s2
		}

		if s > axis.separation {
			axis.axisType = b2EPAxis_edgeB
			axis.index = i
			axis.separation = s
			axis.normal = n
		}
	}

	return axis
}

// B2CollideEdgeAndPolygon computes the collision manifold between an edge
// and a polygon. The edge is treated as a one-sided polygon when it carries
// ghost vertices; the Gauss map of the neighbouring edges decides whether a
// contact is skipped, admitted, or snapped to the edge normal.
// See https://box2d.org/posts/2020/06/ghost-collisions/
func B2CollideEdgeAndPolygon(manifold *B2Manifold, edgeA *B2EdgeShape, xfA B2Transform, polygonB *B2PolygonShape, xfB B2Transform) {
	manifold.PointCount = 0

	xf := B2TransformMulT(xfA, xfB)

	centroidB := B2TransformVec2Mul(xf, polygonB.centroid)

	v1 := edgeA.vertex1
	v2 := edgeA.vertex2

	edge1 := B2Vec2Sub(v2, v1)
	if edge1.Normalize() < B2_epsilon {
		return
	}

	// Normal points to the right for a CCW winding
	normal1 := MakeB2Vec2(edge1.Y, -edge1.X)
	offset1 := B2Vec2Dot(normal1, B2Vec2Sub(centroidB, v1))

	oneSided := edgeA.oneSided
	if oneSided && offset1 < 0.0 {
		return
	}

	// Get polygonB in frameA
	var tempPolygonB b2TempPolygon
	tempPolygonB.count = polygonB.count
	for i := 0; i < polygonB.count; i++ {
		tempPolygonB.vertices[i] = B2TransformVec2Mul(xf, polygonB.vertices[i])
		tempPolygonB.normals[i] = B2RotVec2Mul(xf.Q, polygonB.normals[i])
	}

	radius := 2.0 * B2_polygonRadius

	edgeAxis := b2ComputeEdgeSeparation(&tempPolygonB, v1, normal1)
	if edgeAxis.separation > radius {
		return
	}

	polygonAxis := b2ComputePolygonSeparation(&tempPolygonB, v1, v2)
	if polygonAxis.separation > radius {
		return
	}

	// Use hysteresis for jitter reduction.
	const k_relativeTol = 0.98
	const k_absoluteTol = 0.001

	var primaryAxis b2EPAxis
	if polygonAxis.separation-radius > k_relativeTol*(edgeAxis.separation-radius)+k_absoluteTol {
		primaryAxis = polygonAxis
	} else {
		primaryAxis = edgeAxis
	}

	if oneSided {
		// Smooth collision
		edge0 := B2Vec2Sub(v1, edgeA.vertex0)
		edge0.Normalize()
		normal0 := MakeB2Vec2(edge0.Y, -edge0.X)
		convex1 := B2Vec2Cross(edge0, edge1) >= 0.0

		edge2 := B2Vec2Sub(edgeA.vertex3, v2)
		edge2.Normalize()
		normal2 := MakeB2Vec2(edge2.Y, -edge2.X)
		convex2 := B2Vec2Cross(edge1, edge2) >= 0.0

		const sinTol = 0.1
		side1 := B2Vec2Dot(primaryAxis.normal, edge1) <= 0.0

		// Check Gauss Map
		if side1 {
			if convex1 {
				if B2Vec2Cross(primaryAxis.normal, normal0) > sinTol {
					// Skip region
					return
				}
				// Admit region
			} else {
				// Snap region
				primaryAxis = edgeAxis
			}
		} else {
			if convex2 {
				if B2Vec2Cross(normal2, primaryAxis.normal) > sinTol {
					// Skip region
					return
				}
				// Admit region
			} else {
				// Snap region
				primaryAxis = edgeAxis
			}
		}
	}

	var clipPoints [2]B2ClipVertex
	var ref b2ReferenceFace
	if primaryAxis.axisType == b2EPAxis_edgeA {
		manifold.Type = B2Manifold_Type_FaceA

		// Search for the polygon normal that is most anti-parallel to the edge normal.
		bestIndex := 0
		bestValue := B2Vec2Dot(primaryAxis.normal, tempPolygonB.normals[0])
		for i := 1; i < tempPolygonB.count; i++ {
			value := B2Vec2Dot(primaryAxis.normal, tempPolygonB.normals[i])
			if value < bestValue {
				bestValue = value
				bestIndex = i
			}
		}

		i1 := bestIndex
		i2 := 0
		if i1+1 < tempPolygonB.count {
			i2 = i1 + 1
		}

		clipPoints[0].V = tempPolygonB.vertices[i1]
		clipPoints[0].Id = B2ContactFeature{
			IndexA: 0,
			IndexB: uint8(i1),
			TypeA:  B2ContactFeature_Type_Face,
			TypeB:  B2ContactFeature_Type_Vertex,
		}

		clipPoints[1].V = tempPolygonB.vertices[i2]
		clipPoints[1].Id = B2ContactFeature{
			IndexA: 0,
			IndexB: uint8(i2),
			TypeA:  B2ContactFeature_Type_Face,
			TypeB:  B2ContactFeature_Type_Vertex,
		}

		ref.i1 = 0
		ref.i2 = 1
		ref.v1 = v1
		ref.v2 = v2
		ref.normal = primaryAxis.normal
		ref.sideNormal1 = edge1.OperatorNegate()
		ref.sideNormal2 = edge1
	} else {
		manifold.Type = B2Manifold_Type_FaceB

		clipPoints[0].V = v2
		clipPoints[0].Id = B2ContactFeature{
			IndexA: 1,
			IndexB: uint8(primaryAxis.index),
			TypeA:  B2ContactFeature_Type_Vertex,
			TypeB:  B2ContactFeature_Type_Face,
		}

		clipPoints[1].V = v1
		clipPoints[1].Id = B2ContactFeature{
			IndexA: 0,
			IndexB: uint8(primaryAxis.index),
			TypeA:  B2ContactFeature_Type_Vertex,
			TypeB:  B2ContactFeature_Type_Face,
		}

		ref.i1 = primaryAxis.index
		ref.i2 = 0
		if ref.i1+1 < tempPolygonB.count {
			ref.i2 = ref.i1 + 1
		}
		ref.v1 = tempPolygonB.vertices[ref.i1]
		ref.v2 = tempPolygonB.vertices[ref.i2]
		ref.normal = tempPolygonB.normals[ref.i1]

		// CCW winding
		ref.sideNormal1.Set(ref.normal.Y, -ref.normal.X)
		ref.sideNormal2 = ref.sideNormal1.OperatorNegate()
	}

	ref.sideOffset1 = B2Vec2Dot(ref.sideNormal1, ref.v1)
	ref.sideOffset2 = B2Vec2Dot(ref.sideNormal2, ref.v2)

	// Clip incident edge against reference face side planes
	var clipPoints1, clipPoints2 [2]B2ClipVertex

	// Clip to side 1
	np := B2ClipSegmentToLine(&clipPoints1, clipPoints, ref.sideNormal1, ref.sideOffset1, ref.i1)
	if np < B2_maxManifoldPoints {
		return
	}

	// Clip to side 2
	np = B2ClipSegmentToLine(&clipPoints2, clipPoints1, ref.sideNormal2, ref.sideOffset2, ref.i2)
	if np < B2_maxManifoldPoints {
		return
	}

	// Now clipPoints2 contains the clipped points.
	if primaryAxis.axisType == b2EPAxis_edgeA {
		manifold.LocalNormal = ref.normal
		manifold.LocalPoint = ref.v1
	} else {
		manifold.LocalNormal = polygonB.normals[ref.i1]
		manifold.LocalPoint = polygonB.vertices[ref.i1]
	}

	pointCount := 0
	for i := 0; i < B2_maxManifoldPoints; i++ {
		separation := B2Vec2Dot(ref.normal, B2Vec2Sub(clipPoints2[i].V, ref.v1))

		if separation <= radius {
			cp := &manifold.Points[pointCount]

			if primaryAxis.axisType == b2EPAxis_edgeA {
				cp.LocalPoint = B2TransformVec2MulT(xf, clipPoints2[i].V)
				cp.Id = clipPoints2[i].Id
			} else {
				cp.LocalPoint = clipPoints2[i].V
				cp.Id = clipPoints2[i].Id.swapped()
			}

			pointCount++
		}
	}

	manifold.PointCount = pointCount
}
