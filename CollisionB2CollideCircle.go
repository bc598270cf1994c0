package box2d

// B2CollideCircles computes the collision manifold between two circles.
func B2CollideCircles(manifold *B2Manifold, circleA *B2CircleShape, xfA B2Transform, circleB *B2CircleShape, xfB B2Transform) {
	manifold.PointCount = 0

	pA := B2TransformVec2Mul(xfA, circleA.p)
	pB := B2TransformVec2Mul(xfB, circleB.p)

	d := B2Vec2Sub(pB, pA)
	distSqr := B2Vec2Dot(d, d)
	radius := circleA.radius + circleB.radius
	if distSqr > radius*radius {
		return
	}

	manifold.Type = B2Manifold_Type_Circles
	manifold.LocalPoint = circleA.p
	manifold.LocalNormal.SetZero()
	manifold.PointCount = 1

	manifold.Points[0].LocalPoint = circleB.p
	manifold.Points[0].Id = B2ContactFeature{}
}

// B2CollidePolygonAndCircle computes the collision manifold between a
// polygon and a circle.
func B2CollidePolygonAndCircle(manifold *B2Manifold, polygonA *B2PolygonShape, xfA B2Transform, circleB *B2CircleShape, xfB B2Transform) {
	manifold.PointCount = 0

	// Compute circle position in the frame of the polygon.
	c := B2TransformVec2Mul(xfB, circleB.p)
	cLocal := B2TransformVec2MulT(xfA, c)

	// Find the min separating edge.
	normalIndex := 0
	separation := -B2_maxFloat
	radius := B2_polygonRadius + circleB.radius
	vertexCount := polygonA.count
	vertices := &polygonA.vertices
	normals := &polygonA.normals

	for i := 0; i < vertexCount; i++ {
		s := B2Vec2Dot(normals[i], B2Vec2Sub(cLocal, vertices[i]))

		if s > radius {
			// Early out.
			return
		}

		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	// Vertices that subtend the incident face.
	vertIndex1 := normalIndex
	vertIndex2 := 0
	if vertIndex1+1 < vertexCount {
		vertIndex2 = vertIndex1 + 1
	}

	v1 := vertices[vertIndex1]
	v2 := vertices[vertIndex2]

	manifold.Type = B2Manifold_Type_FaceA
	manifold.Points[0].LocalPoint = circleB.p
	manifold.Points[0].Id = B2ContactFeature{}

	// If the center is inside the polygon ...
	if separation < B2_epsilon {
		manifold.PointCount = 1
		manifold.LocalNormal = normals[normalIndex]
		manifold.LocalPoint = B2Vec2MulScalar(0.5, B2Vec2Add(v1, v2))
		return
	}

	// Compute barycentric coordinates
	u1 := B2Vec2Dot(B2Vec2Sub(cLocal, v1), B2Vec2Sub(v2, v1))
	u2 := B2Vec2Dot(B2Vec2Sub(cLocal, v2), B2Vec2Sub(v1, v2))

	switch {
	case u1 <= 0.0:
		if B2Vec2DistanceSquared(cLocal, v1) > radius*radius {
			return
		}

		manifold.PointCount = 1
		manifold.LocalNormal = B2Vec2Sub(cLocal, v1)
		manifold.LocalNormal.Normalize()
		manifold.LocalPoint = v1

	case u2 <= 0.0:
		if B2Vec2DistanceSquared(cLocal, v2) > radius*radius {
			return
		}

		manifold.PointCount = 1
		manifold.LocalNormal = B2Vec2Sub(cLocal, v2)
		manifold.LocalNormal.Normalize()
		manifold.LocalPoint = v2

	default:
		faceCenter := B2Vec2MulScalar(0.5, B2Vec2Add(v1, v2))
		s := B2Vec2Dot(B2Vec2Sub(cLocal, faceCenter), normals[vertIndex1])
		if s > radius {
			return
		}

		manifold.PointCount = 1
		manifold.LocalNormal = normals[vertIndex1]
		manifold.LocalPoint = faceCenter
	}
}
