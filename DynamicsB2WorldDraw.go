package box2d

// DebugDraw renders the world through the registered B2Draw according to
// its flags. It does nothing without a draw target.
func (world *B2World) DebugDraw() {
	draw := world.debugDraw
	if draw == nil {
		return
	}

	flags := draw.GetFlags()
	bodies := world.GetBodies()

	if flags&B2Draw_shapeBit != 0 {
		for _, b := range bodies {
			xf := b.GetTransform()
			for _, f := range b.GetFixtures() {
				world.drawShape(f, xf, bodyColor(b))
			}
		}
	}

	if flags&B2Draw_jointBit != 0 {
		for _, j := range world.GetJoints() {
			world.drawJoint(j)
		}
	}

	if flags&B2Draw_pairBit != 0 {
		color := MakeB2Color(0.3, 0.9, 0.9)
		for _, c := range world.GetContacts() {
			cA := c.GetFixtureA().GetAABB(c.GetChildIndexA()).GetCenter()
			cB := c.GetFixtureB().GetAABB(c.GetChildIndexB()).GetCenter()
			draw.DrawSegment(cA, cB, color)
		}
	}

	if flags&B2Draw_aabbBit != 0 {
		color := MakeB2Color(0.9, 0.3, 0.9)
		bp := &world.contactManager.broadPhase

		for _, b := range bodies {
			if !b.IsEnabled() {
				continue
			}

			for _, f := range b.GetFixtures() {
				for _, proxy := range f.proxies {
					aabb := bp.GetFatAABB(proxy.proxyId)
					draw.DrawPolygon([]B2Vec2{
						MakeB2Vec2(aabb.LowerBound.X, aabb.LowerBound.Y),
						MakeB2Vec2(aabb.UpperBound.X, aabb.LowerBound.Y),
						MakeB2Vec2(aabb.UpperBound.X, aabb.UpperBound.Y),
						MakeB2Vec2(aabb.LowerBound.X, aabb.UpperBound.Y),
					}, color)
				}
			}
		}
	}

	if flags&B2Draw_centerOfMassBit != 0 {
		for _, b := range bodies {
			xf := b.GetTransform()
			xf.P = b.GetWorldCenter()
			draw.DrawTransform(xf)
		}
	}
}

func bodyColor(b *B2Body) B2Color {
	switch {
	case !b.IsEnabled():
		return MakeB2Color(0.5, 0.5, 0.3)
	case b.GetType() == B2_staticBody:
		return MakeB2Color(0.5, 0.9, 0.5)
	case b.GetType() == B2_kinematicBody:
		return MakeB2Color(0.5, 0.5, 0.9)
	case !b.IsAwake():
		return MakeB2Color(0.6, 0.6, 0.6)
	}
	return MakeB2Color(0.9, 0.7, 0.7)
}

func (world *B2World) drawShape(fixture *B2Fixture, xf B2Transform, color B2Color) {
	draw := world.debugDraw

	switch shape := fixture.GetShape().(type) {
	case *B2CircleShape:
		center := B2TransformVec2Mul(xf, shape.GetPosition())
		axis := B2RotVec2Mul(xf.Q, MakeB2Vec2(1.0, 0.0))
		draw.DrawSolidCircle(center, shape.GetRadius(), axis, color)

	case *B2EdgeShape:
		v1 := B2TransformVec2Mul(xf, shape.GetVertex1())
		v2 := B2TransformVec2Mul(xf, shape.GetVertex2())
		draw.DrawSegment(v1, v2, color)

		if !shape.IsOneSided() {
			draw.DrawPoint(v1, 4.0, color)
			draw.DrawPoint(v2, 4.0, color)
		}

	case *B2PolygonShape:
		local := shape.GetVertices()
		vertices := make([]B2Vec2, len(local))
		for i, v := range local {
			vertices[i] = B2TransformVec2Mul(xf, v)
		}
		draw.DrawSolidPolygon(vertices, color)
	}
}

func (world *B2World) drawJoint(joint B2Joint) {
	draw := world.debugDraw

	x1 := joint.GetBodyA().GetTransform().P
	x2 := joint.GetBodyB().GetTransform().P
	p1 := joint.GetAnchorA()
	p2 := joint.GetAnchorB()

	color := MakeB2Color(0.5, 0.8, 0.8)

	switch j := joint.(type) {
	case *B2DistanceJoint:
		draw.DrawSegment(p1, p2, color)

	case *B2PulleyJoint:
		s1 := j.GetGroundAnchorA()
		s2 := j.GetGroundAnchorB()
		draw.DrawSegment(s1, p1, color)
		draw.DrawSegment(s2, p2, color)
		draw.DrawSegment(s1, s2, color)

	case *B2MouseJoint:
		// Nothing; the target is drawn by the caller.

	default:
		draw.DrawSegment(x1, p1, color)
		draw.DrawSegment(p1, p2, color)
		draw.DrawSegment(x2, p2, color)
	}
}
