package box2d

import (
	"fmt"
)

const (
	// Used when crawling contact graph when forming islands.
	b2Contact_islandFlag uint32 = 1 << iota

	// Set when the shapes are touching.
	b2Contact_touchingFlag

	// This contact can be disabled (by user)
	b2Contact_enabledFlag

	// This contact needs filtering because a fixture filter was changed.
	b2Contact_filterFlag

	// This bullet contact had a TOI event
	b2Contact_bulletHitFlag

	// This contact has a valid TOI in toi
	b2Contact_toiFlag
)

// b2CollideFunc computes the manifold for a shape pair of fixed kinds.
type b2CollideFunc func(manifold *B2Manifold, shapeA B2Shape, xfA B2Transform, shapeB B2Shape, xfB B2Transform)

type b2ContactRegister struct {
	collide b2CollideFunc

	// primary is false when the pair is stored swapped, so that fixture A
	// always has the kind the collide routine expects first.
	primary bool
}

var b2ContactRegisters [b2Shape_Type_Count][b2Shape_Type_Count]b2ContactRegister

func init() {
	addType := func(fn b2CollideFunc, typeA, typeB B2ShapeType) {
		b2ContactRegisters[typeA][typeB] = b2ContactRegister{collide: fn, primary: true}
		if typeA != typeB {
			b2ContactRegisters[typeB][typeA] = b2ContactRegister{collide: fn, primary: false}
		}
	}

	addType(collideCircles, B2Shape_Type_Circle, B2Shape_Type_Circle)
	addType(collidePolygonAndCircle, B2Shape_Type_Polygon, B2Shape_Type_Circle)
	addType(collidePolygons, B2Shape_Type_Polygon, B2Shape_Type_Polygon)
	addType(collideEdgeAndCircle, B2Shape_Type_Edge, B2Shape_Type_Circle)
	addType(collideEdgeAndPolygon, B2Shape_Type_Edge, B2Shape_Type_Polygon)
	// Edges carry no area, edge/edge pairs never make contacts.
}

func collideCircles(manifold *B2Manifold, shapeA B2Shape, xfA B2Transform, shapeB B2Shape, xfB B2Transform) {
	B2CollideCircles(manifold, shapeA.(*B2CircleShape), xfA, shapeB.(*B2CircleShape), xfB)
}

func collidePolygonAndCircle(manifold *B2Manifold, shapeA B2Shape, xfA B2Transform, shapeB B2Shape, xfB B2Transform) {
	B2CollidePolygonAndCircle(manifold, shapeA.(*B2PolygonShape), xfA, shapeB.(*B2CircleShape), xfB)
}

func collidePolygons(manifold *B2Manifold, shapeA B2Shape, xfA B2Transform, shapeB B2Shape, xfB B2Transform) {
	B2CollidePolygons(manifold, shapeA.(*B2PolygonShape), xfA, shapeB.(*B2PolygonShape), xfB)
}

func collideEdgeAndCircle(manifold *B2Manifold, shapeA B2Shape, xfA B2Transform, shapeB B2Shape, xfB B2Transform) {
	B2CollideEdgeAndCircle(manifold, shapeA.(*B2EdgeShape), xfA, shapeB.(*B2CircleShape), xfB)
}

func collideEdgeAndPolygon(manifold *B2Manifold, shapeA B2Shape, xfA B2Transform, shapeB B2Shape, xfB B2Transform) {
	B2CollideEdgeAndPolygon(manifold, shapeA.(*B2EdgeShape), xfA, shapeB.(*B2PolygonShape), xfB)
}

// B2Contact manages contact between two fixture children. A contact exists
// for each overlapping fat AABB pair in the broad-phase (except if
// filtered). Therefore a contact may exist that has no contact points.
type B2Contact struct {
	id    B2ContactId
	world *B2World

	flags uint32

	fixtureA B2FixtureId
	fixtureB B2FixtureId

	indexA int
	indexB int

	bodyA B2BodyId
	bodyB B2BodyId

	manifold B2Manifold

	collide b2CollideFunc

	toiCount int
	toi      float64

	friction             float64
	restitution          float64
	restitutionThreshold float64

	tangentSpeed float64
}

// newB2Contact creates the contact for a fixture pair, swapping the pair
// when the collide routine expects the other order. It returns nil when
// the shape kinds never collide.
func newB2Contact(fixtureA *B2Fixture, indexA int, fixtureB *B2Fixture, indexB int) *B2Contact {
	typeA := fixtureA.GetType()
	typeB := fixtureB.GetType()

	register := b2ContactRegisters[typeA][typeB]
	if register.collide == nil {
		return nil
	}

	if !register.primary {
		fixtureA, fixtureB = fixtureB, fixtureA
		indexA, indexB = indexB, indexA
	}

	return &B2Contact{
		world:                fixtureA.world,
		flags:                b2Contact_enabledFlag,
		fixtureA:             fixtureA.id,
		fixtureB:             fixtureB.id,
		indexA:               indexA,
		indexB:               indexB,
		bodyA:                fixtureA.body,
		bodyB:                fixtureB.body,
		collide:              register.collide,
		friction:             mixFriction(fixtureA.friction, fixtureB.friction),
		restitution:          mixRestitution(fixtureA.restitution, fixtureB.restitution),
		restitutionThreshold: mixRestitutionThreshold(fixtureA.restitutionThreshold, fixtureB.restitutionThreshold),
	}
}

func (contact *B2Contact) Id() B2ContactId {
	return contact.id
}

// GetManifold returns the contact manifold. Do not modify the manifold
// unless you understand the internals of the engine.
func (contact *B2Contact) GetManifold() *B2Manifold {
	return &contact.manifold
}

// GetWorldManifold returns the manifold in world coordinates.
func (contact *B2Contact) GetWorldManifold() B2WorldManifold {
	bodyA := contact.GetBodyA()
	bodyB := contact.GetBodyB()
	shapeA := contact.GetFixtureA().GetShape()
	shapeB := contact.GetFixtureB().GetShape()

	var worldManifold B2WorldManifold
	worldManifold.Initialize(&contact.manifold, bodyA.GetTransform(), shapeA.GetRadius(), bodyB.GetTransform(), shapeB.GetRadius())
	return worldManifold
}

// IsTouching reports whether the shapes are touching. Sensor contacts
// touch when the shapes overlap.
func (contact *B2Contact) IsTouching() bool {
	return contact.flags&b2Contact_touchingFlag != 0
}

// SetEnabled enables or disables the contact. This can be used inside the
// pre-solve contact listener. The contact is only disabled for the current
// time step (or sub-step in continuous collisions).
func (contact *B2Contact) SetEnabled(flag bool) {
	if flag {
		contact.flags |= b2Contact_enabledFlag
	} else {
		contact.flags &^= b2Contact_enabledFlag
	}
}

func (contact *B2Contact) IsEnabled() bool {
	return contact.flags&b2Contact_enabledFlag != 0
}

func (contact *B2Contact) GetFixtureA() *B2Fixture {
	return contact.world.fixtures.get(contact.fixtureA.b2Handle)
}

func (contact *B2Contact) GetChildIndexA() int {
	return contact.indexA
}

func (contact *B2Contact) GetFixtureB() *B2Fixture {
	return contact.world.fixtures.get(contact.fixtureB.b2Handle)
}

func (contact *B2Contact) GetChildIndexB() int {
	return contact.indexB
}

func (contact *B2Contact) GetBodyA() *B2Body {
	return contact.world.bodies.get(contact.bodyA.b2Handle)
}

func (contact *B2Contact) GetBodyB() *B2Body {
	return contact.world.bodies.get(contact.bodyB.b2Handle)
}

// otherBody returns the body across the contact from the given one.
func (contact *B2Contact) otherBody(id B2BodyId) *B2Body {
	if contact.bodyA == id {
		return contact.GetBodyB()
	}
	return contact.GetBodyA()
}

// SetFriction overrides the default friction mixture. This value persists
// until set or reset.
func (contact *B2Contact) SetFriction(friction float64) {
	contact.friction = friction
}

func (contact *B2Contact) GetFriction() float64 {
	return contact.friction
}

func (contact *B2Contact) ResetFriction() {
	contact.friction = mixFriction(contact.GetFixtureA().friction, contact.GetFixtureB().friction)
}

// SetRestitution overrides the default restitution mixture. This value
// persists until set or reset.
func (contact *B2Contact) SetRestitution(restitution float64) {
	contact.restitution = restitution
}

func (contact *B2Contact) GetRestitution() float64 {
	return contact.restitution
}

func (contact *B2Contact) ResetRestitution() {
	contact.restitution = mixRestitution(contact.GetFixtureA().restitution, contact.GetFixtureB().restitution)
}

func (contact *B2Contact) SetRestitutionThreshold(threshold float64) {
	contact.restitutionThreshold = threshold
}

func (contact *B2Contact) GetRestitutionThreshold() float64 {
	return contact.restitutionThreshold
}

func (contact *B2Contact) ResetRestitutionThreshold() {
	contact.restitutionThreshold = mixRestitutionThreshold(contact.GetFixtureA().restitutionThreshold, contact.GetFixtureB().restitutionThreshold)
}

// SetTangentSpeed sets the desired tangent speed for a conveyor belt
// behavior. In meters per second.
func (contact *B2Contact) SetTangentSpeed(speed float64) {
	contact.tangentSpeed = speed
}

func (contact *B2Contact) GetTangentSpeed() float64 {
	return contact.tangentSpeed
}

// FlagForFiltering makes the next step re-run the pair filter for this
// contact.
func (contact *B2Contact) FlagForFiltering() {
	contact.flags |= b2Contact_filterFlag
}

func (contact *B2Contact) String() string {
	return fmt.Sprintf("contact(%s %s:%d %s:%d)", contact.id, contact.fixtureA, contact.indexA, contact.fixtureB, contact.indexB)
}

// update recomputes the manifold and the touching state, matching new
// points to old ones by feature key so cached impulses carry over.
func (contact *B2Contact) update(listener B2ContactListener) {
	oldManifold := contact.manifold

	// Re-enable this contact.
	contact.flags |= b2Contact_enabledFlag

	touching := false
	wasTouching := contact.IsTouching()

	fixtureA := contact.GetFixtureA()
	fixtureB := contact.GetFixtureB()
	sensor := fixtureA.isSensor || fixtureB.isSensor

	bodyA := contact.GetBodyA()
	bodyB := contact.GetBodyB()
	xfA := bodyA.xf
	xfB := bodyB.xf

	if sensor {
		touching = B2TestOverlapShapes(fixtureA.shape, contact.indexA, fixtureB.shape, contact.indexB, xfA, xfB)

		// Sensors don't generate manifolds.
		contact.manifold.PointCount = 0
	} else {
		contact.collide(&contact.manifold, fixtureA.shape, xfA, fixtureB.shape, xfB)
		touching = contact.manifold.PointCount > 0

		// Match old contact ids to new contact ids and copy the
		// stored impulses to warm start the solver.
		for i := 0; i < contact.manifold.PointCount; i++ {
			mp2 := &contact.manifold.Points[i]
			mp2.NormalImpulse = 0.0
			mp2.TangentImpulse = 0.0
			id2 := mp2.Id.Key()

			for j := 0; j < oldManifold.PointCount; j++ {
				mp1 := &oldManifold.Points[j]

				if mp1.Id.Key() == id2 {
					mp2.NormalImpulse = mp1.NormalImpulse
					mp2.TangentImpulse = mp1.TangentImpulse
					break
				}
			}
		}

		if touching != wasTouching {
			bodyA.SetAwake(true)
			bodyB.SetAwake(true)
		}
	}

	if touching {
		contact.flags |= b2Contact_touchingFlag
	} else {
		contact.flags &^= b2Contact_touchingFlag
	}

	if listener == nil {
		return
	}

	if !wasTouching && touching {
		listener.BeginContact(contact)
	}

	if wasTouching && !touching {
		listener.EndContact(contact)
	}

	if !sensor && touching {
		listener.PreSolve(contact, oldManifold)
	}
}
