package box2d

// B2DestructionListener is notified when fixtures and joints are
// implicitly destroyed because their body or a joint they depend on was
// destroyed. Explicit destruction is not reported.
type B2DestructionListener interface {
	// Called when any fixture is about to be destroyed due
	// to the destruction of its parent body.
	SayGoodbyeToFixture(fixture *B2Fixture)

	// Called when any joint is about to be destroyed due
	// to the destruction of one of its attached bodies or joints.
	SayGoodbyeToJoint(joint B2Joint)
}

// B2ContactFilter vetoes contact creation between fixtures.
type B2ContactFilter interface {
	// Return true if contact calculations should be performed between these two shapes.
	ShouldCollide(fixtureA *B2Fixture, fixtureB *B2Fixture) bool
}

// B2DefaultContactFilter applies the fixtures' filter data.
type B2DefaultContactFilter struct{}

func (B2DefaultContactFilter) ShouldCollide(fixtureA *B2Fixture, fixtureB *B2Fixture) bool {
	return B2ShouldCollide(fixtureA.GetFilterData(), fixtureB.GetFilterData())
}

// B2ContactImpulse is used for reporting. Impulses are used instead of
// forces because sub-step forces may approach infinity for rigid body
// collisions. These match up one-to-one with the contact points in
// B2Manifold.
type B2ContactImpulse struct {
	NormalImpulses  [B2_maxManifoldPoints]float64
	TangentImpulses [B2_maxManifoldPoints]float64
	Count           int
}

// B2ContactListener receives contact events. Callbacks run on the goroutine
// that called Step, with the world locked.
type B2ContactListener interface {
	// Called when two fixtures begin to touch.
	BeginContact(contact *B2Contact)

	// Called when two fixtures cease to touch.
	EndContact(contact *B2Contact)

	// PreSolve is called after a touching, non-sensor contact is updated.
	// This allows you to inspect a contact before it goes to the solver. If
	// you are careful, you can modify the contact manifold (e.g. disable
	// contact). A copy of the old manifold is provided so that you can
	// detect changes.
	// Note: if you set the number of contact points to zero, you will not
	// get an EndContact callback. However, you may get a BeginContact callback
	// the next step.
	PreSolve(contact *B2Contact, oldManifold B2Manifold)

	// PostSolve lets you inspect a contact after the solver is finished.
	// This is useful for inspecting impulses.
	// Note: the contact manifold does not include time of impact impulses, which can be
	// arbitrarily large if the sub-step is small. Hence the impulse is provided explicitly
	// in a separate data structure.
	// Note: this is only called for contacts that are touching, solid, and awake.
	PostSolve(contact *B2Contact, impulse *B2ContactImpulse)
}

// B2ContactListenerFuncs adapts plain functions to B2ContactListener.
// Nil fields are ignored.
type B2ContactListenerFuncs struct {
	OnBeginContact func(contact *B2Contact)
	OnEndContact   func(contact *B2Contact)
	OnPreSolve     func(contact *B2Contact, oldManifold B2Manifold)
	OnPostSolve    func(contact *B2Contact, impulse *B2ContactImpulse)
}

func (l B2ContactListenerFuncs) BeginContact(contact *B2Contact) {
	if l.OnBeginContact != nil {
		l.OnBeginContact(contact)
	}
}

func (l B2ContactListenerFuncs) EndContact(contact *B2Contact) {
	if l.OnEndContact != nil {
		l.OnEndContact(contact)
	}
}

func (l B2ContactListenerFuncs) PreSolve(contact *B2Contact, oldManifold B2Manifold) {
	if l.OnPreSolve != nil {
		l.OnPreSolve(contact, oldManifold)
	}
}

func (l B2ContactListenerFuncs) PostSolve(contact *B2Contact, impulse *B2ContactImpulse) {
	if l.OnPostSolve != nil {
		l.OnPostSolve(contact, impulse)
	}
}

// B2QueryCallback is called for each fixture found in an AABB query.
// Return false to terminate the query.
type B2QueryCallback func(fixture *B2Fixture) bool

// B2RayCastCallback is called for each fixture found in the query. You
// control how the ray cast proceeds by returning a float:
// return -1: ignore this fixture and continue
// return 0: terminate the ray cast
// return fraction: clip the ray to this point
// return 1: don't clip the ray and continue
type B2RayCastCallback func(fixture *B2Fixture, point B2Vec2, normal B2Vec2, fraction float64) float64

// B2Color is an RGBA color with components in [0,1].
type B2Color struct {
	R, G, B, A float64
}

func MakeB2Color(r, g, b float64) B2Color {
	return B2Color{R: r, G: g, B: b, A: 1.0}
}

// Debug draw flags.
const (
	B2Draw_shapeBit        uint32 = 0x0001 // draw shapes
	B2Draw_jointBit        uint32 = 0x0002 // draw joint connections
	B2Draw_aabbBit         uint32 = 0x0004 // draw axis aligned bounding boxes
	B2Draw_pairBit         uint32 = 0x0008 // draw broad-phase pairs
	B2Draw_centerOfMassBit uint32 = 0x0010 // draw center of mass frame
)

// B2Draw is implemented to receive debug drawing from B2World.DebugDraw.
// Drawing is purely observational.
type B2Draw interface {
	// GetFlags returns the drawing flags.
	GetFlags() uint32

	// Draw a closed polygon provided in CCW order.
	DrawPolygon(vertices []B2Vec2, color B2Color)

	// Draw a solid closed polygon provided in CCW order.
	DrawSolidPolygon(vertices []B2Vec2, color B2Color)

	// Draw a circle.
	DrawCircle(center B2Vec2, radius float64, color B2Color)

	// Draw a solid circle.
	DrawSolidCircle(center B2Vec2, radius float64, axis B2Vec2, color B2Color)

	// Draw a line segment.
	DrawSegment(p1, p2 B2Vec2, color B2Color)

	// Draw a transform. Choose your own length scale.
	DrawTransform(xf B2Transform)

	// Draw a point.
	DrawPoint(p B2Vec2, size float64, color B2Color)
}
